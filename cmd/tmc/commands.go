package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/tmcoach/board/internal/config"
	"github.com/tmcoach/board/internal/server"
	"github.com/tmcoach/board/pkg/core"
)

// NewCmd creates a project with one empty step.
type NewCmd struct {
	Name        string `arg:"" help:"Project name"`
	Orientation string `enum:"landscape,portrait" default:"landscape" help:"Initial pitch orientation (landscape, portrait)"`
}

func (c *NewCmd) Run(a *app) error {
	svc, err := a.Projects()
	if err != nil {
		return err
	}
	ctx := context.Background()
	doc, err := svc.Create(ctx, c.Name)
	if err != nil {
		return err
	}
	if core.Orientation(c.Orientation) != doc.PitchConfig.Orientation {
		if _, err := svc.Rotate(ctx, c.Name, core.Orientation(c.Orientation)); err != nil {
			return err
		}
	}
	fmt.Fprintf(a.out, "Created %s\n", c.Name)
	return nil
}

// ListCmd lists the stored projects.
type ListCmd struct{}

func (c *ListCmd) Run(a *app) error {
	svc, err := a.Projects()
	if err != nil {
		return err
	}
	infos, err := svc.List(context.Background())
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tSIZE\tUPDATED\tCHECKSUM")
	for _, info := range infos {
		sum := info.Checksum
		if len(sum) > 12 {
			sum = sum[:12]
		}
		fmt.Fprintf(w, "%s\t%d\t%s\t%s\n", info.Name, info.Size, info.UpdatedAt.Format(time.RFC3339), sum)
	}
	return w.Flush()
}

// InfoCmd prints a summary of one project.
type InfoCmd struct {
	Name string `arg:"" help:"Project name"`
}

func (c *InfoCmd) Run(a *app) error {
	svc, err := a.Projects()
	if err != nil {
		return err
	}
	doc, err := svc.Load(context.Background(), c.Name)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "Name:\t%s\n", doc.Name)
	fmt.Fprintf(w, "Version:\t%d\n", doc.Version)
	fmt.Fprintf(w, "Created:\t%s\n", doc.CreatedAt.Format(time.RFC3339))
	fmt.Fprintf(w, "Updated:\t%s\n", doc.UpdatedAt.Format(time.RFC3339))
	fmt.Fprintf(w, "Pitch:\t%gx%g %s\n", doc.PitchConfig.Width, doc.PitchConfig.Height, doc.PitchConfig.Orientation)
	fmt.Fprintf(w, "Teams:\t%s vs %s\n", doc.TeamSettings.Home.Name, doc.TeamSettings.Away.Name)
	fmt.Fprintf(w, "Steps:\t%d (current %d)\n", len(doc.Steps), doc.CurrentStepIndex+1)
	for i, step := range doc.Steps {
		fmt.Fprintf(w, "  %d. %s\t%v\t%s\n", i+1, step.Name, step.Duration.Duration(), elementSummary(step.Elements))
	}
	return w.Flush()
}

// elementSummary renders element counts per kind, e.g. "2 ball, 11 player"
func elementSummary(elements []core.Element) string {
	if len(elements) == 0 {
		return "empty"
	}
	counts := map[core.Kind]int{}
	for _, e := range elements {
		counts[e.Kind()]++
	}
	kinds := make([]string, 0, len(counts))
	for k := range counts {
		kinds = append(kinds, string(k))
	}
	sort.Strings(kinds)
	parts := make([]string, len(kinds))
	for i, k := range kinds {
		parts[i] = fmt.Sprintf("%d %s", counts[core.Kind(k)], k)
	}
	return strings.Join(parts, ", ")
}

// RotateCmd switches the pitch orientation, transforming every element.
type RotateCmd struct {
	Name string `arg:"" help:"Project name"`
	To   string `required:"" enum:"landscape,portrait" help:"Target orientation (landscape, portrait)"`
}

func (c *RotateCmd) Run(a *app) error {
	svc, err := a.Projects()
	if err != nil {
		return err
	}
	if _, err := svc.Rotate(context.Background(), c.Name, core.Orientation(c.To)); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "%s is now %s\n", c.Name, c.To)
	return nil
}

// MigrateCmd upgrades every stored project.
type MigrateCmd struct{}

func (c *MigrateCmd) Run(a *app) error {
	svc, err := a.Projects()
	if err != nil {
		return err
	}
	migrated, failed, err := svc.MigrateAll(context.Background())
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Migrated %d project(s), %d failed\n", migrated, failed)
	if failed > 0 {
		return fmt.Errorf("%d project(s) could not be decoded", failed)
	}
	return nil
}

// FrameCmd prints the interpolated board as JSON.
type FrameCmd struct {
	Name string        `arg:"" help:"Project name"`
	At   time.Duration `default:"0s" help:"Elapsed playback time, e.g. 2.5s"`
}

func (c *FrameCmd) Run(a *app) error {
	svc, err := a.Projects()
	if err != nil {
		return err
	}
	frame, err := svc.FrameAt(context.Background(), c.Name, c.At)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(a.out)
	enc.SetIndent("", "  ")
	return enc.Encode(frame)
}

// DeleteCmd removes a stored project.
type DeleteCmd struct {
	Name string `arg:"" help:"Project name"`
}

func (c *DeleteCmd) Run(a *app) error {
	svc, err := a.Projects()
	if err != nil {
		return err
	}
	if err := svc.Delete(context.Background(), c.Name); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Deleted %s\n", c.Name)
	return nil
}

// PushCmd uploads projects to the configured server. Arguments naming an
// existing file are uploaded as project files; anything else is exported
// from the local store.
type PushCmd struct {
	Projects []string `arg:"" help:"Project names or project files"`
}

func (c *PushCmd) Run(a *app) error {
	ctx := context.Background()
	client := a.Client()
	if err := client.Healthcheck(); err != nil {
		return err
	}

	for _, p := range c.Projects {
		if fi, err := os.Stat(p); err == nil && fi.Mode().IsRegular() {
			name, err := client.PushFile(ctx, p)
			if err != nil {
				return fmt.Errorf("push %s: %w", p, err)
			}
			fmt.Fprintf(a.out, "Pushed %s\n", name)
			continue
		}

		svc, err := a.Projects()
		if err != nil {
			return err
		}
		data, err := svc.Export(ctx, p)
		if err != nil {
			return err
		}
		if err := client.Push(ctx, p, data); err != nil {
			return fmt.Errorf("push %s: %w", p, err)
		}
		fmt.Fprintf(a.out, "Pushed %s\n", p)
	}
	return nil
}

// PullCmd downloads a project into the local store, or into a file with --out.
type PullCmd struct {
	Name string `arg:"" help:"Project name"`
	Out  string `type:"path" help:"Write the document to this file instead of the store"`
}

func (c *PullCmd) Run(a *app) error {
	ctx := context.Background()
	data, err := a.Client().Pull(ctx, c.Name)
	if err != nil {
		return err
	}

	if c.Out != "" {
		if err := os.WriteFile(c.Out, data, 0o644); err != nil {
			return fmt.Errorf("failed to write %s: %w", c.Out, err)
		}
		fmt.Fprintf(a.out, "Pulled %s to %s\n", c.Name, c.Out)
		return nil
	}

	svc, err := a.Projects()
	if err != nil {
		return err
	}
	if _, err := svc.Import(ctx, c.Name, data); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Pulled %s\n", c.Name)
	return nil
}

// ServeCmd runs the API until interrupted.
type ServeCmd struct {
	Addr   string `help:"Listen address, overrides server.addr"`
	Origin string `help:"Allowed CORS origin"`
}

func (c *ServeCmd) Run(a *app) error {
	svc, err := a.Projects()
	if err != nil {
		return err
	}
	cfg := config.GetServerConfig()
	if c.Addr != "" {
		cfg.Addr = c.Addr
	}
	if cfg.APIKey == "" {
		a.log.Warn("server.apiKey is empty, the API is unauthenticated")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv, err := server.New(server.Dependencies{
		Projects: svc,
		Logger:   a.log,
		Config:   cfg,
		Origin:   c.Origin,
	})
	if err != nil {
		return err
	}
	return srv.Run(ctx)
}

// VersionCmd prints the version.
type VersionCmd struct{}

func (c *VersionCmd) Run(a *app) error {
	fmt.Fprintf(a.out, "tmc %s\n", version)
	return nil
}
