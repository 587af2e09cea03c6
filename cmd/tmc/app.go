package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/tmcoach/board/internal/api"
	"github.com/tmcoach/board/internal/config"
	"github.com/tmcoach/board/internal/document"
	"github.com/tmcoach/board/internal/logging"
	intOtel "github.com/tmcoach/board/internal/otel"
	"github.com/tmcoach/board/internal/project"
	"github.com/tmcoach/board/internal/storage"
	"github.com/tmcoach/board/internal/timeline"
)

const appName = "tmc"

// app is the runtime shared by the commands. The store is opened on first
// use so commands that only talk to a server never touch it.
type app struct {
	out   io.Writer
	log   *slog.Logger
	dbLog zerolog.Logger

	logs  *logging.SlogManager
	otel  *intOtel.Provider
	files []*os.File

	store    storage.Backend
	projects *project.Service
}

func newApp(g Globals, out io.Writer) (*app, error) {
	if err := config.Load(g.ConfigDir); err != nil {
		return nil, err
	}
	level := config.GetString("logLevel")
	if g.LogLevel != "" {
		level = g.LogLevel
	}

	a := &app{out: out, logs: logging.NewSlogManager()}
	start := time.Now()
	logsDir := config.GetString("logsDir")

	var logFile io.Writer
	if g.LogFile {
		f, err := a.openLog(logsDir, appName, start)
		if err != nil {
			return nil, err
		}
		logFile = f
	}

	otelCfg := config.GetOTelConfig()
	if otelCfg.Enabled {
		cfg := intOtel.Config{
			Enabled:      true,
			ServiceName:  otelCfg.ServiceName,
			BatchTimeout: otelCfg.BatchTimeout,
			Endpoint:     otelCfg.Endpoint,
			Insecure:     otelCfg.Insecure,
		}
		f, err := a.openLog(logsDir, appName+".otel", start)
		if err != nil {
			return nil, err
		}
		cfg.LogWriter = f
		if otelCfg.Metrics {
			if cfg.MetricWriter, err = a.openLog(logsDir, appName+".metrics", start); err != nil {
				return nil, err
			}
		}
		if a.otel, err = intOtel.New(cfg); err != nil {
			return nil, fmt.Errorf("failed to initialize OTel provider: %w", err)
		}
	}

	opts := logging.Options{Level: level, Console: os.Stderr, File: logFile}
	if a.otel != nil {
		opts.Provider = a.otel.LoggerProvider()
	}
	a.logs.Setup(opts)
	a.log = a.logs.Logger()

	dbOut := io.Writer(os.Stderr)
	if logFile != nil {
		dbOut = logFile
	}
	a.dbLog = logging.NewZerolog(dbOut, level)

	if used := config.Used(); used != "" {
		a.log.Debug("Loaded config", "path", used)
	}
	return a, nil
}

func (a *app) openLog(dir, name string, start time.Time) (*os.File, error) {
	f, err := logging.OpenLogFile(dir, name, start)
	if err != nil {
		return nil, err
	}
	a.files = append(a.files, f)
	return f, nil
}

func newCodec() *document.Codec {
	return document.NewCodec(document.Dependencies{
		Defaults: document.Defaults{
			Pitch: config.GetPitchConfig(),
			Teams: config.GetTeamSettings(),
		},
		Timeline: timeline.New(config.GetTimelineConfig(), nil),
	})
}

// Projects opens the configured store and returns the project service
func (a *app) Projects() (*project.Service, error) {
	if a.projects != nil {
		return a.projects, nil
	}

	store, err := createStorageBackend(config.GetStorageConfig(), config.GetAPIConfig(), a.log, a.dbLog)
	if err != nil {
		return nil, err
	}
	if err := store.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize storage backend: %w", err)
	}
	a.store = store

	svc, err := project.New(project.Dependencies{
		Store:  store,
		Codec:  newCodec(),
		Logger: a.log,
	})
	if err != nil {
		return nil, err
	}
	a.projects = svc
	return svc, nil
}

// Client returns an API client for the configured server
func (a *app) Client() *api.Client {
	cfg := config.GetAPIConfig()
	return api.New(cfg.ServerURL, cfg.APIKey)
}

// Close releases the store and flushes telemetry
func (a *app) Close() error {
	var errs []error
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close storage: %w", err))
		}
		if exp, ok := a.store.(storage.Exporter); ok {
			for _, p := range exp.ExportedPaths() {
				a.log.Info("Exported project", "path", p)
			}
		}
		a.store = nil
	}
	if a.otel != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := a.logs.Flush(ctx); err != nil {
			errs = append(errs, fmt.Errorf("flush logs: %w", err))
		}
		if err := a.otel.Shutdown(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	for _, f := range a.files {
		_ = f.Close()
	}
	a.files = nil
	return errors.Join(errs...)
}
