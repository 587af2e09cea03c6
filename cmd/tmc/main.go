// Command tmc manages tactics board projects: it creates, inspects, rotates
// and migrates projects in the configured store, syncs them with a server
// and runs that server.
package main

import (
	"os"

	"github.com/alecthomas/kong"
)

const version = "0.4.0"

// Globals are flags shared by every command
type Globals struct {
	ConfigDir string `name:"config-dir" short:"c" default:"." type:"path" help:"Directory holding tmc.cfg.json"`
	LogLevel  string `name:"log-level" help:"Override the configured log level"`
	LogFile   bool   `name:"log-file" help:"Also write logs to a session file in logsDir"`
}

// CLI defines the command-line interface for tmc.
type CLI struct {
	Globals

	New     NewCmd     `cmd:"" help:"Create an empty project"`
	List    ListCmd    `cmd:"" help:"List stored projects"`
	Info    InfoCmd    `cmd:"" help:"Show a project summary"`
	Rotate  RotateCmd  `cmd:"" help:"Switch a project between landscape and portrait"`
	Migrate MigrateCmd `cmd:"" help:"Rewrite every stored project at the current document version"`
	Frame   FrameCmd   `cmd:"" help:"Print the interpolated board at a playback time"`
	Delete  DeleteCmd  `cmd:"" help:"Delete a stored project"`
	Push    PushCmd    `cmd:"" help:"Upload projects or project files to a server"`
	Pull    PullCmd    `cmd:"" help:"Download a project from a server"`
	Serve   ServeCmd   `cmd:"" help:"Run the HTTP and websocket API"`
	Version VersionCmd `cmd:"" help:"Print version information"`
}

func main() {
	var cli CLI
	ctx := kong.Parse(&cli,
		kong.Name("tmc"),
		kong.Description("Tactics board project tool"),
		kong.UsageOnError(),
	)

	a, err := newApp(cli.Globals, os.Stdout)
	ctx.FatalIfErrorf(err)

	err = ctx.Run(a)
	if cerr := a.Close(); err == nil {
		err = cerr
	}
	ctx.FatalIfErrorf(err)
}
