package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/standardbeagle/jls/internal/debug"
	"github.com/standardbeagle/jls/internal/filestore"
	"github.com/standardbeagle/jls/internal/protocol"
	"github.com/standardbeagle/jls/internal/server"
	"github.com/standardbeagle/jls/internal/watch"
)

func main() {
	app := &cli.App{
		Name:    "jls",
		Usage:   "Java language server over stdio",
		Version: server.Version,
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "log-file",
				Usage: "Write logs to a file under the temp dir instead of stderr",
			},
			&cli.BoolFlag{
				Name:  "watch",
				Usage: "Watch the workspace for external file changes",
				Value: true,
			},
		},
		Action: serve,
	}
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "jls: %v\n", err)
		os.Exit(1)
	}
}

func serve(c *cli.Context) error {
	if c.Bool("log-file") {
		path, err := debug.InitLogFile()
		if err != nil {
			return err
		}
		defer debug.Close()
		fmt.Fprintf(os.Stderr, "jls: logging to %s\n", path)
	}

	srv := protocol.NewServer(os.Stdin, os.Stdout)
	client := protocol.NewClient(srv)
	store := filestore.NewStore()
	s := server.New(client, store)
	s.Register(srv)

	var watcher *watch.Watcher
	if c.Bool("watch") {
		s.OnInitialized(func(root string) {
			w, err := watch.New(root, s.ExternalFileEvent)
			if err != nil {
				debug.Warnf("file watcher: %v", err)
				return
			}
			if err := w.Start(); err != nil {
				debug.Warnf("file watcher: %v", err)
				return
			}
			watcher = w
		})
	}
	defer func() {
		if watcher != nil {
			watcher.Stop()
		}
	}()

	debug.Infof("jls %s serving on stdio", server.Version)
	return srv.Serve()
}
