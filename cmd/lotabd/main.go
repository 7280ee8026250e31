// Command lotabd is the background daemon: it bridges the browser
// extension's WebSocket connection and the local GUI's Unix-domain
// socket connection through the broker (spec.md §1, §6). Flag parsing
// follows the teacher's flag.NewFlagSet + os.Args[1:] style from its
// root main.go.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/0000mz/lotab/internal/applog"
	"github.com/0000mz/lotab/internal/config"
	"github.com/0000mz/lotab/internal/engine"
)

func main() {
	os.Exit(run())
}

func run() int {
	fs := flag.NewFlagSet("lotabd", flag.ContinueOnError)
	logLevel := fs.String("loglevel", "info", "log level: info or trace")
	appPath := fs.String("app-path", "", "path to the GUI executable to spawn")
	daemonManifestPath := fs.String("daemon-manifest-path", "", "path to the daemon's manifest (not interpreted by the broker)")
	guiManifestPath := fs.String("gui-manifest-path", "", "path to the GUI's manifest (not interpreted by the broker)")
	allowedBrowserID := fs.String("allowed-browser-id", "", "activates the identity filter when set")
	configPath := fs.String("config", "", "path to config.toml (default ${HOME}/.lotab/config.toml)")
	if err := fs.Parse(os.Args[1:]); err != nil {
		return 1
	}
	_ = daemonManifestPath
	_ = guiManifestPath

	switch *logLevel {
	case "trace":
		applog.SetLevel(applog.LevelTrace)
	case "info":
		applog.SetLevel(applog.LevelInfo)
	default:
		fmt.Fprintf(os.Stderr, "lotabd: invalid --loglevel %q (want info or trace)\n", *logLevel)
		return 1
	}

	logDir, err := logDirectory()
	if err != nil {
		fmt.Fprintf(os.Stderr, "lotabd: %v\n", err)
		return 1
	}
	if err := applog.Init(logDir); err != nil {
		fmt.Fprintf(os.Stderr, "lotabd: init log: %v\n", err)
		return 1
	}
	defer applog.Close()

	path := *configPath
	if path == "" {
		path, err = config.DefaultPath()
		if err != nil {
			fmt.Fprintf(os.Stderr, "lotabd: %v\n", err)
			return 1
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "lotabd: invalid config: %v\n", err)
		return 1
	}

	eng := engine.New(cfg, engine.Options{
		AllowedBrowserID: *allowedBrowserID,
		AppPath:          *appPath,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := eng.Run(ctx); err != nil && ctx.Err() == nil {
		fmt.Fprintf(os.Stderr, "lotabd: %v\n", err)
		return 1
	}
	return 0
}

func logDirectory() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}
	return filepath.Join(home, ".lotab", "logs"), nil
}
