// Command lotab-gui is the local GUI client: a bubbletea program that
// dials lotabd's Unix-domain socket and renders the tab/task list the
// keyboard mode state machine drives (spec.md §1, §4.8). Flag parsing
// and tea.NewProgram wiring follow the teacher's root main.go.
package main

import (
	"flag"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/0000mz/lotab/internal/config"
	"github.com/0000mz/lotab/internal/tui"
)

func main() {
	os.Exit(run())
}

func run() int {
	fs := flag.NewFlagSet("lotab-gui", flag.ContinueOnError)
	configPath := fs.String("config", "", "path to config.toml (default ${HOME}/.lotab/config.toml)")
	socketPath := fs.String("socket", "", "path to lotabd's UDS socket (default: config-resolved path)")
	if err := fs.Parse(os.Args[1:]); err != nil {
		return 1
	}

	path := *configPath
	if path == "" {
		var err error
		path, err = config.DefaultPath()
		if err != nil {
			fmt.Fprintf(os.Stderr, "lotab-gui: %v\n", err)
			return 1
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "lotab-gui: invalid config: %v\n", err)
		return 1
	}

	sock := *socketPath
	if sock == "" {
		sock = cfg.UdsSocketPath
	}

	model := tui.New(sock)
	p := tea.NewProgram(model)

	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "lotab-gui: %v\n", err)
		return 1
	}
	return 0
}
