package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/tliron/commonlog"
	_ "github.com/tliron/commonlog/simple"

	"bonsai/internal/adapters/browser"
	"bonsai/internal/adapters/tui"
	"bonsai/internal/config"
	"bonsai/internal/service"
)

func main() {
	configFlag := flag.String("config", "", "config file (yaml or toml)")
	flag.Parse()

	cfg, err := config.Load(*configFlag)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	// The terminal belongs to the UI
	logFile := cfg.LogFile
	if logFile == "" {
		logFile = filepath.Join(filepath.Dir(cfg.DatabaseFile()), "bonsai.log")
	}
	logFile = config.ExpandHome(logFile)
	os.MkdirAll(filepath.Dir(logFile), 0o755)
	commonlog.Configure(cfg.Verbosity, &logFile)

	svc, err := service.New(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer svc.Close()
	if err := svc.Listen(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- svc.Run(ctx) }()

	app := tui.NewApp(svc.Navigator(), svc.Directory(), browser.NewOpener())
	p := tea.NewProgram(app, tea.WithAltScreen())

	_, runErr := p.Run()
	cancel()
	if err := <-done; err != nil {
		commonlog.GetLogger("bonsai").Errorf("service stopped: %s", err)
	}
	if runErr != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", runErr)
		os.Exit(1)
	}
}
