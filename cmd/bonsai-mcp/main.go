package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/tliron/commonlog"
	_ "github.com/tliron/commonlog/simple"

	mcpadapter "bonsai/internal/adapters/mcp"
	"bonsai/internal/config"
	"bonsai/internal/service"
)

func main() {
	configFlag := flag.String("config", "", "config file (yaml or toml)")
	dbFlag := flag.String("db", "", "path to the history database")
	flag.Parse()

	cfg, err := config.Load(*configFlag)
	if err != nil {
		log.Fatalf("bonsai-mcp: %v", err)
	}
	if *dbFlag != "" {
		cfg.DatabasePath = *dbFlag
	}

	// stdout carries the MCP protocol
	logFile := cfg.LogFile
	if logFile == "" {
		logFile = filepath.Join(filepath.Dir(cfg.DatabaseFile()), "bonsai-mcp.log")
	}
	logFile = config.ExpandHome(logFile)
	os.MkdirAll(filepath.Dir(logFile), 0o755)
	commonlog.Configure(cfg.Verbosity, &logFile)

	svc, err := service.New(cfg)
	if err != nil {
		log.Fatalf("bonsai-mcp: %v", err)
	}
	defer svc.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go func() {
		if err := svc.Run(ctx); err != nil {
			commonlog.GetLogger("bonsai.mcp").Errorf("service stopped: %s", err)
		}
	}()

	mcpServer := server.NewMCPServer(
		"bonsai-mcp",
		"0.1.0",
		server.WithToolCapabilities(true),
	)

	mcpServer.AddTool(
		mcp.NewTool("ping",
			mcp.WithDescription("Health check, returns pong"),
		),
		func(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return mcp.NewToolResultText("pong"), nil
		},
	)

	mcpadapter.RegisterReadTools(mcpServer, svc.Navigator(), svc.Directory())
	mcpadapter.RegisterWriteTools(mcpServer, svc.Navigator())

	if err := server.ServeStdio(mcpServer); err != nil {
		log.Fatalf("bonsai-mcp: %v", err)
	}
}
