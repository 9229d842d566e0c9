package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"bonsai/internal/service"
)

var serveStdio bool

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the reconciliation service",
	Long: `Run the reconciliation service.

By default the browser connects over a websocket at /ws on the listen
address. With --stdio, navigation facts are read as JSON lines from stdin
and commands are written as JSON lines to stdout; the service stops when
stdin is closed.

Examples:
  bonsai-cli serve
  bonsai-cli serve --stdio < events.jsonl`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		var opts []service.Option
		if serveStdio {
			opts = append(opts, service.WithStdio(os.Stdin, os.Stdout))
		}
		svc, err := service.New(cfg, opts...)
		if err != nil {
			return err
		}
		defer svc.Close()

		return svc.Run(ctx)
	},
}

func init() {
	serveCmd.Flags().BoolVar(&serveStdio, "stdio", false, "exchange JSON lines over stdin/stdout instead of a websocket")
	rootCmd.AddCommand(serveCmd)
}
