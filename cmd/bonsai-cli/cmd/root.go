package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/tliron/commonlog"
	_ "github.com/tliron/commonlog/simple"

	"bonsai/internal/adapters/sqlite"
	"bonsai/internal/config"
)

var (
	configPath string
	dbPath     string
	verbose    int

	cfg   config.Config
	store *sqlite.Store
)

var rootCmd = &cobra.Command{
	Use:   "bonsai-cli",
	Short: "CLI for the bonsai browsing-history engine",
	Long: `bonsai-cli runs the history reconciliation service and inspects the
journal it records.

The service keeps a tree of visited pages per lineage, tracks which node
every viewport is on, and reconciles back/forward requests with the
navigation facts reported by the browser.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Skip initialization for help commands
		if cmd.Name() == "help" || cmd.Name() == "completion" {
			return nil
		}

		var err error
		cfg, err = config.Load(configPath)
		if err != nil {
			return err
		}
		if dbPath != "" {
			cfg.DatabasePath = dbPath
		}
		if cmd.Flags().Changed("verbose") {
			cfg.Verbosity = verbose
		}
		configureLogging(cfg)
		return nil
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		if store != nil {
			return store.Close()
		}
		return nil
	},
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "config file (yaml or toml)")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "path to the history database")
	rootCmd.PersistentFlags().CountVarP(&verbose, "verbose", "v", "increase log verbosity")
}

func configureLogging(cfg config.Config) {
	if cfg.LogFile == "" {
		commonlog.Configure(cfg.Verbosity, nil)
		return
	}
	path := config.ExpandHome(cfg.LogFile)
	commonlog.Configure(cfg.Verbosity, &path)
}

// GetStore opens the database on first use
func GetStore() (*sqlite.Store, error) {
	if store != nil {
		return store, nil
	}
	s, err := sqlite.Open(cfg.DatabaseFile())
	if err != nil {
		return nil, err
	}
	store = s
	return store, nil
}
