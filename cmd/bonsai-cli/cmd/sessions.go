package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "List recorded sessions",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := GetStore()
		if err != nil {
			return err
		}
		sessions, err := s.Sessions(context.Background())
		if err != nil {
			return err
		}
		if len(sessions) == 0 {
			fmt.Println("No sessions recorded")
			return nil
		}
		for _, info := range sessions {
			fmt.Printf("%s %s %d events\n", info.ID, info.Started.Format(time.DateTime), info.Entries)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(sessionsCmd)
}
