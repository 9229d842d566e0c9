package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"bonsai/internal/adapters/jsonl"
	"bonsai/internal/application"
	"bonsai/internal/application/commands"
)

var (
	replaySession string
	replayFile    string
)

var replayCmd = &cobra.Command{
	Use:   "replay",
	Short: "Rebuild history from a recorded session",
	Long: `Rebuild the history tree by reapplying a recorded session and print
the result. Without flags the most recent past session is used.

Examples:
  bonsai-cli replay
  bonsai-cli replay --session 6f1c0c4e-...
  bonsai-cli replay --file events.jsonl`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		result, err := loadHistory(context.Background())
		if err != nil {
			return err
		}
		fmt.Printf("applied %d, dropped %d\n", result.Applied, result.Dropped)
		printOutline(result.Snapshot)
		return nil
	},
}

func init() {
	for _, c := range []*cobra.Command{replayCmd, treeCmd, leavesCmd, headsCmd} {
		c.Flags().StringVarP(&replaySession, "session", "s", "", "session id (default: most recent)")
		c.Flags().StringVarP(&replayFile, "file", "f", "", "replay a JSON lines event file instead of the journal")
	}
	rootCmd.AddCommand(replayCmd)
}

// loadHistory replays either the event file or a journaled session
func loadHistory(ctx context.Context) (*commands.ReplayResult, error) {
	if replayFile != "" {
		f, err := os.Open(replayFile)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		events, err := jsonl.ReadEvents(f)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", replayFile, err)
		}
		return commands.ReplayEvents(ctx, events), nil
	}

	s, err := GetStore()
	if err != nil {
		return nil, err
	}
	session := replaySession
	if session == "" {
		session, err = s.LatestSession(ctx)
		if err != nil {
			return nil, err
		}
		if session == "" {
			return nil, fmt.Errorf("no recorded sessions in %s", s.Path())
		}
	}
	return commands.NewReplayCommand(s.ForSession(session)).Execute(ctx)
}

func printOutline(snap *application.Snapshot) {
	active := snap.ActiveViewport()
	for _, e := range snap.Outline() {
		indent := strings.Repeat("  ", e.Depth)
		line := fmt.Sprintf("%s%s %s", indent, e.Node.ID, e.Node.Data.URL)
		if len(e.Heads) > 0 {
			tags := make([]string, len(e.Heads))
			for i, v := range e.Heads {
				tags[i] = string(v)
				if v == active {
					tags[i] += "*"
				}
			}
			line += " [" + strings.Join(tags, ",") + "]"
		}
		fmt.Println(line)
	}
}
