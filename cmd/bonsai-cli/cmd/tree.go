package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"bonsai/internal/domain"
)

var treeCmd = &cobra.Command{
	Use:   "tree",
	Short: "Display the history tree of a session",
	Long: `Display every lineage of a recorded session. Viewports positioned on
a node are listed in brackets; the active one is marked with *.

Example:
  bonsai-cli tree`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		result, err := loadHistory(context.Background())
		if err != nil {
			return err
		}
		printOutline(result.Snapshot)
		return nil
	},
}

var leavesCmd = &cobra.Command{
	Use:   "leaves [node-id]",
	Short: "List forward destinations of a node",
	Long: `List the descendant leaves of a node, the pages reachable by going
forward. Defaults to the node of the active viewport.

Examples:
  bonsai-cli leaves
  bonsai-cli leaves 0b9d...`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		result, err := loadHistory(context.Background())
		if err != nil {
			return err
		}
		snap := result.Snapshot

		var from domain.NodeID
		if len(args) == 1 {
			from = domain.NodeID(args[0])
		} else {
			head, ok := snap.ActiveHead()
			if !ok {
				return fmt.Errorf("no active viewport; pass a node id")
			}
			from = head.ID
		}

		leaves, err := snap.DescendantLeaves(from)
		if err != nil {
			return err
		}
		for _, n := range leaves {
			fmt.Printf("%s %s\n", n.ID, n.Data.URL)
		}
		return nil
	},
}

var headsCmd = &cobra.Command{
	Use:   "heads",
	Short: "List viewports and the page each one is on",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		result, err := loadHistory(context.Background())
		if err != nil {
			return err
		}
		snap := result.Snapshot
		active := snap.ActiveViewport()
		for _, h := range snap.Heads.Entries() {
			n, err := snap.Node(h.Node)
			if err != nil {
				return err
			}
			marker := " "
			if h.Viewport == active {
				marker = "*"
			}
			fmt.Printf("%s %s %s %s\n", marker, h.Viewport, n.ID, n.Data.URL)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(treeCmd)
	rootCmd.AddCommand(leavesCmd)
	rootCmd.AddCommand(headsCmd)
}
