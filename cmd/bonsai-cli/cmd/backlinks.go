package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"bonsai/internal/application/commands"
)

var backlinksCmd = &cobra.Command{
	Use:   "backlinks <url>",
	Short: "Find workspace items that point at a URL",
	Long: `Find workspace items whose URL matches, ignoring any fragment.

Example:
  bonsai-cli backlinks https://go.dev/doc/effective_go#names`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := GetStore()
		if err != nil {
			return err
		}
		refs, err := commands.NewBacklinksCommand(s, args[0]).Execute(context.Background())
		if err != nil {
			return err
		}
		if len(refs) == 0 {
			fmt.Println("No workspace items found")
			return nil
		}
		for _, r := range refs {
			fmt.Printf("%s / %s / %s\n", r.WorkspaceName, r.GroupName, r.ItemID)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(backlinksCmd)
}
