package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"bonsai/internal/domain"
)

var (
	workspaceName string
	groupName     string
)

var workspaceCmd = &cobra.Command{
	Use:   "workspace",
	Short: "Manage workspace items used for back-links",
	Long: `Workspace items are saved links grouped by workspace and group. A
history node whose URL matches an item (ignoring fragments) shows the item
as a back-link.

Examples:
  bonsai-cli workspace add reading go-docs 1 https://go.dev/doc/
  bonsai-cli workspace import items.yaml
  bonsai-cli workspace list
  bonsai-cli workspace remove reading go-docs 1`,
}

var workspaceAddCmd = &cobra.Command{
	Use:   "add <workspace-id> <group-id> <item-id> <url>",
	Short: "Add or replace a workspace item",
	Args:  cobra.ExactArgs(4),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := GetStore()
		if err != nil {
			return err
		}
		item := domain.WorkspaceItem{
			WorkspaceID:   args[0],
			WorkspaceName: orDefault(workspaceName, args[0]),
			GroupID:       args[1],
			GroupName:     orDefault(groupName, args[1]),
			ItemID:        args[2],
			URL:           args[3],
		}
		if err := s.PutItem(context.Background(), item); err != nil {
			return err
		}
		fmt.Printf("Saved %s / %s / %s\n", item.WorkspaceName, item.GroupName, item.ItemID)
		return nil
	},
}

// importedItem is the file form of a workspace item. JSON files parse too,
// being valid YAML.
type importedItem struct {
	WorkspaceID   string `yaml:"workspace_id"`
	WorkspaceName string `yaml:"workspace_name"`
	GroupID       string `yaml:"group_id"`
	GroupName     string `yaml:"group_name"`
	ItemID        string `yaml:"item_id"`
	URL           string `yaml:"url"`
}

var workspaceImportCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Import workspace items from a YAML or JSON list",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return err
		}
		var raw []importedItem
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return fmt.Errorf("failed to parse %s: %w", args[0], err)
		}

		items := make([]domain.WorkspaceItem, 0, len(raw))
		for i, r := range raw {
			if r.WorkspaceID == "" || r.GroupID == "" || r.ItemID == "" || r.URL == "" {
				return fmt.Errorf("item %d: workspace_id, group_id, item_id and url are required", i+1)
			}
			items = append(items, domain.WorkspaceItem{
				WorkspaceID:   r.WorkspaceID,
				WorkspaceName: orDefault(r.WorkspaceName, r.WorkspaceID),
				GroupID:       r.GroupID,
				GroupName:     orDefault(r.GroupName, r.GroupID),
				ItemID:        r.ItemID,
				URL:           r.URL,
			})
		}

		s, err := GetStore()
		if err != nil {
			return err
		}
		n, err := s.ImportItems(context.Background(), items)
		if err != nil {
			return err
		}
		fmt.Printf("Imported %d items\n", n)
		return nil
	},
}

var workspaceListCmd = &cobra.Command{
	Use:   "list",
	Short: "List workspace items",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := GetStore()
		if err != nil {
			return err
		}
		items, err := s.Items(context.Background())
		if err != nil {
			return err
		}
		for _, it := range items {
			fmt.Printf("%s / %s / %s %s\n", it.WorkspaceName, it.GroupName, it.ItemID, it.URL)
		}
		return nil
	},
}

var workspaceRemoveCmd = &cobra.Command{
	Use:   "remove <workspace-id> <group-id> <item-id>",
	Short: "Remove a workspace item",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := GetStore()
		if err != nil {
			return err
		}
		removed, err := s.DeleteItem(context.Background(), args[0], args[1], args[2])
		if err != nil {
			return err
		}
		if !removed {
			return fmt.Errorf("no item %s / %s / %s", args[0], args[1], args[2])
		}
		fmt.Println("Removed")
		return nil
	},
}

func orDefault(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}

func init() {
	workspaceAddCmd.Flags().StringVar(&workspaceName, "workspace-name", "", "display name of the workspace")
	workspaceAddCmd.Flags().StringVar(&groupName, "group-name", "", "display name of the group")

	rootCmd.AddCommand(workspaceCmd)
	workspaceCmd.AddCommand(workspaceAddCmd)
	workspaceCmd.AddCommand(workspaceImportCmd)
	workspaceCmd.AddCommand(workspaceListCmd)
	workspaceCmd.AddCommand(workspaceRemoveCmd)
}
