package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"
)

// createCmd represents the create command
var createCmd = &cobra.Command{
	Use:   "create [world_name] [campaign_name]",
	Short: "Create a new campaign in a world",
	Long: `Bootstraps <worlds_dir>/<world_name>/<campaign_name> with its record
directories, an empty state store and a fresh log.jsonl.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		world, name, err := campaignArgs(args)
		if err != nil {
			return err
		}

		campaign, err := campaignManager().Create(world, name)
		if err != nil {
			return fmt.Errorf("error creating campaign: %w", err)
		}
		defer campaign.Close()

		fmt.Printf("Successfully created campaign!\n")
		fmt.Printf("Log file stored at: %s\n", filepath.Join(campaign.Path, "log.jsonl"))
		return nil
	},
}

func init() {
	campaignCmd.AddCommand(createCmd)
}
