package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/wendellvieira/rpg-ai-sub001/internal/persistence"
)

// campaignCmd represents the campaign command
var campaignCmd = &cobra.Command{
	Use:   "campaign",
	Short: "Manage campaigns and their journals",
	Long: `A campaign is a directory under <worlds_dir>/<world>/<campaign> holding
its own characters, monsters, spells, weapons and items, a state store
and an append-only log.jsonl of every dispatch event.

Use subcommands 'create', 'load', 'list' and 'telegram'.`,
}

var listCmd = &cobra.Command{
	Use:   "list [world_name]",
	Short: "List the campaigns of a world",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		names, err := campaignManager().List(args[0])
		if err != nil {
			return err
		}
		for _, n := range names {
			fmt.Println(n)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(campaignCmd)
	campaignCmd.AddCommand(listCmd)
}

func campaignManager() *persistence.CampaignManager {
	return persistence.NewCampaignManager(viper.GetString("worlds_dir"))
}

// campaignArgs reads [world_name] [campaign_name].
func campaignArgs(args []string) (world, campaign string, err error) {
	if len(args) < 2 {
		return "", "", fmt.Errorf("must specify [world_name] and [campaign_name]")
	}
	return args[0], args[1], nil
}

// optionalCampaign accepts no arguments or a world and a campaign.
func optionalCampaign(cmd *cobra.Command, args []string) error {
	if len(args) != 0 && len(args) != 2 {
		return fmt.Errorf("must specify both [world_name] and [campaign_name], or neither")
	}
	return nil
}

// campaignDataDirs lists where a campaign's records are searched: the
// campaign itself, then its world, then the configured data directory.
func campaignDataDirs(c *persistence.Campaign) []string {
	dirs := []string{c.DataDir(), filepath.Dir(c.Path)}
	if d := viper.GetString("data_dir"); d != "" {
		dirs = append(dirs, d)
	}
	return dirs
}
