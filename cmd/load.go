package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wendellvieira/rpg-ai-sub001/internal/game"
	"github.com/wendellvieira/rpg-ai-sub001/internal/persistence"
)

// loadCmd represents the load command
var loadCmd = &cobra.Command{
	Use:   "load [world_name] [campaign_name]",
	Short: "Load a campaign and print its table",
	Long: `Restores the saved table of a campaign and prints the roster, the
turn order and how many events its journal holds.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		world, name, err := campaignArgs(args)
		if err != nil {
			return err
		}
		campaign, err := campaignManager().Load(world, name)
		if err != nil {
			return err
		}
		defer campaign.Close()

		sess, err := openCampaignSession(cmd.Context(), campaign)
		if err != nil {
			return err
		}
		defer sess.Close()

		entries, err := campaign.Journal.Load()
		if err != nil {
			return fmt.Errorf("error reading event log: %w", err)
		}

		fmt.Printf("Successfully loaded campaign!\n")
		fmt.Printf("Journal events: %d\n", len(entries))
		return sess.Table().Do(func(s *game.State) error {
			roster := s.Roster()
			fmt.Printf("Combatants: %d\n", len(roster))
			for _, c := range roster {
				fmt.Printf("- %s (HP: %d/%d)\n", c.ID, c.HitPoints, c.MaxHitPoints)
			}
			if cur, ok := s.Scheduler.Current(); ok {
				fmt.Printf("Round %d, %s's turn\n", s.Scheduler.Round(), cur.Name)
			}
			return nil
		})
	},
}

func init() {
	campaignCmd.AddCommand(loadCmd)
}

// restoreOrStart restores a saved table; a campaign that was never saved
// starts empty.
func restoreOrStart(ctx context.Context, restore func(context.Context) error) error {
	if err := restore(ctx); err != nil && !errors.Is(err, persistence.ErrNotFound) {
		return fmt.Errorf("failed to restore table: %w", err)
	}
	return nil
}
