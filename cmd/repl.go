package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/wendellvieira/rpg-ai-sub001/internal/logger"
	"github.com/wendellvieira/rpg-ai-sub001/internal/session"
)

var replCmd = &cobra.Command{
	Use:   "repl [world_name campaign_name]",
	Short: "Start the interactive console",
	Long: `Starts the console for running an encounter. Without arguments the table
lives in the configured store; with a world and campaign it is restored
from, journaled to and saved into that campaign.
Usage:
	> join sheet: fighter
	> roll_initiative by: gm
	> attack to: goblin`,
	Args: optionalCampaign,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		title := "scratch table"
		var sess *session.Session
		if len(args) == 2 {
			campaign, err := campaignManager().Load(args[0], args[1])
			if err != nil {
				return err
			}
			defer campaign.Close()

			sess, err = openCampaignSession(ctx, campaign)
			if err != nil {
				return err
			}
			title = args[0] + " / " + args[1]
			maybeStartBot(ctx, sess, campaign)
		} else {
			var err error
			sess, err = newSession(ctx, session.Options{})
			if err != nil {
				return err
			}
			if err := restoreOrStart(ctx, sess.Restore); err != nil {
				return err
			}
		}
		defer sess.Close()

		// The TUI owns the terminal.
		logger.Log.SetOutput(io.Discard)

		if err := RunTUI(ctx, sess, title); err != nil {
			return fmt.Errorf("fatal TUI error: %w", err)
		}
		if err := sess.Save(ctx); err != nil {
			return fmt.Errorf("failed to save table: %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(replCmd)
}
