package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/wendellvieira/rpg-ai-sub001/internal/data"
	"github.com/wendellvieira/rpg-ai-sub001/internal/logger"
	"github.com/wendellvieira/rpg-ai-sub001/internal/persistence"
	"github.com/wendellvieira/rpg-ai-sub001/internal/session"
	"github.com/wendellvieira/rpg-ai-sub001/internal/telegram"
)

var (
	tgChatID    int64
	tgUserPairs []string
	tgGMs       []int64
)

const telegramConfigFile = "telegram.yaml"

var telegramCmd = &cobra.Command{
	Use:   "telegram [world_name] [campaign_name]",
	Short: "Configure Telegram settings for a campaign",
	Long: `Binds a campaign to a Telegram group. Players are mapped to the
combatant they control with --user sheet:user_id; game masters are listed
with --gm user_id.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		world, name, err := campaignArgs(args)
		if err != nil {
			return err
		}
		campaignPath := campaignManager().CampaignPath(world, name)
		if _, err := os.Stat(campaignPath); os.IsNotExist(err) {
			return fmt.Errorf("campaign directory %s does not exist, run 'campaign create' first", campaignPath)
		}

		configPath := filepath.Join(campaignPath, telegramConfigFile)
		config, err := telegram.LoadConfig(configPath)
		if err != nil && !errors.Is(err, os.ErrNotExist) && !errors.Is(err, telegram.ErrNoChatID) {
			return err
		}
		if config.Users == nil {
			config.Users = make(map[int64]string)
		}

		if tgChatID == 0 && config.ChatID == 0 {
			fmt.Println("---")
			fmt.Println("How to get your Telegram Chat ID:")
			fmt.Println("1. Add your bot to the group.")
			fmt.Println("2. Send a message in the group (e.g., /start).")
			fmt.Println("3. Access https://api.telegram.org/bot<TOKEN>/getUpdates in your browser.")
			fmt.Println("4. Look for the 'chat' object and its 'id' field (it usually starts with a minus sign).")
			fmt.Println("---")
			fmt.Print("chat_id: ")
			scanner := bufio.NewScanner(os.Stdin)
			if scanner.Scan() {
				tgChatID, _ = strconv.ParseInt(strings.TrimSpace(scanner.Text()), 10, 64)
			}
		}
		if tgChatID != 0 {
			config.ChatID = tgChatID
		}
		if config.ChatID == 0 {
			return fmt.Errorf("a chat id is required")
		}

		loader := data.NewLoader([]string{campaignPath, filepath.Dir(campaignPath), viper.GetString("data_dir")})
		for _, pair := range tgUserPairs {
			sheet, idStr, ok := strings.Cut(pair, ":")
			userID, err := strconv.ParseInt(idStr, 10, 64)
			if !ok || err != nil {
				fmt.Printf("Warning: invalid user pair format '%s'. Expected 'sheet:user_id'\n", pair)
				continue
			}
			if _, err := loader.LoadCombatant(sheet); err != nil {
				fmt.Printf("Warning: character or monster '%s' not found in data directories. Users may be unable to command it.\n", sheet)
			}
			config.Users[userID] = data.Slug(sheet)
		}
		config.GMs = append(config.GMs, tgGMs...)

		if err := telegram.SaveConfig(configPath, config); err != nil {
			return fmt.Errorf("error saving config: %w", err)
		}
		fmt.Printf("Telegram campaign configuration saved to %s\n", configPath)
		return nil
	},
}

func init() {
	campaignCmd.AddCommand(telegramCmd)
	telegramCmd.Flags().Int64Var(&tgChatID, "chat_id", 0, "Telegram group chat ID")
	telegramCmd.Flags().StringSliceVarP(&tgUserPairs, "user", "u", []string{}, "Map a sheet to a Telegram user_id (format: sheet:user_id)")
	telegramCmd.Flags().Int64SliceVar(&tgGMs, "gm", nil, "Telegram user_id allowed to act as the game master")
}

// maybeStartBot starts the Telegram relay in the background when a token is
// configured and the campaign has a telegram.yaml. It stops with ctx.
func maybeStartBot(ctx context.Context, sess *session.Session, c *persistence.Campaign) {
	token := viper.GetString("telegram_token")
	if token == "" {
		return
	}
	config, err := telegram.LoadConfig(filepath.Join(c.Path, telegramConfigFile))
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			logger.Log.WithError(err).Warn("telegram disabled")
		}
		return
	}

	bot := telegram.NewBot(telegram.NewClient(token), config, sess)
	go func() {
		if err := bot.Start(ctx); err != nil {
			logger.Log.WithError(err).Warn("telegram bot stopped")
		}
	}()
}
