package cmd

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var botToken string

// botCmd represents the bot command
var botCmd = &cobra.Command{
	Use:   "bot",
	Short: "Manage global bot configurations",
}

// telegramBotCmd represents the telegram subcommand of bot
var telegramBotCmd = &cobra.Command{
	Use:   "telegram",
	Short: "Register a global Telegram bot",
	RunE: func(cmd *cobra.Command, args []string) error {
		if botToken == "" {
			fmt.Println("---")
			fmt.Println("Create your Telegram Bot & Get Token")
			fmt.Println("Open Telegram and search for the official @BotFather.")
			fmt.Println("Send the /newbot command and follow the prompts to name your bot and choose a unique username.")
			fmt.Println("BotFather will provide you with an HTTP API token. draconic needs it to read the group chat.")
			fmt.Println("For a group, add the bot and disable its privacy mode in BotFather so it can read commands.")
			fmt.Println("---")
			fmt.Print("token: ")

			scanner := bufio.NewScanner(os.Stdin)
			if scanner.Scan() {
				botToken = strings.TrimSpace(scanner.Text())
			}
		}
		if botToken == "" {
			return fmt.Errorf("no token given")
		}

		viper.Set("telegram_token", botToken)
		if err := writeConfig(); err != nil {
			return fmt.Errorf("error saving configuration: %w", err)
		}
		fmt.Println("Telegram bot token saved successfully.")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(botCmd)
	botCmd.AddCommand(telegramBotCmd)

	telegramBotCmd.Flags().StringVarP(&botToken, "token", "t", "", "Telegram bot API token")
}

// writeConfig saves viper's settings, creating $HOME/.draconic.yaml when no
// config file was read.
func writeConfig() error {
	if viper.ConfigFileUsed() != "" {
		if err := viper.WriteConfig(); err == nil {
			return nil
		}
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return err
	}
	return viper.WriteConfigAs(filepath.Join(home, ".draconic.yaml"))
}
