package telegram

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"

	"github.com/wendellvieira/rpg-ai-sub001/internal/dispatch"
	"github.com/wendellvieira/rpg-ai-sub001/internal/logger"
	"github.com/wendellvieira/rpg-ai-sub001/internal/session"
)

// LastUpdateKey is the viper key the bot keeps its polling offset under.
const LastUpdateKey = "telegram.last_update_id"

// Executor runs console lines. *session.Session implements it.
type Executor interface {
	Execute(ctx context.Context, line string) (dispatch.ActionResponse, error)
}

// Bot relays slash commands from one chat to an Executor, acting as the
// sender's combatant.
type Bot struct {
	client       *Client
	executor     Executor
	cfg          Config
	lastUpdateID int
	// persist saves the polling offset; the default writes it through viper.
	persist func(id int)
	log     logrus.FieldLogger
}

func NewBot(client *Client, cfg Config, exec Executor) *Bot {
	return &Bot{
		client:       client,
		executor:     exec,
		cfg:          cfg,
		lastUpdateID: viper.GetInt(LastUpdateKey),
		persist: func(id int) {
			viper.Set(LastUpdateKey, id)
			_ = viper.WriteConfig() // no config file yet is fine
		},
		log: logger.Log.WithField("chat_id", cfg.ChatID),
	}
}

// Start long-polls until ctx is done.
func (b *Bot) Start(ctx context.Context) error {
	b.log.Info("telegram bot started")
	for {
		updates, err := b.client.GetUpdates(ctx, b.lastUpdateID+1, 25)
		if ctx.Err() != nil {
			return nil
		}
		if err != nil {
			b.log.WithError(err).Warn("failed to fetch updates")
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(5 * time.Second):
			}
			continue
		}
		b.handleUpdates(ctx, updates)
	}
}

func (b *Bot) handleUpdates(ctx context.Context, updates []Update) {
	for _, u := range updates {
		if u.UpdateID > b.lastUpdateID {
			b.lastUpdateID = u.UpdateID
			b.persist(b.lastUpdateID)
		}
		if u.Message != nil {
			b.handleMessage(ctx, u.Message)
		}
	}
}

func (b *Bot) handleMessage(ctx context.Context, msg *Message) {
	if msg.Chat.ID != b.cfg.ChatID || !strings.HasPrefix(msg.Text, "/") {
		return
	}
	line, err := b.translate(msg)
	if err != nil {
		b.reply(ctx, err.Error())
		return
	}

	resp, err := b.executor.Execute(ctx, line)
	if err != nil {
		b.reply(ctx, fmt.Sprintf("Error: %v", err))
		return
	}
	b.reply(ctx, fmt.Sprintf("*%s*", session.Describe(resp)))
}

var errUnregistered = errors.New("is not registered in this campaign")

// translate turns "/attack to: goblin" from a registered player into
// "attack by: fighter to: goblin". GMs may pass their own "by:".
func (b *Bot) translate(msg *Message) (string, error) {
	parts := strings.Fields(strings.TrimPrefix(msg.Text, "/"))
	if len(parts) == 0 {
		return "", errors.New("empty command")
	}
	// Group chats address bots as /cmd@botname.
	parts[0], _, _ = strings.Cut(parts[0], "@")

	if b.cfg.isGM(msg.From.ID) {
		if len(parts) > 1 && strings.EqualFold(parts[1], "by:") {
			return strings.Join(parts, " "), nil
		}
		return parts[0] + " by: gm " + strings.Join(parts[1:], " "), nil
	}

	actorID, ok := b.cfg.Users[msg.From.ID]
	if !ok {
		return "", fmt.Errorf("user %s (%d) %w", msg.From.FirstName, msg.From.ID, errUnregistered)
	}
	return parts[0] + " by: " + actorID + " " + strings.Join(parts[1:], " "), nil
}

func (b *Bot) reply(ctx context.Context, text string) {
	if err := b.client.SendMessage(ctx, b.cfg.ChatID, text); err != nil {
		b.log.WithError(err).Warn("failed to send message")
	}
}
