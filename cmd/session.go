package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/viper"

	"github.com/wendellvieira/rpg-ai-sub001/internal/logger"
	"github.com/wendellvieira/rpg-ai-sub001/internal/persistence"
	"github.com/wendellvieira/rpg-ai-sub001/internal/session"
)

// newSession builds a session from the config file: dispatch settings,
// dice seed and the storage driver.
func newSession(ctx context.Context, opts session.Options) (*session.Session, error) {
	cfg, err := dispatchConfig()
	if err != nil {
		return nil, err
	}
	opts.Dispatch = &cfg
	if opts.Seed == 0 {
		opts.Seed = viper.GetInt64("dice.seed")
	}
	if len(opts.DataDirs) == 0 {
		if d := viper.GetString("data_dir"); d != "" {
			opts.DataDirs = []string{d}
		}
	}
	if opts.Store == nil {
		var storeOpts persistence.Options
		if err := viper.UnmarshalKey("storage", &storeOpts); err != nil {
			return nil, fmt.Errorf("invalid storage configuration: %w", err)
		}
		store, err := persistence.Open(ctx, storeOpts)
		if err != nil {
			return nil, err
		}
		opts.Store = store
	}
	opts.Logger = logger.Log
	return session.New(opts)
}

// openCampaignSession runs a session against a campaign's records, state
// store and journal, restoring the last saved table.
func openCampaignSession(ctx context.Context, c *persistence.Campaign) (*session.Session, error) {
	sess, err := newSession(ctx, session.Options{
		ID:       c.World + "/" + c.Name,
		DataDirs: campaignDataDirs(c),
		Store:    c.Store,
		Journal:  c.Journal,
	})
	if err != nil {
		return nil, err
	}
	if err := restoreOrStart(ctx, sess.Restore); err != nil {
		sess.Close()
		return nil, err
	}
	return sess, nil
}
