package cmd

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/wendellvieira/rpg-ai-sub001/internal/logger"
	"github.com/wendellvieira/rpg-ai-sub001/internal/metrics"
	"github.com/wendellvieira/rpg-ai-sub001/internal/server"
	"github.com/wendellvieira/rpg-ai-sub001/internal/session"
)

var serveCmd = &cobra.Command{
	Use:   "serve [world_name campaign_name]",
	Short: "Serve a table over WebSocket",
	Long: `Serves the table on server.addr:

  /ws       JSON {request, context} or {line} in, {response} and {event} out
  /catalog  the function catalog
  /state    the turn order, HP and dispatcher state
  /metrics  Prometheus metrics
  /health   liveness

With a world and campaign, the table is restored from and saved into it.`,
	Args: optionalCampaign,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		var sess *session.Session
		if len(args) == 2 {
			campaign, err := campaignManager().Load(args[0], args[1])
			if err != nil {
				return err
			}
			defer campaign.Close()
			if sess, err = openCampaignSession(ctx, campaign); err != nil {
				return err
			}
		} else {
			var err error
			if sess, err = newSession(ctx, session.Options{}); err != nil {
				return err
			}
			if err := restoreOrStart(ctx, sess.Restore); err != nil {
				return err
			}
		}
		defer sess.Close()

		exporter := metrics.New()
		detach := exporter.Attach(sess.Dispatcher())
		defer detach()

		addr, _ := cmd.Flags().GetString("addr")
		if addr == "" {
			addr = viper.GetString("server.addr")
		}
		if err := server.New(sess, exporter, addr).Run(ctx); err != nil {
			return err
		}

		logger.Log.Info("saving table")
		return sess.Save(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("addr", "", "listen address (default server.addr)")
}
