package commands

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/cleared-dev/stockval/internal/importer"
	"github.com/cleared-dev/stockval/internal/logger"
	"github.com/cleared-dev/stockval/internal/server"
	"github.com/cleared-dev/stockval/internal/valuation"
)

func newServeCommand(opts *rootOptions) *cobra.Command {
	var addr string
	var accountsFile string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the inventory helper over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			p, err := openProject(ctx, opts, false)
			if err != nil {
				return err
			}
			defer p.Close()

			if _, err := p.prices.Restore(ctx); err != nil {
				p.logger.Warn("restoring master price table", zap.Error(err))
			}

			chart, err := p.chart(ctx, accountsFile)
			if err != nil {
				return err
			}
			client, err := p.wizardClient()
			if err != nil {
				return err
			}
			var pusher server.BalancePusher
			if client != nil {
				pusher = client
			}

			gin.SetMode(gin.ReleaseMode)
			helper := valuation.NewHelper(p.prices, importer.DefaultRegistry(), p.helperOptions(chart)...)
			handler := server.NewInventoryHandler(p.prices, helper, pusher, p.cfg.WizardAPI.DraftID,
				p.cfg.Valuation.Currency, logger.Named(p.logger, "handlers.inventory"))
			engine := server.New(handler, logger.Named(p.logger, "router"))

			if addr == "" {
				addr = p.cfg.Server.Addr
			}
			return server.Serve(ctx, addr, engine, logger.Named(p.logger, "server"))
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default server.addr)")
	cmd.Flags().StringVar(&accountsFile, "accounts", "", "account chart CSV (default: wizard API or accounts.csv)")
	return cmd
}
