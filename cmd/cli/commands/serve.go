package commands

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/jakechorley/shift-ledger/pkg/api"
)

// ServeCmd creates the serve command
func ServeCmd(app *AppContext) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the shift ledger over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if addr == "" {
				addr = app.Cfg.HTTP.Addr
			}

			handler := api.NewHandler(app.Database, app.Cfg, app.Verifier, app.Logger)
			router := api.NewRouter(handler, app.Cfg.HTTP.AllowedOrigins, app.Cfg.RequestTimeout)

			ctx, stop := signal.NotifyContext(app.Ctx, os.Interrupt, syscall.SIGTERM)
			defer stop()

			return api.ListenAndServe(ctx, addr, router, app.Logger)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (default from config, :8080)")
	return cmd
}
