package commands

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	server "hotelbook/internal/adapters/http_server"
	"hotelbook/internal/adapters/observability"
	"hotelbook/internal/app"
	"hotelbook/internal/shared"
)

func newServeCmd(s *session) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the hotels and guests over HTTP",
		Long: `Serve the directory as a JSON API under /v1, with /healthz and /metrics.

The listener stops gracefully on interrupt.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return s.withDirectory(cmd, func(ctx context.Context, d *app.Directory) error {
				return serve(ctx, addr, s.cfg, d)
			})
		},
	}
	cmd.Flags().StringVar(&addr, "addr", s.cfg.HTTPAddr, "Listen address")
	return cmd
}

func serve(ctx context.Context, addr string, cfg shared.Config, d *app.Directory) error {
	observability.Serve(cfg.MetricsAddr)

	srv := server.New(cfg.HTTPRPS)
	reg := observability.InitRegistry()
	srv.Mount("/metrics", observability.MetricsHandler(reg))
	srv.MountHandlers(&server.Handlers{D: d})

	httpSrv := &http.Server{Addr: addr, Handler: srv.Mux(), ReadHeaderTimeout: 5 * time.Second}
	errc := make(chan error, 1)
	go func() {
		log.Info().Str("addr", addr).Msg("API listening")
		errc <- httpSrv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		log.Info().Msg("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return httpSrv.Shutdown(shutdownCtx)
	}
}
