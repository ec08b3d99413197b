package daemon

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"go.mau.fi/util/exhttp"

	"github.com/draftpad/urlcontext/pkg/contextsvc"
	"github.com/draftpad/urlcontext/pkg/pastesvc"
)

// Daemon is the assembled service: context resolver, paste store, retention
// sweeper and the HTTP server tying them together.
type Daemon struct {
	cfg        *Config
	log        zerolog.Logger
	handler    http.Handler
	server     *http.Server
	sweeper    *pastesvc.Sweeper
	closeStore func() error
}

// New wires up all services described by cfg.
func New(cfg *Config, log zerolog.Logger) (*Daemon, error) {
	resolver, err := contextsvc.NewResolver(cfg.Context, log)
	if err != nil {
		return nil, fmt.Errorf("building context resolver: %w", err)
	}

	store, closeStore, err := pastesvc.OpenStore(cfg.Paste)
	if err != nil {
		return nil, fmt.Errorf("opening paste store: %w", err)
	}
	sweeper, err := pastesvc.NewSweeper(store, cfg.Paste.SweepSchedule, log)
	if err != nil {
		closeStore()
		return nil, err
	}

	mux := http.NewServeMux()
	contextsvc.NewHandler(resolver, log).RegisterRoutes(mux)
	pastesvc.NewHandler(store, cfg.Paste, log).RegisterRoutes(mux)
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		exhttp.WriteJSONResponse(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	return &Daemon{
		cfg:     cfg,
		log:     log.With().Str("component", "daemon").Logger(),
		handler: mux,
		server: &http.Server{
			Addr:         cfg.Server.Listen,
			Handler:      mux,
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 60 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		sweeper:    sweeper,
		closeStore: closeStore,
	}, nil
}

// Handler exposes the route table without starting a listener.
func (d *Daemon) Handler() http.Handler {
	return d.handler
}

// Run serves until ctx is cancelled or the listener fails, then shuts down
// gracefully within the configured timeout.
func (d *Daemon) Run(ctx context.Context) error {
	d.sweeper.Start()
	defer d.Close()

	errCh := make(chan error, 1)
	go func() {
		d.log.Info().Str("listen", d.cfg.Server.Listen).Msg("HTTP server listening")
		if err := d.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	d.log.Info().Msg("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), d.cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := d.server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down http server: %w", err)
	}
	return <-errCh
}

// Close stops the sweeper and releases the paste store. Run calls it on the
// way out; handler-only users call it directly.
func (d *Daemon) Close() {
	d.sweeper.Stop()
	if err := d.closeStore(); err != nil {
		d.log.Warn().Err(err).Msg("Closing paste store failed")
	}
}
