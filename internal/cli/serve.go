package cli

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"gojags/internal/config"
	"gojags/internal/httpapi"
	"gojags/internal/manager"
	"gojags/internal/registry"
)

const shutdownTimeout = 5 * time.Second

type serveFlags struct {
	addr          string
	maxSessions   int
	maxQueueDepth int
	maxWait       time.Duration
	opTimeout     time.Duration
	corsOrigins   string
}

func (a *app) serveCmd() *cobra.Command {
	var f serveFlags
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the session API over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fl := cmd.Flags()
			if fl.Changed("addr") {
				a.cfg.Addr = f.addr
			}
			if fl.Changed("max-sessions") {
				a.cfg.MaxSessions = f.maxSessions
			}
			if fl.Changed("max-queue-depth") {
				a.cfg.MaxQueueDepth = f.maxQueueDepth
			}
			if fl.Changed("max-wait") {
				a.cfg.MaxWait = config.Duration(f.maxWait)
			}
			if fl.Changed("op-timeout") {
				a.cfg.OpTimeout = config.Duration(f.opTimeout)
			}
			if fl.Changed("cors-origins") {
				a.cfg.CORSOrigins = splitCSV(f.corsOrigins)
			}
			if err := a.cfg.Validate(); err != nil {
				return err
			}
			return a.serve(cmd.Context(), nil)
		},
	}
	fl := cmd.Flags()
	fl.StringVar(&f.addr, "addr", ":8080", "HTTP listen address (defaults GOJAGS_ADDR)")
	fl.IntVar(&f.maxSessions, "max-sessions", 0, "Maximum live sessions (0 = default)")
	fl.IntVar(&f.maxQueueDepth, "max-queue-depth", 0, "Maximum queued operations per session (0 = default)")
	fl.DurationVar(&f.maxWait, "max-wait", 0, "Maximum time an operation waits for its session (0 = default)")
	fl.DurationVar(&f.opTimeout, "op-timeout", 0, "Timeout for iterating endpoints (0 disables)")
	fl.StringVar(&f.corsOrigins, "cors-origins", "", "Comma-separated allowed CORS origins (empty disables CORS)")
	return cmd
}

// serve runs the HTTP server until ctx is canceled, then drains it and closes
// every session. When ln is nil the configured address is used.
func (a *app) serve(ctx context.Context, ln net.Listener) error {
	reg, err := a.openRegistry()
	if err != nil {
		return err
	}
	registry.SetDefault(reg)
	log := a.log.With().Str("component", "manager").Logger()
	mgr := manager.NewWithConfig(manager.ManagerConfig{
		Registry:      reg,
		ModulesDir:    a.cfg.ModulesDir,
		MaxSessions:   a.cfg.MaxSessions,
		MaxQueueDepth: a.cfg.MaxQueueDepth,
		MaxWait:       a.cfg.MaxWait.Std(),
		Logger:        &log,
	})

	baseCtx, cancelBase := context.WithCancel(ctx)
	defer cancelBase()
	httpapi.SetBaseContext(baseCtx)
	httpapi.SetLogger(a.log.With().Str("component", "http").Logger())
	httpapi.SetMaxBodyBytes(a.cfg.MaxBodyBytes)
	httpapi.SetOpTimeoutSeconds(int64(a.cfg.OpTimeout.Std() / time.Second))
	httpapi.SetCORSOptions(len(a.cfg.CORSOrigins) > 0, a.cfg.CORSOrigins,
		[]string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		[]string{"Accept", "Content-Type", "X-Request-ID", "X-Log-Level"})

	srv := &http.Server{
		Addr:              a.cfg.Addr,
		Handler:           httpapi.NewMux(mgr),
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return baseCtx },
	}
	errCh := make(chan error, 1)
	go func() {
		var err error
		if ln != nil {
			a.log.Info().Str("addr", ln.Addr().String()).Str("engine", reg.Version()).Msg("gojags listening")
			err = srv.Serve(ln)
		} else {
			a.log.Info().Str("addr", a.cfg.Addr).Str("engine", reg.Version()).Msg("gojags listening")
			err = srv.ListenAndServe()
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			_ = mgr.Close()
			return err
		}
	case <-ctx.Done():
	}

	a.log.Info().Msg("shutting down")
	sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	// Running operations stop at their next chunk boundary.
	cancelBase()
	var errs []error
	if err := srv.Shutdown(sctx); err != nil {
		errs = append(errs, err)
	}
	if err := mgr.Close(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}
