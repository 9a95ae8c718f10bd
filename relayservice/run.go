package relayservice

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/arunsharma1203/grievance/internal/api"
	"github.com/arunsharma1203/grievance/internal/blob"
	"github.com/arunsharma1203/grievance/internal/commands"
	"github.com/arunsharma1203/grievance/internal/config"
	"github.com/arunsharma1203/grievance/internal/health"
	"github.com/arunsharma1203/grievance/internal/poller"
	"github.com/arunsharma1203/grievance/internal/services"
	"github.com/arunsharma1203/grievance/internal/store"
	"github.com/arunsharma1203/grievance/internal/store/postgres"
	"github.com/arunsharma1203/grievance/internal/store/sqlite"
	"github.com/arunsharma1203/grievance/internal/telegram"
)

const shutdownTimeout = 10 * time.Second

// Run starts the HTTP API and the command poller and blocks until SIGINT/SIGTERM or a fatal error.
func Run(cfg *config.Config, log zerolog.Logger) error {
	ctx, stop := newServerContext()
	defer stop()

	ln, err := net.Listen("tcp", cfg.GetHTTPAddr())
	if err != nil {
		log.Error().Stack().Err(err).Msg("listen failed")
		return err
	}
	return Serve(ctx, cfg, log, ln)
}

// Serve runs the service on ln until ctx is done. Cancellation is a clean exit.
func Serve(ctx context.Context, cfg *config.Config, log zerolog.Logger, ln net.Listener) error {
	log.Info().
		Str("environment", string(cfg.Environment)).
		Str("db_driver", cfg.DBDriver).
		Str("addr", ln.Addr().String()).
		Msg("Grievance service starting")

	st, err := OpenStore(ctx, cfg, log)
	if err != nil {
		_ = ln.Close()
		return err
	}
	defer func() { _ = st.Close() }()

	blobs, err := blob.New(cfg.UploadDir)
	if err != nil {
		_ = ln.Close()
		log.Error().Stack().Err(err).Msg("upload directory unavailable")
		return err
	}

	tg := telegram.New(telegram.Options{
		Token:         cfg.TelegramBotToken,
		ChatID:        cfg.TelegramChatID,
		APIURL:        cfg.TelegramAPIURL,
		Timeout:       cfg.TelegramTimeout,
		RatePerSecond: cfg.TelegramRatePerSecond,
		Log:           log,
	})
	if !tg.Enabled() {
		log.Warn().Msg("TELEGRAM_BOT_TOKEN not set; notifications and commands are disabled")
	} else if me, err := tg.GetMe(ctx); err != nil {
		log.Warn().Err(err).Msg("bot identity check failed; continuing")
	} else {
		log.Info().Str("bot", me.Username).Msg("Telegram bot ready")
	}

	relay := services.NewRelay(tg, blobs, cfg.PublicBaseURL, log)
	notify := services.NewNotifyService(relay, log)
	defer notify.Wait()

	g, gctx := errgroup.WithContext(ctx)

	svcHealth, components, err := startHealthCheckers(gctx, g, cfg, log, st, tg)
	if err != nil {
		_ = ln.Close()
		log.Error().Stack().Err(err).Msg("startup health check failed")
		return err
	}

	router := api.NewRouter(api.Deps{
		Grievances:     services.NewGrievanceService(st, relay, cfg.PublicBaseURL),
		Moods:          services.NewMoodService(st, relay),
		Diary:          services.NewDiaryService(st, relay, cfg.PublicBaseURL),
		Notify:         notify,
		Audio:          services.NewAudioService(blobs, relay, tg, cfg.PublicBaseURL, cfg.MaxUploadBytes),
		UploadDir:      blobs.Dir(),
		MaxJSONBytes:   cfg.MaxJSONBytes,
		MaxUploadBytes: cfg.MaxUploadBytes,
		IsHealthy:      svcHealth.IsHealthy,
		Components:     components,
		Log:            log,
	})

	server := newHTTPServer(gctx, router)
	g.Go(func() error {
		log.Info().Str("addr", ln.Addr().String()).Msg("HTTP server starting")
		if err := server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("Shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Error().Stack().Err(err).Msg("Server forced to shutdown")
			return err
		}
		return nil
	})

	if tg.Enabled() && cfg.PollingEnabled {
		interp := commands.New(st, tg, cfg.TelegramAdminChatID, log)
		p := poller.New(tg, interp, poller.Config{
			Interval:           cfg.PollInterval,
			PollTimeoutSeconds: cfg.PollTimeoutSeconds,
			DispatchTimeout:    cfg.DispatchTimeout,
		}, log)
		g.Go(func() error { return p.Run(gctx) })
	}

	err = g.Wait()
	if err != nil && !errors.Is(err, context.Canceled) {
		log.Error().Stack().Err(err).Msg("service failed")
		return err
	}
	log.Info().Msg("Server exited")
	return nil
}

// OpenStore connects to the configured database and migrates it when AutoMigrate is set.
func OpenStore(ctx context.Context, cfg *config.Config, log zerolog.Logger) (store.Store, error) {
	db, newStore, migrate, err := openDB(ctx, cfg)
	if err != nil {
		log.Error().Stack().Err(err).Str("db_driver", cfg.DBDriver).Msg("Store adapter unavailable")
		return nil, err
	}
	if cfg.AutoMigrate {
		if err := migrate(ctx, db); err != nil {
			_ = db.Close()
			log.Error().Stack().Err(err).Msg("schema migration failed")
			return nil, err
		}
	}
	return newStore(db), nil
}

// Migrate creates the schema for the configured database and exits.
func Migrate(ctx context.Context, cfg *config.Config, log zerolog.Logger) error {
	db, _, migrate, err := openDB(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()
	if err := migrate(ctx, db); err != nil {
		return err
	}
	log.Info().Str("db_driver", cfg.DBDriver).Msg("schema up to date")
	return nil
}

type migrateFunc func(context.Context, *sql.DB) error

func openDB(ctx context.Context, cfg *config.Config) (*sql.DB, func(*sql.DB) store.Store, migrateFunc, error) {
	switch cfg.DBDriver {
	case config.DriverPostgres:
		db, err := postgres.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("open postgres: %w", err)
		}
		return db, postgres.NewWithDB, postgres.Migrate, nil
	case config.DriverSQLite:
		db, err := sqlite.Open(ctx, sqlite.PathFromURL(cfg.DatabaseURL))
		if err != nil {
			return nil, nil, nil, fmt.Errorf("open sqlite: %w", err)
		}
		return db, sqlite.NewWithDB, sqlite.Migrate, nil
	default:
		return nil, nil, nil, fmt.Errorf("unsupported DB_DRIVER: %s", cfg.DBDriver)
	}
}

// startHealthCheckers probes the store once, failing fast when it is down, then
// keeps every probe running in g. Service health follows the store only; the
// channel is reported as a component but never gates traffic.
func startHealthCheckers(ctx context.Context, g *errgroup.Group, cfg *config.Config, log zerolog.Logger, st store.Store, tg *telegram.Client) (*health.ServiceHealthChecker, func() map[string]bool, error) {
	probeTimeout := time.Duration(cfg.HealthProbeTimeoutSeconds) * time.Second
	interval := time.Duration(cfg.HealthIntervalSeconds) * time.Second

	storeChecker := health.NewProbeChecker("store", st, log, probeTimeout)
	if !storeChecker.Check(ctx) {
		return nil, nil, fmt.Errorf("startup aborted: store not reachable")
	}
	g.Go(func() error { storeChecker.Start(ctx, interval); return nil })

	svc := health.NewServiceHealthChecker(log, storeChecker)
	g.Go(func() error { svc.Start(ctx, interval); return nil })

	var tgChecker *health.ProbeChecker
	if tg.Enabled() {
		tgChecker = health.NewProbeChecker("telegram", tg, log, probeTimeout)
		g.Go(func() error { tgChecker.Start(ctx, interval); return nil })
	}

	components := func() map[string]bool {
		out := svc.Components()
		if tgChecker != nil {
			out[tgChecker.Name()] = tgChecker.IsHealthy()
		}
		return out
	}
	return svc, components, nil
}

func newHTTPServer(ctx context.Context, handler http.Handler) *http.Server {
	return &http.Server{
		Handler:           handler,
		ReadTimeout:       60 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      90 * time.Second,
		IdleTimeout:       60 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}
}

// newServerContext returns a cancellable context that is cancelled on SIGINT/SIGTERM.
func newServerContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}
