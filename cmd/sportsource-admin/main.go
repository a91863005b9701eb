// Command sportsource-admin exposes the operator surface: ad-hoc document
// requests, historical backfill scheduling, and dead-letter reprocessing.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"sportsource/internal/jobs"
	"sportsource/internal/modkit"
	"sportsource/internal/modkit/module"
	"sportsource/internal/modkit/repokit"
	"sportsource/internal/platform/config"
	"sportsource/internal/platform/logger"
	phttp "sportsource/internal/platform/net/http"
	"sportsource/internal/platform/store"

	deadletterdomain "sportsource/internal/services/deadletter/domain"
	deadletterhttp "sportsource/internal/services/deadletter/http"
	deadlettermod "sportsource/internal/services/deadletter/module"
	documentshttp "sportsource/internal/services/documents/http"
	historicaldomain "sportsource/internal/services/historical/domain"
	historicalhttp "sportsource/internal/services/historical/http"
	historicalmod "sportsource/internal/services/historical/module"

	"github.com/go-chi/chi/v5"
)

func main() {
	root := config.New()
	pgCfg := root.Prefix("SERVICE_PGSQL_")
	adminCfg := root.Prefix("ADMIN_")

	l := logger.Get()

	st, err := store.Open(context.Background(), store.Config{
		PG: store.PGConfig{
			Enabled:     true,
			URL:         pgCfg.MustString("DBURL"),
			MaxConns:    int32(pgCfg.MayInt("MAX_CONNS", 4)),
			SlowQueryMs: pgCfg.MayInt("SLOW_MS", 500),
			LogSQL:      pgCfg.MayBool("LOG_SQL", false),
		},
	}, store.WithLogger(*l))
	if err != nil {
		l.Panic().Err(err).Msg("store.Open failed")
	}
	defer func() {
		if err := st.Close(context.Background()); err != nil {
			l.Error().Err(err).Msg("failed to close store")
		}
	}()
	repokit.MustGuard(context.Background(), st)

	deps := modkit.Deps{Cfg: root, Log: *l, PG: st.PG}

	histmod := historicalmod.New(deps)
	dlmod := deadlettermod.New(deps)

	scheduler := module.MustPortsOf[historicaldomain.Ports](histmod)
	reprocessor := module.MustPortsOf[deadletterdomain.Ports](dlmod)
	queue := repokit.MustBind(jobs.QueueBinder(), st.PG)

	srv := phttp.NewServer(adminCfg, func(m *chi.Mux) {
		m.Use(phttp.Defaults()...)
		m.Use(phttp.Heartbeat("/healthz"))
		m.Use(phttp.CORS(phttp.CORSOptions{
			AllowedOrigins: adminCfg.MayCSV("CORS_ORIGINS", []string{"*"}),
		}))
	})

	documentshttp.Register(srv.Mux(), queue)
	historicalhttp.Register(srv.Mux(), scheduler)
	deadletterhttp.Register(srv.Mux(), reprocessor)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			l.Error().Err(err).Msg("shutdown failed")
		}
	}()

	if err := srv.Run(ctx); err != nil {
		l.Fatal().Err(err).Msg("admin server failed")
	}
}
