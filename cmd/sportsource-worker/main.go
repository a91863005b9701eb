// Command sportsource-worker drains the job queue: document dispatch,
// resource item processing, and image sourcing all run here.
package main

import (
	"context"
	"encoding/json"
	"os"
	"os/signal"
	"syscall"
	"time"

	"sportsource/internal/adapters/provider/espn"
	"sportsource/internal/eventing"
	"sportsource/internal/jobs"
	"sportsource/internal/modkit"
	"sportsource/internal/modkit/module"
	"sportsource/internal/modkit/repokit"
	"sportsource/internal/platform/config"
	perr "sportsource/internal/platform/errors"
	"sportsource/internal/platform/logger"
	"sportsource/internal/platform/store"
	"sportsource/internal/services/audit"

	canonicaldomain "sportsource/internal/services/canonical/domain"
	canonicalmod "sportsource/internal/services/canonical/module"
	documentsdomain "sportsource/internal/services/documents/domain"
	documentsmod "sportsource/internal/services/documents/module"
	historicaldomain "sportsource/internal/services/historical/domain"
	historicalmod "sportsource/internal/services/historical/module"
)

func main() {
	root := config.New()
	pgCfg := root.Prefix("SERVICE_PGSQL_")
	chCfg := root.Prefix("SERVICE_CLICKHOUSE_")

	l := logger.Get()

	st, err := store.Open(context.Background(), store.Config{
		PG: store.PGConfig{
			Enabled:     true,
			URL:         pgCfg.MustString("DBURL"),
			MaxConns:    int32(pgCfg.MayInt("MAX_CONNS", 8)),
			SlowQueryMs: pgCfg.MayInt("SLOW_MS", 500),
			LogSQL:      pgCfg.MayBool("LOG_SQL", false),
		},
		CH: store.CHConfig{
			Enabled:  chCfg.MayBool("ENABLED", false),
			Addr:     chCfg.MayString("ADDR", ""),
			Database: chCfg.MayString("DATABASE", "sportsource"),
			Username: chCfg.MayString("USERNAME", ""),
			Password: chCfg.MayString("PASSWORD", ""),
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

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	deps := modkit.Deps{Cfg: root, Log: *l, PG: st.PG, CH: st.CH}

	// broker is optional; without one, publishes stay in the outbox until
	// a relay-equipped replica drains them
	var direct eventing.DirectPublisher
	brokerCfg := eventing.BrokerFromConfig(root)
	if brokerCfg.BaseURL != "" {
		broker, err := eventing.NewBroker(brokerCfg, *l)
		if err != nil {
			l.Panic().Err(err).Msg("broker init failed")
		}
		direct = broker
		relay := eventing.NewRelay(st.PG, broker, eventing.RelayOptions{}, *l)
		go func() {
			if err := relay.Run(ctx); err != nil {
				l.Error().Err(err).Msg("outbox relay stopped")
			}
		}()
	} else {
		l.Warn().Msg("no broker configured, outbox rows will accumulate")
	}

	histmod := historicalmod.New(deps)
	books := module.MustPortsOf[historicaldomain.Repo](histmod)
	docsmod := documentsmod.New(deps, books)
	canonmod := canonicalmod.New(deps, direct)

	dispatcher := module.MustPortsOf[documentsdomain.Ports](docsmod)
	processor := module.MustPortsOf[canonicaldomain.Ports](canonmod)

	sink := audit.NewSink(st.CH, *l)
	images := espn.New(espn.OptionsFromConfig(root), *l)

	wCfg := root.Prefix("CORE_WORKER_")
	worker := jobs.NewWorker(jobs.NewPGStore(st.PG), jobs.WorkerOptions{
		Interval:    wCfg.MayDuration("INTERVAL", 500*time.Millisecond),
		BatchSize:   wCfg.MayInt("BATCH", 20),
		Concurrency: wCfg.MayInt("CONCURRENCY", 4),
		LeaseFor:    wCfg.MayDuration("LEASE_FOR", time.Minute),
		RetryAfter:  wCfg.MayDuration("RETRY_AFTER", 30*time.Second),
	}, *l)

	worker.Register(eventing.KindDispatchDocument, func(ctx context.Context, j jobs.Job) error {
		var req eventing.DocumentRequested
		if err := json.Unmarshal(j.Payload, &req); err != nil {
			return perr.JSONErrf("dispatch payload: %v", err)
		}
		started := time.Now().UTC()
		res, err := dispatcher.HandleRequested(ctx, req)
		sink.Record(ctx, audit.Entry{
			OccurredUTC:   started,
			CorrelationID: req.CorrelationID,
			Operation:     "dispatch",
			Provider:      req.Provider,
			Sport:         req.Sport,
			DocumentType:  req.DocumentType,
			URI:           req.URI,
			Outcome:       outcome(err),
			Pages:         res.Pages,
			Items:         res.Items,
			Duration:      time.Since(started),
		})
		return err
	})

	worker.Register(eventing.KindProcessResourceItem, func(ctx context.Context, j jobs.Job) error {
		var cmd eventing.ProcessResourceIndexItemCommand
		if err := json.Unmarshal(j.Payload, &cmd); err != nil {
			return perr.JSONErrf("item payload: %v", err)
		}
		started := time.Now().UTC()
		err := processor.HandleItem(ctx, cmd)
		sink.Record(ctx, audit.Entry{
			OccurredUTC:   started,
			CorrelationID: cmd.CorrelationID,
			Operation:     "process",
			Provider:      cmd.Provider,
			Sport:         cmd.Sport,
			DocumentType:  cmd.DocumentType,
			URI:           cmd.URI,
			Outcome:       outcome(err),
			Items:         1,
			Duration:      time.Since(started),
		})
		return err
	})

	worker.Register(eventing.KindProcessImageRequest, func(ctx context.Context, j jobs.Job) error {
		var req eventing.ProcessImageRequest
		if err := json.Unmarshal(j.Payload, &req); err != nil {
			return perr.JSONErrf("image payload: %v", err)
		}
		res, err := images.GetImage(ctx, req.URL, espn.FetchOpts{})
		if err != nil {
			return err
		}
		if res.Outcome == espn.OutcomeAbsent {
			l.Warn().Str("url", req.URL).Str("imageId", req.ImageID).Msg("image absent at provider")
		}
		return nil
	})

	l.Info().Msg("worker starting")
	if err := worker.Run(ctx); err != nil {
		l.Fatal().Err(err).Msg("worker failed")
	}
}

func outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
