package main

import (
	"context"
	"database/sql"
	"log/slog"

	goredis "github.com/redis/go-redis/v9"

	historypublisher "copro/internal/history/publisher"
	historyservice "copro/internal/history/service"
	historystore "copro/internal/history/store"
	"copro/internal/platform/config"
	"copro/internal/platform/database"
	platformredis "copro/internal/platform/redis"
	residentservice "copro/internal/resident/service"
	residentstore "copro/internal/resident/store"
	txcontext "copro/pkg/platform/tx"
)

// infra holds the backends selected by configuration.
type infra struct {
	db            *sql.DB
	redis         *goredis.Client
	publisher     *historypublisher.KafkaPublisher
	residentStore residentservice.Store
	historyStore  historyservice.Store
	tx            residentservice.StoreTx
	logger        *slog.Logger
}

func buildInfra(ctx context.Context, cfg config.Server, log *slog.Logger) (*infra, error) {
	in := &infra{
		residentStore: residentstore.NewInMemoryStore(),
		historyStore:  historystore.NewInMemoryStore(),
		tx:            txcontext.NewInMemoryRunner(),
		logger:        log,
	}

	if cfg.Database.URL != "" {
		db, err := database.Open(ctx, cfg.Database)
		if err != nil {
			return nil, err
		}
		in.db = db
		if err := database.Migrate(ctx, db); err != nil {
			in.Close(ctx)
			return nil, err
		}
		in.residentStore = residentstore.NewPostgres(db)
		in.tx = txcontext.NewPostgresRunner(db)
		log.Info("using postgres resident store")
	}

	switch cfg.HistoryBackend {
	case config.BackendPostgres:
		in.historyStore = historystore.NewPostgres(in.db)
	case config.BackendRedis:
		rc, err := platformredis.Open(ctx, cfg.Redis, log)
		if err != nil {
			in.Close(ctx)
			return nil, err
		}
		in.redis = rc
		in.historyStore = historystore.NewRedis(rc)
	}

	if len(cfg.Kafka.Brokers) > 0 {
		pub, err := historypublisher.NewKafka(cfg.Kafka.Brokers, cfg.Kafka.Topic, historypublisher.WithLogger(log))
		if err != nil {
			in.Close(ctx)
			return nil, err
		}
		in.publisher = pub
		if err := pub.EnsureTopic(ctx, 3, 1); err != nil {
			log.Warn("could not ensure history topic", "topic", cfg.Kafka.Topic, "error", err)
		}
	}
	return in, nil
}

func (in *infra) Close(ctx context.Context) {
	if in.publisher != nil {
		in.publisher.Close(ctx)
	}
	if in.redis != nil {
		if err := in.redis.Close(); err != nil {
			in.logger.Warn("close redis", "error", err)
		}
	}
	if in.db != nil {
		if err := in.db.Close(); err != nil {
			in.logger.Warn("close database", "error", err)
		}
	}
}
