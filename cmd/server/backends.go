package main

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/twmb/franz-go/pkg/kgo"

	"epp-gateway/internal/auth/revocation"
	"epp-gateway/internal/platform/config"
	"epp-gateway/internal/platform/postgres"
	"epp-gateway/internal/platform/redis"
	"epp-gateway/internal/registrar/checkcache"
	"epp-gateway/internal/registrar/service"
	"epp-gateway/pkg/platform/audit"
	"epp-gateway/pkg/platform/audit/publishers/compliance"
	"epp-gateway/pkg/platform/audit/publishers/kafka"
	"epp-gateway/pkg/platform/audit/publishers/stream"
	"epp-gateway/pkg/platform/audit/store/memory"
	auditpg "epp-gateway/pkg/platform/audit/store/postgres"
	"epp-gateway/pkg/platform/audit/worker"
	authmw "epp-gateway/pkg/platform/middleware/auth"
)

const revocationPurgeInterval = 10 * time.Minute

// backends holds the optional infrastructure. Every piece has an in-process
// fallback so the gateway runs with nothing but a registry.
type backends struct {
	redis       *redis.Client
	db          *sql.DB
	kafka       *kgo.Client
	checkCache  service.CheckCache
	history     audit.Store
	publisher   audit.Publisher
	revocations authmw.TokenRevocationChecker
	tasks       []func(context.Context) error
}

func openBackends(ctx context.Context, cfg config.Server, log *slog.Logger) (*backends, error) {
	be := &backends{}
	ok := false
	defer func() {
		if !ok {
			be.close(log)
		}
	}()

	rdb, err := redis.New(ctx, cfg.Redis)
	if err != nil {
		return nil, err
	}
	db, err := postgres.Open(ctx, cfg.Postgres)
	if err != nil {
		return nil, err
	}
	be.redis, be.db = rdb, db

	if rdb != nil {
		be.checkCache = checkcache.NewRedis(rdb.Client)
		log.Info("check cache on redis")
	} else {
		mem := checkcache.NewMemory()
		be.checkCache = mem
		be.tasks = append(be.tasks, func(ctx context.Context) error {
			every(ctx, time.Minute, func() { mem.Purge() })
			return nil
		})
	}

	var store audit.Store
	switch {
	case db != nil:
		if err := postgres.Migrate(ctx, db, auditpg.Schema, revocation.PostgresSchema); err != nil {
			return nil, err
		}
		store = auditpg.New(db)
		log.Info("transaction log on postgres")
	default:
		store = memory.NewInMemoryStore()
		log.Warn("transaction log kept in memory; history is lost on restart")
	}
	be.history = store

	switch {
	case rdb != nil:
		be.revocations = revocation.NewRedisTRL(rdb.Client)
	case db != nil:
		trl := revocation.NewPostgresTRL(db)
		be.revocations = trl
		be.tasks = append(be.tasks, func(ctx context.Context) error {
			every(ctx, revocationPurgeInterval, func() {
				if n, err := trl.PurgeExpired(ctx); err != nil {
					log.WarnContext(ctx, "revocation purge failed", "error", err)
				} else if n > 0 {
					log.DebugContext(ctx, "revocations purged", "count", n)
				}
			})
			return nil
		})
	default:
		be.revocations = revocation.NewInMemoryTRL()
	}

	opts := []compliance.Option{
		compliance.WithLogger(log),
		compliance.WithMetrics(compliance.NewMetrics(prometheus.DefaultRegisterer)),
	}
	if cfg.TxLogAll {
		opts = append(opts, compliance.WithAllCategories())
	}
	publishers := audit.Fanout{compliance.New(store, opts...)}

	if len(cfg.Kafka.Brokers) > 0 {
		kc, err := kafka.NewClient(cfg.Kafka.Brokers, "epp-gateway")
		if err != nil {
			return nil, err
		}
		be.kafka = kc
		if cfg.Kafka.CreateTopic {
			if err := kafka.EnsureTopic(ctx, kc, cfg.Kafka.Topic, cfg.Kafka.Partitions, cfg.Kafka.ReplicationFactor); err != nil {
				return nil, err
			}
			log.Info("kafka topic ready", "topic", cfg.Kafka.Topic)
		}
		streamMetrics := stream.NewMetrics(prometheus.DefaultRegisterer)
		buf := stream.NewRingBuffer(cfg.Kafka.BufferSize)
		publishers = append(publishers, stream.New(buf,
			stream.WithSampler(stream.NewSampler(cfg.Kafka.SampleRate)),
			stream.WithMetrics(streamMetrics),
		))
		w := worker.NewWorker(buf, kafka.NewSink(kc, cfg.Kafka.Topic),
			worker.WithInterval(cfg.Kafka.FlushInterval),
			worker.WithLogger(log),
			worker.WithMetrics(streamMetrics),
		)
		be.tasks = append(be.tasks, w.Run)
		log.Info("streaming transactions to kafka", "topic", cfg.Kafka.Topic)
	}
	be.publisher = publishers

	ok = true
	return be, nil
}

func (be *backends) close(log *slog.Logger) {
	if be.kafka != nil {
		be.kafka.Close()
	}
	if be.redis != nil {
		if err := be.redis.Close(); err != nil {
			log.Warn("close redis", "error", err)
		}
	}
	if be.db != nil {
		if err := be.db.Close(); err != nil {
			log.Warn("close postgres", "error", err)
		}
	}
}

// every calls fn each interval until ctx is done.
func every(ctx context.Context, interval time.Duration, fn func()) {
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			fn()
		}
	}
}
