package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	"epp-gateway/internal/epp/client"
	"epp-gateway/internal/epp/epptest"
	"epp-gateway/internal/epp/schema"
	"epp-gateway/internal/epp/shared"
	"epp-gateway/internal/epp/transport"
	"epp-gateway/internal/registrar/checkcache"
	"epp-gateway/pkg/platform/audit/publishers/compliance"
	"epp-gateway/pkg/platform/audit/store/memory"
	"epp-gateway/pkg/testutil"
)

var testLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

const testOperator = "ops@registrar.example"

type harness struct {
	srv      *epptest.Server
	registry *epptest.Registry
	store    *memory.InMemoryStore
	cache    *checkcache.Memory
	metrics  *Metrics
	domains  *DomainService
	contacts *ContactService
	hosts    *HostService
	poll     *PollService
	ctx      context.Context
}

// newHarness starts a fake registry. wrap, when given, sits between the
// session and the registry's handler.
func newHarness(t *testing.T, wrap ...func(epptest.Handler) epptest.Handler) *harness {
	t.Helper()
	h := &harness{registry: epptest.NewRegistry()}

	handler := epptest.Handler(h.registry.Handle)
	for _, w := range wrap {
		handler = w(handler)
	}
	srv, err := epptest.Start(schema.Default(), handler, epptest.WithLogger(testLogger))
	require.NoError(t, err)
	t.Cleanup(func() { _ = srv.Close() })
	h.srv = srv

	dialer := transport.NewDialer(nil, time.Second)
	creds := client.Credentials{ClientID: epptest.ClientID, Password: epptest.Password}
	open := func(ctx context.Context) (*client.Session, error) {
		return client.Open(ctx, dialer, srv.Addr(), creds, schema.Default(), testLogger)
	}
	pool, err := client.NewPool(client.PoolConfig{MaxSessions: 2}, open, testLogger)
	require.NoError(t, err)
	c := client.New(pool, client.WithLogger(testLogger))
	t.Cleanup(c.Close)

	h.store = memory.NewInMemoryStore()
	h.cache = checkcache.NewMemory()
	h.metrics = NewMetrics(prometheus.NewRegistry())
	exec := NewExecutor(c,
		WithLogger(testLogger),
		WithMetrics(h.metrics),
		WithPublisher(compliance.New(h.store, compliance.WithAllCategories(), compliance.WithLogger(testLogger))),
	)
	h.domains = NewDomainService(exec, h.cache, time.Minute)
	h.contacts = NewContactService(exec, h.cache, time.Minute)
	h.hosts = NewHostService(exec, h.cache, time.Minute)
	h.poll = NewPollService(exec)
	h.ctx = testutil.OperatorContext(context.Background(), testOperator)
	return h
}

type brokenCache struct{}

func (brokenCache) Get(context.Context, string, []string) (map[string]shared.CheckResult, error) {
	return nil, errors.New("cache offline")
}

func (brokenCache) Set(context.Context, string, []shared.CheckResult, time.Duration) error {
	return errors.New("cache offline")
}

func (brokenCache) Invalidate(context.Context, string, ...string) error {
	return errors.New("cache offline")
}
