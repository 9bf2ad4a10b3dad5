//go:build integration

package registrar

import (
	"context"
	"net"
	"net/http"
	"strconv"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"epp-gateway/internal/auth/revocation"
	"epp-gateway/internal/epp/epptest"
	"epp-gateway/internal/epp/schema"
	jwttoken "epp-gateway/internal/jwt_token"
	"epp-gateway/internal/platform/config"
	"epp-gateway/internal/registrar/checkcache"
	"epp-gateway/internal/registrar/connect"
	"epp-gateway/internal/registrar/handler"
	"epp-gateway/internal/registrar/models"
	"epp-gateway/internal/registrar/service"
	"epp-gateway/pkg/platform/audit/publishers/compliance"
	auditpg "epp-gateway/pkg/platform/audit/store/postgres"
	authmw "epp-gateway/pkg/platform/middleware/auth"
	"epp-gateway/pkg/platform/middleware/request"
	"epp-gateway/pkg/testutil"
	"epp-gateway/pkg/testutil/containers"
)

const (
	signingKey = "integration-signing-key"
	issuer     = "epp-gateway"
	audience   = "registrar-api"
	operator   = "ops@registrar.example"
)

type gateway struct {
	router http.Handler
	jwt    *jwttoken.JWTService
	trl    *revocation.RedisTRL
}

func newGateway(t *testing.T) *gateway {
	t.Helper()
	ctx := context.Background()
	pg := containers.NewPostgres(t, auditpg.Schema)
	rd := containers.NewRedis(t)

	srv, err := epptest.Start(schema.Default(), epptest.NewRegistry().Handle, epptest.WithLogger(testLogger))
	require.NoError(t, err)
	t.Cleanup(func() { _ = srv.Close() })

	eppCfg, err := config.EPPFromEnv()
	require.NoError(t, err)
	eppCfg.Host, eppCfg.Port = splitAddr(t, srv.Addr())
	eppCfg.ClientID = epptest.ClientID
	eppCfg.Password = epptest.Password
	eppCfg.PlainTCP = true
	eppCfg.PoolSize = 2

	c, err := connect.Client(ctx, eppCfg, testLogger)
	require.NoError(t, err)
	t.Cleanup(c.Close)

	store := auditpg.New(pg.DB)
	exec := service.NewExecutor(c,
		service.WithLogger(testLogger),
		service.WithPublisher(compliance.New(store, compliance.WithAllCategories(), compliance.WithLogger(testLogger))),
	)
	cache := checkcache.NewRedis(rd.Client)
	h := handler.New(
		service.NewDomainService(exec, cache, time.Minute),
		service.NewContactService(exec, cache, time.Minute),
		service.NewHostService(exec, cache, time.Minute),
		service.NewPollService(exec),
		store,
		testLogger,
	)

	g := &gateway{
		jwt: jwttoken.NewJWTService(signingKey, issuer, audience),
		trl: revocation.NewRedisTRL(rd.Client),
	}
	r := chi.NewRouter()
	r.Use(request.RequestID)
	r.Route("/v1", func(r chi.Router) {
		r.Use(authmw.RequireAuth(jwttoken.NewJWTServiceAdapter(g.jwt), g.trl, testLogger))
		h.Register(r)
	})
	g.router = r
	return g
}

func splitAddr(t *testing.T, addr string) (string, int) {
	t.Helper()
	host, port, err := net.SplitHostPort(addr)
	require.NoError(t, err)
	n, err := strconv.Atoi(port)
	require.NoError(t, err)
	return host, n
}

func (g *gateway) token(t *testing.T, scopes ...string) string {
	t.Helper()
	tok, err := g.jwt.GenerateAccessToken(operator, scopes, time.Hour)
	require.NoError(t, err)
	return tok
}

func TestGatewayEndToEnd(t *testing.T) {
	g := newGateway(t)
	writer := g.token(t, jwttoken.ScopeRead, jwttoken.ScopeWrite)

	testutil.Given(t, "an operator allowed to write", func(t *testing.T) {
		created := testutil.When(t, "creating a domain", func(t *testing.T) {
			req := testutil.WithBearer(testutil.NewJSONRequest(t, http.MethodPost, "/v1/domains", map[string]any{
				"name":      "Example.COM",
				"period":    map[string]any{"value": 1, "unit": "y"},
				"auth_info": "2fooBAR",
			}), writer)
			rr := testutil.DoRequest(g.router, req)

			testutil.Then(t, "the registry creates it", func(t *testing.T) {
				require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
				out := testutil.UnmarshalResponse[models.DomainCreated](t, rr)
				assert.Equal(t, "example.com", out.Name)
				assert.Equal(t, 1000, out.Transaction.Code)
				assert.NotEmpty(t, out.Transaction.SvTRID)
			})
		})

		if !created {
			return
		}

		testutil.And(t, "checking the new name twice", func(t *testing.T) {
			var last models.Availability
			for range 2 {
				req := testutil.WithBearer(testutil.NewJSONRequest(t, http.MethodGet, "/v1/domains/example.com/check", nil), writer)
				rr := testutil.DoRequest(g.router, req)
				require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
				last = *testutil.UnmarshalResponse[models.Availability](t, rr)
			}

			testutil.Then(t, "the second answer comes from redis", func(t *testing.T) {
				assert.False(t, last.Available)
				assert.True(t, last.Cached)
			})
		})

		testutil.When(t, "reading the domain history", func(t *testing.T) {
			req := testutil.WithBearer(testutil.NewJSONRequest(t, http.MethodGet, "/v1/domains/example.com/history", nil), writer)
			rr := testutil.DoRequest(g.router, req)

			testutil.Then(t, "the create is in the postgres transaction log", func(t *testing.T) {
				require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
				body := testutil.UnmarshalResponse[struct {
					Events []struct {
						Command    string `json:"command"`
						Outcome    string `json:"outcome"`
						ResultCode int    `json:"result_code"`
						Operator   string `json:"operator"`
					} `json:"events"`
				}](t, rr)
				require.NotEmpty(t, body.Events)
				last := body.Events[len(body.Events)-1]
				assert.Equal(t, "domain:create", last.Command)
				assert.Equal(t, "success", last.Outcome)
				assert.Equal(t, 1000, last.ResultCode)
				assert.Equal(t, operator, last.Operator)
			})
		})
	})

	t.Run("read-only token cannot write", func(t *testing.T) {
		reader := g.token(t, jwttoken.ScopeRead)
		req := testutil.WithBearer(testutil.NewJSONRequest(t, http.MethodDelete, "/v1/domains/example.com", nil), reader)
		rr := testutil.DoRequest(g.router, req)
		assert.Equal(t, http.StatusForbidden, rr.Code)
	})

	t.Run("revoked token is rejected", func(t *testing.T) {
		tok := g.token(t, jwttoken.ScopeRead)
		claims, err := g.jwt.ValidateToken(tok)
		require.NoError(t, err)
		require.NoError(t, g.trl.RevokeTokens(context.Background(), []string{claims.ID}, time.Hour))

		req := testutil.WithBearer(testutil.NewJSONRequest(t, http.MethodGet, "/v1/domains/example.com", nil), tok)
		rr := testutil.DoRequest(g.router, req)
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})

	t.Run("token from another issuer is rejected", func(t *testing.T) {
		other := jwttoken.NewJWTService(signingKey, "someone-else", audience)
		tok, err := other.GenerateAccessToken(operator, []string{jwttoken.ScopeRead}, time.Hour)
		require.NoError(t, err)

		req := testutil.WithBearer(testutil.NewJSONRequest(t, http.MethodGet, "/v1/domains/example.com", nil), tok)
		rr := testutil.DoRequest(g.router, req)
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})

}
