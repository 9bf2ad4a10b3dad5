package cli

import (
	"bytes"
	"encoding/json"
	"io"
	"net"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"epp-gateway/internal/epp/epptest"
	"epp-gateway/internal/epp/schema"
	jwttoken "epp-gateway/internal/jwt_token"
	"epp-gateway/internal/registrar/models"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestTokenMint(t *testing.T) {
	t.Setenv("JWT_SIGNING_KEY", "test-key")
	t.Setenv("JWT_ISSUER", "epp-gateway")
	t.Setenv("JWT_AUDIENCE", "epp-gateway-api")

	out, err := execute(t, "token", "mint", "--operator", "ops@registrar.example", "--scope", "epp:read,epp:poll")
	require.NoError(t, err)

	claims, err := jwttoken.NewJWTService("test-key", "epp-gateway", "epp-gateway-api").ValidateToken(strings.TrimSpace(out))
	require.NoError(t, err)
	assert.Equal(t, "ops@registrar.example", claims.Operator)
	assert.Equal(t, []string{jwttoken.ScopeRead, jwttoken.ScopePoll}, claims.Scopes)
}

func TestTokenMint_UnknownScope(t *testing.T) {
	_, err := execute(t, "token", "mint", "--operator", "ops", "--scope", "epp:admin")
	assert.ErrorContains(t, err, "unknown scope")
}

func TestTokenRevoke_NeedsStore(t *testing.T) {
	_, err := execute(t, "token", "revoke", "jti-1")
	assert.ErrorContains(t, err, "--redis-url or --postgres-dsn")
}

func startRegistry(t *testing.T) (host, port string) {
	t.Helper()
	srv, err := epptest.Start(schema.Default(), epptest.NewRegistry().Handle)
	require.NoError(t, err)
	t.Cleanup(func() { _ = srv.Close() })

	host, port, err = net.SplitHostPort(srv.Addr())
	require.NoError(t, err)
	t.Setenv("EPP_CLIENT_ID", epptest.ClientID)
	t.Setenv("EPP_PASSWORD", epptest.Password)
	return host, port
}

func TestRegistryCommands(t *testing.T) {
	host, port := startRegistry(t)
	conn := []string{"--host", host, "--port", port, "--plain"}

	t.Run("hello", func(t *testing.T) {
		out, err := execute(t, append([]string{"hello"}, conn...)...)
		require.NoError(t, err)
		var got map[string]any
		require.NoError(t, json.Unmarshal([]byte(out), &got))
		assert.NotEmpty(t, got["objects"])
		assert.NotEmpty(t, got["negotiated"])
	})

	t.Run("check", func(t *testing.T) {
		out, err := execute(t, append([]string{"check", "domain", "Example.com", "taken.example"}, conn...)...)
		require.NoError(t, err)
		var got []models.Availability
		require.NoError(t, json.Unmarshal([]byte(out), &got))
		require.Len(t, got, 2)
		assert.Equal(t, "example.com", got[0].Name)
		assert.True(t, got[0].Available)
	})

	t.Run("fee needs a domain", func(t *testing.T) {
		_, err := execute(t, append([]string{"check", "host", "ns1.example.com", "--fee", "create"}, conn...)...)
		assert.ErrorContains(t, err, "domains only")
	})

	t.Run("info of a missing domain", func(t *testing.T) {
		_, err := execute(t, append([]string{"info", "domain", "missing.example"}, conn...)...)
		assert.ErrorContains(t, err, "2303")
	})

	t.Run("empty poll queue", func(t *testing.T) {
		out, err := execute(t, append([]string{"poll"}, conn...)...)
		require.NoError(t, err)
		var got models.PollMessage
		require.NoError(t, json.Unmarshal([]byte(out), &got))
		assert.Zero(t, got.Count)
		assert.Empty(t, got.ID)
	})
}

func TestRegistryCommands_MissingCredentials(t *testing.T) {
	t.Setenv("EPP_CLIENT_ID", "")
	t.Setenv("EPP_PASSWORD", "")
	_, err := execute(t, "hello", "--plain")
	assert.ErrorContains(t, err, "EPP_PASSWORD")
}
