// Package connect turns EPP settings into logged-in registry sessions.
package connect

import (
	"context"
	"fmt"
	"log/slog"

	"epp-gateway/internal/epp/client"
	"epp-gateway/internal/epp/schema"
	"epp-gateway/internal/epp/transport"
	"epp-gateway/internal/platform/config"
	"epp-gateway/pkg/platform/circuit"
)

// Dialer returns a TLS dialer for cfg, or plain TCP when cfg.PlainTCP is set.
func Dialer(cfg config.EPPConfig) (transport.Dialer, error) {
	if cfg.PlainTCP {
		return transport.NewDialer(nil, cfg.ConnectTimeout), nil
	}
	tlsCfg, err := transport.TLSConfig{
		CertFile:           cfg.CertFile,
		KeyFile:            cfg.KeyFile,
		CAFile:             cfg.CAFile,
		ServerName:         cfg.ServerName,
		InsecureSkipVerify: cfg.InsecureSkipVerify,
	}.Build()
	if err != nil {
		return nil, err
	}
	return transport.NewDialer(tlsCfg, cfg.ConnectTimeout), nil
}

// Credentials extracts the login credentials from cfg.
func Credentials(cfg config.EPPConfig) client.Credentials {
	return client.Credentials{
		ClientID:    cfg.ClientID,
		Password:    cfg.Password,
		NewPassword: cfg.NewPassword,
		Lang:        cfg.Lang,
	}
}

// Session opens a single logged-in session. The caller closes it.
func Session(ctx context.Context, cfg config.EPPConfig, log *slog.Logger) (*client.Session, error) {
	dialer, err := Dialer(cfg)
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(ctx, cfg.ConnectTimeout)
	defer cancel()
	return client.Open(ctx, dialer, cfg.Address(), Credentials(cfg), schema.Default(), log)
}

// Client builds a pooled client and logs in the first session so a
// misconfigured registry fails at startup.
func Client(ctx context.Context, cfg config.EPPConfig, log *slog.Logger, opts ...client.Option) (*client.Client, error) {
	dialer, err := Dialer(cfg)
	if err != nil {
		return nil, err
	}
	reg := schema.Default()
	creds := Credentials(cfg)
	pool, err := client.NewPool(client.PoolConfig{
		MaxSessions:    cfg.PoolSize,
		ConnectTimeout: cfg.ConnectTimeout,
		KeepAlive:      cfg.KeepAlive,
	}, func(ctx context.Context) (*client.Session, error) {
		return client.Open(ctx, dialer, cfg.Address(), creds, reg, log)
	}, log)
	if err != nil {
		return nil, err
	}
	if err := pool.Warm(ctx, 1); err != nil {
		pool.Close()
		return nil, fmt.Errorf("connect to registry %s: %w", cfg.Address(), err)
	}

	breaker := circuit.New("epp-registry",
		circuit.WithFailureThreshold(cfg.BreakerFailures),
		circuit.WithCooldown(cfg.BreakerCooldown),
	)
	base := []client.Option{
		client.WithLogger(log),
		client.WithBreaker(breaker),
		client.WithTRIDPrefix(cfg.TRIDPrefix),
	}
	return client.New(pool, append(base, opts...)...), nil
}
