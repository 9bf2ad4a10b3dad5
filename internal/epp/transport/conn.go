package transport

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"net"
	"os"
	"time"
)

// TLSConfig locates the client certificate registries require and the CA
// that signed the server certificate.
type TLSConfig struct {
	CertFile           string
	KeyFile            string
	CAFile             string
	ServerName         string
	InsecureSkipVerify bool
}

// Build loads the certificates into a *tls.Config.
func (c TLSConfig) Build() (*tls.Config, error) {
	cfg := &tls.Config{
		MinVersion:         tls.VersionTLS12,
		ServerName:         c.ServerName,
		InsecureSkipVerify: c.InsecureSkipVerify, //nolint:gosec // test registries only
	}
	if c.CertFile != "" {
		cert, err := tls.LoadX509KeyPair(c.CertFile, c.KeyFile)
		if err != nil {
			return nil, fmt.Errorf("load client certificate: %w", err)
		}
		cfg.Certificates = []tls.Certificate{cert}
	}
	if c.CAFile != "" {
		pem, err := os.ReadFile(c.CAFile)
		if err != nil {
			return nil, fmt.Errorf("read CA file: %w", err)
		}
		pool := x509.NewCertPool()
		if !pool.AppendCertsFromPEM(pem) {
			return nil, fmt.Errorf("no certificates in CA file %s", c.CAFile)
		}
		cfg.RootCAs = pool
	}
	return cfg, nil
}

// Dialer opens connections to a registry.
type Dialer interface {
	DialContext(ctx context.Context, network, addr string) (net.Conn, error)
}

// NewDialer returns a TLS dialer, or a plain TCP dialer when cfg is nil.
func NewDialer(cfg *tls.Config, timeout time.Duration) Dialer {
	nd := &net.Dialer{Timeout: timeout, KeepAlive: 30 * time.Second}
	if cfg == nil {
		return nd
	}
	return &tls.Dialer{NetDialer: nd, Config: cfg}
}

// Conn exchanges frames over a connection. It is not safe for concurrent
// use; one command is in flight per connection.
type Conn struct {
	nc net.Conn
}

// NewConn wraps nc.
func NewConn(nc net.Conn) *Conn {
	return &Conn{nc: nc}
}

// Read reads one frame, honouring the context deadline and cancellation.
func (c *Conn) Read(ctx context.Context) ([]byte, error) {
	stop, err := c.watch(ctx)
	if err != nil {
		return nil, err
	}
	b, err := ReadFrame(c.nc)
	if !stop() && err != nil {
		return nil, fmt.Errorf("%w: %w", context.Cause(ctx), err)
	}
	return b, err
}

// Write writes one frame, honouring the context deadline and cancellation.
func (c *Conn) Write(ctx context.Context, payload []byte) error {
	stop, err := c.watch(ctx)
	if err != nil {
		return err
	}
	err = WriteFrame(c.nc, payload)
	if !stop() && err != nil {
		return fmt.Errorf("%w: %w", context.Cause(ctx), err)
	}
	return err
}

// Exchange writes a request frame and reads the reply.
func (c *Conn) Exchange(ctx context.Context, payload []byte) ([]byte, error) {
	if err := c.Write(ctx, payload); err != nil {
		return nil, err
	}
	return c.Read(ctx)
}

// Close closes the underlying connection.
func (c *Conn) Close() error {
	return c.nc.Close()
}

// RemoteAddr returns the peer address.
func (c *Conn) RemoteAddr() net.Addr {
	return c.nc.RemoteAddr()
}

// watch applies the context deadline to the connection and arranges for
// blocked I/O to fail as soon as ctx is cancelled. stop reports false when
// cancellation already interrupted the connection.
func (c *Conn) watch(ctx context.Context) (stop func() bool, err error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	deadline, _ := ctx.Deadline()
	if err := c.nc.SetDeadline(deadline); err != nil {
		return nil, fmt.Errorf("set deadline: %w", err)
	}
	return context.AfterFunc(ctx, func() {
		_ = c.nc.SetDeadline(time.Unix(1, 0))
	}), nil
}
