package client

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync/atomic"
	"time"

	"epp-gateway/internal/epp/codec"
	"epp-gateway/internal/epp/protocol"
	"epp-gateway/internal/epp/transport"
)

var (
	// ErrSessionClosed is returned by Send after the session has ended.
	ErrSessionClosed = errors.New("epp: session closed")
	// ErrNoCommonObjects means the server announced none of the object
	// mappings the registry knows.
	ErrNoCommonObjects = errors.New("epp: server supports none of the known objects")
)

// Credentials authenticate a session.
type Credentials struct {
	ClientID    string
	Password    string
	NewPassword string
	Lang        string
}

// Session is one logged-in connection. Commands are sent one at a time.
type Session struct {
	conn     *transport.Conn
	reg      *codec.Registry
	logger   *slog.Logger
	greeting *protocol.Greeting
	objURIs  []string
	extURIs  []string
	broken   atomic.Bool
	closed   atomic.Bool
}

// Open dials addr, reads the greeting and logs in.
func Open(ctx context.Context, dialer transport.Dialer, addr string, creds Credentials, reg *codec.Registry, logger *slog.Logger) (*Session, error) {
	nc, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", addr, err)
	}
	s := NewSession(transport.NewConn(nc), reg, logger)
	if err := s.Handshake(ctx, creds); err != nil {
		_ = s.conn.Close()
		return nil, err
	}
	return s, nil
}

// NewSession wraps an established connection. Call Handshake before Send.
func NewSession(conn *transport.Conn, reg *codec.Registry, logger *slog.Logger) *Session {
	if logger == nil {
		logger = slog.Default()
	}
	return &Session{conn: conn, reg: reg, logger: logger}
}

// Handshake reads the server greeting and logs in with every object and
// extension URI both sides support.
func (s *Session) Handshake(ctx context.Context, creds Credentials) error {
	b, err := s.conn.Read(ctx)
	if err != nil {
		return fmt.Errorf("read greeting: %w", err)
	}
	g, err := protocol.UnmarshalGreeting(b)
	if err != nil {
		return fmt.Errorf("decode greeting: %w", err)
	}
	s.greeting = g

	s.objURIs = supported(s.reg.URIs(codec.KindObject), g.ObjURIs)
	if len(s.objURIs) == 0 {
		return ErrNoCommonObjects
	}
	s.extURIs = supported(s.reg.URIs(codec.KindExtension), g.ExtURIs)

	login := &protocol.Login{
		ClientID:    creds.ClientID,
		Password:    creds.Password,
		NewPassword: creds.NewPassword,
		Lang:        creds.Lang,
		ObjURIs:     s.objURIs,
		ExtURIs:     s.extURIs,
	}
	resp, err := s.Send(ctx, &protocol.Command{Verb: protocol.VerbLogin, Session: login})
	if err != nil {
		return fmt.Errorf("login: %w", err)
	}
	if err := resp.Err(); err != nil {
		return fmt.Errorf("login: %w", err)
	}
	s.logger.InfoContext(ctx, "epp session established",
		"server", g.ServerID,
		"remote_addr", s.conn.RemoteAddr().String(),
		"objects", len(s.objURIs),
		"extensions", len(s.extURIs),
	)
	return nil
}

// supported keeps the URIs of ours the server announced. An empty
// announcement accepts everything.
func supported(ours, theirs []string) []string {
	if len(theirs) == 0 {
		return ours
	}
	var out []string
	for _, u := range ours {
		if slices.Contains(theirs, u) {
			out = append(out, u)
		}
	}
	return out
}

// Greeting returns the greeting read during the handshake.
func (s *Session) Greeting() *protocol.Greeting { return s.greeting }

// ExtURIs returns the extensions negotiated at login.
func (s *Session) ExtURIs() []string { return s.extURIs }

// Broken reports whether a transport failure left the connection unusable.
func (s *Session) Broken() bool { return s.broken.Load() }

// Usable reports whether the session can carry another command.
func (s *Session) Usable() bool { return !s.broken.Load() && !s.closed.Load() }

// Send writes cmd and decodes the response. A transport failure marks the
// session broken. A session-closing result code marks it closed.
func (s *Session) Send(ctx context.Context, cmd *protocol.Command) (*protocol.Response, error) {
	if !s.Usable() {
		return nil, ErrSessionClosed
	}
	req, err := protocol.Marshal(cmd)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", cmd.Verb, err)
	}
	b, err := s.conn.Exchange(ctx, req)
	if err != nil {
		s.broken.Store(true)
		return nil, fmt.Errorf("exchange %s: %w", cmd.Verb, err)
	}
	resp, err := protocol.UnmarshalResponse(b, s.reg)
	if err != nil {
		return nil, fmt.Errorf("decode %s response: %w", cmd.Verb, err)
	}
	if resp.Code().ClosesSession() {
		s.closed.Store(true)
	}
	return resp, nil
}

// Hello sends a keep-alive and returns the fresh greeting.
func (s *Session) Hello(ctx context.Context) (*protocol.Greeting, error) {
	if !s.Usable() {
		return nil, ErrSessionClosed
	}
	req, err := protocol.Marshal(&protocol.Hello{})
	if err != nil {
		return nil, err
	}
	b, err := s.conn.Exchange(ctx, req)
	if err != nil {
		s.broken.Store(true)
		return nil, fmt.Errorf("hello: %w", err)
	}
	g, err := protocol.UnmarshalGreeting(b)
	if err != nil {
		return nil, fmt.Errorf("hello: %w", err)
	}
	s.greeting = g
	return g, nil
}

// Close logs out when the session is still usable and closes the connection.
func (s *Session) Close(ctx context.Context) error {
	if s.Usable() {
		if _, err := s.Send(ctx, &protocol.Command{Verb: protocol.VerbLogout, Session: &protocol.Logout{}}); err != nil {
			s.logger.DebugContext(ctx, "epp logout failed", "error", err)
		}
	}
	s.closed.Store(true)
	return s.conn.Close()
}

// backgroundTimeout bounds exchanges the pool runs outside any request.
const backgroundTimeout = 5 * time.Second
