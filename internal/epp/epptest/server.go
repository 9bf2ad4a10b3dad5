// Package epptest runs an in-process EPP server for tests. It speaks the
// real framing and codec so clients exercise the same path as against a
// registry.
package epptest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"epp-gateway/internal/epp/codec"
	"epp-gateway/internal/epp/protocol"
	"epp-gateway/internal/epp/transport"
)

// Handler answers an object command. It need not set the transaction ids.
type Handler func(ctx context.Context, cmd *protocol.Command) *protocol.Response

// Server accepts EPP sessions on a loopback listener.
type Server struct {
	ln       net.Listener
	reg      *codec.Registry
	handler  Handler
	greeting *protocol.Greeting
	clientID string
	password string
	logger   *slog.Logger

	mu    sync.Mutex
	conns map[net.Conn]struct{}
	wg    sync.WaitGroup

	logins   atomic.Int32
	commands atomic.Int32
	svTRID   atomic.Int64
}

// Option configures a Server.
type Option func(*Server)

// WithCredentials sets the accepted client id and password.
func WithCredentials(clientID, password string) Option {
	return func(s *Server) {
		s.clientID = clientID
		s.password = password
	}
}

// WithGreeting replaces the greeting sent on connect and in reply to hello.
func WithGreeting(g *protocol.Greeting) Option {
	return func(s *Server) {
		s.greeting = g
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// Default credentials accepted by a Server.
const (
	ClientID = "registrar1"
	Password = "s3cr3tpw"
)

// Start listens on 127.0.0.1 and serves until Close.
func Start(reg *codec.Registry, handler Handler, opts ...Option) (*Server, error) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return nil, err
	}
	s := &Server{
		ln:       ln,
		reg:      reg,
		handler:  handler,
		clientID: ClientID,
		password: Password,
		logger:   slog.New(slog.DiscardHandler),
		conns:    make(map[net.Conn]struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.greeting == nil {
		s.greeting = DefaultGreeting(reg)
	}
	s.wg.Add(1)
	go s.serve()
	return s, nil
}

// DefaultGreeting announces every URI in reg.
func DefaultGreeting(reg *codec.Registry) *protocol.Greeting {
	return &protocol.Greeting{
		ServerID:   "epptest",
		ServerDate: time.Now().UTC().Truncate(time.Second),
		Versions:   []string{protocol.Version},
		Langs:      []string{"en"},
		ObjURIs:    reg.URIs(codec.KindObject),
		ExtURIs:    reg.URIs(codec.KindExtension),
		DCP: protocol.DCP{
			Access:     "all",
			Statements: []protocol.DCPStatement{{Purposes: []string{"admin", "prov"}, Recipients: []string{"ours"}, Retention: "stated"}},
		},
	}
}

// Addr returns the listen address.
func (s *Server) Addr() string { return s.ln.Addr().String() }

// Logins returns the number of successful logins.
func (s *Server) Logins() int { return int(s.logins.Load()) }

// Commands returns the number of object and poll commands served.
func (s *Server) Commands() int { return int(s.commands.Load()) }

// DropConnections closes every open session from the server side.
func (s *Server) DropConnections() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for c := range s.conns {
		_ = c.Close()
	}
}

// Close stops accepting, drops open sessions and waits for handlers to exit.
func (s *Server) Close() error {
	err := s.ln.Close()
	s.DropConnections()
	s.wg.Wait()
	return err
}

func (s *Server) serve() {
	defer s.wg.Done()
	for {
		nc, err := s.ln.Accept()
		if err != nil {
			return
		}
		s.mu.Lock()
		s.conns[nc] = struct{}{}
		s.mu.Unlock()
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			defer func() {
				s.mu.Lock()
				delete(s.conns, nc)
				s.mu.Unlock()
				_ = nc.Close()
			}()
			if err := s.session(transport.NewConn(nc)); err != nil && !errors.Is(err, net.ErrClosed) {
				s.logger.Debug("epptest session ended", "error", err)
			}
		}()
	}
}

func (s *Server) session(conn *transport.Conn) error {
	ctx := context.Background()
	if err := s.send(ctx, conn, s.greeting); err != nil {
		return err
	}
	loggedIn := false
	for {
		b, err := conn.Read(ctx)
		if err != nil {
			return err
		}
		m, err := protocol.Unmarshal(b, s.reg)
		if err != nil {
			resp := Result(protocol.CodeSyntaxError, err.Error())
			if err := s.reply(ctx, conn, "", resp); err != nil {
				return err
			}
			continue
		}
		if m.Hello != nil {
			if err := s.send(ctx, conn, s.greeting); err != nil {
				return err
			}
			continue
		}
		if m.Command == nil {
			return fmt.Errorf("unexpected message from client")
		}
		cmd := m.Command
		var resp *protocol.Response
		switch {
		case cmd.Verb == protocol.VerbLogin:
			resp = s.login(cmd, loggedIn)
			loggedIn = loggedIn || resp.Success()
		case cmd.Verb == protocol.VerbLogout:
			resp = Result(protocol.CodeEndingSession, "")
		case !loggedIn:
			resp = Result(protocol.CodeUseError, "login first")
		default:
			s.commands.Add(1)
			resp = s.handler(ctx, cmd)
			if resp == nil {
				resp = Result(protocol.CodeUnimplementedCommand, "")
			}
		}
		if err := s.reply(ctx, conn, cmd.ClTRID, resp); err != nil {
			return err
		}
		if resp.Code().ClosesSession() {
			return nil
		}
	}
}

func (s *Server) login(cmd *protocol.Command, loggedIn bool) *protocol.Response {
	l, ok := cmd.Session.(*protocol.Login)
	switch {
	case !ok:
		return Result(protocol.CodeSyntaxError, "")
	case loggedIn:
		return Result(protocol.CodeUseError, "already logged in")
	case l.ClientID != s.clientID || l.Password != s.password:
		return Result(protocol.CodeAuthenticationError, "")
	}
	s.logins.Add(1)
	return OK()
}

func (s *Server) reply(ctx context.Context, conn *transport.Conn, clTRID string, resp *protocol.Response) error {
	resp.TrID = protocol.TrID{ClTRID: clTRID, SvTRID: fmt.Sprintf("SV-%06d", s.svTRID.Add(1))}
	return s.send(ctx, conn, resp)
}

func (s *Server) send(ctx context.Context, conn *transport.Conn, c codec.Encoder) error {
	b, err := protocol.Marshal(c)
	if err != nil {
		return err
	}
	return conn.Write(ctx, b)
}

// OK returns a 1000 response carrying resData.
func OK(resData ...codec.Component) *protocol.Response {
	return &protocol.Response{
		Results: []protocol.Result{{Code: protocol.CodeOK}},
		ResData: resData,
	}
}

// Result returns a response with a single result of code.
func Result(code protocol.Code, msg string) *protocol.Response {
	return &protocol.Response{Results: []protocol.Result{{Code: code, Msg: msg}}}
}
