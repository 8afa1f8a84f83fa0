// Package feed fans decoded payload.Records out to TCP subscribers as
// newline-delimited JSON: one listener, many attached clients, and
// every decoded record broadcast to all of them.
package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/charmbracelet/log"
)

// MaxClients bounds how many subscribers the feed serves at once. A
// connection beyond the cap is accepted and immediately closed.
const MaxClients = 8

// Envelope is one line of the NDJSON feed: a decoded record plus the
// channel and command it arrived on.
type Envelope struct {
	Time       time.Time   `json:"time"`
	ChannelTag string      `json:"channel_tag"`
	CmdID      uint16      `json:"cmd_id"`
	Record     interface{} `json:"record"`
}

// Server accepts TCP subscribers and broadcasts every Publish call to
// all of them as one JSON line.
type Server struct {
	logger   *log.Logger
	listener net.Listener

	mu      sync.Mutex
	clients map[net.Conn]struct{}
}

// Listen opens addr (e.g. ":7373") and returns a Server ready to
// accept subscribers once Serve is called.
func Listen(addr string, logger *log.Logger) (*Server, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("feed: listen %s: %w", addr, err)
	}
	return &Server{
		logger:   logger,
		listener: ln,
		clients:  make(map[net.Conn]struct{}),
	}, nil
}

// Addr reports the listener's bound address, useful when addr was
// ":0" and the port was chosen by the kernel.
func (s *Server) Addr() net.Addr {
	return s.listener.Addr()
}

// Serve accepts subscriber connections until ctx is canceled or the
// listener errors.
func (s *Server) Serve(ctx context.Context) error {
	go func() {
		<-ctx.Done()
		_ = s.listener.Close()
	}()

	for {
		conn, err := s.listener.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("feed: accept: %w", err)
		}

		s.mu.Lock()
		full := len(s.clients) >= MaxClients
		if !full {
			s.clients[conn] = struct{}{}
		}
		s.mu.Unlock()

		if full {
			s.logger.Warn("feed: rejecting subscriber, at capacity", "max", MaxClients)
			_ = conn.Close()
			continue
		}

		s.logger.Info("feed: subscriber attached", "remote", conn.RemoteAddr())
		go s.watchDisconnect(conn)
	}
}

// watchDisconnect removes conn from the client set once a read on it
// fails, which happens as soon as the peer closes its side (this feed
// is write-only to clients, so any read error means "gone").
func (s *Server) watchDisconnect(conn net.Conn) {
	buf := make([]byte, 1)
	for {
		if _, err := conn.Read(buf); err != nil {
			break
		}
	}
	s.removeClient(conn)
}

func (s *Server) removeClient(conn net.Conn) {
	s.mu.Lock()
	if _, ok := s.clients[conn]; ok {
		delete(s.clients, conn)
		s.mu.Unlock()
		_ = conn.Close()
		s.logger.Info("feed: subscriber detached", "remote", conn.RemoteAddr())
		return
	}
	s.mu.Unlock()
}

// Publish sends env to every currently attached subscriber. A
// subscriber whose write fails is dropped.
func (s *Server) Publish(env Envelope) error {
	line, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("feed: marshal envelope: %w", err)
	}
	line = append(line, '\n')

	s.mu.Lock()
	conns := make([]net.Conn, 0, len(s.clients))
	for c := range s.clients {
		conns = append(conns, c)
	}
	s.mu.Unlock()

	for _, c := range conns {
		if _, err := c.Write(line); err != nil {
			s.removeClient(c)
		}
	}
	return nil
}

// Close shuts down the listener and disconnects every subscriber.
func (s *Server) Close() error {
	err := s.listener.Close()

	s.mu.Lock()
	conns := make([]net.Conn, 0, len(s.clients))
	for c := range s.clients {
		conns = append(conns, c)
	}
	s.clients = make(map[net.Conn]struct{})
	s.mu.Unlock()

	for _, c := range conns {
		_ = c.Close()
	}
	return err
}
