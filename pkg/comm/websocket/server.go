// Package websocket broadcasts device events to websocket clients.
package websocket

import (
	"context"
	"net"
	"net/http"
	"sync"

	"github.com/golang/glog"
	"golang.org/x/net/websocket"

	fx "github.com/robotalks/teraranger/pkg/framework"
	"github.com/robotalks/teraranger/pkg/msgs"
)

// Server sends every event as a binary Typed packet to all clients.
// It implements device.Registrar.
type Server struct {
	// Addr is the listen address used by Run.
	Addr string

	clients map[*websocket.Conn]chan []byte
	lock    sync.Mutex
}

const clientQueueSize = 16

// NewServer creates a Server.
func NewServer(addr string) *Server {
	return &Server{Addr: addr, clients: make(map[*websocket.Conn]chan []byte)}
}

// Handler serves websocket connections.
func (s *Server) Handler() http.Handler {
	return websocket.Handler(s.serve)
}

func (s *Server) serve(conn *websocket.Conn) {
	ch := make(chan []byte, clientQueueSize)
	s.lock.Lock()
	s.clients[conn] = ch
	s.lock.Unlock()
	glog.V(2).Infof("websocket client %s connected", conn.Request().RemoteAddr)

	defer func() {
		s.drop(conn)
		conn.Close()
		glog.V(2).Infof("websocket client %s disconnected", conn.Request().RemoteAddr)
	}()
	closed := make(chan struct{})
	go func() {
		// consume until the client goes away.
		var discard []byte
		for websocket.Message.Receive(conn, &discard) == nil {
		}
		close(closed)
	}()
	for {
		select {
		case pkt, ok := <-ch:
			if !ok {
				return
			}
			if err := websocket.Message.Send(conn, pkt); err != nil {
				return
			}
		case <-closed:
			return
		}
	}
}

func (s *Server) drop(conn *websocket.Conn) {
	s.lock.Lock()
	if ch, ok := s.clients[conn]; ok {
		delete(s.clients, conn)
		close(ch)
	}
	s.lock.Unlock()
}

// Clients returns the number of connected clients.
func (s *Server) Clients() int {
	s.lock.Lock()
	defer s.lock.Unlock()
	return len(s.clients)
}

// SendEvent implements device.Registrar. Clients that can't keep up
// are disconnected.
func (s *Server) SendEvent(ctx context.Context, msg fx.Message) error {
	pkt, err := msgs.EncodeEvent(msg)
	if err != nil {
		return err
	}
	s.lock.Lock()
	defer s.lock.Unlock()
	for conn, ch := range s.clients {
		select {
		case ch <- pkt:
		default:
			glog.Warningf("websocket client %s too slow, dropped", conn.Request().RemoteAddr)
			delete(s.clients, conn)
			close(ch)
		}
	}
	return nil
}

// Run implements Runnable.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.Addr)
	if err != nil {
		return err
	}
	glog.Infof("websocket downlink on %s", ln.Addr())
	mux := http.NewServeMux()
	mux.Handle("/", s.Handler())
	srv := &http.Server{Handler: mux}
	err = fx.RunWithContextCloser(ctx, srv, func() error {
		return srv.Serve(ln)
	})
	if err == http.ErrServerClosed {
		err = ctx.Err()
	}
	return err
}

// AddToLoop implements LoopAdder.
func (s *Server) AddToLoop(loop *fx.Loop) {
	loop.AddRunnable(s)
}
