package refresh

import (
	"bufio"
	"log"
	"net"
)

// Server accepts TCP subscribers for the line-delimited event feed
// (used by `moviedash listen` and other terminal dashboards).
type Server struct {
	Addr string
	Hub  *Hub

	ln net.Listener
}

func NewServer(addr string, hub *Hub) *Server {
	return &Server{Addr: addr, Hub: hub}
}

func (s *Server) Run() error {
	ln, err := net.Listen("tcp", s.Addr)
	if err != nil {
		return err
	}
	s.ln = ln
	log.Printf("[refresh] listening on %s", s.Addr)

	for {
		conn, err := ln.Accept()
		if err != nil {
			return err
		}

		s.Hub.Subscribe(conn)
		log.Printf("[refresh] subscriber connected: %s", conn.RemoteAddr())

		go func(c net.Conn) {
			defer func() {
				s.Hub.Unsubscribe(c)
				log.Printf("[refresh] subscriber disconnected: %s", c.RemoteAddr())
			}()

			// push-only feed; drain and discard anything the client sends
			sc := bufio.NewScanner(c)
			for sc.Scan() {
			}
		}(conn)
	}
}

func (s *Server) Close() error {
	if s.ln == nil {
		return nil
	}
	return s.ln.Close()
}
