package dispatch

import (
	"io"
	"net"
	"time"

	"github.com/google/uuid"

	"github.com/cuemby/infod/pkg/log"
	"github.com/cuemby/infod/pkg/security"
)

// Listener accepts connections speaking the framed text protocol (spec.md
// 2) and enqueues each request onto a Pool. One goroutine per connection
// reads frames serially; replies are written by whichever pool worker
// processes the request, not by the reader goroutine, so a slow handler
// cannot stall the read side of other connections.
type Listener struct {
	pool *Pool
}

func NewListener(pool *Pool) *Listener {
	return &Listener{pool: pool}
}

// Serve accepts connections from ln until Accept returns an error, which is
// the expected way a graceful shutdown unwinds this loop (closing ln).
func (l *Listener) Serve(ln net.Listener) error {
	for {
		conn, err := ln.Accept()
		if err != nil {
			return err
		}
		go l.serveConn(conn)
	}
}

func (l *Listener) serveConn(conn net.Conn) {
	connID := uuid.NewString()
	logger := log.WithConnID(connID)
	RecordConnectionOpened()
	defer func() {
		RecordConnectionClosed()
		_ = conn.Close()
	}()

	header := make([]byte, HeaderSize)
	for {
		if _, err := io.ReadFull(conn, header); err != nil {
			if err != io.EOF {
				logger.Debug().Err(err).Msg("connection read ended")
			}
			return
		}
		bodyLen, err := DecodeHeader(header)
		if err != nil {
			logger.Warn().Err(err).Msg("malformed frame header, closing connection")
			return
		}

		body := make([]byte, bodyLen)
		if bodyLen > 0 {
			if _, err := io.ReadFull(conn, body); err != nil {
				logger.Debug().Err(err).Msg("connection read ended mid-body")
				return
			}
		}

		l.pool.Enqueue(&Transaction{
			Conn:      conn,
			ConnID:    connID,
			Principal: security.Anonymous,
			Body:      body,
			ArrivedAt: time.Now(),
		})
	}
}
