package server

import (
	"errors"
	"net"
	"sync"

	"github.com/lunardb/lunar/internal/resp"
)

// Peer represents a connected client. It owns the inbound byte buffer and
// provides synchronized methods for writing RESP-encoded replies.
type Peer struct {
	conn    net.Conn
	inbound []byte
	writer  *resp.Encoder
	mu      sync.Mutex
}

// NewPeer initializes a new client peer from a network connection
func NewPeer(conn net.Conn) *Peer {
	return &Peer{
		conn:   conn,
		writer: resp.NewEncoder(conn),
	}
}

// ReadCommand blocks until one complete frame has accumulated in the
// inbound buffer, then decodes and consumes it. Check runs first over the
// buffered bytes: ErrNoMoreData means the frame is still partial and more
// bytes are read from the connection; any other framing error is returned
// and the caller must drop the connection.
func (p *Peer) ReadCommand() (resp.Value, error) {
	for {
		if len(p.inbound) > 0 {
			c := resp.NewCursor(p.inbound)
			err := resp.Check(c)
			if err == nil {
				end := c.Pos()
				c.SetPos(0)
				v, err := resp.Parse(c)
				p.inbound = p.inbound[end:]
				return v, err
			}
			if !errors.Is(err, resp.ErrNoMoreData) {
				return resp.Value{}, err
			}
		}

		buf := make([]byte, 4096)
		n, err := p.conn.Read(buf)
		if err != nil {
			return resp.Value{}, err
		}
		p.inbound = append(p.inbound, buf[:n]...)
	}
}

// Send encodes and writes a RESP value to the client.
// This method is thread-safe and can be called from multiple goroutines
func (p *Peer) Send(v resp.Value) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.writer.Write(v)
}

// Flush sends all buffered data to the client
func (p *Peer) Flush() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.writer.Flush()
}

// InputBuffered returns the number of bytes waiting in the inbound buffer.
// A pipelining client keeps it non-zero between commands, so the reply
// flush can be deferred until the buffer drains.
func (p *Peer) InputBuffered() int {
	return len(p.inbound)
}

// Close terminates the underlying network connection
func (p *Peer) Close() error {
	return p.conn.Close()
}
