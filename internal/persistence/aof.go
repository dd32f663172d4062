// Package persistence holds the two durability mechanisms: the append-only
// command log (AOF) and the periodic binary snapshot (RDB).
//
// The AOF is best effort: records accumulate in memory and reach the file
// on a timer, without a per-record fsync. A clean shutdown flushes and
// syncs; a crash can lose everything since the last flush.
package persistence

import (
	"bytes"
	"os"
	"sync"
	"time"

	"github.com/lunardb/lunar/internal/resp"
	"go.uber.org/zap"
)

// AOF is the append-only command log. Propagate is safe for concurrent use;
// the buffer has its own lock, independent of the store's.
type AOF struct {
	file     *os.File
	filename string
	interval time.Duration

	mu  sync.Mutex // guards buf
	buf bytes.Buffer

	stopChan chan struct{}
	wg       sync.WaitGroup
	logger   *zap.Logger
}

// NewAOF opens (creating if needed) the log file and starts the background
// flusher.
func NewAOF(filename string, flushInterval time.Duration, logger *zap.Logger) (*AOF, error) {
	f, err := os.OpenFile(filename, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return nil, err
	}

	a := &AOF{
		file:     f,
		filename: filename,
		interval: flushInterval,
		stopChan: make(chan struct{}),
		logger:   logger,
	}

	a.wg.Add(1)
	go a.listen()

	return a, nil
}

// Propagate appends one command record to the in-memory buffer, framed the
// same way as the wire protocol: *<n>\r\n then length-prefixed fields.
func (a *AOF) Propagate(cmd string, args ...string) {
	payload, err := resp.SerializeCommand(cmd, args...)
	if err != nil {
		a.logger.Error("failed to serialize AOF record", zap.Error(err))
		return
	}

	a.mu.Lock()
	a.buf.Write(payload)
	a.mu.Unlock()
}

func (a *AOF) listen() {
	defer a.wg.Done()

	ticker := time.NewTicker(a.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			a.Flush()
		case <-a.stopChan:
			return
		}
	}
}

// Flush writes the buffered records to the file and clears the buffer. It
// does not force a sync. A write failure keeps the unwritten remainder for
// the next tick.
func (a *AOF) Flush() {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.buf.Len() == 0 {
		return
	}

	n, err := a.file.Write(a.buf.Bytes())
	if err != nil {
		a.logger.Error("AOF flush error", zap.Error(err), zap.Int("written", n))
		a.buf.Next(n)
		return
	}
	a.buf.Reset()
}

// Close stops the flusher, drains the buffer and syncs the file.
func (a *AOF) Close() error {
	close(a.stopChan)
	a.wg.Wait()

	a.Flush()
	a.file.Sync() //nolint:errcheck
	return a.file.Close()
}
