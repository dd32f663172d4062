package resp

import (
	"bytes"
	"errors"
	"strconv"
)

// Cursor is a position-tracked view over a byte buffer. Check and Parse
// advance it as they consume bytes; on ErrNoMoreData the caller keeps the
// buffer, reads more bytes and retries from the saved position.
type Cursor struct {
	buf []byte
	pos int
}

func NewCursor(b []byte) *Cursor {
	return &Cursor{buf: b}
}

// Pos returns the number of bytes consumed so far.
func (c *Cursor) Pos() int {
	return c.pos
}

// SetPos rewinds or advances the cursor to an absolute position.
func (c *Cursor) SetPos(p int) {
	c.pos = p
}

// Remaining returns the number of unread bytes.
func (c *Cursor) Remaining() int {
	return len(c.buf) - c.pos
}

func (c *Cursor) readByte() (byte, error) {
	if c.pos >= len(c.buf) {
		return 0, ErrNoMoreData
	}
	b := c.buf[c.pos]
	c.pos++
	return b, nil
}

func (c *Cursor) peekByte() (byte, error) {
	if c.pos >= len(c.buf) {
		return 0, ErrNoMoreData
	}
	return c.buf[c.pos], nil
}

func (c *Cursor) skip(n int) error {
	if n < 0 || c.pos+n > len(c.buf) {
		return ErrNoMoreData
	}
	c.pos += n
	return nil
}

// chunk returns the unread tail without copying.
func (c *Cursor) chunk() []byte {
	return c.buf[c.pos:]
}

// readLine returns the bytes up to the next \r\n and consumes the
// terminator. A bare \n without \r does not terminate a line.
func (c *Cursor) readLine() ([]byte, error) {
	i := bytes.Index(c.buf[c.pos:], []byte("\r\n"))
	if i < 0 {
		return nil, ErrNoMoreData
	}
	line := c.buf[c.pos : c.pos+i]
	c.pos += i + 2
	return line, nil
}

// readNumber reads a \r\n-terminated line of decimal ASCII digits with an
// optional sign and parses it as a signed 64-bit integer.
func (c *Cursor) readNumber() (int64, error) {
	line, err := c.readLine()
	if err != nil {
		return 0, err
	}

	n, err := strconv.ParseInt(string(line), 10, 64)
	if err != nil {
		var numErr *strconv.NumError
		if errors.As(err, &numErr) && errors.Is(numErr.Err, strconv.ErrRange) {
			return 0, ErrOverflow
		}
		return 0, ErrNotNumber
	}
	return n, nil
}
