package resp

// Check validates that the cursor points at one complete, well-formed RESP
// frame. It verifies framing only: type markers, declared lengths and
// terminators. Payloads are not allocated or converted. On success the
// cursor has consumed exactly one frame; on ErrNoMoreData the caller should
// accumulate more bytes, rewind and retry.
func Check(c *Cursor) error {
	marker, err := c.readByte()
	if err != nil {
		return err
	}

	switch marker {
	case TypeArray:
		n, err := c.readNumber()
		if err != nil {
			return err
		}
		for i := int64(0); i < n; i++ {
			if err := Check(c); err != nil {
				return err
			}
		}
		return nil

	case TypeBulkString:
		b, err := c.peekByte()
		if err != nil {
			return err
		}
		if b == '-' {
			// the only valid negative length is the null bulk
			line, err := c.readLine()
			if err != nil {
				return err
			}
			if string(line) != "-1" {
				return ErrUnRESP
			}
			return nil
		}
		n, err := c.readNumber()
		if err != nil {
			return err
		}
		if n < 0 {
			return ErrTypeConversion
		}
		// payload plus trailing \r\n
		return c.skip(int(n) + 2)

	case TypeInteger:
		_, err := c.readNumber()
		return err

	case TypeSimpleString, TypeError:
		_, err := c.readLine()
		return err

	default:
		return ErrUnRESP
	}
}
