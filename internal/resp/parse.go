package resp

import "unicode/utf8"

// Parse converts one frame, previously validated by Check, into a Value.
// Arrays become ordered sub-values, bulk strings keep their raw bytes,
// $-1 becomes a null bulk, and simple/error payloads must be valid UTF-8.
func Parse(c *Cursor) (Value, error) {
	marker, err := c.readByte()
	if err != nil {
		return Value{}, err
	}

	switch marker {
	case TypeArray:
		n, err := c.readNumber()
		if err != nil {
			return Value{}, err
		}
		if n < 0 {
			return Value{Type: TypeArray, IsNull: true}, nil
		}
		elems := make([]Value, 0, n)
		for i := int64(0); i < n; i++ {
			v, err := Parse(c)
			if err != nil {
				return Value{}, err
			}
			elems = append(elems, v)
		}
		return MakeArray(elems), nil

	case TypeBulkString:
		b, err := c.peekByte()
		if err != nil {
			return Value{}, err
		}
		if b == '-' {
			line, err := c.readLine()
			if err != nil {
				return Value{}, err
			}
			if string(line) != "-1" {
				return Value{}, ErrUnRESP
			}
			return MakeNilBulkString(), nil
		}
		n, err := c.readNumber()
		if err != nil {
			return Value{}, err
		}
		if n < 0 {
			return Value{}, ErrTypeConversion
		}
		if int64(c.Remaining()) < n+2 {
			return Value{}, ErrNoMoreData
		}
		data := make([]byte, n)
		copy(data, c.chunk())
		if err := c.skip(int(n) + 2); err != nil {
			return Value{}, err
		}
		return Value{Type: TypeBulkString, String: data}, nil

	case TypeInteger:
		n, err := c.readNumber()
		if err != nil {
			return Value{}, err
		}
		return MakeInteger(n), nil

	case TypeSimpleString, TypeError:
		line, err := c.readLine()
		if err != nil {
			return Value{}, err
		}
		if !utf8.Valid(line) {
			return Value{}, ErrTypeConversion
		}
		s := make([]byte, len(line))
		copy(s, line)
		return Value{Type: marker, String: s}, nil

	default:
		return Value{}, ErrUnRESP
	}
}
