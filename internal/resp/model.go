package resp

import "errors"

const (
	TypeSimpleString = '+'
	TypeError        = '-'
	TypeInteger      = ':'
	TypeBulkString   = '$'
	TypeArray        = '*'
	// TypeNoReply is a sentinel for "write nothing to the wire".
	// The encoder emits zero bytes for it.
	TypeNoReply = 0
)

// Structural errors reported by Check and Parse.
var (
	// ErrNoMoreData means the buffer ends before the frame does. The caller
	// should read more bytes and retry; it is not a protocol violation.
	ErrNoMoreData = errors.New("no more data to read")
	// ErrNotNumber means a length or integer field held non-digit bytes.
	ErrNotNumber = errors.New("value is not a number")
	// ErrOverflow means a declared length does not fit in the buffer arithmetic.
	ErrOverflow = errors.New("length overflow")
	// ErrTypeConversion means a payload could not be converted: a negative
	// bulk length other than -1, or invalid UTF-8 in a simple string.
	ErrTypeConversion = errors.New("type conversion failed")
	// ErrUnRESP means the bytes do not follow the RESP grammar.
	ErrUnRESP = errors.New("data does not conform to RESP")
)

type Value struct {
	String  []byte // SimpleString, Error, BulkString
	Array   []Value
	Integer int64
	Type    byte
	IsNull  bool // for nil BulkString and nil Array
}
