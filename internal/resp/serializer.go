package resp

import (
	"bytes"
)

// SerializeCommand encodes a command and its arguments in the array-of-bulks
// framing shared by the wire protocol and the append-only log:
// *<n>\r\n followed by n length-prefixed fields, command name first.
func SerializeCommand(cmd string, args ...string) ([]byte, error) {
	var buf bytes.Buffer
	enc := NewEncoder(&buf)

	elements := make([]Value, 1+len(args))

	elements[0] = MakeBulkString(cmd)

	for i, arg := range args {
		elements[i+1] = MakeBulkString(arg)
	}

	root := MakeArray(elements)

	if err := enc.Write(root); err != nil {
		return nil, err
	}
	if err := enc.Flush(); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

// Serialize renders a single Value to bytes. The TypeNoReply sentinel
// yields an empty slice.
func Serialize(v Value) ([]byte, error) {
	var buf bytes.Buffer
	enc := NewEncoder(&buf)

	if err := enc.Write(v); err != nil {
		return nil, err
	}
	if err := enc.Flush(); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}
