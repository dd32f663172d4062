package persistence

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/lunardb/lunar/internal/store"
	"go.uber.org/zap"
)

// Snapshot file layout: "REDIS" magic + 4-byte version, a SELECTDB record,
// then one record per live entry, then the EOF opcode. All lengths are a
// single byte, which caps keys, elements and collection sizes at 255;
// Save fails loudly instead of truncating.
const (
	rdbMagic   = "REDIS"
	rdbVersion = "0001"

	rdbTypeString byte = 0
	rdbTypeList   byte = 1
	rdbTypeSet    byte = 2 // reserved
	rdbTypeZSet   byte = 3 // reserved
	rdbTypeHash   byte = 4

	rdbOpcodeExpireMS byte = 252
	rdbOpcodeSelectDB byte = 254
	rdbOpcodeEOF      byte = 255

	rdbMaxLen = 255
)

// RDB writes and loads point-in-time binary snapshots of the store.
type RDB struct {
	filename string
	logger   *zap.Logger
}

func NewRDB(filename string, logger *zap.Logger) *RDB {
	return &RDB{
		filename: filename,
		logger:   logger,
	}
}

// Dump serializes the full store. The store lock is held for the entire
// serialization: this is stop-the-world with respect to commands, and its
// duration scales with total data size.
func (r *RDB) Dump(s *store.Store) ([]byte, error) {
	now := time.Now().UnixMilli()

	var buf bytes.Buffer
	buf.WriteString(rdbMagic)
	buf.WriteString(rdbVersion)

	buf.WriteByte(rdbOpcodeSelectDB)
	binary.Write(&buf, binary.BigEndian, uint32(0)) //nolint:errcheck

	var dumpErr error
	s.Range(func(key string, e *store.Entry) {
		if dumpErr != nil {
			return
		}
		dumpErr = writeEntry(&buf, key, e, now)
	})
	if dumpErr != nil {
		return nil, dumpErr
	}

	buf.WriteByte(rdbOpcodeEOF)
	return buf.Bytes(), nil
}

func writeEntry(buf *bytes.Buffer, key string, e *store.Entry, now int64) error {
	if e.ExpireAt != 0 {
		if now >= e.ExpireAt {
			return nil // dead at dump time, not serialized
		}
		buf.WriteByte(rdbOpcodeExpireMS)
		binary.Write(buf, binary.BigEndian, uint64(e.ExpireAt)) //nolint:errcheck
	}

	switch e.Type {
	case store.TypeString:
		buf.WriteByte(rdbTypeString)
		if err := writeString(buf, key); err != nil {
			return err
		}
		return writeString(buf, e.Str())

	case store.TypeList:
		list := e.List()
		if len(list) > rdbMaxLen {
			return fmt.Errorf("list %q has %d elements, snapshot format caps at %d", key, len(list), rdbMaxLen)
		}
		buf.WriteByte(rdbTypeList)
		if err := writeString(buf, key); err != nil {
			return err
		}
		buf.WriteByte(byte(len(list)))
		for _, v := range list {
			if err := writeString(buf, v); err != nil {
				return err
			}
		}
		return nil

	case store.TypeHash:
		h := e.Hash()
		if len(h) > rdbMaxLen {
			return fmt.Errorf("hash %q has %d fields, snapshot format caps at %d", key, len(h), rdbMaxLen)
		}
		buf.WriteByte(rdbTypeHash)
		if err := writeString(buf, key); err != nil {
			return err
		}
		buf.WriteByte(byte(len(h)))
		for f, v := range h {
			if err := writeString(buf, f); err != nil {
				return err
			}
			if err := writeString(buf, v); err != nil {
				return err
			}
		}
		return nil

	default:
		return fmt.Errorf("unsupported entry type %d for key %q", e.Type, key)
	}
}

func writeString(buf *bytes.Buffer, s string) error {
	if len(s) > rdbMaxLen {
		return fmt.Errorf("value of %d bytes exceeds the snapshot format's %d-byte limit", len(s), rdbMaxLen)
	}
	buf.WriteByte(byte(len(s)))
	buf.WriteString(s)
	return nil
}

// Save dumps the store and atomically replaces the snapshot file
// (tmp write, sync, rename).
func (r *RDB) Save(s *store.Store) error {
	start := time.Now()

	data, err := r.Dump(s)
	if err != nil {
		return err
	}

	tmpFile := r.filename + ".tmp"
	f, err := os.Create(tmpFile)
	if err != nil {
		return err
	}

	if _, err := f.Write(data); err != nil {
		f.Close() //nolint:errcheck
		return err
	}
	if err := f.Sync(); err != nil {
		f.Close() //nolint:errcheck
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}

	if err := os.Rename(tmpFile, r.filename); err != nil {
		return err
	}

	r.logger.Info("snapshot saved",
		zap.String("file", r.filename),
		zap.Int("bytes", len(data)),
		zap.Duration("duration", time.Since(start)),
	)
	return nil
}

// Load reads the snapshot file into the store. A header mismatch is an
// error the caller must treat as fatal at startup. Entries already expired
// at load time are skipped; list and hash records merge into a pre-existing
// key of the same type instead of replacing it, so loading layers safely
// over state the log replay already rebuilt.
func (r *RDB) Load(s *store.Store) error {
	data, err := os.ReadFile(r.filename)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	header := rdbMagic + rdbVersion
	if len(data) < len(header) || string(data[:len(header)]) != header {
		return fmt.Errorf("invalid snapshot header in %s", r.filename)
	}

	start := time.Now()
	now := time.Now().UnixMilli()
	rd := bytes.NewReader(data[len(header):])

	loaded := 0
	for {
		var expireAt int64

		opcode, err := rd.ReadByte()
		if err != nil {
			return fmt.Errorf("truncated snapshot: %w", err)
		}

		if opcode == rdbOpcodeExpireMS {
			var ms uint64
			if err := binary.Read(rd, binary.BigEndian, &ms); err != nil {
				return fmt.Errorf("truncated expire record: %w", err)
			}
			expireAt = int64(ms)
			if opcode, err = rd.ReadByte(); err != nil {
				return fmt.Errorf("truncated snapshot: %w", err)
			}
		}

		if opcode == rdbOpcodeSelectDB {
			// single-namespace store: index read and discarded
			var idx uint32
			if err := binary.Read(rd, binary.BigEndian, &idx); err != nil {
				return fmt.Errorf("truncated selectdb record: %w", err)
			}
			continue
		}
		if opcode == rdbOpcodeEOF {
			break
		}

		key, err := readString(rd)
		if err != nil {
			return err
		}

		expired := expireAt != 0 && expireAt <= now

		switch opcode {
		case rdbTypeString:
			val, err := readString(rd)
			if err != nil {
				return err
			}
			if expired {
				continue
			}
			s.Restore(key, store.TypeString, val, expireAt)

		case rdbTypeList:
			elems, err := readStrings(rd)
			if err != nil {
				return err
			}
			if expired {
				continue
			}
			if err := s.MergeList(key, elems, expireAt); err != nil {
				r.logger.Warn("snapshot list record ignored", zap.String("key", key), zap.Error(err))
				continue
			}

		case rdbTypeHash:
			n, err := rd.ReadByte()
			if err != nil {
				return fmt.Errorf("truncated hash record: %w", err)
			}
			fields := make(map[string]string, n)
			for i := 0; i < int(n); i++ {
				f, err := readString(rd)
				if err != nil {
					return err
				}
				v, err := readString(rd)
				if err != nil {
					return err
				}
				fields[f] = v
			}
			if expired {
				continue
			}
			if err := s.MergeHash(key, fields, expireAt); err != nil {
				r.logger.Warn("snapshot hash record ignored", zap.String("key", key), zap.Error(err))
				continue
			}

		default:
			return fmt.Errorf("unsupported record type %d in snapshot", opcode)
		}
		loaded++
	}

	r.logger.Info("snapshot loaded",
		zap.String("file", r.filename),
		zap.Int("records", loaded),
		zap.Duration("duration", time.Since(start)),
	)
	return nil
}

func readString(rd *bytes.Reader) (string, error) {
	n, err := rd.ReadByte()
	if err != nil {
		return "", fmt.Errorf("truncated snapshot record: %w", err)
	}
	b := make([]byte, n)
	if _, err := io.ReadFull(rd, b); err != nil {
		return "", fmt.Errorf("truncated snapshot record: %w", err)
	}
	return string(b), nil
}

func readStrings(rd *bytes.Reader) ([]string, error) {
	n, err := rd.ReadByte()
	if err != nil {
		return nil, fmt.Errorf("truncated snapshot record: %w", err)
	}
	out := make([]string, 0, n)
	for i := 0; i < int(n); i++ {
		s, err := readString(rd)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}
