package persistence

import (
	"bufio"
	"errors"
	"os"
	"strconv"
	"strings"

	"github.com/lunardb/lunar/internal/store"
	"go.uber.org/zap"
)

var (
	errShortRecord    = errors.New("record has too few arguments")
	errUnknownCommand = errors.New("unknown command in log")
)

// Replay reads the log file and applies every record to the store. The
// caller must not have attached the log to the store yet: replay never
// writes to the file it is reading from.
//
// Records are reassembled line by line, which tolerates the framing
// produced by Propagate (one field per line) but not payloads containing
// CRLF. Blank lines are noise only between records; inside a record an
// empty line is a legitimate empty field. Malformed or short records are
// skipped with a warning; only a failure to open the file aborts the
// replay.
func Replay(filename string, s *store.Store, logger *zap.Logger) (int, error) {
	f, err := os.Open(filename)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil // fresh start
		}
		return 0, err
	}
	defer f.Close() //nolint:errcheck

	applied := 0
	var record []string

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 8*1024*1024)
	for scanner.Scan() {
		line := scanner.Text()

		if len(record) == 0 {
			if line == "" {
				continue
			}
			if line[0] != '*' {
				logger.Warn("skipping stray AOF line", zap.String("line", line))
				continue
			}
		}
		record = append(record, line)

		fields, done := reassemble(record)
		if !done {
			continue
		}
		record = record[:0]

		if fields == nil {
			logger.Warn("skipping malformed AOF record")
			continue
		}
		if err := apply(s, fields[0], fields[1:]); err != nil {
			logger.Warn("skipping unreplayable AOF record",
				zap.String("cmd", fields[0]),
				zap.Error(err),
			)
			continue
		}
		applied++
	}
	if err := scanner.Err(); err != nil {
		logger.Warn("AOF read stopped early", zap.Error(err))
	}

	return applied, scanner.Err()
}

// reassemble returns the record's fields once all lines of one framed
// record (*<n>, then n pairs of $<len> and payload) have accumulated.
// Each payload line must match its declared length, which keeps a
// corrupted field from shifting every following record. done is false
// while more lines are needed; a nil fields slice with done=true marks
// a record that can never complete.
func reassemble(lines []string) (fields []string, done bool) {
	n, err := strconv.Atoi(lines[0][1:])
	if err != nil || n <= 0 {
		return nil, true
	}
	if len(lines) < n*2+1 {
		return nil, false
	}

	fields = make([]string, 0, n)
	for i := 0; i < n; i++ {
		lenLine := lines[1+i*2]
		payload := lines[2+i*2]
		if len(lenLine) == 0 || lenLine[0] != '$' {
			return nil, true
		}
		want, err := strconv.Atoi(lenLine[1:])
		if err != nil || want != len(payload) {
			return nil, true
		}
		fields = append(fields, payload)
	}
	return fields, true
}

// apply dispatches one replayed record to the store's mutation API. The
// third SET field, when present, is the absolute expiration in unix
// milliseconds, exactly as logged; entries already expired are applied
// dead and collected by the usual expiry paths.
func apply(s *store.Store, cmd string, args []string) error {
	switch strings.ToLower(cmd) {
	case "set":
		if len(args) < 2 {
			return errShortRecord
		}
		var expireAt int64
		if len(args) >= 3 {
			var err error
			expireAt, err = strconv.ParseInt(args[2], 10, 64)
			if err != nil {
				return err
			}
		}
		s.SetAt(args[0], args[1], expireAt)
	case "del":
		if len(args) < 1 {
			return errShortRecord
		}
		s.Del(args[0])
	case "hset":
		if len(args) < 3 {
			return errShortRecord
		}
		_, err := s.HSet(args[0], args[1], args[2])
		return err
	case "hdel":
		if len(args) < 2 {
			return errShortRecord
		}
		_, err := s.HDel(args[0], args[1:]...)
		return err
	case "lpush":
		if len(args) < 2 {
			return errShortRecord
		}
		_, err := s.LPush(args[0], args[1:]...)
		return err
	case "rpush":
		if len(args) < 2 {
			return errShortRecord
		}
		_, err := s.RPush(args[0], args[1:]...)
		return err
	case "lpop":
		if len(args) < 1 {
			return errShortRecord
		}
		_, _, err := s.LPop(args[0])
		return err
	case "rpop":
		if len(args) < 1 {
			return errShortRecord
		}
		_, _, err := s.RPop(args[0])
		return err
	case "lset":
		if len(args) < 3 {
			return errShortRecord
		}
		idx, err := strconv.ParseInt(args[1], 10, 64)
		if err != nil {
			return err
		}
		return s.LSet(args[0], idx, args[2])
	case "lrem":
		if len(args) < 3 {
			return errShortRecord
		}
		count, err := strconv.ParseInt(args[1], 10, 64)
		if err != nil {
			return err
		}
		_, err = s.LRem(args[0], count, args[2])
		return err
	case "ltrim":
		if len(args) < 3 {
			return errShortRecord
		}
		start, err := strconv.ParseInt(args[1], 10, 64)
		if err != nil {
			return err
		}
		stop, err := strconv.ParseInt(args[2], 10, 64)
		if err != nil {
			return err
		}
		return s.LTrim(args[0], start, stop)
	default:
		return errUnknownCommand
	}
	return nil
}
