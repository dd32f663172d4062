package store

import "strconv"

// LPush prepends values to the list at key, creating it if absent. Values
// are pushed one by one, so ("a", "b") yields [b, a, ...]. Returns the
// resulting length.
func (s *Store) LPush(key string, values ...string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entryLocked(key)
	if !ok {
		e = &Entry{Type: TypeList, Value: []string(nil)}
		s.data[key] = e
	}
	if e.Type != TypeList {
		return 0, ErrWrongType
	}

	list := e.List()
	for _, v := range values {
		list = append([]string{v}, list...)
	}
	e.Value = list
	s.propagate("lpush", append([]string{key}, values...)...)
	return int64(len(list)), nil
}

// RPush appends values to the list at key, creating it if absent. Returns
// the resulting length.
func (s *Store) RPush(key string, values ...string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entryLocked(key)
	if !ok {
		e = &Entry{Type: TypeList, Value: []string(nil)}
		s.data[key] = e
	}
	if e.Type != TypeList {
		return 0, ErrWrongType
	}

	e.Value = append(e.List(), values...)
	s.propagate("rpush", append([]string{key}, values...)...)
	return int64(len(e.List())), nil
}

// LPop removes and returns the head of the list at key. The key is dropped
// once the list is empty.
func (s *Store) LPop(key string) (string, bool, error) {
	return s.pop(key, true)
}

// RPop removes and returns the tail of the list at key.
func (s *Store) RPop(key string) (string, bool, error) {
	return s.pop(key, false)
}

func (s *Store) pop(key string, left bool) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entryLocked(key)
	if !ok {
		return "", false, nil
	}
	if e.Type != TypeList {
		return "", false, ErrWrongType
	}

	list := e.List()
	if len(list) == 0 {
		delete(s.data, key)
		return "", false, nil
	}

	var v string
	if left {
		v = list[0]
		list = list[1:]
		s.propagate("lpop", key)
	} else {
		v = list[len(list)-1]
		list = list[:len(list)-1]
		s.propagate("rpop", key)
	}

	if len(list) == 0 {
		delete(s.data, key)
	} else {
		e.Value = list
	}
	return v, true, nil
}

// LLen returns the length of the list at key.
func (s *Store) LLen(key string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entryLocked(key)
	if !ok {
		return 0, nil
	}
	if e.Type != TypeList {
		return 0, ErrWrongType
	}
	return int64(len(e.List())), nil
}

// LRange returns a copy of the elements between start and stop inclusive.
// Negative indexes count from the tail, -1 being the last element.
func (s *Store) LRange(key string, start, stop int64) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entryLocked(key)
	if !ok {
		return nil, nil
	}
	if e.Type != TypeList {
		return nil, ErrWrongType
	}

	list := e.List()
	from, to, ok := clampRange(start, stop, int64(len(list)))
	if !ok {
		return nil, nil
	}
	out := make([]string, to-from+1)
	copy(out, list[from:to+1])
	return out, nil
}

// LIndex returns the element at index, negative counting from the tail.
func (s *Store) LIndex(key string, index int64) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entryLocked(key)
	if !ok {
		return "", false, nil
	}
	if e.Type != TypeList {
		return "", false, ErrWrongType
	}

	list := e.List()
	if index < 0 {
		index += int64(len(list))
	}
	if index < 0 || index >= int64(len(list)) {
		return "", false, nil
	}
	return list[index], true, nil
}

// LSet replaces the element at index. ErrNoSuchKey if the key is absent,
// ErrIndexOutRange if the index does not address an element.
func (s *Store) LSet(key string, index int64, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entryLocked(key)
	if !ok {
		return ErrNoSuchKey
	}
	if e.Type != TypeList {
		return ErrWrongType
	}

	list := e.List()
	if index < 0 {
		index += int64(len(list))
	}
	if index < 0 || index >= int64(len(list)) {
		return ErrIndexOutRange
	}
	list[index] = value
	s.propagate("lset", key, strconv.FormatInt(index, 10), value)
	return nil
}

// LRem removes occurrences of value: count > 0 from the head, count < 0
// from the tail, count == 0 all of them. Returns the number removed.
func (s *Store) LRem(key string, count int64, value string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entryLocked(key)
	if !ok {
		return 0, nil
	}
	if e.Type != TypeList {
		return 0, ErrWrongType
	}

	list := e.List()
	limit := count
	if limit < 0 {
		limit = -limit
	}

	var removed int64
	kept := make([]string, 0, len(list))

	if count >= 0 {
		for _, v := range list {
			if v == value && (count == 0 || removed < limit) {
				removed++
				continue
			}
			kept = append(kept, v)
		}
	} else {
		for i := len(list) - 1; i >= 0; i-- {
			v := list[i]
			if v == value && removed < limit {
				removed++
				continue
			}
			kept = append([]string{v}, kept...)
		}
	}

	if removed > 0 {
		if len(kept) == 0 {
			delete(s.data, key)
		} else {
			e.Value = kept
		}
		s.propagate("lrem", key, strconv.FormatInt(count, 10), value)
	}
	return removed, nil
}

// LTrim keeps only the elements between start and stop inclusive. An empty
// resulting range drops the key.
func (s *Store) LTrim(key string, start, stop int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entryLocked(key)
	if !ok {
		return nil
	}
	if e.Type != TypeList {
		return ErrWrongType
	}

	list := e.List()
	from, to, ok := clampRange(start, stop, int64(len(list)))
	if !ok {
		delete(s.data, key)
	} else {
		trimmed := make([]string, to-from+1)
		copy(trimmed, list[from:to+1])
		e.Value = trimmed
	}
	s.propagate("ltrim", key, strconv.FormatInt(start, 10), strconv.FormatInt(stop, 10))
	return nil
}

// MergeList extends the list at key with elements at the tail, creating it
// if absent. Snapshot load uses it; bypasses the log.
func (s *Store) MergeList(key string, elements []string, expireAt int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entryLocked(key)
	if !ok {
		list := make([]string, len(elements))
		copy(list, elements)
		s.data[key] = &Entry{Type: TypeList, Value: list, ExpireAt: expireAt}
		return nil
	}
	if e.Type != TypeList {
		return ErrWrongType
	}
	e.Value = append(e.List(), elements...)
	return nil
}

// clampRange resolves Redis-style start/stop (negative = from tail) against
// a list of length n. ok is false when the range selects nothing.
func clampRange(start, stop, n int64) (from, to int64, ok bool) {
	if start < 0 {
		start += n
	}
	if stop < 0 {
		stop += n
	}
	if start < 0 {
		start = 0
	}
	if stop >= n {
		stop = n - 1
	}
	if n == 0 || start > stop || start >= n {
		return 0, 0, false
	}
	return start, stop, true
}
