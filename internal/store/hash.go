package store

// HSet sets field to value in the hash stored at key, creating the hash if
// the key is absent. Returns 1 if the field was newly added, 0 if an
// existing field was overwritten.
func (s *Store) HSet(key, field, value string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entryLocked(key)
	if !ok {
		s.data[key] = &Entry{Type: TypeHash, Value: map[string]string{field: value}}
		s.propagate("hset", key, field, value)
		return 1, nil
	}
	if e.Type != TypeHash {
		return 0, ErrWrongType
	}

	h := e.Hash()
	_, existed := h[field]
	h[field] = value
	s.propagate("hset", key, field, value)
	if existed {
		return 0, nil
	}
	return 1, nil
}

// HSetNX sets field only if it is absent from the hash at key, creating the
// hash if the key is absent. Reports whether the field was written. The
// presence check and the write are one critical section.
func (s *Store) HSetNX(key, field, value string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entryLocked(key)
	if !ok {
		s.data[key] = &Entry{Type: TypeHash, Value: map[string]string{field: value}}
		s.propagate("hset", key, field, value)
		return true, nil
	}
	if e.Type != TypeHash {
		return false, ErrWrongType
	}

	h := e.Hash()
	if _, exists := h[field]; exists {
		return false, nil
	}
	h[field] = value
	s.propagate("hset", key, field, value)
	return true, nil
}

// HGet returns the value associated with field in the hash stored at key.
func (s *Store) HGet(key, field string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entryLocked(key)
	if !ok {
		return "", false, nil
	}
	if e.Type != TypeHash {
		return "", false, ErrWrongType
	}
	v, ok := e.Hash()[field]
	return v, ok, nil
}

// HDel removes the given fields, dropping the key once the hash is empty.
// Returns the number of fields actually removed.
func (s *Store) HDel(key string, fields ...string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entryLocked(key)
	if !ok {
		return 0, nil
	}
	if e.Type != TypeHash {
		return 0, ErrWrongType
	}

	h := e.Hash()
	var removed int64
	for _, f := range fields {
		if _, ok := h[f]; ok {
			delete(h, f)
			removed++
			s.propagate("hdel", key, f)
		}
	}
	if len(h) == 0 {
		delete(s.data, key)
	}
	return removed, nil
}

// HGetAll returns a copy of all fields and values of the hash stored at key.
func (s *Store) HGetAll(key string) (map[string]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entryLocked(key)
	if !ok {
		return map[string]string{}, nil
	}
	if e.Type != TypeHash {
		return nil, ErrWrongType
	}

	h := e.Hash()
	out := make(map[string]string, len(h))
	for f, v := range h {
		out[f] = v
	}
	return out, nil
}

// HExists reports whether field exists in the hash stored at key.
func (s *Store) HExists(key, field string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entryLocked(key)
	if !ok {
		return false, nil
	}
	if e.Type != TypeHash {
		return false, ErrWrongType
	}
	_, ok = e.Hash()[field]
	return ok, nil
}

// HLen returns the number of fields in the hash stored at key.
func (s *Store) HLen(key string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entryLocked(key)
	if !ok {
		return 0, nil
	}
	if e.Type != TypeHash {
		return 0, ErrWrongType
	}
	return int64(len(e.Hash())), nil
}

// HKeys returns all field names in the hash stored at key.
func (s *Store) HKeys(key string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entryLocked(key)
	if !ok {
		return nil, nil
	}
	if e.Type != TypeHash {
		return nil, ErrWrongType
	}

	h := e.Hash()
	out := make([]string, 0, len(h))
	for f := range h {
		out = append(out, f)
	}
	return out, nil
}

// HVals returns all values in the hash stored at key.
func (s *Store) HVals(key string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entryLocked(key)
	if !ok {
		return nil, nil
	}
	if e.Type != TypeHash {
		return nil, ErrWrongType
	}

	h := e.Hash()
	out := make([]string, 0, len(h))
	for _, v := range h {
		out = append(out, v)
	}
	return out, nil
}

// MergeHash extends the hash at key with the given fields, creating it if
// absent. Snapshot load uses it so a loaded record does not clobber fields
// that replay already produced. Bypasses the log.
func (s *Store) MergeHash(key string, fields map[string]string, expireAt int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entryLocked(key)
	if !ok {
		h := make(map[string]string, len(fields))
		for f, v := range fields {
			h[f] = v
		}
		s.data[key] = &Entry{Type: TypeHash, Value: h, ExpireAt: expireAt}
		return nil
	}
	if e.Type != TypeHash {
		return ErrWrongType
	}

	h := e.Hash()
	for f, v := range fields {
		h[f] = v
	}
	return nil
}
