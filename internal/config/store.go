package config

import "sync/atomic"

// Store hands out the live configuration. The reload goroutine swaps the
// pointer while request handlers read it, so access goes through
// atomic.Pointer instead of sharing a mutable struct.
type Store struct {
	ptr atomic.Pointer[Config]
}

func NewStore(cfg *Config) *Store {
	s := &Store{}
	s.ptr.Store(cfg)
	return s
}

func (s *Store) Load() *Config {
	return s.ptr.Load()
}

func (s *Store) Swap(cfg *Config) {
	s.ptr.Store(cfg)
}
