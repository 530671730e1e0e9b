// Package security holds the cross-cutting protections of toolgate: the
// credential registry, log and audit redaction, rate limiting, payload
// limits and the environment handed to approved shell commands.
package security

import (
	"maps"
	"slices"
	"sync"
)

// CredentialsService is the AppContext service name of the process
// CredentialStore. Modules record the keys they load during Provision.
const CredentialsService = "security.credentials"

// CredentialStore records every secret toolgate has loaded, keyed by a
// dotted owner name such as "provider.gemini.api_key". Safe for concurrent
// use.
type CredentialStore struct {
	mu    sync.RWMutex
	creds map[string]string
}

// NewCredentialStore returns an empty store.
func NewCredentialStore() *CredentialStore {
	return &CredentialStore{creds: make(map[string]string)}
}

// Set records value under name. An empty value removes the entry.
func (s *CredentialStore) Set(name, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if value == "" {
		delete(s.creds, name)
		return
	}
	s.creds[name] = value
}

// Get returns the value recorded under name.
func (s *CredentialStore) Get(name string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.creds[name]
	return v, ok
}

// Names returns the recorded names, sorted. Safe to log.
func (s *CredentialStore) Names() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Sorted(maps.Keys(s.creds))
}

// Values returns the recorded secrets, sorted and without duplicates.
func (s *CredentialStore) Values() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Compact(slices.Sorted(maps.Values(s.creds)))
}
