// Package memory provides in-process implementations of the repository
// interfaces. They back the test suites and the STORAGE_DRIVER=memory mode.
package memory

import (
	"context"
	"maps"
	"slices"
	"sync"

	"campusdocs/internal/domain/models/docsystem"
	"campusdocs/internal/domain/repositories"
)

// Store holds every table in memory behind a single mutex.
// A transaction holds the mutex for its whole duration, so transactions are serialized.
type Store struct {
	mu        sync.Mutex
	documents map[string]docsystem.Document
	versions  map[string]docsystem.DocumentVersion
	shares    map[string]docsystem.ShareLink
	grants    map[string]docsystem.AccessGrant
	requests  map[string]docsystem.DocumentRequest
	audit     []docsystem.AuditLogEntry
}

// NewStore creates an empty store
func NewStore() *Store {
	return &Store{
		documents: map[string]docsystem.Document{},
		versions:  map[string]docsystem.DocumentVersion{},
		shares:    map[string]docsystem.ShareLink{},
		grants:    map[string]docsystem.AccessGrant{},
		requests:  map[string]docsystem.DocumentRequest{},
	}
}

type txKey struct{}

// lock acquires the store mutex unless ctx already runs inside a transaction on this store.
// Usage: defer s.lock(ctx)()
func (s *Store) lock(ctx context.Context) func() {
	if owner, _ := ctx.Value(txKey{}).(*Store); owner == s {
		return func() {}
	}
	s.mu.Lock()
	return s.mu.Unlock
}

type snapshot struct {
	documents map[string]docsystem.Document
	versions  map[string]docsystem.DocumentVersion
	shares    map[string]docsystem.ShareLink
	grants    map[string]docsystem.AccessGrant
	requests  map[string]docsystem.DocumentRequest
	audit     []docsystem.AuditLogEntry
}

// Stored values are replaced, never mutated in place, so shallow clones are enough
func (s *Store) snapshot() snapshot {
	return snapshot{
		documents: maps.Clone(s.documents),
		versions:  maps.Clone(s.versions),
		shares:    maps.Clone(s.shares),
		grants:    maps.Clone(s.grants),
		requests:  maps.Clone(s.requests),
		audit:     slices.Clone(s.audit),
	}
}

func (s *Store) restore(snap snapshot) {
	s.documents = snap.documents
	s.versions = snap.versions
	s.shares = snap.shares
	s.grants = snap.grants
	s.requests = snap.requests
	s.audit = snap.audit
}

// TransactionManager runs functions atomically against a Store
type TransactionManager struct {
	store *Store
}

// NewTransactionManager creates a transaction manager for store
func NewTransactionManager(store *Store) repositories.TransactionManager {
	return &TransactionManager{store: store}
}

// ExecTx runs fn while holding the store lock and rolls every table back if fn fails
func (tm *TransactionManager) ExecTx(ctx context.Context, fn repositories.TxFn) error {
	if owner, _ := ctx.Value(txKey{}).(*Store); owner == tm.store {
		return fn(ctx)
	}

	tm.store.mu.Lock()
	defer tm.store.mu.Unlock()

	snap := tm.store.snapshot()
	if err := fn(context.WithValue(ctx, txKey{}, tm.store)); err != nil {
		tm.store.restore(snap)
		return err
	}
	return nil
}
