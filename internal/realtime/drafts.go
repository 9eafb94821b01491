package realtime

import (
	"fmt"
	"sync"
)

// DraftStorage is the backing store for unsaved drafts. The interface keeps
// the backend injectable; browsers use whatever local persistence they have,
// tests use the in-memory one.
type DraftStorage interface {
	Get(key string) (string, bool)
	Set(key, value string)
	Delete(key string)
}

// MemoryStorage is an in-memory DraftStorage.
type MemoryStorage struct {
	mu sync.Mutex
	m  map[string]string
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{m: make(map[string]string)}
}

func (s *MemoryStorage) Get(key string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.m[key]
	return v, ok
}

func (s *MemoryStorage) Set(key, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.m[key] = value
}

func (s *MemoryStorage) Delete(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.m, key)
}

// DraftStore keeps unsaved content per file id, scoped to one client
// session and never synchronized across clients. A draft is cleared on
// successful save only, never on disconnect.
type DraftStore struct {
	storage DraftStorage
}

func NewDraftStore(storage DraftStorage) *DraftStore {
	return &DraftStore{storage: storage}
}

func draftKey(fileID uint64) string {
	return fmt.Sprintf("fileContent_%d", fileID)
}

func (d *DraftStore) Draft(fileID uint64) (string, bool) {
	return d.storage.Get(draftKey(fileID))
}

func (d *DraftStore) SetDraft(fileID uint64, content string) {
	d.storage.Set(draftKey(fileID), content)
}

func (d *DraftStore) ClearDraft(fileID uint64) {
	d.storage.Delete(draftKey(fileID))
}
