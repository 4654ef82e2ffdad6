package reconcile

import (
	"sync"

	"github.com/google/uuid"
)

// CategoryRef is what the IdentityMap remembers about a reconciled category.
type CategoryRef struct {
	ID   uuid.UUID
	Slug string
	Name string
}

// IdentityMap translates transient category ids and slugs into store ids.
// It is filled by the category phase and read by the product and blog phases.
type IdentityMap struct {
	mu      sync.RWMutex
	byOldID map[string]uuid.UUID
	bySlug  map[string]uuid.UUID
	refs    map[uuid.UUID]CategoryRef
	order   []uuid.UUID
}

func NewIdentityMap() *IdentityMap {
	return &IdentityMap{
		byOldID: make(map[string]uuid.UUID),
		bySlug:  make(map[string]uuid.UUID),
		refs:    make(map[uuid.UUID]CategoryRef),
	}
}

// Record stores the mapping for one reconciled category. An empty oldID only
// records the slug.
func (m *IdentityMap) Record(oldID string, ref CategoryRef) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if oldID != "" {
		m.byOldID[oldID] = ref.ID
	}
	if ref.Slug != "" {
		m.bySlug[ref.Slug] = ref.ID
	}
	if _, seen := m.refs[ref.ID]; !seen {
		m.order = append(m.order, ref.ID)
	}
	m.refs[ref.ID] = ref
}

func (m *IdentityMap) ByOldID(oldID string) (uuid.UUID, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	id, ok := m.byOldID[oldID]
	return id, ok
}

func (m *IdentityMap) BySlug(slug string) (uuid.UUID, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	id, ok := m.bySlug[slug]
	return id, ok
}

// Ref returns the slug and name recorded for a store id.
func (m *IdentityMap) Ref(id uuid.UUID) (CategoryRef, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ref, ok := m.refs[id]
	return ref, ok
}

// Categories returns the recorded categories in reconciliation order.
func (m *IdentityMap) Categories() []CategoryRef {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]CategoryRef, 0, len(m.order))
	for _, id := range m.order {
		out = append(out, m.refs[id])
	}
	return out
}

func (m *IdentityMap) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.order)
}
