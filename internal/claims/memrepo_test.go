package claims

import (
	"context"
	"sync"

	"remitapi/internal/model"
	"remitapi/internal/repository"
)

// memClaims is an in-memory ClaimRepository with the same locking contract as
// the Postgres one: Mutate runs fn under a lock and applies its result atomically.
type memClaims struct {
	mu       sync.Mutex
	exts     map[string]model.ExtractionResult
	versions map[string][]model.ClaimVersion
	exports  map[string]model.ClaimExport
}

var _ repository.ClaimRepository = (*memClaims)(nil)

func newMemClaims() *memClaims {
	return &memClaims{
		exts:     make(map[string]model.ExtractionResult),
		versions: make(map[string][]model.ClaimVersion),
		exports:  make(map[string]model.ClaimExport),
	}
}

func (m *memClaims) CreateExtraction(_ context.Context, ext *model.ExtractionResult, first *model.ClaimVersion) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if first != nil {
		ext.CurrentVersion = first.Version.String()
		m.versions[ext.ID] = append(m.versions[ext.ID], *first)
	}
	m.exts[ext.ID] = *ext
	return nil
}

func (m *memClaims) FindExtraction(_ context.Context, id string) (*model.ExtractionResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.exts[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &e, nil
}

func (m *memClaims) ListExtractions(_ context.Context, documentID string) ([]model.ExtractionResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]model.ExtractionResult, 0)
	for _, e := range m.exts {
		if e.DocumentID == documentID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (m *memClaims) ListByTemplate(context.Context, string) ([]model.ExtractionResult, error) {
	return nil, nil
}

func (m *memClaims) SupersedePlaceholders(context.Context, string) (int64, error) {
	return 0, nil
}

func (m *memClaims) LatestVersion(_ context.Context, extractionID string) (*model.ClaimVersion, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	vs := m.versions[extractionID]
	if len(vs) == 0 {
		return nil, repository.ErrNotFound
	}
	v := vs[len(vs)-1]
	return &v, nil
}

func (m *memClaims) LatestVersions(context.Context, string) ([]model.ClaimVersion, error) {
	return nil, nil
}

func (m *memClaims) Versions(_ context.Context, extractionID string) ([]model.ClaimVersion, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]model.ClaimVersion(nil), m.versions[extractionID]...), nil
}

func (m *memClaims) Mutate(_ context.Context, extractionID string, fn repository.MutateFunc) (*model.ClaimVersion, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ext, ok := m.exts[extractionID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	vs := m.versions[extractionID]
	latest := model.ClaimVersion{ExtractionID: ext.ID, DocumentID: ext.DocumentID}
	if len(vs) > 0 {
		latest = vs[len(vs)-1]
	}

	mut, err := fn(ext, latest)
	if err != nil {
		return nil, err
	}
	head := latest
	if mut.Export != nil {
		if _, dup := m.exports[extractionID]; dup {
			return nil, repository.ErrDuplicate
		}
		m.exports[extractionID] = *mut.Export
	}
	if mut.Version != nil {
		m.versions[extractionID] = append(vs, *mut.Version)
		head = *mut.Version
	}
	if mut.Status != "" {
		ext.Status = mut.Status
	}
	if head.ID != "" {
		ext.CurrentVersion = head.Version.String()
	}
	m.exts[extractionID] = ext
	return &head, nil
}

func (m *memClaims) FindExport(_ context.Context, extractionID string) (*model.ClaimExport, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	x, ok := m.exports[extractionID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &x, nil
}
