package service

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"innerflame/internal/domain"
	"innerflame/internal/domain/models"
	"innerflame/internal/domain/repositories"
)

// memDocRepo is an in-memory DocumentRepository for service tests.
type memDocRepo struct {
	mu   sync.Mutex
	docs map[string]*models.Document
}

func newMemDocRepo() *memDocRepo {
	return &memDocRepo{docs: make(map[string]*models.Document)}
}

func (r *memDocRepo) Create(_ context.Context, doc *models.Document) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.docs[doc.ID]; ok {
		return fmt.Errorf("document %s: %w", doc.ID, domain.ErrConflict)
	}
	cp := *doc
	r.docs[doc.ID] = &cp
	return nil
}

func (r *memDocRepo) GetByID(_ context.Context, id string) (*models.Document, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	doc, ok := r.docs[id]
	if !ok {
		return nil, fmt.Errorf("document %s: %w", id, domain.ErrNotFound)
	}
	cp := *doc
	return &cp, nil
}

func (r *memDocRepo) ListByUser(_ context.Context, userID string) ([]models.Document, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Document
	for _, doc := range r.docs {
		if doc.UserID == userID {
			out = append(out, *doc)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *memDocRepo) UpdateTitle(_ context.Context, id, title string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	doc, ok := r.docs[id]
	if !ok {
		return fmt.Errorf("document %s: %w", id, domain.ErrNotFound)
	}
	doc.Title = title
	return nil
}

func (r *memDocRepo) Touch(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.docs[id]; !ok {
		return fmt.Errorf("document %s: %w", id, domain.ErrNotFound)
	}
	return nil
}

func (r *memDocRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.docs[id]; !ok {
		return fmt.Errorf("document %s: %w", id, domain.ErrNotFound)
	}
	delete(r.docs, id)
	return nil
}

// memVersionRepo is an in-memory VersionRepository whose ClearCurrent
// mirrors the conditional-update semantics of the real repository.
type memVersionRepo struct {
	mu       sync.Mutex
	versions map[string]*models.Version

	// beforeClearCurrent, when set, runs just before the CAS check so a
	// test can interleave a competing writer.
	beforeClearCurrent func()
}

func newMemVersionRepo() *memVersionRepo {
	return &memVersionRepo{versions: make(map[string]*models.Version)}
}

func (r *memVersionRepo) Insert(_ context.Context, v *models.Version) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.versions {
		if existing.DocumentID != v.DocumentID {
			continue
		}
		if existing.VersionNumber == v.VersionNumber {
			return fmt.Errorf("version %d of document %s already exists: %w",
				v.VersionNumber, v.DocumentID, domain.ErrConflict)
		}
		if v.IsCurrent && existing.IsCurrent {
			return fmt.Errorf("document %s already has a current version: %w",
				v.DocumentID, domain.ErrConflict)
		}
	}
	cp := *v
	r.versions[v.ID] = &cp
	return nil
}

func (r *memVersionRepo) GetByID(_ context.Context, id string) (*models.Version, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	v, ok := r.versions[id]
	if !ok {
		return nil, fmt.Errorf("version %s: %w", id, domain.ErrNotFound)
	}
	cp := *v
	return &cp, nil
}

func (r *memVersionRepo) GetCurrent(_ context.Context, documentID string) (*models.Version, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, v := range r.versions {
		if v.DocumentID == documentID && v.IsCurrent {
			cp := *v
			return &cp, nil
		}
	}
	return nil, fmt.Errorf("version for %s: %w", documentID, domain.ErrNotFound)
}

func (r *memVersionRepo) ClearCurrent(_ context.Context, versionID string) (bool, error) {
	if r.beforeClearCurrent != nil {
		r.beforeClearCurrent()
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	v, ok := r.versions[versionID]
	if !ok || !v.IsCurrent {
		return false, nil
	}
	v.IsCurrent = false
	return true, nil
}

func (r *memVersionRepo) MarkCurrent(_ context.Context, versionID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	v, ok := r.versions[versionID]
	if !ok {
		return fmt.Errorf("version %s: %w", versionID, domain.ErrNotFound)
	}
	v.IsCurrent = true
	return nil
}

func (r *memVersionRepo) DeleteFrom(_ context.Context, documentID string, fromNumber int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, v := range r.versions {
		if v.DocumentID == documentID && v.VersionNumber >= fromNumber {
			delete(r.versions, id)
		}
	}
	return nil
}

func (r *memVersionRepo) ListByDocument(_ context.Context, documentID string) ([]models.Version, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Version
	for _, v := range r.versions {
		if v.DocumentID == documentID {
			out = append(out, *v)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].VersionNumber < out[j].VersionNumber })
	return out, nil
}

// memTxManager runs the function directly; the fakes already apply each
// operation atomically, and rollback is not needed for what the tests
// assert.
type memTxManager struct{}

func (memTxManager) ExecTx(ctx context.Context, fn repositories.TxFn) error {
	return fn(ctx)
}
