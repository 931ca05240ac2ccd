package storage

import (
	"context"
	"errors"
	"strings"

	"github.com/inletai/inlet/internal/domain"
)

// ObjectMetadataAPI is the slice of the object store the state store needs.
type ObjectMetadataAPI interface {
	GetMetadata(ctx context.Context, key string) (map[string]string, error)
	SetMetadata(ctx context.Context, key string, metadata map[string]string) error
	List(ctx context.Context) ([]ObjectInfo, error)
}

// StateStore persists the per-document pipeline state record in the object
// store's user metadata, alongside the document bytes. Updates are
// read-merge-write without locking: a document has a single writer at a
// time because the work queue claims its item exclusively.
type StateStore struct {
	store ObjectMetadataAPI
}

func NewStateStore(store ObjectMetadataAPI) *StateStore {
	return &StateStore{store: store}
}

// Get returns the state record for the document, or ErrDocumentNotFound.
func (s *StateStore) Get(ctx context.Context, filename string) (domain.DocumentState, error) {
	meta, err := s.store.GetMetadata(ctx, filename)
	if err != nil {
		if errors.Is(err, ErrObjectNotFound) {
			return domain.DocumentState{}, domain.ErrDocumentNotFound
		}
		return domain.DocumentState{}, err
	}
	return domain.StateFromMetadata(filename, meta), nil
}

// List returns the state records of all source documents. Converted
// artifacts (keys under converted/) are not documents and are skipped.
func (s *StateStore) List(ctx context.Context) ([]domain.DocumentState, error) {
	objects, err := s.store.List(ctx)
	if err != nil {
		return nil, err
	}

	var states []domain.DocumentState
	for _, obj := range objects {
		if strings.HasPrefix(obj.Key, domain.ConvertedPrefix) {
			continue
		}
		states = append(states, domain.StateFromMetadata(obj.Key, obj.Metadata))
	}
	return states, nil
}

// Update merges the partial update into the document's stored metadata.
// Fields the update leaves nil are preserved.
func (s *StateStore) Update(ctx context.Context, filename string, update domain.StateUpdate) error {
	meta := update.ToMetadata()
	if len(meta) == 0 {
		return nil
	}
	if err := s.store.SetMetadata(ctx, filename, meta); err != nil {
		if errors.Is(err, ErrObjectNotFound) {
			return domain.ErrDocumentNotFound
		}
		return err
	}
	return nil
}
