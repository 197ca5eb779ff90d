package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/neomorfeo/roomie/internal/domain"
)

// RecordService is the server side of the entity store for one kind:
// owner-scoped CRUD that publishes a change event after every mutation.
type RecordService[E, V any] struct {
	kind      domain.Kind
	repo      domain.Repository[E, V]
	publisher domain.ChangePublisher
	logger    *slog.Logger
}

// NewRecordService creates a record service with the given adapters.
func NewRecordService[E, V any](kind Kind[E, V], repo domain.Repository[E, V], publisher domain.ChangePublisher, logger *slog.Logger) *RecordService[E, V] {
	if logger == nil {
		logger = slog.Default()
	}
	return &RecordService[E, V]{
		kind:      kind.Kind,
		repo:      repo,
		publisher: publisher,
		logger:    logger,
	}
}

// List returns the caller's records, newest first.
func (s *RecordService[E, V]) List(ctx context.Context) ([]E, error) {
	if _, ok := domain.OwnerFrom(ctx); !ok {
		return nil, &domain.AuthRequiredError{Op: "list " + string(s.kind)}
	}
	return s.repo.List(ctx)
}

// Create inserts a record owned by ownerID, which must be the caller.
func (s *RecordService[E, V]) Create(ctx context.Context, values V, ownerID string) error {
	caller, ok := domain.OwnerFrom(ctx)
	if !ok {
		return &domain.AuthRequiredError{Op: "create " + string(s.kind)}
	}
	if ownerID != caller {
		return &domain.RepositoryError{Op: "create", Kind: s.kind, Err: domain.ErrForbidden}
	}
	id := generateID()
	if err := s.repo.Create(domain.WithRecordID(ctx, id), values, ownerID); err != nil {
		return err
	}
	s.publish(ctx, domain.ActionCreated, id, ownerID)
	return nil
}

// Update overwrites the supplied fields of one of the caller's records.
func (s *RecordService[E, V]) Update(ctx context.Context, id string, values V) error {
	caller, ok := domain.OwnerFrom(ctx)
	if !ok {
		return &domain.AuthRequiredError{Op: "update " + string(s.kind)}
	}
	if err := s.repo.Update(ctx, id, values); err != nil {
		return err
	}
	s.publish(ctx, domain.ActionUpdated, id, caller)
	return nil
}

// Delete removes one of the caller's records.
func (s *RecordService[E, V]) Delete(ctx context.Context, id string) error {
	caller, ok := domain.OwnerFrom(ctx)
	if !ok {
		return &domain.AuthRequiredError{Op: "delete " + string(s.kind)}
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.publish(ctx, domain.ActionDeleted, id, caller)
	return nil
}

// publish logs instead of failing: the mutation has already been committed.
func (s *RecordService[E, V]) publish(ctx context.Context, action domain.ChangeAction, id, ownerID string) {
	event := domain.ChangeEvent{Kind: s.kind, Action: action, RecordID: id, OwnerID: ownerID}
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.ErrorContext(ctx, "publishing change event",
			"kind", string(s.kind),
			"action", string(action),
			"record_id", id,
			"error", fmt.Errorf("publish: %w", err),
		)
	}
}
