package domain

import "context"

type ownerKey struct{}

// WithOwner returns a context carrying the acting operator's user id.
func WithOwner(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, ownerKey{}, userID)
}

// OwnerFrom returns the acting operator's user id, if any.
func OwnerFrom(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(ownerKey{}).(string)
	return id, ok && id != ""
}

type recordIDKey struct{}

// WithRecordID asks the store to use id for the record being created.
func WithRecordID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, recordIDKey{}, id)
}

// RecordIDFrom returns an id chosen by the caller for a new record, if any.
func RecordIDFrom(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(recordIDKey{}).(string)
	return id, ok && id != ""
}
