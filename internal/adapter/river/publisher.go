package river

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/riverqueue/river"

	"github.com/neomorfeo/roomie/internal/domain"
)

// Compile-time check: Publisher implements domain.ChangePublisher.
var _ domain.ChangePublisher = (*Publisher)(nil)

// ChangeJobArgs carries one record change through the queue. River stores it
// as JSON in its job table.
type ChangeJobArgs struct {
	RecordKind string `json:"kind"`
	Action     string `json:"action"`
	RecordID   string `json:"record_id"`
	OwnerID    string `json:"owner_id"`
}

// Kind returns the unique job type identifier used by River's job routing.
func (ChangeJobArgs) Kind() string { return "change.recorded" }

// Client is the River client type parameterized for SQLite (*sql.Tx).
type Client = river.Client[*sql.Tx]

// Publisher implements domain.ChangePublisher by enqueuing River jobs.
type Publisher struct {
	client *Client
}

// NewPublisher creates a publisher backed by the given River client.
func NewPublisher(client *Client) *Publisher {
	return &Publisher{client: client}
}

// Publish enqueues a change event as an async job.
func (p *Publisher) Publish(ctx context.Context, event domain.ChangeEvent) error {
	_, err := p.client.Insert(ctx, ChangeJobArgs{
		RecordKind: string(event.Kind),
		Action:     string(event.Action),
		RecordID:   event.RecordID,
		OwnerID:    event.OwnerID,
	}, nil)
	if err != nil {
		return fmt.Errorf("enqueuing change job: %w", err)
	}
	return nil
}
