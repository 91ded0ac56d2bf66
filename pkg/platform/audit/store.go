package audit

import (
	"context"

	"guardian/pkg/domain"
)

// Store persists audit events. Postgres and SQLite implementations write to
// the outbox table so events commit atomically with the state change.
type Store interface {
	Append(ctx context.Context, event Event) error
}

// Lister reads back events for a wallet, newest first.
type Lister interface {
	ListByWallet(ctx context.Context, walletID domain.WalletID) ([]Event, error)
}

// OutboxEntry is an event awaiting publication to the broker.
type OutboxEntry struct {
	ID    int64
	Event Event
}

// Outbox is drained by the outbox worker.
type Outbox interface {
	FetchUnpublished(ctx context.Context, limit int) ([]OutboxEntry, error)
	MarkPublished(ctx context.Context, ids []int64) error
}
