// Package outboxsql decodes audit_outbox rows for the SQL-backed audit
// stores.
package outboxsql

import (
	"database/sql"
	"fmt"

	audit "guardian/pkg/platform/audit"
)

// ScanEntries reads (id, payload) rows and closes rows.
func ScanEntries(rows *sql.Rows) ([]audit.OutboxEntry, error) {
	defer rows.Close()
	var entries []audit.OutboxEntry
	for rows.Next() {
		var (
			id      int64
			payload []byte
		)
		if err := rows.Scan(&id, &payload); err != nil {
			return nil, fmt.Errorf("scan outbox entry: %w", err)
		}
		event, err := audit.UnmarshalPayload(payload)
		if err != nil {
			return nil, fmt.Errorf("decode outbox entry %d: %w", id, err)
		}
		entries = append(entries, audit.OutboxEntry{ID: id, Event: event})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate outbox: %w", err)
	}
	return entries, nil
}

// ScanEvents reads single-column payload rows and closes rows.
func ScanEvents(rows *sql.Rows) ([]audit.Event, error) {
	defer rows.Close()
	var events []audit.Event
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("scan audit event: %w", err)
		}
		event, err := audit.UnmarshalPayload(payload)
		if err != nil {
			return nil, err
		}
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate audit events: %w", err)
	}
	return events, nil
}
