// Package repository persists leads, conversations, and automation logs in
// PostgreSQL.
package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"previdas_backend/internal/leads/domain"
)

var ErrNotFound = errors.New("lead not found")

type Repository struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// GetByIdentity fetches one lead by its normalized phone identity.
// Returns ErrNotFound when no record exists; the caller decides whether that
// is an error or a bootstrap case.
func (r *Repository) GetByIdentity(ctx context.Context, identity string) (*domain.Contact, error) {
	var contact domain.Contact
	var name, source *string
	err := r.pool.QueryRow(ctx, `
		SELECT phone, name, status, score, source, created_at, updated_at
		FROM leads
		WHERE phone = $1
	`, identity).Scan(&contact.Identity, &name, &contact.Status, &contact.Score, &source, &contact.CreatedAt, &contact.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	if name != nil {
		contact.Name = *name
	}
	if source != nil {
		contact.Source = *source
	}
	return &contact, nil
}

// Upsert writes the contact with last-writer-wins merge semantics: name and
// source are preserved from the existing row when the new value is absent,
// status and score are always overwritten.
func (r *Repository) Upsert(ctx context.Context, contact *domain.Contact) error {
	var name, source *string
	if contact.Name != "" {
		name = &contact.Name
	}
	if contact.Source != "" {
		source = &contact.Source
	}

	_, err := r.pool.Exec(ctx, `
		INSERT INTO leads (phone, name, status, score, source, updated_at)
		VALUES ($1, $2, $3, $4, $5, CURRENT_TIMESTAMP)
		ON CONFLICT (phone)
		DO UPDATE SET
			name = COALESCE(EXCLUDED.name, leads.name),
			status = EXCLUDED.status,
			score = EXCLUDED.score,
			source = COALESCE(EXCLUDED.source, leads.source),
			updated_at = CURRENT_TIMESTAMP
	`, contact.Identity, name, contact.Status, contact.Score, source)
	return err
}

// ListParams filters and pages the lead listing.
type ListParams struct {
	Status   string
	MinScore int
	Limit    int
	Offset   int
}

// List returns leads ordered by score, most promising first.
func (r *Repository) List(ctx context.Context, params ListParams) ([]domain.Contact, error) {
	limit := params.Limit
	if limit <= 0 || limit > 200 {
		limit = 50
	}

	rows, err := r.pool.Query(ctx, `
		SELECT phone, name, status, score, source, created_at, updated_at
		FROM leads
		WHERE ($1 = '' OR status = $1)
		  AND score >= $2
		ORDER BY score DESC, updated_at DESC
		LIMIT $3 OFFSET $4
	`, params.Status, params.MinScore, limit, params.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	contacts := make([]domain.Contact, 0)
	for rows.Next() {
		var contact domain.Contact
		var name, source *string
		if err := rows.Scan(&contact.Identity, &name, &contact.Status, &contact.Score, &source, &contact.CreatedAt, &contact.UpdatedAt); err != nil {
			return nil, err
		}
		if name != nil {
			contact.Name = *name
		}
		if source != nil {
			contact.Source = *source
		}
		contacts = append(contacts, contact)
	}
	return contacts, rows.Err()
}

// Delete removes a lead and its history. This is an administrative action;
// the engine itself never deletes.
func (r *Repository) Delete(ctx context.Context, identity string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM leads WHERE phone = $1`, identity)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Message is one logged conversation entry.
type Message struct {
	ID        int64     `json:"id"`
	Identity  string    `json:"identity"`
	Text      string    `json:"text"`
	IsBot     bool      `json:"isBot"`
	Timestamp time.Time `json:"timestamp"`
}

// AppendConversation logs one inbound or outbound message.
func (r *Repository) AppendConversation(ctx context.Context, identity, text string, isBot bool, timestamp time.Time) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO conversations (phone, message, is_bot, timestamp)
		VALUES ($1, $2, $3, $4)
	`, identity, text, isBot, timestamp)
	return err
}

// ListConversation returns the most recent messages for one contact, newest
// first.
func (r *Repository) ListConversation(ctx context.Context, identity string, limit int) ([]Message, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}

	rows, err := r.pool.Query(ctx, `
		SELECT id, phone, message, is_bot, timestamp
		FROM conversations
		WHERE phone = $1
		ORDER BY timestamp DESC
		LIMIT $2
	`, identity, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	messages := make([]Message, 0)
	for rows.Next() {
		var m Message
		if err := rows.Scan(&m.ID, &m.Identity, &m.Text, &m.IsBot, &m.Timestamp); err != nil {
			return nil, err
		}
		messages = append(messages, m)
	}
	return messages, rows.Err()
}

// AutomationLog is one recorded engine decision or action.
type AutomationLog struct {
	ID        int64     `json:"id"`
	Identity  string    `json:"identity"`
	Action    string    `json:"action"`
	Details   string    `json:"details"`
	CreatedAt time.Time `json:"createdAt"`
}

// LogAutomation records an engine action for the audit trail.
func (r *Repository) LogAutomation(ctx context.Context, identity, action, details string) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO automation_logs (phone, action, details)
		VALUES ($1, $2, $3)
	`, identity, action, details)
	return err
}

// ListAutomationLogs returns recent automation entries for one contact.
func (r *Repository) ListAutomationLogs(ctx context.Context, identity string, limit int) ([]AutomationLog, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}

	rows, err := r.pool.Query(ctx, `
		SELECT id, phone, action, details, created_at
		FROM automation_logs
		WHERE phone = $1
		ORDER BY created_at DESC
		LIMIT $2
	`, identity, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	logs := make([]AutomationLog, 0)
	for rows.Next() {
		var l AutomationLog
		if err := rows.Scan(&l.ID, &l.Identity, &l.Action, &l.Details, &l.CreatedAt); err != nil {
			return nil, err
		}
		logs = append(logs, l)
	}
	return logs, rows.Err()
}
