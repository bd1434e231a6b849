package persistence

import (
	"crypto/rand"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
)

// timeLayout matches the strftime format used in column defaults.
const timeLayout = "2006-01-02T15:04:05.000Z"

// DatabaseOperations provides lead storage over one database handle.
type DatabaseOperations struct {
	db  *sql.DB
	now func() time.Time
}

// NewDatabaseOperations creates a new DatabaseOperations instance.
func NewDatabaseOperations(db *sql.DB) *DatabaseOperations {
	return &DatabaseOperations{db: db, now: time.Now}
}

// generateULID generates a new ULID.
func generateULID(t time.Time) (string, error) {
	entropy := ulid.Monotonic(rand.Reader, 0)
	id, err := ulid.New(ulid.Timestamp(t), entropy)
	if err != nil {
		return "", err
	}
	return id.String(), nil
}

// InsertLead validates and stores a lead. ID and CapturedAt are filled in when empty.
func (ops *DatabaseOperations) InsertLead(lead *Lead) error {
	if err := lead.Validate(); err != nil {
		return err
	}
	if lead.CapturedAt.IsZero() {
		lead.CapturedAt = ops.now().UTC()
	}
	if lead.ID == "" {
		id, err := generateULID(lead.CapturedAt)
		if err != nil {
			return fmt.Errorf("failed to generate lead id: %w", err)
		}
		lead.ID = id
	}

	_, err := ops.db.Exec(`
		INSERT INTO leads (id, session_id, name, email, platform, sales_notes, captured_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		lead.ID, lead.SessionID, lead.Name, lead.Email, lead.Platform, lead.SalesNotes,
		lead.CapturedAt.UTC().Format(timeLayout))
	if err != nil {
		return fmt.Errorf("failed to insert lead: %w", err)
	}
	return nil
}

// ListLeads returns leads newest first.
func (ops *DatabaseOperations) ListLeads(filter LeadFilter) ([]*Lead, error) {
	where, args := filter.clauses()
	query := "SELECT id, session_id, name, email, platform, sales_notes, captured_at FROM leads" +
		where + " ORDER BY captured_at DESC, id DESC"
	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}

	rows, err := ops.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query leads: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var leads []*Lead
	for rows.Next() {
		var (
			lead       Lead
			capturedAt string
		)
		if err := rows.Scan(&lead.ID, &lead.SessionID, &lead.Name, &lead.Email,
			&lead.Platform, &lead.SalesNotes, &capturedAt); err != nil {
			return nil, fmt.Errorf("failed to scan lead: %w", err)
		}
		lead.CapturedAt, err = time.Parse(timeLayout, capturedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to parse captured_at %q: %w", capturedAt, err)
		}
		leads = append(leads, &lead)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate leads: %w", err)
	}
	return leads, nil
}

// CountLeads returns the number of leads matching filter. Limit is ignored.
func (ops *DatabaseOperations) CountLeads(filter LeadFilter) (int, error) {
	where, args := filter.clauses()
	var n int
	if err := ops.db.QueryRow("SELECT COUNT(*) FROM leads"+where, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count leads: %w", err)
	}
	return n, nil
}

func (f LeadFilter) clauses() (string, []any) {
	var (
		conds []string
		args  []any
	)
	if f.Platform != "" {
		conds = append(conds, "platform = ? COLLATE NOCASE")
		args = append(args, f.Platform)
	}
	if f.Email != "" {
		conds = append(conds, "email = ? COLLATE NOCASE")
		args = append(args, f.Email)
	}
	if !f.Since.IsZero() {
		conds = append(conds, "captured_at >= ?")
		args = append(args, f.Since.UTC().Format(timeLayout))
	}
	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}
