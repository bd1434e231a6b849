package persistence

import (
	"errors"
	"strings"
	"time"
)

// ErrInvalidLead is returned when a lead is missing a required field.
var ErrInvalidLead = errors.New("invalid lead")

// Lead is a captured sales lead as stored in the leads table.
type Lead struct {
	CapturedAt time.Time `json:"captured_at"`
	ID         string    `json:"id"`
	SessionID  string    `json:"session_id,omitempty"`
	Name       string    `json:"name"`
	Email      string    `json:"email"`
	Platform   string    `json:"platform"`
	SalesNotes string    `json:"sales_notes,omitempty"`
}

// Validate checks that name, email and platform are present.
func (l *Lead) Validate() error {
	var missing []string
	if strings.TrimSpace(l.Name) == "" {
		missing = append(missing, "name")
	}
	if strings.TrimSpace(l.Email) == "" {
		missing = append(missing, "email")
	}
	if strings.TrimSpace(l.Platform) == "" {
		missing = append(missing, "platform")
	}
	if len(missing) > 0 {
		return errors.Join(ErrInvalidLead, errors.New("missing "+strings.Join(missing, ", ")))
	}
	return nil
}

// LeadFilter narrows ListLeads. Zero values mean no filter.
type LeadFilter struct {
	Since    time.Time
	Platform string
	Email    string
	Limit    int
}
