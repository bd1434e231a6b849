package sales

import (
	"strings"
)

// Slots are the lead fields collected before capture.
type Slots struct {
	Name     string `json:"name,omitempty"`
	Email    string `json:"email,omitempty"`
	Platform string `json:"platform,omitempty"`
}

// Complete reports whether every slot is filled.
func (s Slots) Complete() bool {
	return s.Name != "" && s.Email != "" && s.Platform != ""
}

// Missing lists the unfilled slot names in collection order.
func (s Slots) Missing() []string {
	var missing []string
	if s.Name == "" {
		missing = append(missing, "name")
	}
	if s.Email == "" {
		missing = append(missing, "email")
	}
	if s.Platform == "" {
		missing = append(missing, "platform")
	}
	return missing
}

// State is the per-session conversation state. Only the in-flight turn for a
// session may mutate it.
type State struct {
	SessionID    string    `json:"session_id,omitempty"`
	Messages     []Message `json:"messages"`
	Intent       Intent    `json:"intent,omitempty"`
	UserName     string    `json:"user_name,omitempty"`
	UserEmail    string    `json:"user_email,omitempty"`
	UserPlatform string    `json:"user_platform,omitempty"`
	SalesNotes   string    `json:"sales_notes,omitempty"`
	LastNode     Node      `json:"last_node,omitempty"`
}

// NewState returns an empty state for a new session.
func NewState(sessionID string) *State {
	return &State{SessionID: sessionID}
}

// Clone returns a deep copy; the message slice is not shared.
func (s *State) Clone() *State {
	c := *s
	if s.Messages != nil {
		c.Messages = make([]Message, len(s.Messages))
		copy(c.Messages, s.Messages)
	}
	return &c
}

// Slots returns the current lead fields.
func (s *State) Slots() Slots {
	return Slots{Name: s.UserName, Email: s.UserEmail, Platform: s.UserPlatform}
}

// HasAllSlots reports whether name, email and platform are all known.
func (s *State) HasAllSlots() bool {
	return s.Slots().Complete()
}

// Append adds a message to the history.
func (s *State) Append(role Role, content string) {
	s.Messages = append(s.Messages, Message{Role: role, Content: content})
}

// MergeSlot is the sticky-field policy: a non-blank update replaces the old
// value, a blank one keeps it. Fields therefore never regress to empty.
func MergeSlot(old, update string) string {
	if trimmed := strings.TrimSpace(update); trimmed != "" {
		return trimmed
	}
	return old
}

// ApplyExtraction merges the generator's extracted fields into the state.
func (s *State) ApplyExtraction(resp AssistantResponse) {
	s.UserName = MergeSlot(s.UserName, resp.UserName)
	s.UserEmail = MergeSlot(s.UserEmail, resp.UserEmail)
	s.UserPlatform = MergeSlot(s.UserPlatform, resp.UserPlatform)
	s.SalesNotes = MergeSlot(s.SalesNotes, resp.SalesNotes)
}

// KnownFacts renders the known-info block shown to the generator, or "" when nothing is known.
func (s *State) KnownFacts() string {
	var lines []string
	if s.UserName != "" {
		lines = append(lines, "Name: "+s.UserName)
	}
	if s.UserEmail != "" {
		lines = append(lines, "Email: "+s.UserEmail)
	}
	if s.UserPlatform != "" {
		lines = append(lines, "Platform: "+s.UserPlatform)
	}
	if len(lines) == 0 && s.SalesNotes == "" {
		return ""
	}

	var b strings.Builder
	b.WriteString(KnownInfoHeader)
	for _, line := range lines {
		b.WriteString("\n")
		b.WriteString(line)
	}
	if s.SalesNotes != "" {
		b.WriteString("\nNOTES: ")
		b.WriteString(s.SalesNotes)
	}
	return b.String()
}

// LastVisibleReply returns the most recent assistant message, or "".
func (s *State) LastVisibleReply() string {
	for i := len(s.Messages) - 1; i >= 0; i-- {
		if s.Messages[i].Role == RoleAssistant {
			return s.Messages[i].Content
		}
	}
	return ""
}
