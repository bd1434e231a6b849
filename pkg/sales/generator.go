package sales

import (
	"context"
	"fmt"
	"strings"
)

// GenerationContext is everything the response generator sees for one chatbot step.
type GenerationContext struct {
	Instructions string
	KnownFacts   string
	History      []Message
}

// AssistantResponse is the structured record produced by the generator.
// Reasoning is diagnostic and never shown to the user.
type AssistantResponse struct {
	Reasoning    string `json:"reasoning"`
	Content      string `json:"content"`
	Intent       Intent `json:"intent"`
	UserName     string `json:"user_name,omitempty"`
	UserEmail    string `json:"user_email,omitempty"`
	UserPlatform string `json:"user_platform,omitempty"`
	SalesNotes   string `json:"sales_notes,omitempty"`
}

// Validate checks the fields the state machine depends on.
func (r *AssistantResponse) Validate() error {
	if _, err := ParseIntent(string(r.Intent)); err != nil {
		return fmt.Errorf("invalid response intent: %w", err)
	}
	return nil
}

// normalize blanks out placeholder values models emit for unknown fields.
func (r *AssistantResponse) normalize() {
	for _, field := range []*string{&r.UserName, &r.UserEmail, &r.UserPlatform, &r.SalesNotes} {
		switch strings.ToLower(strings.TrimSpace(*field)) {
		case "none", "null", "unknown", "n/a", "nil":
			*field = ""
		}
	}
}

// ResponseGenerator maps a generation context to a structured response.
type ResponseGenerator interface {
	Generate(ctx context.Context, gc GenerationContext) (AssistantResponse, error)
}

// GeneratorFunc adapts a function to ResponseGenerator.
type GeneratorFunc func(ctx context.Context, gc GenerationContext) (AssistantResponse, error)

func (f GeneratorFunc) Generate(ctx context.Context, gc GenerationContext) (AssistantResponse, error) {
	return f(ctx, gc)
}

// KnowledgeSource returns the whole knowledge document. There is no query.
type KnowledgeSource interface {
	Fetch(ctx context.Context) (any, error)
}

// Lead is one captured sales lead.
type Lead struct {
	SessionID  string
	Name       string
	Email      string
	Platform   string
	SalesNotes string
}

// LeadSink records a captured lead.
type LeadSink interface {
	Capture(ctx context.Context, lead Lead) error
}
