// Package sales implements the conversation state machine of the AutoStream sales agent.
//
// Each user message is one turn. A turn always runs the chatbot step first so
// slot extraction happens before routing; the router may then insert a single
// detour (knowledge lookup or lead capture) followed by one more chatbot step
// whose reply becomes the user-visible message.
package sales

import (
	"fmt"
	"strings"
)

// Intent is the current classification of the user's goal. The zero value means
// the session has not been classified yet.
type Intent string

const (
	IntentCasual     Intent = "casual"
	IntentInquiry    Intent = "inquiry"
	IntentHighIntent Intent = "high_intent"
)

// ParseIntent accepts any casing and the spellings "high intent" / "high-intent".
func ParseIntent(s string) (Intent, error) {
	normalized := strings.ToLower(strings.TrimSpace(s))
	normalized = strings.NewReplacer(" ", "_", "-", "_").Replace(normalized)
	switch Intent(normalized) {
	case IntentCasual, IntentInquiry, IntentHighIntent:
		return Intent(normalized), nil
	default:
		return "", fmt.Errorf("unknown intent %q", s)
	}
}

// UnmarshalText lets generator output decode straight into an Intent.
func (i *Intent) UnmarshalText(b []byte) error {
	parsed, err := ParseIntent(string(b))
	if err != nil {
		return err
	}
	*i = parsed
	return nil
}

// Role identifies who authored a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// Message is one entry of the conversation history.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// Node names a step of the state machine.
type Node string

const (
	NodeNone        Node = ""
	NodeChatbot     Node = "chatbot"
	NodeKnowledge   Node = "knowledge"
	NodeLeadCapture Node = "lead_capture"
)

// Mode tells the chatbot step which detour, if any, preceded it in this turn.
type Mode int

const (
	ModePlain Mode = iota
	ModePostKnowledge
	ModePostCapture
)

func (m Mode) String() string {
	switch m {
	case ModePlain:
		return "plain"
	case ModePostKnowledge:
		return "post_knowledge"
	case ModePostCapture:
		return "post_capture"
	default:
		return fmt.Sprintf("mode(%d)", int(m))
	}
}

// Next is the routing decision taken after a chatbot step.
type Next int

const (
	NextStop Next = iota
	NextKnowledge
	NextLeadCapture
)

func (n Next) String() string {
	switch n {
	case NextStop:
		return "stop"
	case NextKnowledge:
		return "knowledge"
	case NextLeadCapture:
		return "lead_capture"
	default:
		return fmt.Sprintf("next(%d)", int(n))
	}
}
