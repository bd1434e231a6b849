package sales

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"salesagent/pkg/logx"
)

// maxDetours bounds the knowledge/lead-capture steps run inside one turn.
const maxDetours = 1

// TurnResult is what the session driver sees after a turn.
type TurnResult struct {
	// Reply is the single user-visible assistant message, or "" if none.
	Reply string `json:"reply,omitempty"`
	// Confirmation is the system-authored lead confirmation (lead path only).
	Confirmation string `json:"confirmation,omitempty"`
	Intent       Intent `json:"intent"`
	Path         []Node `json:"path"`
	LeadCaptured bool   `json:"lead_captured"`
}

// TurnObserver is notified once per turn, successful or not.
type TurnObserver interface {
	ObserveTurn(result TurnResult, duration time.Duration, err error)
}

// Agent runs turns against the three collaborators.
type Agent struct {
	generator ResponseGenerator
	knowledge KnowledgeSource
	sink      LeadSink
	observer  TurnObserver
	logger    *logx.Logger
}

// Option configures an Agent.
type Option func(*Agent)

// WithObserver registers a per-turn observer.
func WithObserver(o TurnObserver) Option {
	return func(a *Agent) { a.observer = o }
}

// NewAgent wires the state machine to its collaborators.
func NewAgent(generator ResponseGenerator, knowledge KnowledgeSource, sink LeadSink, opts ...Option) *Agent {
	a := &Agent{
		generator: generator,
		knowledge: knowledge,
		sink:      sink,
		logger:    logx.NewLogger("sales"),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Turn processes one user message. Each step runs on a copy of st that is
// committed when the step succeeds, so a failing step leaves st as it was after
// the last successful one. The user message is committed with the first
// chatbot step.
func (a *Agent) Turn(ctx context.Context, st *State, input string) (TurnResult, error) {
	start := time.Now()
	result, err := a.runTurn(ctx, st, input)
	if a.observer != nil {
		a.observer.ObserveTurn(result, time.Since(start), err)
	}
	if err != nil {
		a.logger.Warn("Turn failed for session %s: %v", st.SessionID, err)
	}
	return result, err
}

func (a *Agent) runTurn(ctx context.Context, st *State, input string) (TurnResult, error) {
	if strings.TrimSpace(input) == "" {
		return TurnResult{}, ErrEmptyInput
	}
	ctx = logx.WithSession(ctx, st.SessionID)

	work := st.Clone()
	work.Append(RoleUser, input)

	var result TurnResult
	mode := ModePlain
	detours := 0

	for {
		reply, err := a.chatbotStep(ctx, work, mode)
		result.Path = append(result.Path, NodeChatbot)
		if err != nil {
			return result, err
		}
		commit(st, work)
		result.Intent = work.Intent
		if reply != "" {
			result.Reply = reply
		}

		next := Route(work.Intent, work.Slots())
		logx.Debug(ctx, "sales", "mode=%s intent=%s route=%s", mode, work.Intent, next)
		if next == NextStop {
			break
		}
		if detours >= maxDetours {
			return result, ErrTraversalLimit
		}
		detours++

		switch next {
		case NextKnowledge:
			result.Path = append(result.Path, NodeKnowledge)
			if err := a.knowledgeStep(ctx, work); err != nil {
				return result, err
			}
			commit(st, work)
			mode = ModePostKnowledge
		case NextLeadCapture:
			result.Path = append(result.Path, NodeLeadCapture)
			if err := a.leadCaptureStep(ctx, work); err != nil {
				return result, err
			}
			commit(st, work)
			result.Intent = work.Intent
			result.Confirmation = LeadConfirmation
			result.LeadCaptured = true
			mode = ModePostCapture
		}
	}

	return result, nil
}

// commit publishes a successful step. work stays private to the turn.
func commit(st, work *State) {
	*st = *work.Clone()
}

// chatbotStep invokes the generator once, merges extracted slots and decides
// whether the reply is shown. It returns the reply if it was appended.
func (a *Agent) chatbotStep(ctx context.Context, st *State, mode Mode) (string, error) {
	resp, err := a.generator.Generate(ctx, GenerationContext{
		Instructions: SystemPrompt,
		KnownFacts:   st.KnownFacts(),
		History:      st.Messages,
	})
	if err != nil {
		return "", &TurnError{Kind: GeneratorFailure, Node: NodeChatbot, Err: err}
	}
	resp.normalize()
	if err := resp.Validate(); err != nil {
		return "", &TurnError{Kind: GeneratorFailure, Node: NodeChatbot, Err: err}
	}

	st.ApplyExtraction(resp)
	st.LastNode = NodeChatbot

	intent := resp.Intent
	show := true
	switch {
	case mode != ModePlain:
		// The detour already ran; this reply carries its result.
		intent = IntentCasual
	case intent == IntentInquiry:
		show = false
	case intent == IntentHighIntent && st.HasAllSlots():
		show = false
	}
	st.Intent = intent

	if !show {
		return "", nil
	}
	content := strings.TrimSpace(resp.Content)
	if content == "" && mode != ModePlain {
		// The detour's effects stand; there is just nothing to show.
		return "", nil
	}
	if content == "" {
		return "", &TurnError{Kind: GeneratorFailure, Node: NodeChatbot, Err: fmt.Errorf("generator returned an empty reply")}
	}
	st.Append(RoleAssistant, content)
	return content, nil
}

// knowledgeStep injects the whole knowledge document as a system message.
func (a *Agent) knowledgeStep(ctx context.Context, st *State) error {
	doc, err := a.knowledge.Fetch(ctx)
	if err != nil {
		return &TurnError{Kind: KnowledgeReadFailure, Node: NodeKnowledge, Err: err}
	}
	text, err := RenderDocument(doc)
	if err != nil {
		return &TurnError{Kind: KnowledgeReadFailure, Node: NodeKnowledge, Err: err}
	}
	st.Append(RoleSystem, KnowledgeContextPrefix+text)
	st.LastNode = NodeKnowledge
	return nil
}

// leadCaptureStep writes the lead exactly once and resets intent to casual.
func (a *Agent) leadCaptureStep(ctx context.Context, st *State) error {
	lead := Lead{
		SessionID:  st.SessionID,
		Name:       st.UserName,
		Email:      st.UserEmail,
		Platform:   st.UserPlatform,
		SalesNotes: st.SalesNotes,
	}
	if err := a.sink.Capture(ctx, lead); err != nil {
		return &TurnError{Kind: LeadSinkFailure, Node: NodeLeadCapture, Err: err}
	}
	a.logger.Info("Lead captured for session %s", st.SessionID)
	st.Append(RoleSystem, LeadConfirmation)
	st.Intent = IntentCasual
	st.LastNode = NodeLeadCapture
	return nil
}

// RenderDocument serializes a knowledge document as indented JSON.
func RenderDocument(doc any) (string, error) {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to render knowledge document: %w", err)
	}
	return string(data), nil
}
