package sales

import (
	"errors"
	"fmt"
)

// ErrTraversalLimit is returned if a turn would run more than one detour.
var ErrTraversalLimit = errors.New("turn exceeded detour limit")

// ErrEmptyInput is returned for blank user messages.
var ErrEmptyInput = errors.New("user message is empty")

// FailureKind classifies why a turn failed.
type FailureKind string

const (
	GeneratorFailure     FailureKind = "generator"
	KnowledgeReadFailure FailureKind = "knowledge_read"
	LeadSinkFailure      FailureKind = "lead_sink"
)

// TurnError reports a failed step. Steps committed earlier in the turn are kept.
type TurnError struct {
	Kind FailureKind
	Node Node
	Err  error
}

func (e *TurnError) Error() string {
	return fmt.Sprintf("%s failure in %s step: %v", e.Kind, e.Node, e.Err)
}

func (e *TurnError) Unwrap() error {
	return e.Err
}

// KindOf returns the failure kind of err, or "" if it is not a *TurnError.
func KindOf(err error) FailureKind {
	var turnErr *TurnError
	if errors.As(err, &turnErr) {
		return turnErr.Kind
	}
	return ""
}

func IsGeneratorFailure(err error) bool { return KindOf(err) == GeneratorFailure }

func IsKnowledgeReadFailure(err error) bool { return KindOf(err) == KnowledgeReadFailure }

func IsLeadSinkFailure(err error) bool { return KindOf(err) == LeadSinkFailure }
