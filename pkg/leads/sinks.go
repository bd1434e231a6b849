// Package leads provides the sinks a captured lead is written to.
package leads

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"

	"salesagent/pkg/logx"
	"salesagent/pkg/persistence"
	"salesagent/pkg/sales"
)

// LogSink stands in for a CRM API: it records the lead in the log and on out.
type LogSink struct {
	out    io.Writer
	logger *logx.Logger
	mu     sync.Mutex
}

// NewLogSink writes confirmations to out, or stdout when out is nil.
func NewLogSink(out io.Writer) *LogSink {
	if out == nil {
		out = os.Stdout
	}
	return &LogSink{out: out, logger: logx.NewLogger("leads")}
}

// Capture implements sales.LeadSink.
func (s *LogSink) Capture(ctx context.Context, lead sales.Lead) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := fmt.Fprintf(s.out, "\n[API] Lead captured successfully: %s, %s, %s\n", lead.Name, lead.Email, lead.Platform); err != nil {
		return fmt.Errorf("failed to write lead: %w", err)
	}
	s.logger.Info("Lead captured successfully: %s, %s, %s", lead.Name, lead.Email, lead.Platform)
	return nil
}

// StoreSink persists leads to the SQLite lead store.
type StoreSink struct {
	ops    *persistence.DatabaseOperations
	logger *logx.Logger
}

// NewStoreSink wraps an open lead store.
func NewStoreSink(ops *persistence.DatabaseOperations) *StoreSink {
	return &StoreSink{ops: ops, logger: logx.NewLogger("leads")}
}

// Capture implements sales.LeadSink. Leads missing a required field are rejected.
func (s *StoreSink) Capture(ctx context.Context, lead sales.Lead) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	record := &persistence.Lead{
		SessionID:  lead.SessionID,
		Name:       lead.Name,
		Email:      lead.Email,
		Platform:   lead.Platform,
		SalesNotes: lead.SalesNotes,
	}
	if err := s.ops.InsertLead(record); err != nil {
		return fmt.Errorf("lead store rejected write: %w", err)
	}
	logx.Debug(ctx, "leads", "stored lead %s for session %s", record.ID, lead.SessionID)
	return nil
}

// MultiSink writes to every sink in order and stops at the first failure.
type MultiSink []sales.LeadSink

// Capture implements sales.LeadSink.
func (m MultiSink) Capture(ctx context.Context, lead sales.Lead) error {
	if len(m) == 0 {
		return errors.New("no lead sinks configured")
	}
	for i, sink := range m {
		if err := sink.Capture(ctx, lead); err != nil {
			return fmt.Errorf("lead sink %d: %w", i, err)
		}
	}
	return nil
}
