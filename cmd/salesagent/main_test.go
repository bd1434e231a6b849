package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"salesagent/pkg/config"
	"salesagent/pkg/leads"
	"salesagent/pkg/metrics"
	"salesagent/pkg/persistence"
	"salesagent/pkg/sales"
)

type replRunner struct {
	inputs []string
}

func (r *replRunner) Turn(_ context.Context, st *sales.State, input string) (sales.TurnResult, error) {
	r.inputs = append(r.inputs, input)
	switch input {
	case "boom":
		return sales.TurnResult{}, &sales.TurnError{Kind: sales.GeneratorFailure, Node: sales.NodeChatbot, Err: errors.New("timeout")}
	case "saved then failed":
		return sales.TurnResult{Confirmation: sales.LeadConfirmation, LeadCaptured: true},
			&sales.TurnError{Kind: sales.GeneratorFailure, Node: sales.NodeChatbot, Err: errors.New("503")}
	case "sign me up":
		st.UserName = "Ved"
		return sales.TurnResult{Reply: "Welcome aboard!", Confirmation: sales.LeadConfirmation, LeadCaptured: true}, nil
	default:
		st.Append(sales.RoleUser, input)
		return sales.TurnResult{Reply: "Hello there!"}, nil
	}
}

func TestREPL(t *testing.T) {
	runner := &replRunner{}
	st := sales.NewState("s1")
	in := strings.NewReader("hi\n\nboom\nsign me up\n/state\nQuit\nnever sent\n")
	var out bytes.Buffer

	require.NoError(t, runREPL(context.Background(), runner, st, in, &out))

	text := out.String()
	assert.Contains(t, text, "AutoStream Agent (Type 'q' to quit)")
	assert.Contains(t, text, "Agent: Hello there!")
	assert.Contains(t, text, "something went wrong")
	assert.Contains(t, text, "[system] "+sales.LeadConfirmation)
	assert.Contains(t, text, "Agent: Welcome aboard!")
	assert.Contains(t, text, `"name": "Ved"`)
	assert.Contains(t, text, "Goodbye!")
	assert.Equal(t, []string{"hi", "boom", "sign me up"}, runner.inputs)
	assert.NotContains(t, text, "\033[", "no colors when not a terminal")
}

func TestREPLReportsLeadSavedBeforeFailure(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, runREPL(context.Background(), &replRunner{}, sales.NewState("s1"), strings.NewReader("saved then failed\nq\n"), &out))

	text := out.String()
	confirmation := strings.Index(text, "[system] "+sales.LeadConfirmation)
	require.GreaterOrEqual(t, confirmation, 0)
	assert.Greater(t, strings.Index(text, "something went wrong"), confirmation)
}

func TestREPLStopsAtEOF(t *testing.T) {
	runner := &replRunner{}
	var out bytes.Buffer
	require.NoError(t, runREPL(context.Background(), runner, sales.NewState("s"), strings.NewReader("hi"), &out))
	assert.Equal(t, []string{"hi"}, runner.inputs)
}

func TestReadLine(t *testing.T) {
	in := strings.NewReader("first\r\nsecond\nlast")
	a, err := readLine(in)
	require.NoError(t, err)
	b, err := readLine(in)
	require.NoError(t, err)
	c, err := readLine(in)
	require.NoError(t, err)
	assert.Equal(t, []string{"first", "second", "last"}, []string{a, b, c})
}

func runApp(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	app := newCLIApp()
	var out bytes.Buffer
	app.Writer = &out
	app.ErrWriter = &out
	app.Reader = strings.NewReader(stdin)
	err := app.Run(append([]string{"salesagent"}, args...))
	return out.String(), err
}

func TestLeadsCommand(t *testing.T) {
	dir := t.TempDir()
	db, err := persistence.OpenDatabase(filepath.Join(dir, config.DefaultLeadsDBPath))
	require.NoError(t, err)
	ops := persistence.NewDatabaseOperations(db)
	require.NoError(t, ops.InsertLead(&persistence.Lead{Name: "Ved", Email: "ved@test.com", Platform: "YouTube"}))
	require.NoError(t, ops.InsertLead(&persistence.Lead{Name: "Asha", Email: "asha@test.com", Platform: "TikTok"}))
	require.NoError(t, db.Close())

	out, err := runApp(t, "", "--dir", dir, "leads", "--json", "--platform", "youtube")
	require.NoError(t, err)
	var list []persistence.Lead
	require.NoError(t, json.Unmarshal([]byte(out), &list))
	require.Len(t, list, 1)
	assert.Equal(t, "Ved", list[0].Name)

	out, err = runApp(t, "", "--dir", dir, "leads", "--count")
	require.NoError(t, err)
	assert.Equal(t, "2\n", out)

	out, err = runApp(t, "", "--dir", dir, "leads")
	require.NoError(t, err)
	assert.Contains(t, out, "asha@test.com")
	assert.Contains(t, out, "PLATFORM")
}

func TestLeadsCommandBadConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"leads":{"sink":"carrier-pigeon"}}`), 0o644))

	_, err := runApp(t, "", "--dir", dir, "--config", path, "leads")
	assert.Error(t, err)
}

func TestSecretsSetAndList(t *testing.T) {
	dir := t.TempDir()
	t.Setenv(passwordEnv, "correct horse")

	out, err := runApp(t, "", "--dir", dir, "secrets", "set", "GOOGLE_API_KEY", "g-123")
	require.NoError(t, err)
	assert.Contains(t, out, "Saved GOOGLE_API_KEY")

	// value read from stdin when omitted
	_, err = runApp(t, "sk-ant\n", "--dir", dir, "secrets", "set", "ANTHROPIC_API_KEY")
	require.NoError(t, err)

	out, err = runApp(t, "", "--dir", dir, "secrets", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "ANTHROPIC_API_KEY\nGOOGLE_API_KEY\n")

	got, err := config.GetSecret("ANTHROPIC_API_KEY")
	require.NoError(t, err)
	assert.Equal(t, "sk-ant", got)
}

func TestSecretsWrongPassword(t *testing.T) {
	dir := t.TempDir()
	t.Setenv(passwordEnv, "one")
	_, err := runApp(t, "", "--dir", dir, "secrets", "set", "X", "y")
	require.NoError(t, err)

	t.Setenv(passwordEnv, "two")
	_, err = runApp(t, "", "--dir", dir, "secrets", "list")
	assert.Error(t, err)
}

func TestNewLeadSink(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Leads.Sink = config.SinkLog
	assert.IsType(t, &leads.LogSink{}, newLeadSink(cfg, nil, &bytes.Buffer{}))

	cfg.Leads.Sink = config.SinkSQLite
	assert.IsType(t, &leads.StoreSink{}, newLeadSink(cfg, nil, &bytes.Buffer{}))

	cfg.Leads.Sink = config.SinkBoth
	multi, ok := newLeadSink(cfg, nil, &bytes.Buffer{}).(leads.MultiSink)
	require.True(t, ok)
	assert.Len(t, multi, 2)
}

func TestResolvePath(t *testing.T) {
	assert.Equal(t, filepath.Join("proj", "kb.json"), resolvePath("proj", "kb.json"))
	assert.Equal(t, "/abs/kb.json", resolvePath("proj", "/abs/kb.json"))
	assert.Equal(t, "", resolvePath("proj", ""))
}

func TestPrintSummary(t *testing.T) {
	var out bytes.Buffer
	printSummary(&out, &metrics.Summary{
		Turns:         map[string]int64{"ok": 4, "generator_failure": 1},
		Detours:       map[string]int64{"knowledge": 2},
		LeadsCaptured: 1,
		Models: map[string]*metrics.ModelUsage{
			"gemini-2.5-flash": {Model: "gemini-2.5-flash", Requests: 6, PromptTokens: 900, CompletionTokens: 100, TotalTokens: 1000, TotalCost: 0.0125},
		},
	})

	text := out.String()
	assert.Less(t, strings.Index(text, "generator_failure"), strings.Index(text, "ok "))
	assert.Contains(t, text, "Leads captured:    1")
	assert.Contains(t, text, "Model gemini-2.5-flash: 6 requests, 1000 tokens (900 prompt / 100 completion), $0.0125")
}
