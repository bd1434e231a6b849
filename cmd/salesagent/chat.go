package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/urfave/cli/v2"
	"golang.org/x/term"

	"salesagent/pkg/sales"
	"salesagent/pkg/session"
)

// quitWords end the REPL.
var quitWords = map[string]bool{"q": true, "quit": true, "exit": true}

// palette holds the REPL prompt styling; empty when output is not a terminal.
type palette struct {
	bold, user, agent, system, reset string
}

func newPalette(out io.Writer) palette {
	if f, ok := out.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		return palette{bold: "\033[1m", user: "\033[94m", agent: "\033[92m", system: "\033[93m", reset: "\033[0m"}
	}
	return palette{}
}

func chatCmd() *cli.Command {
	return &cli.Command{
		Name:  "chat",
		Usage: "Talk to the agent in the terminal",
		Action: func(c *cli.Context) error {
			rt, err := buildRuntime(c, os.Stdout)
			if err != nil {
				return err
			}
			defer func() { _ = rt.Close() }()

			st := sales.NewState(uuid.New().String())
			return runREPL(c.Context, rt.agent, st, os.Stdin, os.Stdout)
		},
	}
}

// runREPL reads one user message per line until a quit word, EOF or ctx cancellation.
// A failed turn is reported and the conversation continues.
func runREPL(ctx context.Context, runner session.Runner, st *sales.State, in io.Reader, out io.Writer) error {
	p := newPalette(out)
	fmt.Fprintf(out, "\n%sAutoStream Agent%s (Type 'q' to quit)\n", p.bold, p.reset)
	fmt.Fprintln(out, "---------------------------------------")

	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprintf(out, "%sYou:%s ", p.user, p.reset)
		if !scanner.Scan() {
			fmt.Fprintln(out)
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())

		switch {
		case line == "":
			continue
		case quitWords[strings.ToLower(line)]:
			fmt.Fprintln(out, "Goodbye!")
			return nil
		case line == "/state":
			if err := printState(out, st); err != nil {
				return err
			}
			continue
		}

		result, err := runner.Turn(ctx, st, line)
		// A lead saved before a later step failed is still reported.
		if result.Confirmation != "" {
			fmt.Fprintf(out, "%s[system]%s %s\n", p.system, p.reset, result.Confirmation)
		}
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return nil
			}
			fmt.Fprintf(out, "%sAgent:%s sorry, something went wrong (%v). Please try again.\n", p.agent, p.reset, err)
			continue
		}
		if result.Reply != "" {
			fmt.Fprintf(out, "%sAgent:%s %s\n", p.agent, p.reset, result.Reply)
		}
	}
}

// printState shows what the agent knows about the user.
func printState(out io.Writer, st *sales.State) error {
	view := struct {
		SessionID string       `json:"session_id"`
		Intent    sales.Intent `json:"intent"`
		Slots     sales.Slots  `json:"slots"`
		Missing   []string     `json:"missing,omitempty"`
		Notes     string       `json:"sales_notes,omitempty"`
		Messages  int          `json:"messages"`
	}{st.SessionID, st.Intent, st.Slots(), st.Slots().Missing(), st.SalesNotes, len(st.Messages)}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(view)
}
