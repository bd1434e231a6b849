package main

import (
	"database/sql"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/urfave/cli/v2"
	"golang.org/x/term"

	"salesagent/pkg/agent"
	llmmetrics "salesagent/pkg/agent/middleware/metrics"
	"salesagent/pkg/config"
	"salesagent/pkg/knowledge"
	"salesagent/pkg/leads"
	"salesagent/pkg/logx"
	"salesagent/pkg/metrics"
	"salesagent/pkg/persistence"
	"salesagent/pkg/sales"
)

// passwordEnv unlocks the secrets file without a prompt.
const passwordEnv = "SALESAGENT_PASSWORD"

// runtime is everything a command needs to talk to the agent.
type runtime struct {
	cfg      *config.Config
	agent    *sales.Agent
	store    *persistence.DatabaseOperations
	db       *sql.DB
	usage    *llmmetrics.InternalRecorder
	registry *prometheus.Registry
}

func (r *runtime) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

func projectDir(c *cli.Context) string {
	return c.String("dir")
}

// loadConfig reads the config file named by --config, or the default under --dir.
func loadConfig(c *cli.Context) (*config.Config, error) {
	path := c.String("config")
	if path == "" {
		path = filepath.Join(projectDir(c), config.DefaultConfigPath)
	}
	return config.LoadConfig(path)
}

// resolvePath makes p relative to the project directory unless it is absolute.
func resolvePath(dir, p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(dir, p)
}

// unlockSecrets decrypts the secrets file into memory when one exists.
func unlockSecrets(dir string, in io.Reader, out io.Writer) error {
	if !config.SecretsFileExists(dir) {
		return nil
	}
	password := os.Getenv(passwordEnv)
	if password == "" {
		var err error
		password, err = readPassword(in, out, "Secrets password: ")
		if err != nil {
			return err
		}
	}
	secrets, err := config.DecryptSecretsFile(dir, password)
	if err != nil {
		return fmt.Errorf("failed to unlock secrets: %w", err)
	}
	config.SetDecryptedSecrets(secrets)
	config.LogInfo("🔐 Loaded %d secrets from %s", len(secrets), config.SecretsPath(dir))
	return nil
}

// readPassword reads without echo from a terminal, or a plain line otherwise.
func readPassword(in io.Reader, out io.Writer, prompt string) (string, error) {
	fmt.Fprint(out, prompt)
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		b, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(out)
		if err != nil {
			return "", fmt.Errorf("failed to read password: %w", err)
		}
		return string(b), nil
	}
	line, err := readLine(in)
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	return line, nil
}

// readLine reads up to a newline one byte at a time so nothing past the line is consumed.
func readLine(in io.Reader) (string, error) {
	var sb strings.Builder
	buf := make([]byte, 1)
	for {
		n, err := in.Read(buf)
		if n > 0 {
			if buf[0] == '\n' {
				break
			}
			sb.WriteByte(buf[0])
		}
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", err
		}
	}
	return strings.TrimRight(sb.String(), "\r"), nil
}

// openLeadStore opens the SQLite lead database named in the config.
func openLeadStore(dir string, cfg *config.Config) (*sql.DB, *persistence.DatabaseOperations, error) {
	db, err := persistence.OpenDatabase(resolvePath(dir, cfg.Leads.DBPath))
	if err != nil {
		return nil, nil, err
	}
	return db, persistence.NewDatabaseOperations(db), nil
}

// newLeadSink builds the configured sink. The store is nil for the log-only sink.
func newLeadSink(cfg *config.Config, store *persistence.DatabaseOperations, out io.Writer) sales.LeadSink {
	switch cfg.Leads.Sink {
	case config.SinkLog:
		return leads.NewLogSink(out)
	case config.SinkSQLite:
		return leads.NewStoreSink(store)
	default:
		return leads.MultiSink{leads.NewLogSink(out), leads.NewStoreSink(store)}
	}
}

// buildRuntime wires config, secrets, LLM client, knowledge, lead sink and metrics.
func buildRuntime(c *cli.Context, out io.Writer) (*runtime, error) {
	dir := projectDir(c)
	cfg, err := loadConfig(c)
	if err != nil {
		return nil, err
	}
	if err := unlockSecrets(dir, os.Stdin, out); err != nil {
		return nil, err
	}

	rt := &runtime{
		cfg:      cfg,
		usage:    llmmetrics.NewInternalRecorder(),
		registry: prometheus.NewRegistry(),
	}

	var recorder llmmetrics.Recorder = rt.usage
	var opts []sales.Option
	if cfg.Metrics.Enabled {
		recorder = llmmetrics.Fanout{rt.usage, llmmetrics.NewPrometheusRecorder(rt.registry)}
		opts = append(opts, sales.WithObserver(metrics.NewTurnRecorder(rt.registry)))
	}

	client, err := agent.NewLLMClientFactory(cfg.Agent, recorder).CreateClient()
	if err != nil {
		return nil, logx.Wrap(err, "failed to create LLM client")
	}

	kb, err := knowledge.NewSource(resolvePath(dir, cfg.Knowledge.Path))
	if err != nil {
		return nil, err
	}

	if cfg.Leads.Sink != config.SinkLog {
		rt.db, rt.store, err = openLeadStore(dir, cfg)
		if err != nil {
			return nil, err
		}
	}

	generator := sales.NewLLMGenerator(client, cfg.Agent.MaxTokens, cfg.Agent.Temperature)
	rt.agent = sales.NewAgent(generator, kb, newLeadSink(cfg, rt.store, out), opts...)
	return rt, nil
}
