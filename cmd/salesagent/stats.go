package main

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"

	"github.com/urfave/cli/v2"

	"salesagent/pkg/metrics"
)

func statsCmd() *cli.Command {
	return &cli.Command{
		Name:  "stats",
		Usage: "Summarize turn, lead and LLM usage metrics from Prometheus",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "prometheus", Usage: "Prometheus URL (overrides metrics.prometheus_url)"},
			&cli.BoolFlag{Name: "json", Usage: "Print JSON"},
		},
		Action: func(c *cli.Context) error {
			cfg, err := loadConfig(c)
			if err != nil {
				return err
			}
			url := cfg.Metrics.PrometheusURL
			if u := c.String("prometheus"); u != "" {
				url = u
			}

			q, err := metrics.NewQueryService(url)
			if err != nil {
				return err
			}
			summary, err := q.GetSummary(c.Context)
			if err != nil {
				return err
			}

			if c.Bool("json") {
				enc := json.NewEncoder(c.App.Writer)
				enc.SetIndent("", "  ")
				return enc.Encode(summary)
			}
			printSummary(c.App.Writer, summary)
			return nil
		},
	}
}

func printSummary(out io.Writer, s *metrics.Summary) {
	fmt.Fprintln(out, "Turns:")
	for _, k := range sortedKeys(s.Turns) {
		fmt.Fprintf(out, "  %-16s %d\n", k, s.Turns[k])
	}
	fmt.Fprintln(out, "Detours:")
	for _, k := range sortedKeys(s.Detours) {
		fmt.Fprintf(out, "  %-16s %d\n", k, s.Detours[k])
	}
	fmt.Fprintf(out, "Leads captured:    %d\n", s.LeadsCaptured)

	names := make([]string, 0, len(s.Models))
	for name := range s.Models {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		m := s.Models[name]
		fmt.Fprintf(out, "Model %s: %d requests, %d tokens (%d prompt / %d completion), $%.4f\n",
			name, m.Requests, m.TotalTokens, m.PromptTokens, m.CompletionTokens, m.TotalCost)
	}
}

func sortedKeys(m map[string]int64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
