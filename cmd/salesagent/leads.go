package main

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/urfave/cli/v2"

	"salesagent/pkg/persistence"
)

func leadsCmd() *cli.Command {
	return &cli.Command{
		Name:  "leads",
		Usage: "List captured leads",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "platform", Usage: "Only leads on this platform"},
			&cli.StringFlag{Name: "email", Usage: "Only leads with this email"},
			&cli.DurationFlag{Name: "since", Usage: "Only leads captured within this window, e.g. 24h"},
			&cli.IntFlag{Name: "limit", Aliases: []string{"l"}, Value: 50, Usage: "Maximum leads to show"},
			&cli.BoolFlag{Name: "json", Usage: "Print JSON instead of a table"},
			&cli.BoolFlag{Name: "count", Usage: "Print only the number of matching leads"},
		},
		Action: func(c *cli.Context) error {
			cfg, err := loadConfig(c)
			if err != nil {
				return err
			}
			db, store, err := openLeadStore(projectDir(c), cfg)
			if err != nil {
				return err
			}
			defer func() { _ = db.Close() }()

			filter := persistence.LeadFilter{
				Platform: c.String("platform"),
				Email:    c.String("email"),
				Limit:    c.Int("limit"),
			}
			if window := c.Duration("since"); window > 0 {
				filter.Since = time.Now().Add(-window)
			}

			out := c.App.Writer
			if c.Bool("count") {
				n, err := store.CountLeads(filter)
				if err != nil {
					return err
				}
				fmt.Fprintln(out, n)
				return nil
			}

			list, err := store.ListLeads(filter)
			if err != nil {
				return err
			}
			if c.Bool("json") {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(list)
			}
			return printLeads(out, list)
		},
	}
}

func printLeads(out io.Writer, list []*persistence.Lead) error {
	if len(list) == 0 {
		fmt.Fprintln(out, "No leads captured yet.")
		return nil
	}
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "CAPTURED\tNAME\tEMAIL\tPLATFORM\tNOTES")
	for _, l := range list {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
			l.CapturedAt.Local().Format("2006-01-02 15:04"), l.Name, l.Email, l.Platform, l.SalesNotes)
	}
	return tw.Flush()
}
