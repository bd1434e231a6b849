package main

import (
	"os"
	"time"

	"github.com/urfave/cli/v2"
	"golang.org/x/sync/errgroup"

	"salesagent/pkg/session"
	"salesagent/pkg/webui"
)

func serveCmd() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Serve the agent over HTTP",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "addr", Usage: "Listen address (overrides server.addr)"},
		},
		Action: func(c *cli.Context) error {
			rt, err := buildRuntime(c, os.Stdout)
			if err != nil {
				return err
			}
			defer func() { _ = rt.Close() }()

			addr := rt.cfg.Server.Addr
			if a := c.String("addr"); a != "" {
				addr = a
			}

			mgr := session.NewManager(rt.agent, session.Config{
				IdleTimeout:   time.Duration(rt.cfg.Server.SessionTTLMinutes) * time.Minute,
				SweepInterval: time.Duration(rt.cfg.Server.SweepIntervalSeconds) * time.Second,
			})

			opts := []webui.Option{webui.WithUsage(rt.usage), webui.WithGatherer(rt.registry)}
			if rt.store != nil {
				opts = append(opts, webui.WithLeadStore(rt.store))
			}
			server := webui.NewServer(mgr, opts...)

			g, ctx := errgroup.WithContext(c.Context)
			g.Go(func() error { return mgr.Run(ctx) })
			g.Go(func() error { return server.ListenAndServe(ctx, addr) })
			return g.Wait()
		},
	}
}
