package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"text/tabwriter"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/vango-dev/vango-admin/internal/config"
	"github.com/vango-dev/vango-admin/internal/console"
	"github.com/vango-dev/vango-admin/pkg/router"
)

func routesCmd(load func() (*config.Config, error)) *cobra.Command {
	return &cobra.Command{
		Use:   "routes",
		Short: "List console routes",
		Long:  `Print every console route with its name, permission and flags, in match order.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}
			s, err := console.New(cfg,
				console.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
				console.WithRegistry(prometheus.NewRegistry()),
			)
			if err != nil {
				return err
			}
			printRoutes(os.Stdout, s.Table())
			return nil
		},
	}
}

func printRoutes(w io.Writer, t *router.Table) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "PATTERN\tNAME\tPERMISSION\tFLAGS")
	for _, r := range t.Routes() {
		perm := r.Meta.String("permission")
		if perm == "" {
			perm = "-"
		}
		name := r.Name
		if name == "" {
			name = "-"
		}
		flags := ""
		if r.Meta.Bool("public") {
			flags += "public "
		}
		if r.Meta.Bool("guestOnly") {
			flags += "guest-only "
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", r.Pattern, name, perm, flags)
	}
	_ = tw.Flush()
}
