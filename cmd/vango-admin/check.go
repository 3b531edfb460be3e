package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/vango-dev/vango-admin/internal/config"
	"github.com/vango-dev/vango-admin/internal/errors"
)

func checkCmd(load func() (*config.Config, error)) *cobra.Command {
	var probe bool

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Validate configuration",
		Long: `Load and validate the configuration, and optionally probe the backend
and the session store.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			fmt.Println(errors.OK("configuration is valid"))
			if cfg.Path() == "" {
				fmt.Println(errors.Warn("no admin.json found; using defaults and environment"))
			}
			info("listen   %s", cfg.Address())
			info("backend  %s", cfg.API.BaseURL)
			info("sessions %s", cfg.Session.Store)
			info("uploads  %s", cfg.Upload.Store)

			if !probe {
				return nil
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), 5*time.Second)
			defer cancel()
			return runProbes(ctx, cfg)
		},
	}
	cmd.Flags().BoolVar(&probe, "probe", false, "Also contact the backend and the session store")
	return cmd
}

func runProbes(ctx context.Context, cfg *config.Config) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, cfg.API.BaseURL, nil)
	if err != nil {
		return err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return errors.FromError(err, "E200").WithDetail(cfg.API.BaseURL + ": " + err.Error())
	}
	resp.Body.Close()
	fmt.Println(errors.OK(fmt.Sprintf("backend answered %d", resp.StatusCode)))

	store, err := openSessionStore(ctx, cfg)
	if err != nil {
		return errors.FromError(err, "E104").WithDetail(err.Error())
	}
	defer store.Close()
	fmt.Println(errors.OK("session store " + cfg.Session.Store + " is reachable"))
	return nil
}
