package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/kbukum/fluxkit/bootstrap"
	"github.com/kbukum/fluxkit/logger"
)

func newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the available demos",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := cmd.OutOrStdout()
			for _, d := range demos {
				fmt.Fprintf(out, "%-15s %s\n", d.name, d.description)
			}
			return nil
		},
	}
}

func newRunCmd(opts *rootOptions) *cobra.Command {
	var all bool
	cmd := &cobra.Command{
		Use:   "run [demo...]",
		Short: "Run one or more demos",
		Example: "  fluxdemo run filter\n" +
			"  fluxdemo run --all",
		ValidArgs: demoNames(),
		Args: func(cmd *cobra.Command, args []string) error {
			if all && len(args) > 0 {
				return fmt.Errorf("--all takes no demo names")
			}
			if !all && len(args) == 0 {
				return fmt.Errorf("name a demo or pass --all; see \"fluxdemo list\"")
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			selected := demos
			if !all {
				selected = nil
				for _, name := range args {
					d, err := findDemo(name)
					if err != nil {
						return err
					}
					selected = append(selected, d)
				}
			}

			cfg, err := loadConfig(opts)
			if err != nil {
				return err
			}
			app, err := bootstrap.NewApp(cfg, bootstrap.WithQuiet())
			if err != nil {
				return err
			}
			env := &demoEnv{stream: cfg.Stream, log: app.Logger.WithComponent("demo"), out: cmd.OutOrStdout()}
			return app.RunTask(cmd.Context(), func(ctx context.Context) error {
				return runDemos(ctx, env, selected)
			})
		},
	}
	cmd.Flags().BoolVar(&all, "all", false, "run every demo in order")
	return cmd
}

func runDemos(ctx context.Context, env *demoEnv, selected []demo) error {
	for _, d := range selected {
		fmt.Fprintf(env.out, "== %s\n", d.name)
		start := time.Now()
		if err := d.run(ctx, env); err != nil {
			return fmt.Errorf("demo %s: %w", d.name, err)
		}
		env.log.Debug("demo finished", logger.DurationFields(d.name, time.Since(start)))
	}
	return nil
}
