package main

import (
	"context"
	"errors"

	"github.com/spf13/cobra"

	"nexusevent/internal/app"
)

func newWatchCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Run the daemon: scheduled broadcasts, audit log and config hot reload",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := ctx.configPath()
			if path == "" {
				return errors.New("watch requires --config")
			}
			a, err := app.NewApp(path)
			if err != nil {
				return err
			}
			runCtx := cmd.Context()
			if err := a.Start(runCtx); err != nil {
				_ = a.Stop(context.Background(), app.StopFatalError)
				return err
			}

			select {
			case <-runCtx.Done():
			case <-a.Done():
			}
			reason := app.StopSignal
			if runCtx.Err() == nil {
				reason = app.StopFatalError
			}
			fatal := a.Err()
			_ = a.Stop(context.Background(), reason)
			return fatal
		},
	}
}
