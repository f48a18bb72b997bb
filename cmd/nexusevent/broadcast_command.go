package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"nexusevent/pkg/nexusevent"
	"nexusevent/pkg/sender"
)

func newBroadcastCommand(ctx *commandContext) *cobra.Command {
	var (
		flags     messageFlags
		platforms []string
		failFast  bool
	)
	cmd := &cobra.Command{
		Use:   "broadcast",
		Short: "Send one message through every sender (optionally filtered by platform)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, err := ctx.ensureRegistry()
			if err != nil {
				return err
			}
			msg, err := flags.message()
			if err != nil {
				return err
			}

			var ps []sender.Platform
			for _, raw := range platforms {
				p, err := sender.ParsePlatform(raw)
				if err != nil {
					return err
				}
				ps = append(ps, p)
			}
			opts := []nexusevent.BroadcastOption{nexusevent.WithPlatforms(ps...)}
			if failFast {
				opts = append(opts, nexusevent.FailFast())
			}

			res, err := reg.Broadcast(cmd.Context(), msg, opts...)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if res.Total == 0 {
				fmt.Fprintln(out, "No senders matched")
				return nil
			}
			fmt.Fprintln(out, renderTable([]string{"Sender", "Platform", "Result", "Error"}, broadcastRows(reg, ps, res), nil))
			fmt.Fprintf(out, "Broadcast %s: %d/%d succeeded in %s\n", res.ID, res.Successful, res.Total, res.Took.Round(time.Millisecond))
			if res.Failed > 0 {
				return fmt.Errorf("%d of %d deliveries failed", res.Failed, res.Total)
			}
			return nil
		},
	}
	flags.register(cmd)
	cmd.Flags().StringSliceVarP(&platforms, "platform", "p", nil, "Only senders on this platform (repeatable)")
	cmd.Flags().BoolVar(&failFast, "fail-fast", false, "Abort on the first failed delivery")
	return cmd
}

func broadcastRows(reg *nexusevent.Registry, ps []sender.Platform, res nexusevent.BroadcastResult) [][]string {
	rows := make([][]string, 0, res.Total)
	for _, name := range reg.SenderNames() {
		platform := platformOf(reg, name)
		if !platformSelected(ps, platform) {
			continue
		}
		if err, failed := res.Errors[name]; failed {
			rows = append(rows, []string{name, platform, "failed", err.Error()})
			continue
		}
		rows = append(rows, []string{name, platform, "sent", ""})
	}
	return rows
}

func platformSelected(ps []sender.Platform, platform string) bool {
	if len(ps) == 0 {
		return true
	}
	for _, p := range ps {
		if string(p) == platform {
			return true
		}
	}
	return false
}
