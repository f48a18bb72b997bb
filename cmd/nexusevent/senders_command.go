package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"nexusevent/pkg/nexusevent"
)

func newSendersCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "senders",
		Short: "List configured senders",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, err := ctx.ensureRegistry()
			if err != nil {
				return err
			}
			valid := reg.ValidateAllSenders()
			rows := make([][]string, 0, reg.Len())
			for _, name := range reg.SenderNames() {
				rows = append(rows, []string{name, platformOf(reg, name), validLabel(valid[name])})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"Name", "Platform", "Config"}, rows, nil))
			return nil
		},
	}
}

func newValidateCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "validate [sender...]",
		Short: "Check sender configuration without sending anything",
		Long:  "Check sender configuration without sending anything. Exits non-zero when any sender is invalid.",
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, err := ctx.ensureRegistry()
			if err != nil {
				return err
			}
			var results map[string]bool
			names := args
			if len(names) == 0 {
				results = reg.ValidateAllSenders()
				names = reg.SenderNames()
			} else {
				results = make(map[string]bool, len(names))
				for _, n := range names {
					results[n] = reg.ValidateSender(n)
				}
			}

			bad := 0
			rows := make([][]string, 0, len(names))
			for _, name := range names {
				if !results[name] {
					bad++
				}
				rows = append(rows, []string{name, platformOf(reg, name), validLabel(results[name])})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"Name", "Platform", "Config"}, rows, nil))
			if bad > 0 {
				return fmt.Errorf("%d of %d senders failed validation", bad, len(names))
			}
			return nil
		},
	}
}

func platformOf(reg *nexusevent.Registry, name string) string {
	s, ok := reg.Get(name)
	if !ok {
		return "-"
	}
	return string(s.Platform())
}

func validLabel(ok bool) string {
	if ok {
		return "valid"
	}
	return "invalid"
}
