package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newSendCommand(ctx *commandContext) *cobra.Command {
	var flags messageFlags
	cmd := &cobra.Command{
		Use:   "send <sender>",
		Short: "Send one message through a named sender",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, err := ctx.ensureRegistry()
			if err != nil {
				return err
			}
			msg, err := flags.message()
			if err != nil {
				return err
			}
			if err := reg.Send(cmd.Context(), args[0], msg); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Sent %q via %s\n", msg.Title, args[0])
			return nil
		},
	}
	flags.register(cmd)
	return cmd
}
