package main

import (
	"github.com/spf13/cobra"
)

func newRootCommand() *cobra.Command {
	var configFlag, webhookFlag, logLevelFlag string

	ctx := newCommandContext(&configFlag, &webhookFlag, &logLevelFlag)

	rootCmd := &cobra.Command{
		Use:           "nexusevent",
		Short:         "Send notifications to Discord, Telegram and friends",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	rootCmd.PersistentFlags().StringVarP(&configFlag, "config", "c", "", "Configuration file path (json, yaml or toml)")
	rootCmd.PersistentFlags().StringVar(&webhookFlag, "webhook", "", "Discord webhook URL registered as sender \""+webhookName+"\" (default $"+webhookEnv+")")
	rootCmd.PersistentFlags().StringVar(&logLevelFlag, "log-level", "warn", "Log level for CLI commands")

	rootCmd.AddCommand(newSendersCommand(ctx))
	rootCmd.AddCommand(newValidateCommand(ctx))
	rootCmd.AddCommand(newSendCommand(ctx))
	rootCmd.AddCommand(newBroadcastCommand(ctx))
	rootCmd.AddCommand(newHistoryCommand(ctx))
	rootCmd.AddCommand(newWatchCommand(ctx))
	rootCmd.AddCommand(newVersionCommand())

	return rootCmd
}
