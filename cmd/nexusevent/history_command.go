package main

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"nexusevent/internal/app"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent deliveries from the audit log",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if cfg == nil {
				return errors.New("history requires --config")
			}
			store, err := app.OpenAudit(cfg, ctx.logger())
			if err != nil {
				return err
			}
			if store == nil {
				return errors.New("audit log is not enabled in config")
			}
			defer store.Close()

			recs, err := store.Recent(cmd.Context(), limit)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(recs) == 0 {
				fmt.Fprintln(out, "No deliveries recorded")
				return nil
			}
			rows := make([][]string, 0, len(recs))
			for _, r := range recs {
				result := "sent"
				if !r.OK {
					result = "failed"
				}
				rows = append(rows, []string{
					r.At.Local().Format(time.DateTime),
					r.Sender,
					r.Platform,
					r.Title,
					result,
					strconv.FormatInt(r.TookMS, 10) + "ms",
					r.Error,
				})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"Time", "Sender", "Platform", "Title", "Result", "Took", "Error"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignLeft, alignRight, alignLeft},
			))
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Number of records to show")
	return cmd
}
