package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"briefcast/internal/api"
)

func newSubmitCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "submit <url>",
		Short: "Submit a video source for processing",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withService(func(svc *api.Service) error {
				item, scheduled, err := svc.Submit(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if scheduled {
					fmt.Fprintf(out, "Item %d queued for processing\n", item.ID)
					return nil
				}
				fmt.Fprintf(out, "Item %d already %s; nothing scheduled\n", item.ID, item.Status)
				return nil
			})
		},
	}
}
