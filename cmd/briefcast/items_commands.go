package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"briefcast/internal/api"
	"briefcast/internal/records"
)

func newItemsCommand(ctx *commandContext) *cobra.Command {
	var statusFilter []string

	cmd := &cobra.Command{
		Use:   "items",
		Short: "List submitted items",
		RunE: func(cmd *cobra.Command, args []string) error {
			statuses, err := parseStatuses(statusFilter)
			if err != nil {
				return err
			}
			return ctx.withService(func(svc *api.Service) error {
				items, err := svc.Items(cmd.Context(), statuses...)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if len(items) == 0 {
					fmt.Fprintln(out, "No items found")
					return nil
				}
				rows := make([][]string, 0, len(items))
				for _, item := range items {
					rows = append(rows, []string{
						strconv.FormatInt(item.ID, 10),
						statusLabel(item.Status),
						orDash(truncate(item.Title, 48)),
						orDash(item.Speaker),
						formatTime(item.CreatedAt),
					})
				}
				fmt.Fprintln(out, renderTable(
					[]string{"ID", "Status", "Title", "Speaker", "Submitted"},
					rows,
					0,
				))
				return nil
			})
		},
	}

	cmd.Flags().StringSliceVar(&statusFilter, "status", nil, "Filter by status (pending, processing, completed, failed)")
	return cmd
}

func newShowCommand(ctx *commandContext) *cobra.Command {
	var withTranscript bool

	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show one item in detail",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids, err := parsePositiveIDs(args)
			if err != nil {
				return err
			}
			return ctx.withService(func(svc *api.Service) error {
				item, err := svc.Item(cmd.Context(), ids[0])
				if err != nil {
					return err
				}
				if item == nil {
					return fmt.Errorf("item %d not found", ids[0])
				}
				printItem(cmd, item, withTranscript)
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&withTranscript, "transcript", false, "Include the full transcript text")
	return cmd
}

func printItem(cmd *cobra.Command, item *records.Item, withTranscript bool) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Item %d\n", item.ID)
	fmt.Fprintf(out, "  Status:    %s\n", statusLabel(item.Status))
	fmt.Fprintf(out, "  Source:    %s\n", item.SourceURL)
	fmt.Fprintf(out, "  Title:     %s\n", orDash(item.Title))
	fmt.Fprintf(out, "  Speaker:   %s\n", orDash(item.Speaker))
	if item.PublishedAt != nil {
		fmt.Fprintf(out, "  Published: %s\n", formatTime(*item.PublishedAt))
	}
	fmt.Fprintf(out, "  Submitted: %s\n", formatTime(item.CreatedAt))
	fmt.Fprintf(out, "  Updated:   %s\n", formatTime(item.UpdatedAt))
	if item.ErrorMessage != "" {
		fmt.Fprintf(out, "  Error:     %s\n", item.ErrorMessage)
	}

	if summary, err := item.Summary(); err == nil {
		fmt.Fprintf(out, "\n%s\n", summary.Headline)
		fmt.Fprintf(out, "%s\n", summary.Synopsis)
		for _, bullet := range summary.Bullets {
			fmt.Fprintf(out, "  - %s\n", bullet)
		}
	}

	if withTranscript {
		if transcript, err := item.Transcript(); err == nil && !transcript.IsEmpty() {
			fmt.Fprintf(out, "\nTranscript:\n%s\n", transcript.Flatten())
		}
	}
}
