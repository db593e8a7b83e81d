package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"briefcast/internal/api"
)

func newDigestCommand(ctx *commandContext) *cobra.Command {
	digestCmd := &cobra.Command{
		Use:   "digest",
		Short: "Create and inspect audio digests",
	}

	digestCmd.AddCommand(newDigestCreateCommand(ctx))
	digestCmd.AddCommand(newDigestListCommand(ctx))
	digestCmd.AddCommand(newDigestShowCommand(ctx))

	return digestCmd
}

func newDigestCreateCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "create [item-id ...]",
		Short: "Compose a digest from completed items (all of them when no ids are given)",
		RunE: func(cmd *cobra.Command, args []string) error {
			ids, err := parsePositiveIDs(args)
			if err != nil {
				return err
			}
			return ctx.withService(func(svc *api.Service) error {
				digest, err := svc.CreateDigest(cmd.Context(), ids)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Digest %d queued over %d item(s)\n", digest.ID, len(digest.ItemIDs))
				return nil
			})
		},
	}
}

func newDigestListCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List digests, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withService(func(svc *api.Service) error {
				digests, err := svc.Digests(cmd.Context())
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if len(digests) == 0 {
					fmt.Fprintln(out, "No digests found")
					return nil
				}
				rows := make([][]string, 0, len(digests))
				for _, digest := range digests {
					rows = append(rows, []string{
						strconv.FormatInt(digest.ID, 10),
						statusLabel(digest.Status),
						strconv.Itoa(len(digest.ItemIDs)),
						orDash(digest.AudioPath),
						formatTime(digest.CreatedAt),
					})
				}
				fmt.Fprintln(out, renderTable(
					[]string{"ID", "Status", "Items", "Audio", "Created"},
					rows,
					0, 2,
				))
				return nil
			})
		},
	}
}

func newDigestShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show one digest in detail",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids, err := parsePositiveIDs(args)
			if err != nil {
				return err
			}
			return ctx.withService(func(svc *api.Service) error {
				digest, err := svc.Digest(cmd.Context(), ids[0])
				if err != nil {
					return err
				}
				if digest == nil {
					return fmt.Errorf("digest %d not found", ids[0])
				}
				items, err := svc.DigestItems(cmd.Context(), digest.ID)
				if err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Digest %d\n", digest.ID)
				fmt.Fprintf(out, "  Status:  %s\n", statusLabel(digest.Status))
				fmt.Fprintf(out, "  Created: %s\n", formatTime(digest.CreatedAt))
				fmt.Fprintf(out, "  Audio:   %s\n", orDash(digest.AudioPath))
				if digest.ErrorMessage != "" {
					fmt.Fprintf(out, "  Error:   %s\n", digest.ErrorMessage)
				}
				if len(items) > 0 {
					fmt.Fprintln(out, "  Items:")
					for _, item := range items {
						fmt.Fprintf(out, "    %d. %s (%s)\n", item.ID, orDash(item.Title), statusLabel(item.Status))
					}
				}
				if digest.SummaryText != "" {
					fmt.Fprintf(out, "\n%s\n", digest.SummaryText)
				}
				return nil
			})
		},
	}
}
