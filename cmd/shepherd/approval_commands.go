package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"shepherd/internal/approval"
	"shepherd/internal/logging"
	"shepherd/internal/reaper"
)

func newApprovalsCommand(ctx *commandContext) *cobra.Command {
	approvalsCmd := &cobra.Command{
		Use:   "approvals",
		Short: "Manage approval requests",
	}

	approvalsCmd.AddCommand(newPromoteCommand(ctx))
	approvalsCmd.AddCommand(newApprovalsPendingCommand(ctx))
	approvalsCmd.AddCommand(newApprovalsListCommand(ctx))
	approvalsCmd.AddCommand(newApprovalsShowCommand(ctx))
	approvalsCmd.AddCommand(newApprovalsApproveCommand(ctx))
	approvalsCmd.AddCommand(newApprovalsRejectCommand(ctx))
	approvalsCmd.AddCommand(newApprovalsReadCommand(ctx))
	approvalsCmd.AddCommand(newApprovalsSweepCommand(ctx))
	approvalsCmd.AddCommand(newApprovalsStatsCommand(ctx))

	return approvalsCmd
}

func newPromoteCommand(ctx *commandContext) *cobra.Command {
	var requesterRef string

	cmd := &cobra.Command{
		Use:   "promote <target>",
		Short: "Request promotion of a member to leader",
		Long: "Submit a promote-to-leader action. When the role change needs approval " +
			"a pending request is created for the target's group leader; otherwise the " +
			"promotion applies immediately.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := ctx.ensureRuntime()
			if err != nil {
				return err
			}
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			target, err := ctx.resolveProfile(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			requester, err := ctx.resolveProfile(cmd.Context(), requesterRef)
			if err != nil {
				return err
			}

			action := approval.NewPromoteToLeader(rt.people, rt.people,
				cfg.Approval.ChangeRoleApprovalRequired, target.ID)
			request, pending, err := rt.engine.Submit(cmd.Context(), action, requester.ID)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if !pending {
				fmt.Fprintf(out, "%s promoted to leader\n", target.FullName())
				return nil
			}
			fmt.Fprintf(out, "Approval request %d created (deadline %s)\n",
				request.ID, formatTimestamp(&request.DeadlineAt))
			return nil
		},
	}

	cmd.Flags().StringVar(&requesterRef, "as", "", "Requesting profile id or slug")
	_ = cmd.MarkFlagRequired("as")
	return cmd
}

func newApprovalsPendingCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "pending <group>",
		Short: "List open requests awaiting a group's leader",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := ctx.ensureRuntime()
			if err != nil {
				return err
			}
			group, err := ctx.resolveGroup(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			requests, err := rt.engine.Pending(cmd.Context(), group.ID)
			if err != nil {
				return err
			}
			if len(requests) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No pending requests")
				return nil
			}
			printRequestTable(cmd, requests)
			return nil
		},
	}
}

func newApprovalsListCommand(ctx *commandContext) *cobra.Command {
	var statusFlags []string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List approval requests",
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := ctx.ensureRuntime()
			if err != nil {
				return err
			}

			statuses := make([]approval.Status, 0, len(statusFlags))
			for _, raw := range statusFlags {
				status, ok := approval.ParseStatus(raw)
				if !ok {
					return fmt.Errorf("unknown status %q", raw)
				}
				statuses = append(statuses, status)
			}

			requests, err := rt.approval.List(cmd.Context(), statuses...)
			if err != nil {
				return err
			}
			if len(requests) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No requests found")
				return nil
			}
			printRequestTable(cmd, requests)
			return nil
		},
	}

	cmd.Flags().StringSliceVar(&statusFlags, "status", nil, "Filter by status (repeatable)")
	return cmd
}

func printRequestTable(cmd *cobra.Command, requests []*approval.Request) {
	rows := make([][]string, 0, len(requests))
	for _, request := range requests {
		rows = append(rows, []string{
			fmt.Sprintf("%d", request.ID),
			string(request.ActionKind),
			string(request.Status),
			shortID(request.CreatedBy),
			shortID(request.ConsumerGroup),
			formatWhen(request.CreatedAt),
			formatTimestamp(&request.DeadlineAt),
			yesNo(request.Read),
		})
	}
	fmt.Fprintln(cmd.OutOrStdout(), renderTable(
		[]string{"ID", "Action", "Status", "By", "Group", "Created", "Deadline", "Read"},
		rows,
		true,
	))
}

func newApprovalsShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show <request-id>",
		Short: "Show an approval request",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := ctx.ensureRuntime()
			if err != nil {
				return err
			}
			id, err := parseRequestID(args[0])
			if err != nil {
				return err
			}

			// Surface the effect of the lazy expiry check in what we print.
			request, err := rt.engine.CheckTimeout(cmd.Context(), id)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Request:   %d (%s)\n", request.ID, request.Slug)
			fmt.Fprintf(out, "Action:    %s\n", request.ActionKind)
			fmt.Fprintf(out, "Payload:   %s\n", request.ActionPayload)
			fmt.Fprintf(out, "Status:    %s\n", request.Status)
			fmt.Fprintf(out, "Requester: %s\n", request.CreatedBy)
			fmt.Fprintf(out, "Group:     %s\n", request.ConsumerGroup)
			fmt.Fprintf(out, "Created:   %s\n", formatWhen(request.CreatedAt))
			fmt.Fprintf(out, "Deadline:  %s\n", formatTimestamp(&request.DeadlineAt))
			if request.ApprovedBy != "" {
				fmt.Fprintf(out, "Approver:  %s\n", request.ApprovedBy)
			}
			if request.ApprovedAt != nil {
				fmt.Fprintf(out, "Decided:   %s\n", formatTimestamp(request.ApprovedAt))
			}
			fmt.Fprintf(out, "Read:      %s\n", yesNo(request.Read))
			return nil
		},
	}
}

func newApprovalsApproveCommand(ctx *commandContext) *cobra.Command {
	var consumerRef string

	cmd := &cobra.Command{
		Use:   "approve <request-id>",
		Short: "Approve a pending request and apply its action",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := ctx.ensureRuntime()
			if err != nil {
				return err
			}
			id, err := parseRequestID(args[0])
			if err != nil {
				return err
			}
			consumer, err := ctx.resolveProfile(cmd.Context(), consumerRef)
			if err != nil {
				return err
			}

			request, err := rt.engine.Approve(cmd.Context(), id, consumer.ID)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Request %d approved; %s applied\n", request.ID, request.ActionKind)
			return nil
		},
	}

	cmd.Flags().StringVar(&consumerRef, "as", "", "Approving profile id or slug (the consumer group leader)")
	_ = cmd.MarkFlagRequired("as")
	return cmd
}

func newApprovalsRejectCommand(ctx *commandContext) *cobra.Command {
	var consumerRef string

	cmd := &cobra.Command{
		Use:   "reject <request-id>",
		Short: "Reject a pending request",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := ctx.ensureRuntime()
			if err != nil {
				return err
			}
			id, err := parseRequestID(args[0])
			if err != nil {
				return err
			}
			consumer, err := ctx.resolveProfile(cmd.Context(), consumerRef)
			if err != nil {
				return err
			}

			request, err := rt.engine.Reject(cmd.Context(), id, consumer.ID)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Request %d rejected\n", request.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&consumerRef, "as", "", "Rejecting profile id or slug (the consumer group leader)")
	_ = cmd.MarkFlagRequired("as")
	return cmd
}

func newApprovalsReadCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "read <request-id>",
		Short: "Mark a request as read",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := ctx.ensureRuntime()
			if err != nil {
				return err
			}
			id, err := parseRequestID(args[0])
			if err != nil {
				return err
			}
			if err := rt.engine.MarkRead(cmd.Context(), id); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Request %d marked read\n", id)
			return nil
		},
	}
}

func newApprovalsSweepCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "sweep",
		Short: "Expire overdue pending requests now",
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := ctx.ensureRuntime()
			if err != nil {
				return err
			}
			manager := reaper.NewManager(rt.approval, logging.NewNop(), time.Minute)
			expired, err := manager.RunOnce(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Expired %d request(s)\n", expired)
			return nil
		},
	}
}

func newApprovalsStatsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show request counts by status",
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := ctx.ensureRuntime()
			if err != nil {
				return err
			}
			stats, err := rt.approval.Stats(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for _, status := range approval.AllStatuses() {
				fmt.Fprintf(out, "%-10s %d\n", string(status)+":", stats[status])
			}
			return nil
		},
	}
}
