package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"shepherd/internal/ledger"
)

func newDiscipleCommand(ctx *commandContext) *cobra.Command {
	discipleCmd := &cobra.Command{
		Use:   "disciple",
		Short: "Manage the discipleship ledger",
	}

	discipleCmd.AddCommand(newDiscipleAddCommand(ctx))
	discipleCmd.AddCommand(newDiscipleMoveCommand(ctx))
	discipleCmd.AddCommand(newDiscipleListCommand(ctx))
	discipleCmd.AddCommand(newDiscipleHistoryCommand(ctx))
	discipleCmd.AddCommand(newDiscipleRecordsCommand(ctx))

	return discipleCmd
}

func newDiscipleAddCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "add <disciple> <discipler>",
		Short: "Place a disciple under a discipler",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := ctx.ensureRuntime()
			if err != nil {
				return err
			}
			disciple, err := ctx.resolveProfile(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			discipler, err := ctx.resolveProfile(cmd.Context(), args[1])
			if err != nil {
				return err
			}

			record, err := rt.ledger.Place(cmd.Context(), disciple.ID, discipler.ID, discipler.ID)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s placed under %s at stage %s (record %d)\n",
				disciple.FullName(), discipler.FullName(), record.Stage.Display(), record.ID)
			return nil
		},
	}
}

func newDiscipleMoveCommand(ctx *commandContext) *cobra.Command {
	var actorRef string

	cmd := &cobra.Command{
		Use:   "move <record-id> <stage>",
		Short: "Move a disciple to a new stage",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := ctx.ensureRuntime()
			if err != nil {
				return err
			}
			recordID, err := parseRecordID(args[0])
			if err != nil {
				return err
			}
			stage, ok := ledger.ParseStage(args[1])
			if !ok {
				return fmt.Errorf("unknown stage %q (expected one of %s)", args[1], knownStages())
			}
			actor, err := ctx.resolveProfile(cmd.Context(), actorRef)
			if err != nil {
				return err
			}

			record, err := rt.ledger.Move(cmd.Context(), recordID, stage, actor.ID)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Moved to %s (record %d)\n", record.Stage.Display(), record.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&actorRef, "as", "", "Acting profile id or slug (must be the record author)")
	_ = cmd.MarkFlagRequired("as")
	return cmd
}

func newDiscipleListCommand(ctx *commandContext) *cobra.Command {
	var stageFlag string

	cmd := &cobra.Command{
		Use:   "list <discipler>",
		Short: "List a discipler's current disciples",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := ctx.ensureRuntime()
			if err != nil {
				return err
			}
			discipler, err := ctx.resolveProfile(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			var stage ledger.Stage
			if stageFlag != "" {
				parsed, ok := ledger.ParseStage(stageFlag)
				if !ok {
					return fmt.Errorf("unknown stage %q (expected one of %s)", stageFlag, knownStages())
				}
				stage = parsed
			}

			heads, err := rt.ledger.Heads(cmd.Context(), discipler.ID, stage)
			if err != nil {
				return err
			}
			if len(heads) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No disciples found")
				return nil
			}

			rows := make([][]string, 0, len(heads))
			for _, record := range heads {
				profile, err := rt.people.ProfileByID(cmd.Context(), record.Disciple)
				if err != nil {
					return err
				}
				name := record.Disciple
				if profile != nil {
					name = profile.FullName()
				}
				rows = append(rows, []string{
					fmt.Sprintf("%d", record.ID),
					name,
					record.Stage.Display(),
					rt.ledger.RunningTime(record),
					formatWhen(record.CreatedAt),
				})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"Record", "Disciple", "Stage", "Running", "Since"},
				rows,
				true,
			))
			return nil
		},
	}

	cmd.Flags().StringVar(&stageFlag, "stage", "", "Filter by stage")
	return cmd
}

func newDiscipleHistoryCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "history <disciple> <discipler>",
		Short: "Show the full stage history for a pair",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := ctx.ensureRuntime()
			if err != nil {
				return err
			}
			disciple, err := ctx.resolveProfile(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			discipler, err := ctx.resolveProfile(cmd.Context(), args[1])
			if err != nil {
				return err
			}

			history, err := rt.ledger.History(cmd.Context(), disciple.ID, discipler.ID)
			if err != nil {
				return err
			}
			if len(history) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No records found")
				return nil
			}

			rows := make([][]string, 0, len(history))
			for _, record := range history {
				total, err := rt.ledger.TotalRunningTime(cmd.Context(), record)
				if err != nil {
					return err
				}
				rows = append(rows, []string{
					fmt.Sprintf("%d", record.ID),
					record.Stage.Display(),
					rt.ledger.RunningTime(record),
					total,
					formatWhen(record.CreatedAt),
					formatTimestamp(record.CompletedAt),
				})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"Record", "Stage", "In Stage", "Total", "Started", "Completed"},
				rows,
				true,
			))
			return nil
		},
	}
}

func newDiscipleRecordsCommand(ctx *commandContext) *cobra.Command {
	var (
		stageFlags []string
		statusFlag string
		searchFlag string
	)

	cmd := &cobra.Command{
		Use:   "records",
		Short: "List ledger records across all pairs",
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := ctx.ensureRuntime()
			if err != nil {
				return err
			}

			filter := ledger.Filter{Search: strings.TrimSpace(searchFlag)}
			for _, raw := range stageFlags {
				stage, ok := ledger.ParseStage(raw)
				if !ok {
					return fmt.Errorf("unknown stage %q (expected one of %s)", raw, knownStages())
				}
				filter.Stages = append(filter.Stages, stage)
			}
			switch strings.ToLower(strings.TrimSpace(statusFlag)) {
			case "":
				filter.Status = ledger.StatusAny
			case "ongoing":
				filter.Status = ledger.StatusOngoing
			case "completed":
				filter.Status = ledger.StatusCompleted
			default:
				return fmt.Errorf("unknown status %q (expected ongoing or completed)", statusFlag)
			}

			entries, err := rt.ledger.ListAll(cmd.Context(), filter)
			if err != nil {
				return err
			}
			if len(entries) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No records found")
				return nil
			}

			rows := make([][]string, 0, len(entries))
			for _, entry := range entries {
				rows = append(rows, []string{
					fmt.Sprintf("%d", entry.Record.ID),
					entry.DiscipleName,
					entry.DisciplerName,
					entry.Record.Stage.Display(),
					rt.ledger.RunningTime(entry.Record),
					formatWhen(entry.Record.CreatedAt),
				})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"Record", "Disciple", "Discipler", "Stage", "Running", "Started"},
				rows,
				true,
			))
			return nil
		},
	}

	cmd.Flags().StringSliceVar(&stageFlags, "stage", nil, "Filter by stage (repeatable)")
	cmd.Flags().StringVar(&statusFlag, "status", "", "Filter by status: ongoing or completed")
	cmd.Flags().StringVar(&searchFlag, "search", "", "Match disciple or discipler names")
	return cmd
}

func knownStages() string {
	stages := ledger.AllStages()
	names := make([]string, 0, len(stages))
	for _, stage := range stages {
		names = append(names, string(stage))
	}
	return strings.Join(names, ", ")
}
