package main

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/stemsi/exstem-engine/internal/service"
)

func finalizeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "finalize <session-id>",
		Short: "Recompute the total and result of a finished attempt",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sessionID, err := uuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("invalid session id: %w", err)
			}

			ctx := cmd.Context()
			e, err := openEnv(ctx, cmd, false)
			if err != nil {
				return err
			}
			defer e.close()

			result, err := service.NewResultService(e.store, e.log).FinalizeSession(ctx, sessionID)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "student %d: total %.2f, %.2f%%, passed=%t (session %s)\n",
				result.StudentID, result.TotalScore, result.ScorePercent, result.IsPassed, result.SessionID)
			return nil
		},
	}
}
