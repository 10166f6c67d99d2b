package main

import (
	"fmt"
	"io"
	"strconv"

	"github.com/fatih/color"
	"github.com/google/uuid"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"github.com/stemsi/exstem-engine/internal/model"
	"github.com/stemsi/exstem-engine/internal/service"
)

func leaderboardCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "leaderboard <exam-id>",
		Short: "Print the ranked results of an exam",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			examID, err := uuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("invalid exam id: %w", err)
			}
			limit, _ := cmd.Flags().GetInt("limit")

			ctx := cmd.Context()
			e, err := openEnv(ctx, cmd, false)
			if err != nil {
				return err
			}
			defer e.close()

			results, err := service.NewResultService(e.store, e.log).ListResults(ctx, examID)
			if err != nil {
				return err
			}
			if limit > 0 && len(results) > limit {
				results = results[:limit]
			}

			out := cmd.OutOrStdout()
			color.New(color.FgYellow).Fprintf(out, "\nLeaderboard %s (%d results)\n", examID, len(results))
			renderLeaderboard(out, results)
			return nil
		},
	}
	cmd.Flags().IntP("limit", "n", 0, "Show only the top n results (0 = all)")
	return cmd
}

// renderLeaderboard writes results as a table, one row per student.
func renderLeaderboard(w io.Writer, results []model.RankedResult) {
	passed := color.New(color.FgGreen).SprintFunc()
	failed := color.New(color.FgRed).SprintFunc()

	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Rank", "Student", "Name", "Score", "Percent", "Status"})
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)

	for _, r := range results {
		status := failed("TIDAK LULUS")
		if r.IsPassed {
			status = passed("LULUS")
		}
		table.Append([]string{
			strconv.Itoa(r.Rank),
			strconv.Itoa(r.StudentID),
			r.StudentName,
			strconv.FormatFloat(r.TotalScore, 'f', -1, 64),
			fmt.Sprintf("%.2f%%", r.ScorePercent),
			status,
		})
	}

	table.Render()
}
