package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/stemsi/exstem-engine/internal/cache"
	"github.com/stemsi/exstem-engine/internal/config"
	"github.com/stemsi/exstem-engine/internal/service"
	"github.com/stemsi/exstem-engine/internal/worker"
)

func sweepCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sweep",
		Short: "Finish every attempt whose time has run out",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			e, err := openEnv(ctx, cmd, true)
			if err != nil {
				return err
			}
			defer e.close()

			var queue service.FinalizeQueue
			if e.cfg.FinalizeMode == config.FinalizeModeDeferred {
				queue = worker.NewRedisFinalizeQueue(e.rdb)
			}
			results := service.NewResultService(e.store, e.log)
			sessions := service.NewExamSessionService(e.store, results, cache.NewRedisPaperCache(e.rdb), queue, e.log)

			n, err := sessions.SweepExpired(ctx, time.Now())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "finished %d expired attempt(s)\n", n)
			return nil
		},
	}
}
