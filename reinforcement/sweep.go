package reinforcement

import (
	"context"
	"fmt"
	"log"
	"runtime"

	"qmaze/maze"

	"golang.org/x/sync/errgroup"
)

// RunOutcome is the final state of one run of a sweep.
type RunOutcome struct {
	Spec     RunSpec
	Summary  Summary
	BestPath []maze.Position
	// Solved reports whether the final greedy rollout reaches the goal.
	Solved bool
	QTable *QTable
}

// Sweep trains every spec to completion on its own maze and learner, at most
// parallelism at a time (GOMAXPROCS when < 1). Outcomes are in spec order. The first
// failure, or cancellation of ctx, stops the runs not yet finished.
func Sweep(ctx context.Context, specs []RunSpec, parallelism int) ([]RunOutcome, error) {
	if parallelism < 1 {
		parallelism = runtime.GOMAXPROCS(0)
	}
	outcomes := make([]RunOutcome, len(specs))

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(parallelism)
	for i := range specs {
		i := i
		group.Go(func() error {
			run, err := NewRun(specs[i])
			if err != nil {
				return err
			}
			if err = run.Trainer.Train(groupCtx, specs[i].Episodes, nil); err != nil {
				return fmt.Errorf("run %s: %w", specs[i].Name, err)
			}
			path, err := run.Agent.BestPath(run.Env)
			if err != nil {
				return fmt.Errorf("run %s: %w", specs[i].Name, err)
			}
			outcomes[i] = RunOutcome{
				Spec:     specs[i],
				Summary:  Summarize(run.Trainer.History(), 100),
				BestPath: path,
				Solved:   len(path) > 0 && path[len(path)-1] == run.Env.Goal(),
				QTable:   run.Agent.QTable(),
			}
			log.Printf("[sweep] %s done: solved=%v path=%d", specs[i].Name, outcomes[i].Solved, len(path))
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return nil, err
	}
	return outcomes, nil
}
