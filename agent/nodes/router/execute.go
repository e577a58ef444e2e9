package routernode

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	contractx "github.com/tanpawarit/Chative-Genie-Analytics/agent/contract"
	"golang.org/x/sync/errgroup"
)

// Execute runs every task of the plan. Any failure aborts the whole plan and
// no fragments are returned.
func Execute(
	ctx context.Context,
	in *GraphState,
	registry contractx.Registry,
	parallel bool,
) (*GraphState, error) {
	if in == nil || len(in.Plan.Tasks) == 0 {
		return nil, fmt.Errorf("%w: plan has no tasks", contractx.ErrValidation)
	}

	var (
		fragments []contractx.Fragment
		err       error
	)
	if parallel {
		fragments, err = executeParallel(ctx, in.Plan.Tasks, registry)
	} else {
		fragments, err = executeSequential(ctx, in.Plan.Tasks, registry)
	}
	if err != nil {
		return nil, err
	}

	in.Fragments = fragments
	return in, nil
}

func executeSequential(ctx context.Context, tasks []contractx.Task, registry contractx.Registry) ([]contractx.Fragment, error) {
	fragments := make([]contractx.Fragment, 0, len(tasks))
	for _, task := range tasks {
		frag, err := runTask(ctx, task, registry)
		if err != nil {
			return nil, err
		}
		fragments = append(fragments, frag)
	}
	return fragments, nil
}

func executeParallel(ctx context.Context, tasks []contractx.Task, registry contractx.Registry) ([]contractx.Fragment, error) {
	fragments := make([]contractx.Fragment, len(tasks))
	g, gctx := errgroup.WithContext(ctx)
	for i, task := range tasks {
		i, task := i, task
		g.Go(func() error {
			frag, err := runTask(gctx, task, registry)
			if err != nil {
				return err
			}
			fragments[i] = frag
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return fragments, nil
}

func runTask(ctx context.Context, task contractx.Task, registry contractx.Registry) (contractx.Fragment, error) {
	logger := zerolog.Ctx(ctx).With().
		Str("domain", string(task.Domain)).
		Bool("fallback", task.Fallback).
		Logger()

	agent, err := registry.For(task.Domain)
	if err != nil {
		return contractx.Fragment{}, &contractx.BackendError{Domain: task.Domain, Err: err}
	}

	start := time.Now()
	logger.Info().Msg("delegating to domain agent")
	text, err := agent.Invoke(ctx, task)
	if err != nil {
		logger.Error().Err(err).Dur("elapsed", time.Since(start)).Msg("domain agent failed")
		return contractx.Fragment{}, &contractx.BackendError{Domain: task.Domain, Err: err}
	}
	logger.Info().Dur("elapsed", time.Since(start)).Msg("domain agent answered")

	return contractx.Fragment{Domain: task.Domain, Text: text}, nil
}
