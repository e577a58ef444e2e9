package router

import (
	"context"
	"errors"
	"time"

	"github.com/cloudwego/eino/compose"
	"github.com/rs/zerolog"
	contractx "github.com/tanpawarit/Chative-Genie-Analytics/agent/contract"
	nodex "github.com/tanpawarit/Chative-Genie-Analytics/agent/nodes/router"
	"github.com/tanpawarit/Chative-Genie-Analytics/pkg/metrics"
)

type Option func(*Router)

// WithParallel runs the domain agents of a plan concurrently. Fragments
// still come back in plan order.
func WithParallel(parallel bool) Option {
	return func(r *Router) {
		r.parallel = parallel
	}
}

// Router picks the domain agents for a question, runs them and joins their
// answers. It keeps no state between calls.
type Router struct {
	registry contractx.Registry
	parallel bool

	graphRunner compose.Runnable[nodex.GraphInput, nodex.GraphOutput]
}

func New(registry contractx.Registry, opts ...Option) (*Router, error) {
	if registry == nil {
		return nil, errors.New("specialist registry is required")
	}

	r := &Router{registry: registry}
	for _, opt := range opts {
		opt(r)
	}

	graphRunner, err := r.compileRouteGraph(context.Background())
	if err != nil {
		return nil, err
	}
	r.graphRunner = graphRunner

	return r, nil
}

// BuildPlan returns the plan Route would execute for question.
func BuildPlan(question string) contractx.Plan {
	return nodex.PlanFor(question)
}

func (r *Router) Route(ctx context.Context, question string) (contractx.Answer, error) {
	plan := BuildPlan(question)
	logger := zerolog.Ctx(ctx).With().Str("plan", plan.Label()).Logger()
	ctx = logger.WithContext(ctx)

	start := time.Now()
	logger.Info().Bool("parallel", r.parallel).Msg("routing question")

	out, err := r.graphRunner.Invoke(ctx, nodex.GraphInput{Question: question})
	metrics.ObserveRoute(plan.Label(), err, time.Since(start))
	if err != nil {
		// Hand back the agent failure itself rather than the graph's wrapper.
		var be *contractx.BackendError
		if errors.As(err, &be) {
			return contractx.Answer{}, be
		}
		return contractx.Answer{}, err
	}

	logger.Info().Dur("elapsed", time.Since(start)).Int("fragments", len(out.Answer.Fragments)).Msg("question routed")
	return out.Answer, nil
}
