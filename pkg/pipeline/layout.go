package pipeline

import (
	"context"
	"time"

	"github.com/matzehuels/creatornet/pkg/layout"
	"github.com/matzehuels/creatornet/pkg/network"
	"github.com/matzehuels/creatornet/pkg/observability"
)

// settleCheck is how many ticks run between context checks.
const settleCheck = 50

// computeLayout builds the engine and advances it past the warm-start as
// opts.Ticks asks.
func computeLayout(ctx context.Context, p network.Payload, opts Options) (*layout.Engine, layout.Frame, error) {
	m, err := network.ParseMetric(opts.Metric)
	if err != nil {
		return nil, layout.Frame{}, err
	}
	g := p.Graph(m)

	hooks := observability.Pipeline()
	hooks.OnLayoutStart(ctx, len(g.Nodes))
	start := time.Now()

	engine := layout.New(g, opts.LayoutOptions())
	if err := advance(ctx, engine, opts.Ticks); err != nil {
		engine.Stop()
		hooks.OnLayoutComplete(ctx, int(engine.Ticks()), time.Since(start), err)
		return nil, layout.Frame{}, err
	}
	if dropped := engine.Dropped(); len(dropped) > 0 {
		opts.Logger.Warn("dropped edges", "count", len(dropped))
	}

	frame := engine.Snapshot()
	hooks.OnLayoutComplete(ctx, int(frame.Tick), time.Since(start), nil)
	return engine, frame, nil
}

// advance runs ticks ticks, or until the engine settles when ticks is zero.
func advance(ctx context.Context, e *layout.Engine, ticks int) error {
	switch {
	case ticks < 0:
		return nil
	case ticks > 0:
		for ran := 0; ran < ticks; ran += settleCheck {
			if err := ctx.Err(); err != nil {
				return err
			}
			e.Step(min(settleCheck, ticks-ran))
		}
		return nil
	}
	for ran := 0; !e.Settled() && ran < DefaultMaxTicks; ran++ {
		if ran%settleCheck == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}
		e.Tick()
	}
	return nil
}
