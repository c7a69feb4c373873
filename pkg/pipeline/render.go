package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/matzehuels/creatornet/pkg/layout"
	"github.com/matzehuels/creatornet/pkg/observability"
	"github.com/matzehuels/creatornet/pkg/render"
	"github.com/matzehuels/creatornet/pkg/scene"
)

// RenderFrame draws f in each of opts.Formats without caching.
func RenderFrame(ctx context.Context, f layout.Frame, opts Options) (map[string][]byte, error) {
	if err := opts.ValidateForRender(); err != nil {
		return nil, err
	}
	sel := scene.Selection{Selected: opts.Selected}
	if sel.Selected != "" {
		if _, ok := f.Node(sel.Selected); !ok {
			opts.Logger.Warn("selected creator not in network", "id", sel.Selected)
			sel.Selected = ""
		}
	}
	s := scene.Build(f, sel, opts.Style)
	ropts := render.Options{Scale: opts.Scale, Interactive: opts.Interactive, Title: opts.Title}

	hooks := observability.Pipeline()
	artifacts := make(map[string][]byte, len(opts.Formats))
	for _, name := range opts.Formats {
		format, err := render.ParseFormat(name)
		if err != nil {
			return nil, err
		}
		hooks.OnRenderStart(ctx, name)
		start := time.Now()
		data, err := render.Render(ctx, s, format, ropts)
		hooks.OnRenderComplete(ctx, name, len(data), time.Since(start), err)
		if err != nil {
			return nil, fmt.Errorf("render %s: %w", name, err)
		}
		artifacts[name] = data
	}
	return artifacts, nil
}
