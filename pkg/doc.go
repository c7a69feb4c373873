// Package pkg provides the core libraries for Creatornet creator network
// layout and exploration.
//
// # Overview
//
// Creatornet takes a platform's creator similarity network, places the
// creators with a force-directed simulation and draws the result. Layouts
// can be computed once and rendered to files, or run live so users can drag
// and select creators while the simulation keeps settling.
//
// # Architecture
//
// The typical data flow through Creatornet:
//
//	Backend / file / database
//	         ↓
//	    [source] package (load the latest network for a platform)
//	         ↓
//	    [network] package (payload types, conversion to layout input)
//	         ↓
//	    [layout] package (force simulation → frames)
//	         ↓
//	    [interact] package (drag, click and hover on a running layout)
//	         ↓
//	    [scene] package (frame + selection → drawable description)
//	         ↓
//	    [render] package (SVG/PNG/PDF/DOT/JSON and terminal output)
//
// # Quick Start
//
// Load a network and render a settled layout:
//
//	src, _ := source.Open(ctx, "network.json", source.Options{})
//	p, _ := src.Load(ctx, "xiaohongshu")
//
//	e := layout.New(p.Graph(network.MetricFollowers), layout.DefaultOptions())
//	for !e.Settled() {
//	    e.Tick()
//	}
//
//	s := scene.Build(e.Snapshot(), scene.Selection{Selected: "42"}, scene.DefaultStyle())
//	svg, _ := render.Render(ctx, s, render.FormatSVG, render.Options{})
//
// # Main Packages
//
// ## Core Domain Logic
//
// [layout] - Force-directed layout engine: link, charge (Barnes-Hut),
// collision and centering forces, warm-start and magnitude-scaled radii.
//
// [interact] - Pointer state machine that pins dragged nodes, tells clicks
// from drags and maps screen to simulation coordinates.
//
// [scene] - Pure description of what to draw for a frame under a selection:
// highlight tiers, edge styling and label placement.
//
// [render] - Output formats for scenes, plus PDF conversion.
//
// ## Data
//
// [network] - Creator network payload, metrics and JSON/YAML files.
//
// [source] - Network sources: files, the HTTP backend, MongoDB and SQLite.
//
// ## Infrastructure
//
// [pipeline] - The load → layout → render pipeline shared by CLI and server.
//
// [session] - Live layouts driven by pointer commands, streamed to
// subscribers.
//
// [cache] - File, Redis and null caches for networks, layouts and renders.
//
// [observability] - Hooks for load, layout, render, cache and session events.
//
// [errors] - Error codes shared by CLI and HTTP API.
//
// [httputil] - HTTP client with retries for backend sources.
//
// # Testing
//
// Run tests:
//
//	go test ./pkg/...              # All tests
//	go test ./pkg/layout/...       # Specific package
//	go test -run Example ./pkg/... # Examples only
//
// [layout]: https://pkg.go.dev/github.com/matzehuels/creatornet/pkg/layout
// [interact]: https://pkg.go.dev/github.com/matzehuels/creatornet/pkg/interact
// [scene]: https://pkg.go.dev/github.com/matzehuels/creatornet/pkg/scene
// [render]: https://pkg.go.dev/github.com/matzehuels/creatornet/pkg/render
// [network]: https://pkg.go.dev/github.com/matzehuels/creatornet/pkg/network
// [source]: https://pkg.go.dev/github.com/matzehuels/creatornet/pkg/source
// [pipeline]: https://pkg.go.dev/github.com/matzehuels/creatornet/pkg/pipeline
// [session]: https://pkg.go.dev/github.com/matzehuels/creatornet/pkg/session
// [cache]: https://pkg.go.dev/github.com/matzehuels/creatornet/pkg/cache
// [observability]: https://pkg.go.dev/github.com/matzehuels/creatornet/pkg/observability
// [errors]: https://pkg.go.dev/github.com/matzehuels/creatornet/pkg/errors
// [httputil]: https://pkg.go.dev/github.com/matzehuels/creatornet/pkg/httputil
package pkg
