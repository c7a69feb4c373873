// Package render turns scenes into files.
//
// # Overview
//
// A [scene.Scene] is a fully resolved description of one frame. This package
// picks an output [Format] and hands the scene to the matching sink:
//
//   - SVG: vector output with data-id attributes for client hit-testing
//   - PNG: raster output drawn in-process
//   - PDF: SVG converted by rsvg-convert
//   - DOT: Graphviz source with pinned positions, or a neato render of it
//   - JSON: the scene itself
//
// Basic usage:
//
//	s := scene.Build(frame, scene.Selection{Selected: id}, scene.DefaultStyle())
//	data, err := render.Render(ctx, s, render.FormatSVG, render.Options{})
//
// The individual sinks live in [sink] and can be called directly, which the
// explorer does for its terminal raster.
//
// # Format Conversion
//
// [ToPDF] converts any SVG using the external rsvg-convert tool (from librsvg):
//
//	pdf, err := render.ToPDF(svg)
//
// [scene.Scene]: github.com/matzehuels/creatornet/pkg/scene.Scene
// [sink]: github.com/matzehuels/creatornet/pkg/render/sink
package render
