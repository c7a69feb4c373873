// Package sink draws a [scene.Scene] in concrete output formats.
//
// Every sink is a pure function of the scene: it reads resolved colors,
// widths and positions and never consults the layout or the selection
// rules again. The sinks are:
//
//   - [SVG]: vector output via svgo. Nodes carry data-id attributes so a
//     browser can map pointer events back to creators.
//   - [PNG]: raster output via gg.
//   - [DOT]: Graphviz source with every node pinned at its layout position;
//     [RenderDOT] runs neato on it in-process.
//   - [JSON]: the scene as a document.
//   - [Terminal]: an ANSI raster for the explorer, styled with lipgloss.
//
// An empty scene renders as an empty canvas in every format.
//
// [scene.Scene]: github.com/matzehuels/creatornet/pkg/scene.Scene
package sink
