package render

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/matzehuels/creatornet/pkg/errors"
	"github.com/matzehuels/creatornet/pkg/render/sink"
	"github.com/matzehuels/creatornet/pkg/scene"
)

// Format is an output format.
type Format string

const (
	FormatSVG  Format = "svg"
	FormatPNG  Format = "png"
	FormatPDF  Format = "pdf"
	FormatDOT  Format = "dot"
	FormatJSON Format = "json"
)

// Formats lists every supported format.
var Formats = []Format{FormatSVG, FormatPNG, FormatPDF, FormatDOT, FormatJSON}

// ParseFormat parses a format name, case-insensitively.
func ParseFormat(s string) (Format, error) {
	f := Format(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Formats {
		if f == known {
			return f, nil
		}
	}
	return "", errors.New(errors.ErrCodeInvalidFormat, "unknown output format %q", s)
}

// FormatFromPath infers the format from a file extension.
func FormatFromPath(path string) (Format, bool) {
	ext := strings.TrimPrefix(filepath.Ext(path), ".")
	if ext == "gv" {
		ext = "dot"
	}
	f, err := ParseFormat(ext)
	return f, err == nil
}

// ContentType returns the MIME type of f.
func (f Format) ContentType() string {
	switch f {
	case FormatSVG:
		return "image/svg+xml"
	case FormatPNG:
		return "image/png"
	case FormatPDF:
		return "application/pdf"
	case FormatDOT:
		return "text/vnd.graphviz"
	case FormatJSON:
		return "application/json"
	default:
		return "application/octet-stream"
	}
}

// Options configures [Render]. Zero values take defaults.
type Options struct {
	// Scale multiplies the raster size of PNG output (default 2).
	Scale float64
	// Interactive embeds hover styling in SVG output.
	Interactive bool
	// Title is written into SVG output.
	Title string
}

// Render draws s in format f.
func Render(ctx context.Context, s scene.Scene, f Format, opts Options) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	svgOpts := []sink.SVGOption{sink.WithTitle(opts.Title)}
	if opts.Interactive {
		svgOpts = append(svgOpts, sink.WithInteraction())
	}

	switch f {
	case FormatSVG:
		return sink.SVG(s, svgOpts...), nil
	case FormatPNG:
		scale := opts.Scale
		if scale <= 0 {
			scale = 2
		}
		return sink.PNG(s, scale)
	case FormatPDF:
		return ToPDF(ctx, sink.SVG(s, svgOpts...))
	case FormatDOT:
		return []byte(sink.DOT(s)), nil
	case FormatJSON:
		return sink.JSON(s)
	default:
		return nil, errors.New(errors.ErrCodeUnsupported, "render format %q", f)
	}
}
