package cli

import (
	"context"
	"fmt"
	"os"
	"sort"

	"github.com/spf13/cobra"

	"github.com/matzehuels/creatornet/pkg/pipeline"
)

// renderFlags holds the render-only flags; layout flags live in
// pipeline.Options.
type renderFlags struct {
	output      string
	formats     string
	selected    string
	title       string
	interactive bool
	scale       float64
	labelBudget int
	refresh     bool
}

// renderCommand creates the render command for generating visualizations.
func (c *CLI) renderCommand() *cobra.Command {
	var flags renderFlags
	opts := pipeline.Options{}

	cmd := &cobra.Command{
		Use:   "render [network.json]",
		Short: "Render a creator network to SVG, PNG, PDF, DOT or JSON",
		Long: `Render a creator network.

The network is loaded, laid out until it settles and drawn in each requested
format. Outputs are written next to the input file (or as
<platform>-network.<format>) unless -o is given.

PDF output requires rsvg-convert; DOT output can be post-processed with
Graphviz.`,
		Example: `  creatornet render network.json
  creatornet render -f svg,png --selected 42 --title "Beauty creators"
  creatornet render -s sqlite:networks.db -p douyin -f pdf -o douyin.pdf`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			input := ""
			if len(args) == 1 {
				input = args[0]
			}
			o := c.mergeFlags(cmd, opts)
			flags.apply(cmd, &o)
			return c.runRender(cmd.Context(), input, o, flags.output)
		},
	}

	cmd.Flags().StringVarP(&flags.output, "output", "o", "", "output base path (extension replaced per format)")
	cmd.Flags().StringVarP(&flags.formats, "format", "f", "", "output formats: svg, png, pdf, dot, json (comma-separated)")
	cmd.Flags().StringVar(&flags.selected, "selected", "", "creator id to highlight")
	cmd.Flags().StringVar(&flags.title, "title", "", "title drawn above the network")
	cmd.Flags().BoolVar(&flags.interactive, "interactive", false, "add hover highlighting to SVG output")
	cmd.Flags().Float64Var(&flags.scale, "scale", 0, "PNG raster scale")
	cmd.Flags().IntVar(&flags.labelBudget, "label-budget", 0, "truncate labels to this many characters")
	cmd.Flags().BoolVar(&flags.refresh, "refresh", false, "bypass cached results")
	addLayoutFlags(cmd, &opts)

	return cmd
}

// apply overlays the render flags the user set.
func (f renderFlags) apply(cmd *cobra.Command, o *pipeline.Options) {
	changed := cmd.Flags().Changed
	if formats := parseFormats(f.formats); formats != nil {
		o.Formats = formats
	}
	o.Selected = f.selected
	o.Title = f.title
	o.Interactive = f.interactive
	o.Refresh = f.refresh
	if changed("scale") {
		o.Scale = f.scale
	}
	if changed("label-budget") {
		o.LabelBudget = f.labelBudget
		o.Style.LabelBudget = f.labelBudget
	}
}

// runRender executes the pipeline and writes one file per format.
func (c *CLI) runRender(ctx context.Context, input string, opts pipeline.Options, output string) error {
	runner, err := c.newRunner(ctx, input)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	spinner := newSpinnerWithContext(ctx, "Rendering creator network...")
	spinner.Start()

	result, err := runner.Execute(ctx, opts)
	if err != nil {
		spinner.StopWithError("Render failed")
		return err
	}
	spinner.Stop()

	base := basePath(output, input, opts.Platform)
	paths, err := writeArtifacts(base, result.Artifacts)
	if err != nil {
		return err
	}

	printSuccess("Rendered %s network", opts.Platform)
	for _, p := range paths {
		printFile(p)
	}
	printStats(result.Stats.NodeCount, result.Stats.EdgeCount, int(result.Stats.Ticks), result.CacheInfo.RenderHit)

	return nil
}

// writeArtifacts writes each artifact to base.<format> and returns the
// written paths in format order.
func writeArtifacts(base string, artifacts map[string][]byte) ([]string, error) {
	formats := make([]string, 0, len(artifacts))
	for f := range artifacts {
		formats = append(formats, f)
	}
	sort.Strings(formats)

	paths := make([]string, 0, len(formats))
	for _, f := range formats {
		path := base + "." + f
		if err := os.WriteFile(path, artifacts[f], 0o644); err != nil {
			return paths, fmt.Errorf("write %s: %w", path, err)
		}
		paths = append(paths, path)
	}
	return paths, nil
}
