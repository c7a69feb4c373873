package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/matzehuels/creatornet/pkg/layout"
	"github.com/matzehuels/creatornet/pkg/network"
	"github.com/matzehuels/creatornet/pkg/pipeline"
)

// layoutFile is what the layout command writes: the settled frame plus node
// positions normalized to percentages of the canvas, which a network file
// can carry as seed positions.
type layoutFile struct {
	Platform  string                      `json:"platform"`
	Metric    string                      `json:"metric"`
	Frame     layout.Frame                `json:"frame"`
	Positions map[string]network.Position `json:"positions"`
}

// layoutCommand creates the layout command for computing positions.
func (c *CLI) layoutCommand() *cobra.Command {
	var (
		output  string
		refresh bool
	)
	opts := pipeline.Options{}

	cmd := &cobra.Command{
		Use:   "layout [network.json]",
		Short: "Compute a settled layout for a creator network",
		Long: `Compute a settled layout for a creator network.

The network is read from the given file or, without an argument, from the
configured source. The simulation runs until it settles (or --ticks ticks
after the warm-start) and the result is written as layout.json.

Results are cached locally for faster subsequent runs.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			input := ""
			if len(args) == 1 {
				input = args[0]
			}
			return c.runLayout(cmd.Context(), input, c.mergeFlags(cmd, opts), output, refresh)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: <input>.layout.json)")
	cmd.Flags().BoolVar(&refresh, "refresh", false, "recompute instead of using cached results")
	addLayoutFlags(cmd, &opts)

	return cmd
}

// addLayoutFlags registers the flags shared by layout, render and explore.
// Unset flags fall back to the config file.
func addLayoutFlags(cmd *cobra.Command, opts *pipeline.Options) {
	cmd.Flags().StringVarP(&opts.Platform, "platform", "p", "", "platform to load (default from config)")
	cmd.Flags().StringVarP(&opts.Metric, "metric", "m", "", "node size metric: followers, engagement")
	cmd.Flags().Float64Var(&opts.Width, "width", 0, "canvas width")
	cmd.Flags().Float64Var(&opts.Height, "height", 0, "canvas height")
	cmd.Flags().Uint64Var(&opts.Seed, "seed", 0, "random seed for unplaced creators")
	cmd.Flags().IntVar(&opts.Ticks, "ticks", 0, "ticks after the warm-start (0 = until settled, -1 = none)")
	cmd.Flags().BoolVar(&opts.WeightedLinks, "weighted", false, "scale link strength by similarity")
}

// mergeFlags overlays the flags the user set on the config defaults.
func (c *CLI) mergeFlags(cmd *cobra.Command, flags pipeline.Options) pipeline.Options {
	opts := c.baseOptions()
	changed := cmd.Flags().Changed
	if changed("platform") {
		opts.Platform = flags.Platform
	}
	if changed("metric") {
		opts.Metric = flags.Metric
	}
	if changed("width") {
		opts.Width = flags.Width
	}
	if changed("height") {
		opts.Height = flags.Height
	}
	if changed("seed") {
		opts.Seed = flags.Seed
	}
	if changed("ticks") {
		opts.Ticks = flags.Ticks
	}
	if changed("weighted") {
		opts.WeightedLinks = flags.WeightedLinks
	}
	return opts
}

// runLayout loads the network, computes the layout, and writes output.
func (c *CLI) runLayout(ctx context.Context, input string, opts pipeline.Options, output string, refresh bool) error {
	runner, err := c.newRunner(ctx, input)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	opts.Refresh = refresh
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return err
	}

	p, err := runner.LoadNetwork(ctx, opts)
	if err != nil {
		return err
	}

	spinner := newSpinnerWithContext(ctx, fmt.Sprintf("Laying out %d creators...", len(p.Creators)))
	spinner.Start()

	f, cacheHit, err := runner.LayoutWithCacheInfo(ctx, p, opts)
	if err != nil {
		spinner.StopWithError("Layout failed")
		return fmt.Errorf("compute layout: %w", err)
	}
	spinner.Stop()

	if ctx.Err() != nil {
		return ctx.Err()
	}

	out := layoutFile{Platform: opts.Platform, Metric: opts.Metric, Frame: f, Positions: positions(f)}
	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return err
	}

	outputPath := output
	if outputPath == "" {
		outputPath = basePath("", input, opts.Platform) + ".layout.json"
	}
	if err := os.WriteFile(outputPath, data, 0o644); err != nil {
		return fmt.Errorf("write output %s: %w", outputPath, err)
	}

	printSuccess("Layout complete")
	printFile(outputPath)
	printStats(len(f.Nodes), len(f.Links), int(f.Tick), cacheHit)
	printNewline()
	printNextStep("Render", "creatornet render "+displayInput(input))

	return nil
}

// positions returns each node's center as a percentage of the canvas.
func positions(f layout.Frame) map[string]network.Position {
	g := f.Graph()
	out := make(map[string]network.Position, len(g.Nodes))
	for _, n := range g.Nodes {
		out[n.ID] = *n.Position
	}
	return out
}

func displayInput(input string) string {
	if input == "" {
		return "--platform <platform>"
	}
	return input
}
