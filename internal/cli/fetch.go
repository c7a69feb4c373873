package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/creatornet/pkg/errors"
	"github.com/matzehuels/creatornet/pkg/network"
	"github.com/matzehuels/creatornet/pkg/source"
)

// saver is implemented by sources that can store a snapshot.
type saver interface {
	Save(ctx context.Context, platform string, p network.Payload) error
}

// pruner is implemented by sources that keep a snapshot history.
type pruner interface {
	Prune(ctx context.Context, keep int) (int64, error)
}

// fetchCommand creates the fetch command for snapshotting a network.
func (c *CLI) fetchCommand() *cobra.Command {
	var (
		platform string
		output   string
		refresh  bool
	)

	cmd := &cobra.Command{
		Use:   "fetch",
		Short: "Download a platform's creator network",
		Long: `Download a platform's creator network from the configured source.

The destination (-o) is a .json or .yaml file, or another source that can
store snapshots: sqlite:networks.db keeps a history per platform (pruned to
sqlite.keep entries) and mongodb:// URIs append a document. A {platform}
placeholder in file paths is replaced with the platform name.`,
		Example: `  creatornet fetch -s mongodb://localhost:27017/xhs -o network.json
  creatornet fetch -s http://localhost:8000 --platform douyin -o sqlite:networks.db`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if platform == "" {
				platform = c.Config.Source.Platform
			}
			if output == "" {
				output = platform + "-network.json"
			}
			return c.runFetch(cmd.Context(), platform, output, refresh)
		},
	}

	cmd.Flags().StringVarP(&platform, "platform", "p", "", "platform to fetch (default from config)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "destination file or source (default: <platform>-network.json)")
	cmd.Flags().BoolVar(&refresh, "refresh", false, "bypass the network cache")

	return cmd
}

// runFetch loads the network and stores it at output.
func (c *CLI) runFetch(ctx context.Context, platform, output string, refresh bool) error {
	runner, err := c.newRunner(ctx, "")
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	opts := c.baseOptions()
	opts.Platform = platform
	opts.Refresh = refresh

	spinner := newSpinnerWithContext(ctx, fmt.Sprintf("Fetching %s network...", platform))
	spinner.Start()
	p, cacheHit, err := runner.LoadNetworkWithCacheInfo(ctx, opts)
	if err != nil {
		spinner.StopWithError("Fetch failed")
		return err
	}
	spinner.StopWithSuccess(fmt.Sprintf("Fetched %s network", platform))

	if p.IsEmpty() {
		printWarning("%s has no creator network yet", platform)
	}

	dst, err := c.openDestination(ctx, output)
	if err != nil {
		return err
	}
	defer dst.Close()

	if err := dst.(saver).Save(ctx, platform, p); err != nil {
		return fmt.Errorf("save %s: %w", dst.Name(), err)
	}
	if keep := c.Config.SQLite.Keep; keep > 0 {
		if pr, ok := dst.(pruner); ok {
			n, err := pr.Prune(ctx, keep)
			if err != nil {
				c.Logger.Warn("prune snapshots", "err", err)
			} else if n > 0 {
				c.Logger.Debug("pruned snapshots", "removed", n, "keep", keep)
			}
		}
	}

	printFile(strings.TrimPrefix(dst.Name(), "file:"))
	printStats(len(p.Creators), len(p.CreatorEdges), 0, cacheHit)
	printNewline()
	printNextStep("Explore", "creatornet explore "+output)

	return nil
}

// openDestination opens output as a source that can store snapshots.
func (c *CLI) openDestination(ctx context.Context, output string) (source.Source, error) {
	opts := c.Config.SourceOptions(output)
	opts.Logger = c.Logger
	dst, err := source.Open(ctx, output, opts)
	if err != nil {
		return nil, err
	}
	if _, ok := dst.(saver); !ok {
		dst.Close()
		return nil, errors.New(errors.ErrCodeUnsupported, "cannot store networks in %s", dst.Name())
	}
	return dst, nil
}
