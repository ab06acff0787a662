package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/radialtree/pkg/httputil"
	"github.com/matzehuels/radialtree/pkg/pipeline"
)

// layoutFlags holds the layout command's flags.
type layoutFlags struct {
	output   string
	formats  string
	mode     string
	expanded []string
	noCache  bool
	refresh  bool
	jitter   bool
	seed     uint64
	rings    bool
	scale    float64
	watch    bool
	jobs     int
}

// layoutCommand creates the layout command.
func (c *CLI) layoutCommand() *cobra.Command {
	var f layoutFlags

	cmd := &cobra.Command{
		Use:   "layout [tree.json|fields.csv]...",
		Short: "Compute radial layouts of tree files",
		Long: `Compute radial layouts of one or more tree files.

Inputs are tree JSON documents or field CSV tables, as local paths or http(s)
URLs. Each input produces <input>.layout.json (and <input>.layout.dot with
-f dot) next to the input, or in the directory given by -o.

The expansion state is selected with --mode (initial, all, none) or an
explicit list of --expand paths. Layout parameters come from the [layout]
section of --config.

With --watch the layouts are recomputed whenever an input file changes.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := c.layoutOptions(&f)
			if err != nil {
				return err
			}
			runner, err := c.newRunner(f.noCache)
			if err != nil {
				return fmt.Errorf("initialize runner: %w", err)
			}
			defer runner.Close()

			if err := c.runLayouts(cmd.Context(), runner, args, opts, f); err != nil {
				return err
			}
			if f.watch {
				return c.watchLayouts(cmd.Context(), runner, args, opts, f)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&f.output, "output", "o", "", "output directory (default: next to each input)")
	cmd.Flags().StringVarP(&f.formats, "format", "f", "", "output format(s): json (default), dot (comma-separated)")
	cmd.Flags().StringVarP(&f.mode, "mode", "m", "", "expansion mode: initial (default), all, none")
	cmd.Flags().StringSliceVarP(&f.expanded, "expand", "e", nil, "expanded category paths (implies explicit mode)")
	cmd.Flags().BoolVar(&f.noCache, "no-cache", false, "disable caching")
	cmd.Flags().BoolVar(&f.refresh, "refresh", false, "recompute even if cached")
	cmd.Flags().BoolVar(&f.jitter, "jitter", false, "perturb crowded sibling angles (seeded)")
	cmd.Flags().Uint64Var(&f.seed, "seed", 0, "jitter seed (default from config)")
	cmd.Flags().BoolVar(&f.rings, "rings", false, "draw ring guides in DOT output")
	cmd.Flags().Float64Var(&f.scale, "scale", 1, "DOT units per layout unit")
	cmd.Flags().BoolVarP(&f.watch, "watch", "w", false, "recompute when inputs change")
	cmd.Flags().IntVarP(&f.jobs, "jobs", "j", runtime.NumCPU(), "inputs laid out in parallel")

	return cmd
}

// layoutOptions builds pipeline options from config and flags.
func (c *CLI) layoutOptions(f *layoutFlags) (pipeline.Options, error) {
	cfg, err := c.loadConfig()
	if err != nil {
		return pipeline.Options{}, err
	}
	layoutCfg := cfg.Layout
	if f.jitter {
		layoutCfg.Jitter = true
	}
	if f.seed != 0 {
		layoutCfg.Seed = f.seed
	}

	opts := pipeline.Options{
		Mode:     f.mode,
		Expanded: f.expanded,
		Config:   &layoutCfg,
		Formats:  parseFormats(f.formats),
		Refresh:  f.refresh,
		Logger:   c.Logger,
	}
	opts.DOT.Rings = f.rings
	opts.DOT.Scale = f.scale
	if err := opts.ValidateForLayout(); err != nil {
		return opts, err
	}
	if err := opts.ValidateForExport(); err != nil {
		return opts, err
	}
	return opts, nil
}

// runLayouts lays out every input, at most f.jobs at a time.
func (c *CLI) runLayouts(ctx context.Context, runner *pipeline.Runner, inputs []string, opts pipeline.Options, f layoutFlags) error {
	spinner := newSpinnerWithContext(ctx, fmt.Sprintf("Computing %d layout(s)...", len(inputs)))
	spinner.Start()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(f.jobs, 1))
	results := make([]*pipeline.Result, len(inputs))
	for i, input := range inputs {
		g.Go(func() error {
			o := opts
			o.Source = input
			res, err := runner.Execute(gctx, o)
			if err != nil {
				return fmt.Errorf("%s: %w", input, err)
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		spinner.StopWithError("Layout failed")
		return err
	}
	spinner.Stop()

	if ctx.Err() != nil {
		return ctx.Err()
	}

	for i, input := range inputs {
		res := results[i]
		paths, err := writeArtifacts(input, f.output, res.Artifacts)
		if err != nil {
			return err
		}
		printSuccess("Laid out %s", input)
		for _, p := range paths {
			printFile(p)
		}
		fmt.Println("  " + layoutSummary(res.Stats.VisibleNodes, res.Stats.TreeNodes,
			res.Stats.MaxDepth, res.Stats.Violations, res.CacheInfo.LayoutHit))
		if res.Stats.Violations > 0 {
			printWarning("%d adjacent pairs are still closer than the minimum angle", res.Stats.Violations)
		}
	}
	return nil
}

// writeArtifacts writes one file per format and returns their paths.
func writeArtifacts(input, outDir string, artifacts map[string][]byte) ([]string, error) {
	base := outputBase(input, outDir)
	if outDir != "" {
		if err := os.MkdirAll(outDir, 0o755); err != nil {
			return nil, fmt.Errorf("create output dir: %w", err)
		}
	}

	var paths []string
	for _, format := range []string{pipeline.FormatJSON, pipeline.FormatDOT} {
		data, ok := artifacts[format]
		if !ok {
			continue
		}
		path := base + ".layout." + format
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return nil, fmt.Errorf("write %s: %w", path, err)
		}
		paths = append(paths, path)
	}
	return paths, nil
}

// outputBase strips the extension of input and relocates it into outDir.
// URLs always need an output directory or land in the working directory.
func outputBase(input, outDir string) string {
	name := input
	if httputil.IsURL(input) {
		name = filepath.Base(strings.SplitN(input, "?", 2)[0])
	}
	base := strings.TrimSuffix(name, filepath.Ext(name))
	if outDir != "" || httputil.IsURL(input) {
		base = filepath.Join(outDir, filepath.Base(base))
	}
	return base
}
