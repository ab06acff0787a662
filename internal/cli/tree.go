package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/radialtree/pkg/pipeline"
	"github.com/matzehuels/radialtree/pkg/tree"
)

// expansionFlags selects an expansion state.
type expansionFlags struct {
	mode     string
	expanded []string
}

func (f *expansionFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.mode, "mode", "m", "", "expansion mode: initial (default), all, none")
	cmd.Flags().StringSliceVarP(&f.expanded, "expand", "e", nil, "expanded category paths (implies explicit mode)")
}

// resolve validates the flags and returns the expansion for root.
func (f *expansionFlags) resolve(root *tree.Node) (tree.Expansion, error) {
	opts := pipeline.Options{Mode: f.mode, Expanded: f.expanded}
	if err := opts.ValidateForLayout(); err != nil {
		return tree.Expansion{}, err
	}
	return opts.ResolveExpansion(root), nil
}

// loadTree loads a JSON or CSV tree through the cached pipeline loader.
func (c *CLI) loadTree(ctx context.Context, source string) (*tree.Node, error) {
	runner, err := c.newRunner(false)
	if err != nil {
		return nil, err
	}
	defer runner.Close()
	root, _, err := runner.Load(ctx, pipeline.Options{Source: source, Logger: c.Logger})
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", source, err)
	}
	return root, nil
}

// openOutput returns stdout for "" or "-", otherwise a new file.
func openOutput(path string) (io.WriteCloser, error) {
	if path == "" || path == "-" {
		return nopCloser{os.Stdout}, nil
	}
	return os.Create(path)
}

type nopCloser struct{ io.Writer }

func (nopCloser) Close() error { return nil }

// =============================================================================
// filter
// =============================================================================

func (c *CLI) filterCommand() *cobra.Command {
	var (
		f      expansionFlags
		output string
	)
	cmd := &cobra.Command{
		Use:   "filter [tree]",
		Short: "Print the visible part of a tree",
		Long: `Print the part of a tree that is visible under an expansion state.

Collapsed categories keep their node but lose their children; fields show
only below expanded categories. The root is always open.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			root, err := c.loadTree(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			exp, err := f.resolve(root)
			if err != nil {
				return err
			}
			visible := tree.Filter(root, exp)
			c.Logger.Debug("filtered", "nodes", root.Count(), "visible", visible.Count())

			w, err := openOutput(output)
			if err != nil {
				return err
			}
			defer w.Close()
			return tree.Write(visible, w)
		},
	}
	f.register(cmd)
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: stdout)")
	return cmd
}

// =============================================================================
// expand
// =============================================================================

func (c *CLI) expandCommand() *cobra.Command {
	var (
		f      expansionFlags
		asJSON bool
		toggle []string
	)
	cmd := &cobra.Command{
		Use:   "expand [tree]",
		Short: "Print the expanded paths of an expansion state",
		Long: `Print the expanded category paths of an expansion state, one per line.

--toggle flips paths after the mode is applied, the way clicking a node in
a viewer does.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			root, err := c.loadTree(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			exp, err := f.resolve(root)
			if err != nil {
				return err
			}
			for _, p := range toggle {
				if root.Find(p) == nil {
					return fmt.Errorf("toggle %q: no such node", p)
				}
				exp.Toggle(p)
			}
			if asJSON {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(exp)
			}
			fmt.Println(strings.Join(exp.Paths(), "\n"))
			return nil
		},
	}
	f.register(cmd)
	cmd.Flags().StringSliceVarP(&toggle, "toggle", "t", nil, "paths to toggle after applying the mode")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print as a JSON array")
	return cmd
}

// =============================================================================
// stats
// =============================================================================

func (c *CLI) statsCommand() *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "stats [tree]",
		Short: "Show per-level statistics of a tree",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			root, err := c.loadTree(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			s := tree.ComputeStats(root)
			if asJSON {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(s)
			}
			fmt.Println(StyleTitle.Render(root.Name))
			printDetail("%d nodes, depth %d", s.TotalNodes, s.MaxDepth)
			fmt.Println(statsTable(s))
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print as JSON")
	return cmd
}

// =============================================================================
// import
// =============================================================================

func (c *CLI) importCommand() *cobra.Command {
	var (
		output  string
		exclude []string
		opts    = tree.DefaultCSVOptions()
	)
	cmd := &cobra.Command{
		Use:   "import [fields.csv]",
		Short: "Convert a field CSV table into a tree document",
		Long: `Convert a flat CSV table of fields into a tree JSON document.

Each row becomes a field named "<id>: <title>" under the category path
given by the category columns; rows without a first-level category are
skipped. The showcase's bookkeeping columns are dropped, and numeric, boolean
and date columns are typed; other cells stay strings.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			prog := newProgress(c.Logger)
			opts.ExcludedColumns = append(opts.ExcludedColumns, exclude...)
			root, err := tree.ReadCSVFile(args[0], opts)
			if err != nil {
				return err
			}
			if output == "" {
				output = strings.TrimSuffix(args[0], ".csv") + ".json"
			}
			if err := tree.WriteFile(root, output); err != nil {
				return err
			}
			prog.done(fmt.Sprintf("Imported %d nodes", root.Count()))
			printSuccess("Imported %s", args[0])
			printFile(output)
			printNextStep("Lay out", appName+" layout "+output)
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: <input>.json)")
	cmd.Flags().StringVar(&opts.RootName, "root", opts.RootName, "name of the root node")
	cmd.Flags().StringSliceVar(&opts.CategoryColumns, "category-columns", opts.CategoryColumns, "hierarchy columns, top level first")
	cmd.Flags().StringSliceVar(&exclude, "exclude", nil, "extra columns to drop from attributes")
	cmd.Flags().StringSliceVar(&opts.ArrayColumns, "array-columns", opts.ArrayColumns, "semicolon-separated list columns")
	cmd.Flags().StringVar(&opts.IDColumn, "id-column", opts.IDColumn, "field identifier column")
	cmd.Flags().StringVar(&opts.TitleColumn, "title-column", opts.TitleColumn, "field title column")
	return cmd
}
