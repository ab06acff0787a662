package export

import (
	"bytes"
	"context"
	"fmt"
	"math"
	"strconv"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/radialtree/pkg/errors"
	"github.com/matzehuels/radialtree/pkg/radial"
)

// DOTOptions configures DOT output.
type DOTOptions struct {
	// Scale converts layout units to points. Zero means 1.
	Scale float64 `json:"scale,omitempty"`

	// Rings adds a dashed guide circle per ring radius.
	Rings bool `json:"rings,omitempty"`
}

// DOT returns a Graphviz document with every node pinned at its layout
// position. The document is validated by parsing it with Graphviz.
func DOT(ctx context.Context, res *radial.Result, opts DOTOptions) ([]byte, error) {
	if res == nil {
		return nil, errors.New(errors.ErrCodeInvalidInput, "nil layout")
	}
	dot := ToDOT(res, opts)
	if err := ValidateDOT(ctx, dot); err != nil {
		return nil, err
	}
	return dot, nil
}

// ToDOT renders the DOT text without validating it.
func ToDOT(res *radial.Result, opts DOTOptions) []byte {
	scale := opts.Scale
	if scale <= 0 {
		scale = 1
	}

	var buf bytes.Buffer
	buf.WriteString("digraph radialtree {\n")
	buf.WriteString("  layout=neato;\n")
	buf.WriteString("  outputorder=edgesfirst;\n")
	buf.WriteString("  node [shape=circle, width=0.1, fixedsize=true, fontsize=8, label=\"\"];\n")
	buf.WriteString("  edge [arrowhead=none];\n")

	if opts.Rings {
		for d, r := range res.Radii {
			if d == 0 || r <= 0 {
				continue
			}
			size := 2 * r * scale / 72
			fmt.Fprintf(&buf, "  \"ring:%d\" [shape=circle, pos=\"0,0!\", width=%s, style=dashed, color=lightgrey];\n",
				d, ftoa(size))
		}
	}

	buf.WriteString("\n")
	for _, n := range res.Nodes {
		x, y := n.Cartesian()
		// Graphviz y grows upward.
		fmt.Fprintf(&buf, "  %q [pos=\"%s,%s!\", xlabel=%q, class=%q];\n",
			n.Path, ftoa(x*scale), ftoa(-y*scale), n.Name, string(n.Kind))
	}

	buf.WriteString("\n")
	for _, l := range res.Links() {
		fmt.Fprintf(&buf, "  %q -> %q;\n", l.Parent, l.Child)
	}
	buf.WriteString("}\n")
	return buf.Bytes()
}

// ValidateDOT parses dot with Graphviz and reports syntax errors as
// INVALID_FORMAT.
func ValidateDOT(ctx context.Context, dot []byte) error {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "init graphviz")
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes(dot)
	if err != nil {
		return errors.Wrap(errors.ErrCodeInvalidFormat, err, "parse DOT")
	}
	if g == nil {
		return errors.New(errors.ErrCodeInvalidFormat, "parse DOT: empty document")
	}
	return g.Close()
}

func ftoa(v float64) string {
	return strconv.FormatFloat(round(v), 'f', -1, 64)
}

// round trims coordinates to 1/1000 of a unit.
func round(v float64) float64 {
	r := math.Round(v*1000) / 1000
	if r == 0 {
		return 0 // no negative zero
	}
	return r
}

func depthKey(d int) string { return strconv.Itoa(d) }
