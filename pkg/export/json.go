package export

import (
	"bytes"
	"encoding/json"
	"io"

	"github.com/matzehuels/radialtree/pkg/errors"
	"github.com/matzehuels/radialtree/pkg/radial"
)

// DocumentVersion is bumped whenever the JSON document layout changes.
const DocumentVersion = 1

// Document is the JSON form of a layout.
type Document struct {
	Version    int            `json:"version"`
	Root       string         `json:"root"`
	MaxDepth   int            `json:"max_depth"`
	Radii      []float64      `json:"radii"`
	Nodes      []NodeDoc      `json:"nodes"`
	Links      []LinkDoc      `json:"links"`
	Violations map[string]int `json:"violations,omitempty"`
}

// NodeDoc is one positioned node with screen coordinates.
type NodeDoc struct {
	radial.PositionedNode
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// LinkDoc is one parent-child link with the control point of its
// quadratic curve.
type LinkDoc struct {
	Source string  `json:"source"`
	Target string  `json:"target"`
	CX     float64 `json:"cx"`
	CY     float64 `json:"cy"`
}

// NewDocument converts a layout into its JSON document.
func NewDocument(res *radial.Result) Document {
	doc := Document{
		Version:  DocumentVersion,
		MaxDepth: res.MaxDepth(),
		Radii:    []float64(res.Radii),
		Nodes:    make([]NodeDoc, 0, len(res.Nodes)),
		Links:    make([]LinkDoc, 0, len(res.Nodes)),
	}
	if len(res.Nodes) > 0 {
		doc.Root = res.Nodes[0].Path
	}
	for _, n := range res.Nodes {
		x, y := n.Cartesian()
		doc.Nodes = append(doc.Nodes, NodeDoc{PositionedNode: n, X: round(x), Y: round(y)})
	}
	for _, l := range res.Links() {
		parent, _ := res.ByPath(l.Parent)
		child, _ := res.ByPath(l.Child)
		cx, cy := radial.LinkControlPoint(parent, child)
		doc.Links = append(doc.Links, LinkDoc{Source: l.Parent, Target: l.Child, CX: round(cx), CY: round(cy)})
	}
	if len(res.Violations) > 0 {
		doc.Violations = make(map[string]int, len(res.Violations))
		for d, v := range res.Violations {
			doc.Violations[depthKey(d)] = v
		}
	}
	return doc
}

// JSON returns the indented JSON document of res.
func JSON(res *radial.Result) ([]byte, error) {
	var buf bytes.Buffer
	if err := WriteJSON(&buf, res); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// WriteJSON writes the indented JSON document of res to w.
func WriteJSON(w io.Writer, res *radial.Result) error {
	if res == nil {
		return errors.New(errors.ErrCodeInvalidInput, "nil layout")
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(NewDocument(res)); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "encode layout")
	}
	return nil
}
