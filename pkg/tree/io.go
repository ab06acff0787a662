package tree

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/matzehuels/radialtree/pkg/errors"
)

// wireNode is the JSON shape of a Node. The original static resources store
// field metadata under "data"; "attributes" takes precedence when both exist.
type wireNode struct {
	Name       string         `json:"name"`
	Attributes map[string]any `json:"attributes,omitempty"`
	Data       map[string]any `json:"data,omitempty"`
	Size       int64          `json:"size,omitempty"`
	Children   []*Node        `json:"children,omitempty"`
}

// UnmarshalJSON implements json.Unmarshaler.
func (n *Node) UnmarshalJSON(b []byte) error {
	var w wireNode
	if err := json.Unmarshal(b, &w); err != nil {
		return err
	}
	n.Name = w.Name
	n.Attributes = w.Attributes
	if len(n.Attributes) == 0 && len(w.Data) > 0 {
		n.Attributes = w.Data
	}
	n.Size = w.Size
	n.Children = w.Children
	return nil
}

// Unmarshal decodes a tree from JSON. Numbers are kept as json.Number so
// identifiers such as field IDs survive a round trip unchanged.
func Unmarshal(data []byte) (*Node, error) {
	return Read(bytes.NewReader(data))
}

// Read decodes a tree from r.
//
// The document must be a single JSON object with a non-empty "name".
// Returns an error with code [errors.ErrCodeInvalidTree] if the root is
// missing or unnamed, or [errors.ErrCodeInvalidFormat] if the JSON is
// malformed.
func Read(r io.Reader) (*Node, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()

	var root *Node
	if err := dec.Decode(&root); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "decode tree")
	}
	if root == nil {
		return nil, errors.New(errors.ErrCodeInvalidTree, "tree document is null")
	}
	if root.Name == "" {
		return nil, errors.New(errors.ErrCodeInvalidTree, "root node has no name")
	}
	return root, nil
}

// ReadFile decodes a tree from the JSON file at path.
func ReadFile(path string) (*Node, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	root, err := Read(f)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return root, nil
}

// Marshal encodes a tree as indented JSON. Attributes are always written
// under the "attributes" key.
func Marshal(n *Node) ([]byte, error) {
	var buf bytes.Buffer
	if err := Write(n, &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Write encodes a tree as indented JSON to w.
func Write(n *Node, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(n); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}

// WriteFile writes a tree to a JSON file at path.
func WriteFile(n *Node, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()
	return Write(n, f)
}
