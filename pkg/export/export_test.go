package export

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/matzehuels/radialtree/pkg/radial"
	"github.com/matzehuels/radialtree/pkg/tree"
)

func sampleLayout(t *testing.T) *radial.Result {
	t.Helper()
	root := &tree.Node{Name: "UKB", Children: []*tree.Node{
		{Name: "Blood", Children: []*tree.Node{
			{Name: "30000: White blood cell count", Attributes: map[string]any{"field_id": 30000}},
			{Name: "30010: Red blood cell count", Attributes: map[string]any{"field_id": 30010}},
		}},
		{Name: "Imaging", Children: []*tree.Node{{Name: "Brain"}}},
	}}
	res, err := radial.Compute(root, tree.NewExpansion("UKB/Blood"), radial.DefaultConfig())
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}
	return res
}

func TestJSON(t *testing.T) {
	res := sampleLayout(t)
	data, err := JSON(res)
	if err != nil {
		t.Fatalf("JSON: %v", err)
	}

	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if doc.Version != DocumentVersion {
		t.Errorf("Version = %d", doc.Version)
	}
	if doc.Root != "UKB" {
		t.Errorf("Root = %q, want UKB", doc.Root)
	}
	if len(doc.Nodes) != len(res.Nodes) {
		t.Fatalf("nodes = %d, want %d", len(doc.Nodes), len(res.Nodes))
	}
	if len(doc.Links) != len(res.Nodes)-1 {
		t.Errorf("links = %d, want %d", len(doc.Links), len(res.Nodes)-1)
	}
	if doc.MaxDepth != 2 {
		t.Errorf("MaxDepth = %d, want 2", doc.MaxDepth)
	}

	// The root sits at the origin.
	if doc.Nodes[0].X != 0 || doc.Nodes[0].Y != 0 {
		t.Errorf("root at (%v, %v)", doc.Nodes[0].X, doc.Nodes[0].Y)
	}
	for _, n := range doc.Nodes {
		if n.Path == "" || n.Kind == "" {
			t.Errorf("incomplete node %+v", n)
		}
	}
}

func TestJSONDeterministic(t *testing.T) {
	a, err := JSON(sampleLayout(t))
	if err != nil {
		t.Fatal(err)
	}
	b, err := JSON(sampleLayout(t))
	if err != nil {
		t.Fatal(err)
	}
	if string(a) != string(b) {
		t.Error("JSON output differs between identical layouts")
	}
}

func TestWriteJSONNil(t *testing.T) {
	var sb strings.Builder
	if err := WriteJSON(&sb, nil); err == nil {
		t.Error("expected error for nil layout")
	}
}

func TestToDOT(t *testing.T) {
	res := sampleLayout(t)
	dot := string(ToDOT(res, DOTOptions{Rings: true}))

	for _, want := range []string{
		"digraph radialtree {",
		"layout=neato;",
		`"UKB" [pos="0,0!"`,
		`"UKB" -> "UKB/Blood";`,
		`"UKB/Blood" -> "UKB/Blood/30000: White blood cell count";`,
		`"ring:1"`,
		`class="collapsed"`,
	} {
		if !strings.Contains(dot, want) {
			t.Errorf("DOT missing %q", want)
		}
	}
	if strings.Contains(dot, `"ring:0"`) {
		t.Error("root ring should be omitted")
	}
}

func TestDOTValidates(t *testing.T) {
	res := sampleLayout(t)
	dot, err := DOT(context.Background(), res, DOTOptions{Scale: 0.5})
	if err != nil {
		t.Fatalf("DOT: %v", err)
	}
	if !strings.HasPrefix(string(dot), "digraph") {
		t.Errorf("unexpected DOT prefix: %.20s", dot)
	}
}

func TestRound(t *testing.T) {
	tests := []struct{ in, want float64 }{
		{1.23456, 1.235},
		{-0.0001, 0},
		{100, 100},
	}
	for _, tt := range tests {
		if got := round(tt.in); got != tt.want {
			t.Errorf("round(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
