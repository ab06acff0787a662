package tree

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"os"
	"slices"
	"strconv"
	"strings"

	"github.com/matzehuels/radialtree/pkg/errors"
)

// CSVOptions controls how a flat field table is folded into a tree.
//
// Cells are kept as strings unless their column is listed as numeric,
// boolean or date. The ID column is always converted to an integer when
// possible.
type CSVOptions struct {
	// RootName names the synthetic root. Defaults to "UKB".
	RootName string

	// CategoryColumns lists the hierarchy columns from the top level down.
	// A row's category path stops at its first empty category cell.
	CategoryColumns []string

	// ExcludedColumns are dropped from field attributes.
	ExcludedColumns []string

	// ArrayColumns hold semicolon-separated lists. An empty cell becomes
	// an empty list.
	ArrayColumns []string

	// NumericColumns are parsed as integers or floats. Cells that do not
	// parse are kept as strings.
	NumericColumns []string

	// BooleanColumns map TRUE and FALSE to booleans; anything else is null.
	BooleanColumns []string

	// DateColumns are normalized to YYYY-MM-DD when they parse as a date.
	DateColumns []string

	// SizeColumn, when set and numeric, becomes the leaf's Size.
	SizeColumn string

	// IDColumn and TitleColumn name the field leaf as "<id>: <title>".
	// Default to "field_id" and "title".
	IDColumn    string
	TitleColumn string
}

// DefaultCSVOptions returns the options matching the UK Biobank showcase
// export: six category levels, "extract_id" as a list column, and the
// showcase's bookkeeping columns excluded.
func DefaultCSVOptions() CSVOptions {
	return CSVOptions{
		RootName: "UKB",
		CategoryColumns: []string{
			"category_level_1", "category_level_2", "category_level_3",
			"category_level_4", "category_level_5", "category_level_6",
		},
		ExcludedColumns: []string{
			"main_category", "is_recommended", "is_origin", "availability",
			"stability", "private", "value_type", "base_type", "item_type",
			"strata", "units", "encoding_id", "instance_id", "instance_min",
			"instance_max", "array_min", "array_max", "notes", "item_count",
			"showcase_order", "cost_do", "cost_on", "cost_sc", "category_id_x",
			"image_name", "description", "prop_participants", "participants",
			"prop_value_type", "value type", "prop_sexed", "prop_debut",
			"prop_item_count", "item count", "prop_item_type", "prop_instances",
			"instances", "prop_version", "prop_stability", "prop_strata",
			"prop_array", "prop_cost_tier", "array", "cost tier",
			"related_field_id", "category_id_y", "AI_description", "item type",
		},
		ArrayColumns: []string{"extract_id"},
		NumericColumns: []string{
			"field_id", "main_category", "availability", "stability", "private",
			"value_type", "base_type", "item_type", "strata", "instanced", "arrayed",
			"sexed", "encoding_id", "instance_id", "instance_min", "instance_max",
			"array_min", "array_max", "num_participants", "item_count", "showcase_order",
			"cost_do", "cost_on", "cost_sc", "category_id_x", "category_id_y",
		},
		BooleanColumns: []string{"is_recommended", "is_origin"},
		DateColumns:    []string{"debut", "version"},
		SizeColumn:     "num_participants",
		IDColumn:       "field_id",
		TitleColumn:    "title",
	}
}

func (o *CSVOptions) setDefaults() {
	if o.RootName == "" {
		o.RootName = "UKB"
	}
	if o.IDColumn == "" {
		o.IDColumn = "field_id"
	}
	if o.TitleColumn == "" {
		o.TitleColumn = "title"
	}
}

// ReadCSV builds a tree from a CSV table with a header row. Each data row
// becomes one field leaf placed under its category path; rows without a
// first-level category are skipped. Sibling order follows first appearance.
//
// Every column that is neither a category nor excluded becomes an
// attribute; empty cells are null. The ID attribute is always set, so
// every imported row is a field even when all its other cells are empty.
func ReadCSV(r io.Reader, opts CSVOptions) (*Node, error) {
	opts.setDefaults()
	if len(opts.CategoryColumns) == 0 {
		return nil, errors.New(errors.ErrCodeInvalidInput, "no category columns configured")
	}

	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	header, err := cr.Read()
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "read csv header")
	}
	index := make(map[string]int, len(header))
	for i, h := range header {
		index[strings.TrimSpace(h)] = i
	}
	catIdx := make([]int, 0, len(opts.CategoryColumns))
	for _, c := range opts.CategoryColumns {
		i, ok := index[c]
		if !ok {
			return nil, errors.New(errors.ErrCodeInvalidFormat, "missing category column %q", c)
		}
		catIdx = append(catIdx, i)
	}

	root := &Node{Name: opts.RootName}
	line := 1
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "read csv line %d", line)
		}

		parent := root
		for _, i := range catIdx {
			name := cell(rec, i)
			if name == "" {
				break
			}
			parent = findOrAddChild(parent, name)
		}
		if parent == root {
			continue
		}

		attrs := rowAttributes(header, rec, opts)
		leaf := &Node{
			Name:       fmt.Sprintf("%v: %v", attrOrEmpty(attrs, opts.IDColumn), attrOrEmpty(attrs, opts.TitleColumn)),
			Attributes: attrs,
		}
		if opts.SizeColumn != "" {
			if size, ok := sizeValue(attrs[opts.SizeColumn]); ok {
				leaf.Size = size
			}
		}
		parent.Children = append(parent.Children, leaf)
	}
	return root, nil
}

// ReadCSVFile builds a tree from the CSV file at path.
func ReadCSVFile(path string, opts CSVOptions) (*Node, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return ReadCSV(f, opts)
}

func rowAttributes(header, rec []string, opts CSVOptions) map[string]any {
	attrs := make(map[string]any, len(header))
	for i, h := range header {
		h = strings.TrimSpace(h)
		if slices.Contains(opts.CategoryColumns, h) || slices.Contains(opts.ExcludedColumns, h) {
			continue
		}
		if h == opts.IDColumn {
			attrs[h] = idValue(cell(rec, i))
			continue
		}
		attrs[h] = columnValue(h, cell(rec, i), opts)
	}
	if _, ok := attrs[opts.IDColumn]; !ok {
		attrs[opts.IDColumn] = nil
	}
	return attrs
}

// idValue returns raw as an integer when possible, nil when empty.
func idValue(raw string) any {
	if raw == "" {
		return nil
	}
	if n, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return n
	}
	return raw
}

// columnValue types one cell according to its column.
func columnValue(col, raw string, opts CSVOptions) any {
	switch {
	case slices.Contains(opts.ArrayColumns, col):
		if raw == "" {
			return []string{}
		}
		return strings.Split(raw, ";")
	case raw == "":
		return nil
	case slices.Contains(opts.NumericColumns, col):
		return numericValue(raw)
	case slices.Contains(opts.BooleanColumns, col):
		switch raw {
		case "TRUE":
			return true
		case "FALSE":
			return false
		}
		return nil
	case slices.Contains(opts.DateColumns, col):
		return dateValue(raw)
	}
	return raw
}

// numericValue parses raw as an integer, then as a float. Whole floats
// become integers.
func numericValue(raw string) any {
	if i, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return i
	}
	if f, err := strconv.ParseFloat(raw, 64); err == nil && !math.IsNaN(f) && !math.IsInf(f, 0) {
		if f == math.Trunc(f) && math.Abs(f) < 1<<53 {
			return int64(f)
		}
		return f
	}
	return raw
}

var dateLayouts = []string{
	time.DateOnly,
	time.DateTime,
	time.RFC3339,
	"2006/01/02",
	"01/02/2006",
	"02-Jan-2006",
}

// dateValue formats raw as YYYY-MM-DD, or returns it unchanged.
func dateValue(raw string) string {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.Format(time.DateOnly)
		}
	}
	return raw
}

func sizeValue(v any) (int64, bool) {
	switch n := v.(type) {
	case int64:
		return n, true
	case float64:
		return int64(n), true
	}
	return 0, false
}

func cell(rec []string, i int) string {
	if i >= len(rec) {
		return ""
	}
	return strings.TrimSpace(rec[i])
}

func attrOrEmpty(attrs map[string]any, key string) any {
	if v, ok := attrs[key]; ok && v != nil {
		return v
	}
	return ""
}

func findOrAddChild(parent *Node, name string) *Node {
	for _, c := range parent.Children {
		if c.Name == name {
			return c
		}
	}
	c := &Node{Name: name}
	parent.Children = append(parent.Children, c)
	return c
}
