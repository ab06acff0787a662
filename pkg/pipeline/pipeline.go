// Package pipeline provides the load → layout → export pipeline shared by
// the CLI and the HTTP server.
//
// # Architecture
//
// The pipeline has three stages:
//
//  1. Load: read a hierarchical tree from JSON, or convert a CSV export
//  2. Layout: resolve the expansion state, filter, compute the radial layout
//  3. Export: serialize the layout as JSON and/or DOT
//
// Layouts and exports are cached by content: the key covers the tree hash,
// the layout config and the expansion, so a changed input never returns a
// stale result.
//
// # Usage
//
//	runner := pipeline.NewRunner(cache, nil, logger)
//	result, err := runner.Execute(ctx, pipeline.Options{
//	    Source:  "ukb.json",
//	    Mode:    pipeline.ModeInitial,
//	    Formats: []string{pipeline.FormatJSON},
//	})
//	if err != nil {
//	    return err
//	}
//	os.Stdout.Write(result.Artifacts[pipeline.FormatJSON])
package pipeline

import (
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/radialtree/pkg/errors"
	"github.com/matzehuels/radialtree/pkg/export"
	"github.com/matzehuels/radialtree/pkg/radial"
	"github.com/matzehuels/radialtree/pkg/tree"
)

// =============================================================================
// Default Values
// =============================================================================

// Format constants for output formats.
const (
	FormatJSON = "json"
	FormatDOT  = "dot"
)

// ValidFormats is the set of supported output formats.
var ValidFormats = map[string]bool{
	FormatJSON: true,
	FormatDOT:  true,
}

// Expansion modes select the expansion state when none is given
// explicitly.
const (
	ModeInitial  = "initial"  // categories without field children
	ModeAll      = "all"      // everything
	ModeNone     = "none"     // root children only
	ModeExplicit = "explicit" // Options.Expanded
)

// ValidModes is the set of supported expansion modes.
var ValidModes = map[string]bool{
	ModeInitial:  true,
	ModeAll:      true,
	ModeNone:     true,
	ModeExplicit: true,
}

// =============================================================================
// Options
// =============================================================================

// Options configures one pipeline run. It is JSON-serializable so the
// server can accept it as a request body.
type Options struct {
	// Load options. Tree takes precedence over Source.
	Source string     `json:"source,omitempty"`
	Tree   *tree.Node `json:"tree,omitempty"`

	// Layout options
	Mode     string         `json:"mode,omitempty"`
	Expanded []string       `json:"expanded,omitempty"`
	Config   *radial.Config `json:"config,omitempty"`

	// Export options
	Formats []string          `json:"formats,omitempty"`
	DOT     export.DOTOptions `json:"dot,omitempty"`

	// Refresh bypasses cached layouts and exports.
	Refresh bool `json:"refresh,omitempty"`

	// Runtime options (not serialized)
	Logger *log.Logger      `json:"-"`
	CSV    *tree.CSVOptions `json:"-"`

	validated bool
}

// Result contains the outputs of a pipeline run.
type Result struct {
	Tree      *tree.Node
	TreeHash  string
	Expansion tree.Expansion
	Layout    *radial.Result
	Artifacts map[string][]byte
	Stats     Stats
	CacheInfo CacheInfo
}

// Stats contains pipeline execution statistics.
type Stats struct {
	TreeNodes    int
	VisibleNodes int
	MaxDepth     int
	Violations   int
	LoadTime     time.Duration
	LayoutTime   time.Duration
	ExportTime   time.Duration
}

// CacheInfo tracks cache hits for each stage.
type CacheInfo struct {
	TreeHit   bool
	LayoutHit bool
	ExportHit bool // all formats came from cache
}

// =============================================================================
// Validation Functions
// =============================================================================

// ValidateFormat checks that a format is supported.
func ValidateFormat(format string) error {
	if !ValidFormats[format] {
		return errors.New(errors.ErrCodeInvalidInput, "invalid format: %q (must be one of: json, dot)", format)
	}
	return nil
}

// ValidateFormats checks that all formats are supported.
func ValidateFormats(formats []string) error {
	for _, f := range formats {
		if err := ValidateFormat(f); err != nil {
			return err
		}
	}
	return nil
}

// ValidateMode checks that an expansion mode is supported.
func ValidateMode(mode string) error {
	if !ValidModes[mode] {
		return errors.New(errors.ErrCodeInvalidInput, "invalid mode: %q (must be one of: initial, all, none, explicit)", mode)
	}
	return nil
}

// =============================================================================
// Options Methods
// =============================================================================

// ValidateAndSetDefaults checks the options of a full run and applies
// defaults. It is idempotent.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if o.Tree == nil && o.Source == "" {
		return errors.New(errors.ErrCodeInvalidInput, "source or tree is required")
	}
	if err := o.ValidateForLayout(); err != nil {
		return err
	}
	if err := o.ValidateForExport(); err != nil {
		return err
	}
	o.validated = true
	return nil
}

// SetLayoutDefaults fills in the mode, config and logger.
func (o *Options) SetLayoutDefaults() {
	if o.Mode == "" {
		if len(o.Expanded) > 0 {
			o.Mode = ModeExplicit
		} else {
			o.Mode = ModeInitial
		}
	}
	if o.Config == nil {
		cfg := radial.DefaultConfig()
		o.Config = &cfg
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
}

// ValidateForLayout applies layout defaults and validates them.
func (o *Options) ValidateForLayout() error {
	o.SetLayoutDefaults()
	if err := ValidateMode(o.Mode); err != nil {
		return err
	}
	if o.Mode == ModeExplicit {
		for _, p := range o.Expanded {
			if err := errors.ValidateBranchPath(p); err != nil {
				return err
			}
		}
	}
	return o.Config.Validate()
}

// SetExportDefaults fills in the formats.
func (o *Options) SetExportDefaults() {
	if len(o.Formats) == 0 {
		o.Formats = []string{FormatJSON}
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
}

// ValidateForExport applies export defaults and validates them.
func (o *Options) ValidateForExport() error {
	o.SetExportDefaults()
	return ValidateFormats(o.Formats)
}

// ResolveExpansion returns the expansion state selected by the options.
func (o *Options) ResolveExpansion(root *tree.Node) tree.Expansion {
	switch o.Mode {
	case ModeAll:
		return tree.FullExpansion(root)
	case ModeNone:
		return tree.NewExpansion()
	case ModeExplicit:
		return tree.NewExpansion(o.Expanded...)
	default:
		return tree.InitialExpansion(root)
	}
}

func (s Stats) String() string {
	return fmt.Sprintf("%d/%d nodes visible, depth %d, %d overlaps",
		s.VisibleNodes, s.TreeNodes, s.MaxDepth, s.Violations)
}
