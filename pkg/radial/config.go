package radial

import (
	"math"

	"github.com/go-playground/validator/v10"

	"github.com/matzehuels/radialtree/pkg/errors"
)

// =============================================================================
// Default Values
// =============================================================================

const (
	// DefaultBaseLevelDistance is the radius of depth 1.
	DefaultBaseLevelDistance = 150.0

	// DefaultLevelDistanceIncrement is the seed distance between rings.
	DefaultLevelDistanceIncrement = 200.0

	// DefaultFontSize is the label font size in layout units.
	DefaultFontSize = 8.0

	// DefaultNodeSize is the node circle radius in layout units.
	DefaultNodeSize = 3.5

	// DefaultSeed seeds the jitter generator.
	DefaultSeed = uint64(42)
)

// RootAngle is the fixed angle of the root node.
const RootAngle = math.Pi / 2

// =============================================================================
// Config
// =============================================================================

// Config holds every tunable of the layout engine. The zero value is not
// usable; start from [DefaultConfig] and override fields.
//
// Most constants are empirically tuned for label-heavy metadata trees and
// have no derivation beyond "looks right".
type Config struct {
	// Ring seeding.
	BaseLevelDistance      float64 `json:"base_level_distance" toml:"base_level_distance" yaml:"base_level_distance" validate:"gt=0"`
	LevelDistanceIncrement float64 `json:"level_distance_increment" toml:"level_distance_increment" yaml:"level_distance_increment" validate:"gt=0"`
	LevelDepthTerm         float64 `json:"level_depth_term" toml:"level_depth_term" yaml:"level_depth_term" validate:"gte=0"`
	MaxLevelDistance       float64 `json:"max_level_distance" toml:"max_level_distance" yaml:"max_level_distance" validate:"gte=0"` // 0 = unbounded

	// Label geometry. A label needs len(name)*FontSize*CharWidthFactor +
	// 2*NodeSize + LabelMinGap units of arc.
	FontSize        float64 `json:"font_size" toml:"font_size" yaml:"font_size" validate:"gt=0"`
	NodeSize        float64 `json:"node_size" toml:"node_size" yaml:"node_size" validate:"gte=0"`
	CharWidthFactor float64 `json:"char_width_factor" toml:"char_width_factor" yaml:"char_width_factor" validate:"gt=0"`
	LabelMinGap     float64 `json:"label_min_gap" toml:"label_min_gap" yaml:"label_min_gap" validate:"gte=0"`

	// Radius refinement.
	RefinePasses             int     `json:"refine_passes" toml:"refine_passes" yaml:"refine_passes" validate:"gte=0,lte=100"`
	SafetyBase               float64 `json:"safety_base" toml:"safety_base" yaml:"safety_base" validate:"gte=1"`
	SafetyMixed              float64 `json:"safety_mixed" toml:"safety_mixed" yaml:"safety_mixed" validate:"gte=0"`
	SafetyPerDeepLevel       float64 `json:"safety_per_deep_level" toml:"safety_per_deep_level" yaml:"safety_per_deep_level" validate:"gte=0"`
	LevelSeparationDepthTerm float64 `json:"level_separation_depth_term" toml:"level_separation_depth_term" yaml:"level_separation_depth_term" validate:"gte=0"`
	MixedBoostPerParent      float64 `json:"mixed_boost_per_parent" toml:"mixed_boost_per_parent" yaml:"mixed_boost_per_parent" validate:"gte=0"`
	MixedBoostMax            float64 `json:"mixed_boost_max" toml:"mixed_boost_max" yaml:"mixed_boost_max" validate:"gte=0"`
	MinLevelGap              float64 `json:"min_level_gap" toml:"min_level_gap" yaml:"min_level_gap" validate:"gt=0"`
	LargeFanoutThreshold     int     `json:"large_fanout_threshold" toml:"large_fanout_threshold" yaml:"large_fanout_threshold" validate:"gt=0"`
	LargeFanoutExponent      float64 `json:"large_fanout_exponent" toml:"large_fanout_exponent" yaml:"large_fanout_exponent" validate:"gte=1"`
	LargeFanoutScale         float64 `json:"large_fanout_scale" toml:"large_fanout_scale" yaml:"large_fanout_scale" validate:"gte=0"`

	// Angular distribution. MinAngles holds the per-child floor for depths
	// 1, 2-3, 4-5 and 6+. WindowFractions holds the fraction of π a crowded
	// parent may use, for parents at depth 0-1, 2-3, 4-5 and 6+.
	MinAngles             [4]float64 `json:"min_angles" toml:"min_angles" yaml:"min_angles"`
	ManyChildrenThreshold int        `json:"many_children_threshold" toml:"many_children_threshold" yaml:"many_children_threshold" validate:"gt=0"`
	WindowFractions       [4]float64 `json:"window_fractions" toml:"window_fractions" yaml:"window_fractions"`
	WindowReferenceCount  int        `json:"window_reference_count" toml:"window_reference_count" yaml:"window_reference_count" validate:"gt=0"`
	UniformCount          int        `json:"uniform_count" toml:"uniform_count" yaml:"uniform_count" validate:"gt=0"`
	UniformDepth          int        `json:"uniform_depth" toml:"uniform_depth" yaml:"uniform_depth" validate:"gte=0"`
	UniformDepthCount     int        `json:"uniform_depth_count" toml:"uniform_depth_count" yaml:"uniform_depth_count" validate:"gte=0"`
	UniformAlwaysDepth    int        `json:"uniform_always_depth" toml:"uniform_always_depth" yaml:"uniform_always_depth" validate:"gte=0"`
	Jitter                bool       `json:"jitter" toml:"jitter" yaml:"jitter"`
	JitterFraction        float64    `json:"jitter_fraction" toml:"jitter_fraction" yaml:"jitter_fraction" validate:"gte=0,lte=1"`
	Seed                  uint64     `json:"seed" toml:"seed" yaml:"seed"`

	// Overlap correction.
	SpacingPasses       int     `json:"spacing_passes" toml:"spacing_passes" yaml:"spacing_passes" validate:"gte=0,lte=100"`
	ModerateCrowdFactor float64 `json:"moderate_crowd_factor" toml:"moderate_crowd_factor" yaml:"moderate_crowd_factor" validate:"gt=0,lte=1"` // groups > 10
	DenseCrowdFactor    float64 `json:"dense_crowd_factor" toml:"dense_crowd_factor" yaml:"dense_crowd_factor" validate:"gt=0,lte=1"`          // groups > 20
	MaxRecenterShift    float64 `json:"max_recenter_shift" toml:"max_recenter_shift" yaml:"max_recenter_shift" validate:"gte=0"`
	RecenterTolerance   float64 `json:"recenter_tolerance" toml:"recenter_tolerance" yaml:"recenter_tolerance" validate:"gte=0"`
	GlobalPasses        int     `json:"global_passes" toml:"global_passes" yaml:"global_passes" validate:"gte=0,lte=100"`
	GlobalSpacingFactor float64 `json:"global_spacing_factor" toml:"global_spacing_factor" yaml:"global_spacing_factor" validate:"gte=1"`
}

// DefaultConfig returns the tuned defaults.
func DefaultConfig() Config {
	return Config{
		BaseLevelDistance:      DefaultBaseLevelDistance,
		LevelDistanceIncrement: DefaultLevelDistanceIncrement,
		LevelDepthTerm:         5,
		FontSize:               DefaultFontSize,
		NodeSize:               DefaultNodeSize,
		CharWidthFactor:        0.6,
		LabelMinGap:            100,

		RefinePasses:             10,
		SafetyBase:               1.5,
		SafetyMixed:              0.25,
		SafetyPerDeepLevel:       0.10,
		LevelSeparationDepthTerm: 10,
		MixedBoostPerParent:      0.08,
		MixedBoostMax:            0.3,
		MinLevelGap:              150,
		LargeFanoutThreshold:     300,
		LargeFanoutExponent:      1.5,
		LargeFanoutScale:         0.5,

		MinAngles:             [4]float64{0.03, 0.02, 0.015, 0.01},
		ManyChildrenThreshold: 10,
		WindowFractions:       [4]float64{0.8, 0.5, 0.3, 0.2},
		WindowReferenceCount:  30,
		UniformCount:          15,
		UniformDepth:          3,
		UniformDepthCount:     5,
		UniformAlwaysDepth:    5,
		JitterFraction:        0.05,
		Seed:                  DefaultSeed,

		SpacingPasses:       6,
		ModerateCrowdFactor: 0.85,
		DenseCrowdFactor:    0.7,
		MaxRecenterShift:    math.Pi / 8,
		RecenterTolerance:   0.01,
		GlobalPasses:        5,
		GlobalSpacingFactor: 1.2,
	}
}

var configValidate = validator.New()

// Validate checks every field against its bounds.
// Returns an error with code [errors.ErrCodeInvalidConfig].
func (c Config) Validate() error {
	if err := configValidate.Struct(c); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfig, err, "invalid layout config")
	}
	for i, v := range c.MinAngles {
		if !(v > 0) || v > math.Pi {
			return errors.New(errors.ErrCodeInvalidConfig, "min_angles[%d] = %v out of range (0, π]", i, v)
		}
	}
	for i, v := range c.WindowFractions {
		if !(v > 0) || v > 2 {
			return errors.New(errors.ErrCodeInvalidConfig, "window_fractions[%d] = %v out of range (0, 2]", i, v)
		}
	}
	if c.MaxLevelDistance > 0 && c.MaxLevelDistance < c.BaseLevelDistance {
		return errors.New(errors.ErrCodeInvalidConfig, "max_level_distance %v is below base_level_distance %v",
			c.MaxLevelDistance, c.BaseLevelDistance)
	}
	return nil
}

// maxRadius returns the refinement cap, +Inf when unbounded.
func (c Config) maxRadius() float64 {
	if c.MaxLevelDistance <= 0 {
		return math.Inf(1)
	}
	return c.MaxLevelDistance
}

// labelWidth returns the arc length a label needs.
func (c Config) labelWidth(name string) float64 {
	return float64(len([]rune(name)))*c.FontSize*c.CharWidthFactor + 2*c.NodeSize + c.LabelMinGap
}

// MinAngle returns the per-node angular floor for nodes at depth.
func (c Config) MinAngle(depth int) float64 {
	switch {
	case depth < 2:
		return c.MinAngles[0]
	case depth < 4:
		return c.MinAngles[1]
	case depth < 6:
		return c.MinAngles[2]
	default:
		return c.MinAngles[3]
	}
}

// MinSpacing returns the minimum angular gap enforced between count
// siblings at depth. Crowded groups get a reduced floor.
func (c Config) MinSpacing(depth, count int) float64 {
	floor := c.MinAngle(depth)
	switch {
	case count > 20:
		floor *= c.DenseCrowdFactor
	case count > 10:
		floor *= c.ModerateCrowdFactor
	}
	return floor
}

// windowFraction returns the share of π a parent at depth may give to a
// crowded child group.
func (c Config) windowFraction(parentDepth int) float64 {
	switch {
	case parentDepth <= 1:
		return c.WindowFractions[0]
	case parentDepth <= 3:
		return c.WindowFractions[1]
	case parentDepth <= 5:
		return c.WindowFractions[2]
	default:
		return c.WindowFractions[3]
	}
}

// uniform reports whether the children of a parent at parentDepth are
// spaced evenly instead of by subtree size.
func (c Config) uniform(parentDepth, count int) bool {
	return (parentDepth >= c.UniformDepth && count > c.UniformDepthCount) ||
		parentDepth >= c.UniformAlwaysDepth ||
		count > c.UniformCount
}
