package imagediff

import (
	"fmt"

	"github.com/gogpu/imagediff/internal/kernel"
)

// Option defaults.
const (
	DefaultThreshold = 0.2
	DefaultAlpha     = 1.0
)

// Default highlight colours.
var (
	DefaultAdditionColor = Red
	DefaultDeletionColor = Yellow
	DefaultDiffColor     = Red
)

// PolicyKind selects how changes are highlighted.
type PolicyKind int

const (
	// PolicyAuto picks SingleColor when only DiffColor is set and
	// Directional otherwise.
	PolicyAuto PolicyKind = iota

	// PolicyDirectional highlights additions and deletions separately.
	PolicyDirectional

	// PolicySingleColor highlights every change with DiffColor.
	PolicySingleColor
)

// String returns the policy name as accepted by ParsePolicyKind.
func (k PolicyKind) String() string {
	switch k {
	case PolicyAuto:
		return "auto"
	case PolicyDirectional:
		return "directional"
	case PolicySingleColor:
		return "single"
	default:
		return fmt.Sprintf("PolicyKind(%d)", int(k))
	}
}

// MarshalText implements encoding.TextMarshaler.
func (k PolicyKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *PolicyKind) UnmarshalText(text []byte) error {
	v, err := ParsePolicyKind(string(text))
	if err != nil {
		return err
	}
	*k = v
	return nil
}

// ParsePolicyKind parses "auto", "directional" or "single".
func ParsePolicyKind(s string) (PolicyKind, error) {
	switch s {
	case "", "auto":
		return PolicyAuto, nil
	case "directional":
		return PolicyDirectional, nil
	case "single", "single-color", "singlecolor":
		return PolicySingleColor, nil
	}
	return PolicyAuto, fmt.Errorf("imagediff: unknown policy %q", s)
}

// Policy is the resolved highlighting policy: either Directional or
// SingleColor.
type Policy interface {
	isPolicy()
}

// Directional marks overlay-brighter changes as additions and the rest as
// deletions. Deletions are hidden while the overlay opacity is 0.5 or less.
type Directional struct {
	Addition RGB
	Deletion RGB
}

// SingleColor marks every change with one colour.
type SingleColor struct {
	Diff RGB
}

func (Directional) isPolicy() {}
func (SingleColor) isPolicy() {}

// DiffOptions configures a single render. Every field is optional and
// defaults independently; the zero value renders with all defaults.
type DiffOptions struct {
	// Threshold is the perceptual distance above which a pixel counts as
	// changed. The same threshold applies to the alpha difference.
	// Default 0.2.
	Threshold *float64 `toml:"threshold"`

	// OverlayAlpha is the opacity of the overlay layer. Default 1.
	OverlayAlpha *float64 `toml:"overlay_alpha"`

	// BackgroundAlpha is an older name for OverlayAlpha, used only when
	// OverlayAlpha is nil.
	BackgroundAlpha *float64 `toml:"background_alpha"`

	AdditionColor *RGB `toml:"addition_color"`
	DeletionColor *RGB `toml:"deletion_color"`
	DiffColor     *RGB `toml:"diff_color"`

	Policy PolicyKind `toml:"policy"`
}

// WithThreshold returns a copy of o with Threshold set.
func (o DiffOptions) WithThreshold(v float64) DiffOptions {
	o.Threshold = &v
	return o
}

// WithOverlayAlpha returns a copy of o with OverlayAlpha set.
func (o DiffOptions) WithOverlayAlpha(v float64) DiffOptions {
	o.OverlayAlpha = &v
	return o
}

// WithAdditionColor returns a copy of o with AdditionColor set.
func (o DiffOptions) WithAdditionColor(c RGB) DiffOptions {
	o.AdditionColor = &c
	return o
}

// WithDeletionColor returns a copy of o with DeletionColor set.
func (o DiffOptions) WithDeletionColor(c RGB) DiffOptions {
	o.DeletionColor = &c
	return o
}

// WithDiffColor returns a copy of o with DiffColor set.
func (o DiffOptions) WithDiffColor(c RGB) DiffOptions {
	o.DiffColor = &c
	return o
}

// WithPolicy returns a copy of o with Policy set.
func (o DiffOptions) WithPolicy(k PolicyKind) DiffOptions {
	o.Policy = k
	return o
}

// Merge returns o with every field that is unset in o taken from base.
// The CLI uses it to layer flags over a TOML file.
func (o DiffOptions) Merge(base DiffOptions) DiffOptions {
	if o.Threshold == nil {
		o.Threshold = base.Threshold
	}
	if o.OverlayAlpha == nil {
		o.OverlayAlpha = base.OverlayAlpha
	}
	if o.BackgroundAlpha == nil {
		o.BackgroundAlpha = base.BackgroundAlpha
	}
	if o.AdditionColor == nil {
		o.AdditionColor = base.AdditionColor
	}
	if o.DeletionColor == nil {
		o.DeletionColor = base.DeletionColor
	}
	if o.DiffColor == nil {
		o.DiffColor = base.DiffColor
	}
	if o.Policy == PolicyAuto {
		o.Policy = base.Policy
	}
	return o
}

// ThresholdValue returns the threshold with the default applied.
func (o DiffOptions) ThresholdValue() float64 {
	if o.Threshold != nil {
		return *o.Threshold
	}
	return DefaultThreshold
}

// AlphaValue returns the overlay opacity with the default applied.
func (o DiffOptions) AlphaValue() float64 {
	switch {
	case o.OverlayAlpha != nil:
		return *o.OverlayAlpha
	case o.BackgroundAlpha != nil:
		return *o.BackgroundAlpha
	}
	return DefaultAlpha
}

// ResolvePolicy returns the highlighting policy with defaults applied.
func (o DiffOptions) ResolvePolicy() Policy {
	kind := o.Policy
	if kind == PolicyAuto {
		kind = PolicyDirectional
		if o.DiffColor != nil && o.AdditionColor == nil && o.DeletionColor == nil {
			kind = PolicySingleColor
		}
	}

	if kind == PolicySingleColor {
		return SingleColor{Diff: deref(o.DiffColor, DefaultDiffColor)}
	}
	return Directional{
		Addition: deref(o.AdditionColor, DefaultAdditionColor),
		Deletion: deref(o.DeletionColor, DefaultDeletionColor),
	}
}

// params lowers the options into kernel parameters.
func (o DiffOptions) params() kernel.Params {
	p := kernel.Params{
		Threshold: o.ThresholdValue(),
		Alpha:     o.AlphaValue(),
		Addition:  DefaultAdditionColor.array(),
		Deletion:  DefaultDeletionColor.array(),
		Diff:      DefaultDiffColor.array(),
	}
	switch pol := o.ResolvePolicy().(type) {
	case Directional:
		p.Policy = kernel.Directional
		p.Addition = pol.Addition.array()
		p.Deletion = pol.Deletion.array()
	case SingleColor:
		p.Policy = kernel.SingleColor
		p.Diff = pol.Diff.array()
	}
	return p
}

func deref[T any](p *T, def T) T {
	if p == nil {
		return def
	}
	return *p
}
