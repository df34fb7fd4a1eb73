package domain

// Default edge style, re-applied whenever a field is missing.
const (
	DefaultEdgeStroke      = "#6366f1"
	DefaultEdgeStrokeWidth = 2.0
	DefaultEdgeOpacity     = 1.0
)

// EdgeStyle is the visual style of an edge.
// Zero values of Stroke and StrokeWidth mean "unset" and are replaced by Normalize.
// Opacity is unset only when nil, so a fully transparent edge survives normalization.
type EdgeStyle struct {
	Stroke      string   `json:"stroke,omitempty" yaml:"stroke,omitempty"`
	StrokeWidth float64  `json:"strokeWidth,omitempty" yaml:"strokeWidth,omitempty"`
	Opacity     *float64 `json:"opacity,omitempty" yaml:"opacity,omitempty"`
}

// Opacity returns a pointer to v, for use in EdgeStyle literals.
func Opacity(v float64) *float64 {
	return &v
}

// Normalize fills missing style fields with the defaults.
// Out-of-range opacities are clamped to [0, 1].
func (s EdgeStyle) Normalize() EdgeStyle {
	if s.Stroke == "" {
		s.Stroke = DefaultEdgeStroke
	}
	if s.StrokeWidth <= 0 {
		s.StrokeWidth = DefaultEdgeStrokeWidth
	}
	switch {
	case s.Opacity == nil:
		s.Opacity = Opacity(DefaultEdgeOpacity)
	case *s.Opacity < 0:
		s.Opacity = Opacity(0)
	case *s.Opacity > 1:
		s.Opacity = Opacity(1)
	default:
		s.Opacity = Opacity(*s.Opacity)
	}
	return s
}

// OpacityOrDefault returns the opacity, or DefaultEdgeOpacity when unset.
func (s EdgeStyle) OpacityOrDefault() float64 {
	if s.Opacity == nil {
		return DefaultEdgeOpacity
	}
	return *s.Opacity
}

// Equal compares styles by value.
func (s EdgeStyle) Equal(o EdgeStyle) bool {
	if s.Stroke != o.Stroke || s.StrokeWidth != o.StrokeWidth {
		return false
	}
	if s.Opacity == nil || o.Opacity == nil {
		return s.Opacity == o.Opacity
	}
	return *s.Opacity == *o.Opacity
}

// Edge is a directed link between two nodes of the same flow.
type Edge struct {
	ID     string `json:"id" yaml:"id"`
	Source string `json:"source" yaml:"source"`
	Target string `json:"target" yaml:"target"`

	// SourceHandle names the output port of the source node.
	// Conditional nodes use "true" and "false".
	SourceHandle string `json:"sourceHandle,omitempty" yaml:"sourceHandle,omitempty"`

	Animated bool      `json:"animated,omitempty" yaml:"animated,omitempty"`
	Style    EdgeStyle `json:"style" yaml:"style"`
}

// Equal compares edges by value.
func (e Edge) Equal(o Edge) bool {
	return e.ID == o.ID && e.Source == o.Source && e.Target == o.Target &&
		e.SourceHandle == o.SourceHandle && e.Animated == o.Animated && e.Style.Equal(o.Style)
}

// Clone returns a copy of the edge that shares no memory with e.
func (e Edge) Clone() Edge {
	if e.Style.Opacity != nil {
		e.Style.Opacity = Opacity(*e.Style.Opacity)
	}
	return e
}

// Normalized returns a copy of the edge with its style normalized.
func (e Edge) Normalized() Edge {
	e.Style = e.Style.Normalize()
	return e
}
