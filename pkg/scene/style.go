package scene

// Style holds the colors and sizes a scene is built with.
type Style struct {
	Background string `toml:"background" json:"background"`

	SelectedFill  string `toml:"selected_fill" json:"selectedFill"`
	ConnectedFill string `toml:"connected_fill" json:"connectedFill"`
	DefaultFill   string `toml:"default_fill" json:"defaultFill"`

	NodeStroke       string  `toml:"node_stroke" json:"nodeStroke"`
	NodeStrokeWidth  float64 `toml:"node_stroke_width" json:"nodeStrokeWidth"`
	HoverStroke      string  `toml:"hover_stroke" json:"hoverStroke"`
	HoverStrokeWidth float64 `toml:"hover_stroke_width" json:"hoverStrokeWidth"`

	EdgeColor            string  `toml:"edge_color" json:"edgeColor"`
	EdgeOpacity          float64 `toml:"edge_opacity" json:"edgeOpacity"`
	EdgeHighlightColor   string  `toml:"edge_highlight_color" json:"edgeHighlightColor"`
	EdgeHighlightOpacity float64 `toml:"edge_highlight_opacity" json:"edgeHighlightOpacity"`
	EdgeBaseWidth        float64 `toml:"edge_base_width" json:"edgeBaseWidth"`
	EdgeWeightWidth      float64 `toml:"edge_weight_width" json:"edgeWeightWidth"`

	LabelColor    string  `toml:"label_color" json:"labelColor"`
	LabelSize     float64 `toml:"label_size" json:"labelSize"`
	LabelOffset   float64 `toml:"label_offset" json:"labelOffset"`
	LabelBudget   int     `toml:"label_budget" json:"labelBudget"`
	SelectionGlow string  `toml:"selection_glow" json:"selectionGlow"`
}

// DefaultStyle returns the dashboard palette.
func DefaultStyle() Style {
	return Style{
		Background:           "#ffffff",
		SelectedFill:         "#1d4ed8",
		ConnectedFill:        "#2563eb",
		DefaultFill:          "#60a5fa",
		NodeStroke:           "#ffffff",
		NodeStrokeWidth:      2,
		HoverStroke:          "#1e3a8a",
		HoverStrokeWidth:     3,
		EdgeColor:            "#94a3b8",
		EdgeOpacity:          0.3,
		EdgeHighlightColor:   "#2563eb",
		EdgeHighlightOpacity: 0.8,
		EdgeBaseWidth:        1,
		EdgeWeightWidth:      4,
		LabelColor:           "#111827",
		LabelSize:            12,
		LabelOffset:          16,
		LabelBudget:          12,
		SelectionGlow:        "rgba(29,78,184,0.6)",
	}
}

func (s Style) withDefaults() Style {
	d := DefaultStyle()
	str := func(v *string, def string) {
		if *v == "" {
			*v = def
		}
	}
	num := func(v *float64, def float64) {
		if *v <= 0 {
			*v = def
		}
	}
	str(&s.Background, d.Background)
	str(&s.SelectedFill, d.SelectedFill)
	str(&s.ConnectedFill, d.ConnectedFill)
	str(&s.DefaultFill, d.DefaultFill)
	str(&s.NodeStroke, d.NodeStroke)
	str(&s.HoverStroke, d.HoverStroke)
	str(&s.EdgeColor, d.EdgeColor)
	str(&s.EdgeHighlightColor, d.EdgeHighlightColor)
	str(&s.LabelColor, d.LabelColor)
	str(&s.SelectionGlow, d.SelectionGlow)
	num(&s.NodeStrokeWidth, d.NodeStrokeWidth)
	num(&s.HoverStrokeWidth, d.HoverStrokeWidth)
	num(&s.EdgeOpacity, d.EdgeOpacity)
	num(&s.EdgeHighlightOpacity, d.EdgeHighlightOpacity)
	num(&s.EdgeBaseWidth, d.EdgeBaseWidth)
	num(&s.EdgeWeightWidth, d.EdgeWeightWidth)
	num(&s.LabelSize, d.LabelSize)
	num(&s.LabelOffset, d.LabelOffset)
	if s.LabelBudget == 0 {
		s.LabelBudget = d.LabelBudget
	}
	return s
}

// Hover tracks which node the pointer is over. It is the only state the
// render layer keeps between frames.
type Hover struct {
	id string
}

// Enter marks id as hovered.
func (h *Hover) Enter(id string) { h.id = id }

// Leave clears the hover if it is on id. A late leave for a node the
// pointer already left does not clear a newer hover.
func (h *Hover) Leave(id string) {
	if h.id == id {
		h.id = ""
	}
}

// Set replaces the hovered node; an empty id clears it.
func (h *Hover) Set(id string) { h.id = id }

// ID returns the hovered node, or "" for none.
func (h *Hover) ID() string { return h.id }
