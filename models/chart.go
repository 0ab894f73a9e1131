package models

// ChartNodeData holds the display payload of a diagram node.
type ChartNodeData struct {
	Label string `json:"label"`
}

// ChartNode is a single node in a chart slide's diagram.
type ChartNode struct {
	ID   string        `json:"id"`
	Data ChartNodeData `json:"data"`
}

// ChartEdge is a directed connection between two diagram nodes.
type ChartEdge struct {
	ID     string `json:"id"`
	Source string `json:"source"`
	Target string `json:"target"`
	Label  string `json:"label,omitempty"`
}

// ChartData is the structured diagram payload for chart slides.
type ChartData struct {
	Nodes []ChartNode `json:"nodes"`
	Edges []ChartEdge `json:"edges"`
}

// LayoutData configures comparison_split slides. Labels fall back to
// "Option A" / "Option B" when absent.
type LayoutData struct {
	LeftLabel  string `json:"left_label,omitempty"`
	RightLabel string `json:"right_label,omitempty"`
}
