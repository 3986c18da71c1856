package output

// PlanOutput is the JSON shape of a plan result.
type PlanOutput struct {
	OK        bool         `json:"ok"`
	Canvas    string       `json:"canvas,omitempty"`
	Groups    [][]PlanNode `json:"groups,omitempty"`
	Order     []string     `json:"order,omitempty"`
	Levels    [][][]string `json:"levels,omitempty"`
	Error     string       `json:"error,omitempty"`
	Detail    string       `json:"detail,omitempty"`
	Unvisited []string     `json:"unvisited,omitempty"`
}

// PlanNode is one scheduled table placement.
type PlanNode struct {
	ID    string `json:"id"`
	Table string `json:"table,omitempty"`
}

// CanvasSummary is one row of the canvas listing.
type CanvasSummary struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	ConnectionID string `json:"connectionId,omitempty"`
	Tables       int    `json:"tables"`
	Joins        int    `json:"joins"`
	UpdatedAt    string `json:"updatedAt"`
}

// ConnectionSummary is one row of the connection listing. Passwords are never included.
type ConnectionSummary struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Type     string `json:"type"`
	Host     string `json:"host"`
	Port     int    `json:"port"`
	Database string `json:"database"`
	Username string `json:"username"`
}
