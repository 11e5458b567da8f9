package model

// BusinessHours describes when a department answers the desk.
type BusinessHours struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// Department partitions the desk for routing and access scoping.
type Department struct {
	ID            string        `json:"id"`
	Name          string        `json:"name"`
	Description   string        `json:"description"`
	BusinessHours BusinessHours `json:"business_hours"`
	Active        bool          `json:"active"`
}
