package request

type EditRequest struct {
	Value string `json:"value"`
}

type PercentageRequest struct {
	Side    string `json:"side" binding:"required"`
	Percent int    `json:"percent" binding:"required"`
}
