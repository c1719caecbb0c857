package common

// ListResponse wraps a list with its length
type ListResponse struct {
	Items interface{} `json:"items"`
	Total int         `json:"total"`
}

// HealthResponse is returned by the health check
type HealthResponse struct {
	Status      string `json:"status"`
	Environment string `json:"environment"`
	Storage     string `json:"storage"`
}
