package dto

// ComponentHealth is the state of one backing service.
type ComponentHealth struct {
	Healthy bool `json:"healthy"`
}

// HealthResponse reports the edge and its backing services.
type HealthResponse struct {
	Status     string                     `json:"status"`
	Components map[string]ComponentHealth `json:"components,omitempty"`
}

// VersionResponse describes the running build.
type VersionResponse struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildDate string `json:"build_date"`
	Uptime    string `json:"uptime"`
}
