// Package dto provides shared data transfer objects for API responses.
package dto

// RoutePlan is the URL-only routing plan for a host and path.
type RoutePlan struct {
	Host     string `json:"host"`
	Class    string `json:"class"`
	Decision string `json:"decision"`
	App      string `json:"app,omitempty"`
}
