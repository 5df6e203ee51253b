package domain

import "context"

type ComponentHealth struct {
	Name    string `json:"name"`
	Healthy bool   `json:"healthy"`
	Error   string `json:"error,omitempty"`
}

type HealthReport struct {
	Healthy    bool               `json:"healthy"`
	Backend    string             `json:"backend"`
	Components []*ComponentHealth `json:"components"`
}

type HealthUsecase interface {
	Check(ctx context.Context) *HealthReport
}
