package models

import (
	"time"
)

// APIResponse is the envelope every JSON endpoint replies with.
type APIResponse struct {
	Success   bool        `json:"success"`
	Message   string      `json:"message,omitempty"`
	Data      interface{} `json:"data,omitempty"`
	Error     *APIError   `json:"error,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
}

type APIError struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Details map[string]string `json:"details,omitempty"`
}

func NewSuccessResponse(data interface{}, message string) *APIResponse {
	return &APIResponse{
		Success:   true,
		Message:   message,
		Data:      data,
		Timestamp: time.Now(),
	}
}

func NewErrorResponse(code, message string, details map[string]string) *APIResponse {
	return &APIResponse{
		Success: false,
		Error: &APIError{
			Code:    code,
			Message: message,
			Details: details,
		},
		Timestamp: time.Now(),
	}
}

// RegisterDropRequest is the organiser-facing registration payload.
type RegisterDropRequest struct {
	Name  string          `json:"name"`
	Email string          `json:"email"`
	Date  string          `json:"date"`
	Codes []string        `json:"codes"`
	Kinds []string        `json:"kinds,omitempty"`
	Game  *GameConfigBody `json:"game_config,omitempty"`
}

type GameConfigBody struct {
	Duration    int `json:"duration"`
	TargetScore int `json:"target_score"`
}

type DeleteDropRequest struct {
	AdminToken string `json:"admin_token"`
}

type CodeRequest struct {
	ProofToken string `json:"proof_token,omitempty"`
}

// ClaimRequest carries the destination a redeemed code is claimed to.
type ClaimRequest struct {
	Address string `json:"address"`
}

// ProofRequest is the webhook payload the external human-verification
// service posts when a client finishes (or fails) its anti-bot step.
type ProofRequest struct {
	Token            string `json:"token"`
	Valid            bool   `json:"valid"`
	ExpiresInSeconds int    `json:"expires_in_seconds,omitempty"`
}

// DropSummary is the public view of a drop for admin search results.
type DropSummary struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	CodeCount      int       `json:"codes"`
	AvailableCount int       `json:"codes_available"`
	ExpiresAt      time.Time `json:"expires_at"`
	CreatedAt      time.Time `json:"created_at"`
}

// HealthCheck reports component status for the health endpoint.
type HealthCheck struct {
	Status     string                     `json:"status"`
	Timestamp  time.Time                  `json:"timestamp"`
	Version    string                     `json:"version"`
	Components map[string]ComponentHealth `json:"components"`
}

type ComponentHealth struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

func NewHealthCheck(version string) *HealthCheck {
	return &HealthCheck{
		Status:     "healthy",
		Timestamp:  time.Now(),
		Version:    version,
		Components: make(map[string]ComponentHealth),
	}
}

func (h *HealthCheck) AddComponent(name, status, message string) {
	h.Components[name] = ComponentHealth{Status: status, Message: message}
	if status != "healthy" && h.Status == "healthy" {
		h.Status = "unhealthy"
	}
}
