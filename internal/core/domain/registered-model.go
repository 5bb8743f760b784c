package domain

import (
	"time"

	"github.com/google/uuid"
)

type ModelState string

const (
	ModelStateLive     ModelState = "LIVE"
	ModelStateArchived ModelState = "ARCHIVED"
)

type RegisteredModel struct {
	ID          uuid.UUID         `json:"id"`
	CreatedAt   time.Time         `json:"created_at"`
	UpdatedAt   time.Time         `json:"updated_at"`
	Name        string            `json:"name"`
	Description string            `json:"description"`
	State       ModelState        `json:"state"`
	Labels      map[string]string `json:"labels"`
}

// RegisterModelRequest carries everything a registry needs to record a new version.
type RegisterModelRequest struct {
	ModelName      string
	ModelPath      string
	RunID          string
	URI            string
	Description    string
	ModelFramework string
	Labels         map[string]string
}

// Model is the (name, id, version) tuple handed back to the caller after registration.
type Model struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Version int    `json:"version"`
}
