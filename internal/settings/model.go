package settings

import "time"

// Setting is an institution-wide configuration value keyed by name.
type Setting struct {
	Key       string    `json:"key"`
	Value     string    `json:"value"`
	UpdatedAt time.Time `json:"updated_at"`
}
