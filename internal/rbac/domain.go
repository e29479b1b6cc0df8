// Package rbac owns role and permission administration and serves the
// permission-check endpoints the authorization engine fetches grants from.
package rbac

import "time"

// Role represents a high-level permission grouping. The code is the opaque
// identifier grant snapshots carry; name and description are display-only.
type Role struct {
	ID          int64     `json:"id"`
	Code        string    `json:"code"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Permission represents an atomic capability, coded "<action>_<resource>".
type Permission struct {
	ID          int64  `json:"id"`
	Code        string `json:"code"`
	Description string `json:"description"`
}
