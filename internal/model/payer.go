package model

import "time"

// Payer is an insurer identity scoped to an organization.
type Payer struct {
	ID        string    `json:"id"`
	OrgID     string    `json:"org_id"`
	Name      string    `json:"name"`
	Code      *string   `json:"code,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}
