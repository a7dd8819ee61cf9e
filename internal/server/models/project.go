package models

import "time"

// Project is the admin-managed resource. OwnerID is the account that created
// it and becomes nil if that account is removed.
type Project struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	OwnerID     *int64    `json:"owner_id"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// ProjectInput carries the user-editable project fields.
type ProjectInput struct {
	Name        string
	Description string
}
