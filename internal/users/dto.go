package users

import "github.com/tripflow/tripflow/internal/shared"

// CreateUserRequest provisions an account.
type CreateUserRequest struct {
	Email      string `json:"email" validate:"required,email,max=200"`
	Name       string `json:"name" validate:"required,max=200"`
	Password   string `json:"password" validate:"required,min=8,max=128"`
	Role       string `json:"role" validate:"required,oneof=customer salesperson sales_manager operations admin"`
	Department string `json:"department" validate:"omitempty,max=100"`
	Phone      string `json:"phone" validate:"omitempty,max=30"`
}

// UpdateUserRequest edits account attributes. Nil fields stay unchanged.
type UpdateUserRequest struct {
	Name       *string `json:"name" validate:"omitempty,max=200"`
	Role       *string `json:"role" validate:"omitempty,oneof=customer salesperson sales_manager operations admin"`
	Department *string `json:"department" validate:"omitempty,max=100"`
	Phone      *string `json:"phone" validate:"omitempty,max=30"`
	IsActive   *bool   `json:"is_active"`
}

// ListFilter narrows account listings.
type ListFilter struct {
	Role    *string
	Page    int
	PerPage int
}

// ListResponse wraps a page of accounts.
type ListResponse struct {
	Users      []User            `json:"users"`
	Pagination shared.Pagination `json:"pagination"`
}
