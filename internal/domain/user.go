package domain

import "time"

type Role string

const (
	RoleBuyer  Role = "buyer"
	RoleSeller Role = "seller"
)

func (r Role) Valid() bool {
	return r == RoleBuyer || r == RoleSeller
}

// User represents an account of the marketplace.
type User struct {
	ID           ID
	Email        string
	PasswordHash string
	Role         Role
	CreatedAt    time.Time
}

// Identity is the resolved acting user of a request.
type Identity struct {
	ID    ID
	Email string
	Role  Role
}

type RegisterInput struct {
	Email    string `json:"email" validate:"required,email,max=254"`
	Password string `json:"password" validate:"required,min=8,max=64"`
	Role     string `json:"role" validate:"required,oneof=buyer seller"`
}

type LoginInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}
