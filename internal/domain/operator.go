package domain

import (
	"context"
	"time"
)

// Role of a back-office operator
type Role string

const (
	RoleOwner   Role = "owner"
	RoleManager Role = "manager"
	RoleViewer  Role = "viewer"
)

// Operator is a staff member allowed to use the API
type Operator struct {
	ID           string
	Email        string
	Name         string
	PasswordHash string // bcrypt, never returned by the API
	Role         Role
	IsActive     bool
	CreatedAt    time.Time
}

// OperatorRepository is the persistence collaborator for operators
type OperatorRepository interface {
	Create(ctx context.Context, op *Operator) error
	GetByEmail(ctx context.Context, email string) (*Operator, error)
	GetByID(ctx context.Context, id string) (*Operator, error)
	UpdatePassword(ctx context.Context, id, passwordHash string) error
}
