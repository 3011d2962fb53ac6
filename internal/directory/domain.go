package directory

import (
	"errors"
	"time"
)

var (
	ErrEmployeeNotFound   = errors.New("employee not found")
	ErrDuplicateEmployee  = errors.New("employee name already exists")
	ErrRenameConflict     = errors.New("target employee name already exists")
	ErrInvalidEntitlement = errors.New("entitlement must not be negative")
	ErrInvalidName        = errors.New("employee name is required")
)

// Employee is a directory entry. Name is the identity key; every
// dependent record (requests, balances) references it by name.
type Employee struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Role        string    `json:"role"`
	JoinDate    time.Time `json:"join_date"`
	Entitlement *float64  `json:"entitlement,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
