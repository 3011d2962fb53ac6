package directory

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/leavedesk/leavedesk/internal/leave"
	"github.com/leavedesk/leavedesk/internal/shared"
)

// Service wraps directory business rules.
type Service struct {
	repo   Repository
	logger *slog.Logger
}

// NewService constructs a directory Service.
func NewService(repo Repository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, logger: logger}
}

// CreateInput describes a new employee.
type CreateInput struct {
	Name        string
	Role        string
	JoinDate    time.Time
	Entitlement *float64
}

// Create registers a new employee.
func (s *Service) Create(ctx context.Context, actor shared.Actor, input CreateInput) (Employee, error) {
	if !actor.Admin {
		return Employee{}, leave.ErrNotAuthorized
	}
	emp, err := validated(input)
	if err != nil {
		return Employee{}, err
	}
	return s.repo.Create(ctx, emp)
}

// Rename changes an employee's identity key, cascading to all dependent
// request and ledger rows atomically.
func (s *Service) Rename(ctx context.Context, actor shared.Actor, oldName, newName string) error {
	if !actor.Admin {
		return leave.ErrNotAuthorized
	}
	oldName = strings.TrimSpace(oldName)
	newName = strings.TrimSpace(newName)
	if oldName == "" || newName == "" {
		return ErrInvalidName
	}
	if oldName == newName {
		return nil
	}
	return s.repo.Rename(ctx, oldName, newName)
}

// Delete removes an employee and all dependent rows.
func (s *Service) Delete(ctx context.Context, actor shared.Actor, name string) error {
	if !actor.Admin {
		return leave.ErrNotAuthorized
	}
	return s.repo.Delete(ctx, name)
}

// Get fetches one employee by name.
func (s *Service) Get(ctx context.Context, name string) (Employee, error) {
	return s.repo.Get(ctx, name)
}

// List returns all employees ordered by name.
func (s *Service) List(ctx context.Context) ([]Employee, error) {
	return s.repo.List(ctx)
}

// Seed inserts the configured seed employees, skipping names that
// already exist.
func (s *Service) Seed(ctx context.Context, seeds []CreateInput) error {
	for _, input := range seeds {
		emp, err := validated(input)
		if err != nil {
			return err
		}
		inserted, err := s.repo.CreateIfAbsent(ctx, emp)
		if err != nil {
			return err
		}
		if inserted {
			s.logger.Info("seeded employee", slog.String("name", emp.Name))
		}
	}
	return nil
}

func validated(input CreateInput) (Employee, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return Employee{}, ErrInvalidName
	}
	if input.Entitlement != nil && *input.Entitlement < 0 {
		return Employee{}, ErrInvalidEntitlement
	}
	role := input.Role
	if role == "" {
		role = "Staff"
	}
	return Employee{
		Name:        name,
		Role:        role,
		JoinDate:    input.JoinDate,
		Entitlement: input.Entitlement,
	}, nil
}
