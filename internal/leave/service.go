package leave

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/leavedesk/leavedesk/internal/shared"
)

var (
	ErrUnknownEmployee     = errors.New("unknown employee")
	ErrInvalidDateRange    = errors.New("start date is after end date")
	ErrInvalidDuration     = errors.New("requested duration must be positive")
	ErrInvalidAmount       = errors.New("amount must not be negative")
	ErrRequestNotFound     = errors.New("leave request not found")
	ErrAlreadyProcessed    = errors.New("leave request already processed")
	ErrInsufficientBalance = errors.New("insufficient leave balance")
	ErrNotAuthorized       = errors.New("admin privileges required")
)

// RepositoryPort describes repository operations used by Service.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	GetRequest(ctx context.Context, id int64) (Request, error)
	ListRequests(ctx context.Context, filter RequestFilter) ([]Request, error)
	ListApprovedOverlapping(ctx context.Context, from, to time.Time) ([]Request, error)
	GetBalance(ctx context.Context, employee string, year int) (Balance, error)
	ListBalances(ctx context.Context, year int) ([]Balance, error)
}

// TxRepository defines operations within a transaction.
type TxRepository interface {
	// EnsureBalance inserts the (employee, year) ledger row if absent,
	// seeded from the employee's default entitlement. Idempotent.
	EnsureBalance(ctx context.Context, employee string, year int) error
	GetBalanceForUpdate(ctx context.Context, employee string, year int) (Balance, error)
	ApplyUsage(ctx context.Context, employee string, year int, used, remaining float64) error
	SetEntitlement(ctx context.Context, employee string, year int, total float64) error
	SetRemaining(ctx context.Context, employee string, year int, remaining float64) error
	InsertRequest(ctx context.Context, req Request) (int64, error)
	UpdateRequestStatus(ctx context.Context, id int64, status RequestStatus) error
	// UpdateRequestStatusIf transitions status only when the request is
	// currently in from. Returns false when no row matched.
	UpdateRequestStatusIf(ctx context.Context, id int64, from, to RequestStatus) (bool, error)
}

// RequestFilter narrows request listings.
type RequestFilter struct {
	Employee string
	Year     int
}

// Notification is the payload handed to the notification collaborator.
type Notification struct {
	Subject   string
	Body      string
	Recipient string
}

// Notifier delivers notifications out of band. Implementations must not
// block the calling operation; failures are the implementation's to log.
type Notifier interface {
	Notify(ctx context.Context, n Notification) error
}

// Service implements the balance adjustment protocol around the leave
// ledger and the request log.
type Service struct {
	repo       RepositoryPort
	notifier   Notifier
	logger     *slog.Logger
	adminEmail string
}

// NewService constructs the leave service.
func NewService(repo RepositoryPort, notifier Notifier, logger *slog.Logger, adminEmail string) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, notifier: notifier, logger: logger, adminEmail: adminEmail}
}

// SubmitInput describes a leave request submission.
type SubmitInput struct {
	EmployeeName string
	LeaveType    string
	StartDate    time.Time
	EndDate      time.Time
	HalfDay      bool
	Reason       string
}

// SubmitResult carries the stored request plus the non-blocking balance
// advisory. LowBalance never blocks submission; sufficiency is enforced
// at approval time only.
type SubmitResult struct {
	Request    Request
	LowBalance bool
	Remaining  float64
}

// Submit records a new Pending request, lazily creating the ledger row
// for the request's year.
func (s *Service) Submit(ctx context.Context, input SubmitInput) (SubmitResult, error) {
	if input.StartDate.After(input.EndDate) {
		return SubmitResult{}, ErrInvalidDateRange
	}
	days := ComputeDays(input.StartDate, input.EndDate, input.HalfDay)
	if days <= 0 {
		return SubmitResult{}, ErrInvalidDuration
	}
	year := input.StartDate.Year()

	req := Request{
		EmployeeName: input.EmployeeName,
		LeaveType:    input.LeaveType,
		StartDate:    input.StartDate,
		EndDate:      input.EndDate,
		Days:         days,
		Year:         year,
		Status:       StatusPending,
		Reason:       input.Reason,
		AppliedOn:    time.Now().UTC(),
	}

	var bal Balance
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		if err := tx.EnsureBalance(ctx, input.EmployeeName, year); err != nil {
			return err
		}
		current, err := tx.GetBalanceForUpdate(ctx, input.EmployeeName, year)
		if err != nil {
			if errors.Is(err, ErrBalanceNotFound) {
				return ErrUnknownEmployee
			}
			return err
		}
		bal = current
		id, err := tx.InsertRequest(ctx, req)
		if err != nil {
			return err
		}
		req.ID = id
		return nil
	})
	if err != nil {
		return SubmitResult{}, err
	}

	s.notify(ctx, Notification{
		Subject:   "New Leave Request",
		Body:      fmt.Sprintf("%s applied for %g days (%s).", req.EmployeeName, req.Days, req.LeaveType),
		Recipient: s.adminEmail,
	})

	return SubmitResult{Request: req, LowBalance: bal.Remaining < days, Remaining: bal.Remaining}, nil
}

// Approve deducts the request's days from the ledger and marks it
// Approved, all in one transaction. The ledger row is locked for the
// read-check-write sequence so concurrent approvals against the same
// (employee, year) serialize.
func (s *Service) Approve(ctx context.Context, actor shared.Actor, requestID int64) error {
	if !actor.Admin {
		return ErrNotAuthorized
	}
	req, err := s.repo.GetRequest(ctx, requestID)
	if err != nil {
		return err
	}
	if req.Status != StatusPending {
		return ErrAlreadyProcessed
	}

	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		moved, err := tx.UpdateRequestStatusIf(ctx, requestID, StatusPending, StatusApproved)
		if err != nil {
			return err
		}
		if !moved {
			return ErrAlreadyProcessed
		}
		if err := tx.EnsureBalance(ctx, req.EmployeeName, req.Year); err != nil {
			return err
		}
		bal, err := tx.GetBalanceForUpdate(ctx, req.EmployeeName, req.Year)
		if err != nil {
			if errors.Is(err, ErrBalanceNotFound) {
				return ErrUnknownEmployee
			}
			return err
		}
		if bal.Remaining < req.Days {
			return ErrInsufficientBalance
		}
		return tx.ApplyUsage(ctx, req.EmployeeName, req.Year, bal.Used+req.Days, bal.Remaining-req.Days)
	})
	if err != nil {
		return err
	}

	s.notify(ctx, Notification{
		Subject:   "Leave Approved",
		Body:      fmt.Sprintf("%s's leave (%s to %s) has been approved.", req.EmployeeName, req.StartDate.Format("2006-01-02"), req.EndDate.Format("2006-01-02")),
		Recipient: s.adminEmail,
	})
	return nil
}

// Reject flips the request to Rejected. The transition is unconditional
// and idempotent; the ledger is never touched.
func (s *Service) Reject(ctx context.Context, actor shared.Actor, requestID int64) error {
	if !actor.Admin {
		return ErrNotAuthorized
	}
	req, err := s.repo.GetRequest(ctx, requestID)
	if err != nil {
		return err
	}

	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		return tx.UpdateRequestStatus(ctx, requestID, StatusRejected)
	})
	if err != nil {
		return err
	}

	s.notify(ctx, Notification{
		Subject:   "Leave Rejected",
		Body:      fmt.Sprintf("%s's leave (%s to %s) has been rejected.", req.EmployeeName, req.StartDate.Format("2006-01-02"), req.EndDate.Format("2006-01-02")),
		Recipient: s.adminEmail,
	})
	return nil
}

// SetEntitlement overwrites the ledger row's total entitlement and
// remaining with newTotal. Authoritative admin override; used is kept.
func (s *Service) SetEntitlement(ctx context.Context, actor shared.Actor, employee string, year int, newTotal float64) error {
	if !actor.Admin {
		return ErrNotAuthorized
	}
	if newTotal < 0 {
		return ErrInvalidAmount
	}
	return s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		if err := s.ensureExisting(ctx, tx, employee, year); err != nil {
			return err
		}
		return tx.SetEntitlement(ctx, employee, year, newTotal)
	})
}

// SetBalance overwrites the ledger row's remaining days. Authoritative
// admin override; total entitlement and used are untouched.
func (s *Service) SetBalance(ctx context.Context, actor shared.Actor, employee string, year int, newRemaining float64) error {
	if !actor.Admin {
		return ErrNotAuthorized
	}
	if newRemaining < 0 {
		return ErrInvalidAmount
	}
	return s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		if err := s.ensureExisting(ctx, tx, employee, year); err != nil {
			return err
		}
		return tx.SetRemaining(ctx, employee, year, newRemaining)
	})
}

// BalanceFor returns the ledger row for (employee, year), creating it
// lazily on first reference.
func (s *Service) BalanceFor(ctx context.Context, employee string, year int) (Balance, error) {
	var bal Balance
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		if err := tx.EnsureBalance(ctx, employee, year); err != nil {
			return err
		}
		current, err := tx.GetBalanceForUpdate(ctx, employee, year)
		if err != nil {
			if errors.Is(err, ErrBalanceNotFound) {
				return ErrUnknownEmployee
			}
			return err
		}
		bal = current
		return nil
	})
	return bal, err
}

// History lists an employee's requests, newest first.
func (s *Service) History(ctx context.Context, employee string) ([]Request, error) {
	return s.repo.ListRequests(ctx, RequestFilter{Employee: employee})
}

// ListRequests lists requests for the admin dashboard, optionally
// filtered by year.
func (s *Service) ListRequests(ctx context.Context, filter RequestFilter) ([]Request, error) {
	return s.repo.ListRequests(ctx, filter)
}

// ListBalances returns ledger rows for a year, for export.
func (s *Service) ListBalances(ctx context.Context, year int) ([]Balance, error) {
	return s.repo.ListBalances(ctx, year)
}

func (s *Service) ensureExisting(ctx context.Context, tx TxRepository, employee string, year int) error {
	if err := tx.EnsureBalance(ctx, employee, year); err != nil {
		return err
	}
	if _, err := tx.GetBalanceForUpdate(ctx, employee, year); err != nil {
		if errors.Is(err, ErrBalanceNotFound) {
			return ErrUnknownEmployee
		}
		return err
	}
	return nil
}

// notify dispatches a best-effort notification after commit. Delivery
// failures are logged and never surfaced to the caller.
func (s *Service) notify(ctx context.Context, n Notification) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.Notify(ctx, n); err != nil {
		s.logger.Warn("notification dispatch failed",
			slog.String("subject", n.Subject),
			slog.Any("error", err))
	}
}
