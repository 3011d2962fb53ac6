package leave

import "time"

// RequestStatus enumerates the lifecycle states of a leave request.
type RequestStatus string

const (
	// StatusPending marks a submitted request awaiting an admin decision.
	StatusPending RequestStatus = "Pending"
	// StatusApproved marks a request whose days were deducted from the ledger.
	StatusApproved RequestStatus = "Approved"
	// StatusRejected marks a declined request. No ledger effect.
	StatusRejected RequestStatus = "Rejected"
)

// Request is a single leave request as submitted by an employee.
type Request struct {
	ID           int64         `json:"id"`
	EmployeeName string        `json:"employee_name"`
	LeaveType    string        `json:"leave_type"`
	StartDate    time.Time     `json:"start_date"`
	EndDate      time.Time     `json:"end_date"`
	Days         float64       `json:"days"`
	Year         int           `json:"year"`
	Status       RequestStatus `json:"status"`
	Reason       string        `json:"reason"`
	AppliedOn    time.Time     `json:"applied_on"`
}

// Balance is the per-employee, per-year leave ledger row.
//
// Remaining is stored independently of TotalEntitlement and Used: admin
// overrides write it directly and are authoritative, last-write-wins.
type Balance struct {
	EmployeeName     string  `json:"employee_name"`
	Year             int     `json:"year"`
	TotalEntitlement float64 `json:"total_entitlement"`
	Used             float64 `json:"used"`
	Remaining        float64 `json:"remaining"`
}

// ComputeDays returns the requested day count for an inclusive date range.
// A half-day request knocks 0.5 off the whole-day count.
func ComputeDays(start, end time.Time, halfDay bool) float64 {
	s := truncateToDay(start)
	e := truncateToDay(end)
	days := float64(int(e.Sub(s).Hours()/24)) + 1
	if halfDay {
		days -= 0.5
	}
	return days
}

func truncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
