package leave

import (
	"context"
	"time"
)

// CalendarEntry marks one employee's approved leave on a single day.
type CalendarEntry struct {
	EmployeeName string `json:"employee_name"`
	LeaveType    string `json:"leave_type"`
}

// CalendarMonth maps day-of-month to the employees on approved leave
// that day.
type CalendarMonth map[int][]CalendarEntry

// Calendar expands approved requests overlapping the given month into a
// per-day view. Read-only.
func (s *Service) Calendar(ctx context.Context, year int, month time.Month) (CalendarMonth, error) {
	monthStart := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	monthEnd := monthStart.AddDate(0, 1, -1)

	requests, err := s.repo.ListApprovedOverlapping(ctx, monthStart, monthEnd)
	if err != nil {
		return nil, err
	}

	days := make(CalendarMonth)
	for _, req := range requests {
		from := truncateToDay(req.StartDate)
		to := truncateToDay(req.EndDate)
		if from.Before(monthStart) {
			from = monthStart
		}
		if to.After(monthEnd) {
			to = monthEnd
		}
		for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
			days[d.Day()] = append(days[d.Day()], CalendarEntry{
				EmployeeName: req.EmployeeName,
				LeaveType:    req.LeaveType,
			})
		}
	}
	return days, nil
}
