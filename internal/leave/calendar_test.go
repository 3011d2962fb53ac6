package leave

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestCalendarExpandsApprovedRequests(t *testing.T) {
	ctx := context.Background()
	repo := newMemoryLeaveRepo()
	repo.entitlements["Alice"] = 20
	repo.entitlements["Bob"] = 20
	svc := NewService(repo, nil, nil, "admin@example.com")

	alice, err := svc.Submit(ctx, SubmitInput{
		EmployeeName: "Alice",
		LeaveType:    "Annual",
		StartDate:    date(2026, 5, 4),
		EndDate:      date(2026, 5, 6),
	})
	require.NoError(t, err)
	require.NoError(t, svc.Approve(ctx, admin, alice.Request.ID))

	// Pending requests never appear on the calendar.
	_, err = svc.Submit(ctx, SubmitInput{
		EmployeeName: "Bob",
		LeaveType:    "Sick",
		StartDate:    date(2026, 5, 5),
		EndDate:      date(2026, 5, 5),
	})
	require.NoError(t, err)

	month, err := svc.Calendar(ctx, 2026, time.May)
	require.NoError(t, err)
	require.Len(t, month[4], 1)
	require.Len(t, month[5], 1)
	require.Len(t, month[6], 1)
	require.Empty(t, month[7])
	require.Equal(t, "Alice", month[5][0].EmployeeName)
}

func TestCalendarClipsToMonthBoundaries(t *testing.T) {
	ctx := context.Background()
	repo := newMemoryLeaveRepo()
	repo.entitlements["Alice"] = 20
	svc := NewService(repo, nil, nil, "admin@example.com")

	result, err := svc.Submit(ctx, SubmitInput{
		EmployeeName: "Alice",
		LeaveType:    "Annual",
		StartDate:    date(2026, 4, 28),
		EndDate:      date(2026, 5, 3),
	})
	require.NoError(t, err)
	require.NoError(t, svc.Approve(ctx, admin, result.Request.ID))

	may, err := svc.Calendar(ctx, 2026, time.May)
	require.NoError(t, err)
	require.Len(t, may[1], 1)
	require.Len(t, may[3], 1)
	require.Empty(t, may[4])

	april, err := svc.Calendar(ctx, 2026, time.April)
	require.NoError(t, err)
	require.Len(t, april[28], 1)
	require.Len(t, april[30], 1)
	require.Empty(t, april[27])
}
