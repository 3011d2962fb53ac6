// Package export renders leave data as CSV streams for download.
package export

import (
	"encoding/csv"
	"io"
	"strconv"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/leavedesk/leavedesk/internal/leave"
)

var titleCaser = cases.Title(language.English)

// WriteRequestsCSV serialises leave requests to CSV.
func WriteRequestsCSV(w io.Writer, requests []leave.Request) error {
	writer := csv.NewWriter(w)
	defer writer.Flush()

	if err := writer.Write([]string{"Employee", "Type", "Start", "End", "Days", "Year", "Status", "Reason", "Applied On"}); err != nil {
		return err
	}
	for _, req := range requests {
		record := []string{
			req.EmployeeName,
			titleCaser.String(req.LeaveType),
			req.StartDate.Format("2006-01-02"),
			req.EndDate.Format("2006-01-02"),
			formatFloat(req.Days),
			strconv.Itoa(req.Year),
			string(req.Status),
			req.Reason,
			req.AppliedOn.Format("2006-01-02 15:04:05"),
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

// WriteBalancesCSV serialises ledger rows to CSV.
func WriteBalancesCSV(w io.Writer, balances []leave.Balance) error {
	writer := csv.NewWriter(w)
	defer writer.Flush()

	if err := writer.Write([]string{"Employee", "Year", "Total Entitlement", "Used", "Remaining"}); err != nil {
		return err
	}
	for _, bal := range balances {
		record := []string{
			bal.EmployeeName,
			strconv.Itoa(bal.Year),
			formatFloat(bal.TotalEntitlement),
			formatFloat(bal.Used),
			formatFloat(bal.Remaining),
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
