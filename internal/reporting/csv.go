package reporting

import (
	"bufio"
	"io"
	"strings"
	"time"

	"github.com/geocoder89/tasktracker/internal/domain/task"
)

// Header is the fixed column order of the export.
var Header = []string{
	"Date", "Priority", "District", "Module", "Task", "Details", "Target Date",
	"Status", "Live", "Tested", "Completed Date", "Comments", "Employee",
}

const exportDateLayout = "01/02/2006"

// Row renders one entry in Header order.
func Row(e task.Entry) []string {
	return []string{
		formatDate(&e.Date),
		e.Priority,
		e.District,
		e.Module,
		e.Title,
		e.Details,
		formatDate(&e.TargetDate),
		string(e.Status),
		e.Live,
		e.Tested,
		formatDate(e.CompletedDate),
		e.Comments,
		e.EmployeeFirstName,
	}
}

func formatDate(d *time.Time) string {
	if d == nil || d.IsZero() {
		return ""
	}
	return d.Format(exportDateLayout)
}

// WriteCSV writes the header and one record per entry. Every field is
// quoted and records end in CRLF.
func WriteCSV(w io.Writer, entries []task.Entry) error {
	bw := bufio.NewWriter(w)

	if err := writeRecord(bw, Header); err != nil {
		return err
	}
	for _, e := range entries {
		if err := writeRecord(bw, Row(e)); err != nil {
			return err
		}
	}

	return bw.Flush()
}

func writeRecord(w *bufio.Writer, fields []string) error {
	for i, f := range fields {
		if i > 0 {
			if err := w.WriteByte(','); err != nil {
				return err
			}
		}
		if _, err := w.WriteString(`"` + strings.ReplaceAll(f, `"`, `""`) + `"`); err != nil {
			return err
		}
	}
	_, err := w.WriteString("\r\n")
	return err
}
