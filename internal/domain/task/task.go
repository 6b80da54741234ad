package task

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

type Status string

const (
	StatusWIP  Status = "WIP"
	StatusDone Status = "DONE"
	StatusHold Status = "HOLD"
)

func (s Status) IsValid() bool {
	switch s {
	case StatusWIP, StatusDone, StatusHold:
		return true
	default:
		return false
	}
}

func (s Status) Label() string {
	switch s {
	case StatusWIP:
		return "Work in Progress"
	case StatusDone:
		return "Done"
	case StatusHold:
		return "Hold"
	default:
		return string(s)
	}
}

// DateLayout is the wire format of every calendar date.
const DateLayout = "2006-01-02"

type Task struct {
	ID            string     `json:"id"`
	UserID        string     `json:"userId"`
	Date          time.Time  `json:"date"`
	Priority      string     `json:"priority"`
	District      string     `json:"district"`
	Module        string     `json:"module"`
	Title         string     `json:"task"`
	Details       string     `json:"details"`
	TargetDate    time.Time  `json:"targetDate"`
	Status        Status     `json:"status"`
	Live          string     `json:"live"`
	Tested        string     `json:"tested"`
	CompletedDate *time.Time `json:"completedDate,omitempty"`
	Comments      string     `json:"comments"`
	CreatedAt     time.Time  `json:"createdAt"`
	UpdatedAt     time.Time  `json:"updatedAt"`
}

// Entry is a task as seen from the manager's cross-user views.
type Entry struct {
	Task
	StatusLabel       string `json:"statusLabel"`
	EmployeeFirstName string `json:"employeeFirstName"`
	EmployeeLastName  string `json:"employeeLastName"`
}

// with pointers if optional, it will be nil
type Filter struct {
	Date       *time.Time
	EmployeeID *string
}

func (f Filter) Matches(t Task) bool {
	if f.Date != nil && !t.Date.Equal(*f.Date) {
		return false
	}
	if f.EmployeeID != nil && t.UserID != *f.EmployeeID {
		return false
	}
	return true
}

var (
	ErrNotFound   = errors.New("task not found")
	ErrValidation = errors.New("invalid task fields")
)

// DateOf truncates t to its calendar day, expressed as UTC midnight.
func DateOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func ParseDate(s string) (time.Time, error) {
	d, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q is not a YYYY-MM-DD date", ErrValidation, s)
	}
	return d, nil
}

// Fields are the owner-independent, validated task attributes.
// A zero Date means "not provided".
type Fields struct {
	Date          time.Time
	Priority      string
	District      string
	Module        string
	Title         string
	Details       string
	TargetDate    time.Time
	Status        Status
	Live          string
	Tested        string
	CompletedDate *time.Time
	Comments      string
}

// Request is the submitted form. The owner is never part of it.
type Request struct {
	Date          string `json:"date" binding:"omitempty,datetime=2006-01-02"`
	Priority      string `json:"priority" binding:"required,max=10"`
	District      string `json:"district" binding:"required,max=100"`
	Module        string `json:"module" binding:"required,max=100"`
	Title         string `json:"task" binding:"required,max=255"`
	Details       string `json:"details" binding:"required"`
	TargetDate    string `json:"targetDate" binding:"required,datetime=2006-01-02"`
	Status        Status `json:"status" binding:"required,oneof=WIP DONE HOLD"`
	Live          string `json:"live" binding:"max=100"`
	Tested        string `json:"tested" binding:"max=100"`
	CompletedDate string `json:"completedDate" binding:"omitempty,datetime=2006-01-02"`
	Comments      string `json:"comments"`
}

// Fields converts and validates the request. Binding tags already cover the
// HTTP path; this keeps non-HTTP callers honest too.
func (r Request) Fields() (Fields, error) {
	f := Fields{
		Priority: strings.TrimSpace(r.Priority),
		District: strings.TrimSpace(r.District),
		Module:   strings.TrimSpace(r.Module),
		Title:    strings.TrimSpace(r.Title),
		Details:  r.Details,
		Status:   r.Status,
		Live:     r.Live,
		Tested:   r.Tested,
		Comments: r.Comments,
	}

	var err error

	if strings.TrimSpace(r.Date) != "" {
		if f.Date, err = ParseDate(r.Date); err != nil {
			return Fields{}, err
		}
	}

	if f.TargetDate, err = ParseDate(r.TargetDate); err != nil {
		return Fields{}, err
	}

	if strings.TrimSpace(r.CompletedDate) != "" {
		d, err := ParseDate(r.CompletedDate)
		if err != nil {
			return Fields{}, err
		}
		f.CompletedDate = &d
	}

	if err := f.Validate(); err != nil {
		return Fields{}, err
	}

	return f, nil
}

func (f Fields) Validate() error {
	var problems []string

	required := map[string]string{
		"priority": f.Priority,
		"district": f.District,
		"module":   f.Module,
		"task":     f.Title,
		"details":  strings.TrimSpace(f.Details),
	}
	for _, name := range []string{"priority", "district", "module", "task", "details"} {
		if required[name] == "" {
			problems = append(problems, name+" is required")
		}
	}

	limits := []struct {
		name  string
		value string
		max   int
	}{
		{"priority", f.Priority, 10},
		{"district", f.District, 100},
		{"module", f.Module, 100},
		{"task", f.Title, 255},
		{"live", f.Live, 100},
		{"tested", f.Tested, 100},
	}
	for _, l := range limits {
		if len([]rune(l.value)) > l.max {
			problems = append(problems, fmt.Sprintf("%s must be at most %d characters", l.name, l.max))
		}
	}

	if f.TargetDate.IsZero() {
		problems = append(problems, "targetDate is required")
	}
	if !f.Status.IsValid() {
		problems = append(problems, "status must be one of WIP, DONE, HOLD")
	}

	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrValidation, strings.Join(problems, "; "))
	}
	return nil
}

// New builds a task owned by ownerID. The date defaults to the creation day.
func New(ownerID string, f Fields, now time.Time) Task {
	t := Task{
		ID:        uuid.NewString(),
		UserID:    ownerID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	t.Date = DateOf(now)
	t.Apply(f, now)

	return t
}

// Apply overwrites the editable attributes. A zero Date keeps the stored one.
func (t *Task) Apply(f Fields, now time.Time) {
	if !f.Date.IsZero() {
		t.Date = DateOf(f.Date)
	}
	t.Priority = f.Priority
	t.District = f.District
	t.Module = f.Module
	t.Title = f.Title
	t.Details = f.Details
	t.TargetDate = DateOf(f.TargetDate)
	t.Status = f.Status
	t.Live = f.Live
	t.Tested = f.Tested
	t.CompletedDate = nil
	if f.CompletedDate != nil {
		d := DateOf(*f.CompletedDate)
		t.CompletedDate = &d
	}
	t.Comments = f.Comments
	t.UpdatedAt = now
}
