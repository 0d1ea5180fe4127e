package models

import "time"

// DateFormat is the calendar-date layout used for task due dates.
// Tasks are compared by date only; time of day and timezone are not stored.
const DateFormat = "2006-01-02"

// Task represents a single dated task assigned to a child
type Task struct {
	ID          int64
	ChildID     int64
	Description string
	ImageURL    string
	DueDate     string // YYYY-MM-DD
	Done        bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// NewTask holds the parent-supplied fields for task creation
type NewTask struct {
	Description string
	ImageURL    string
	DueDate     string
}
