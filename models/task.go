package models

import "github.com/uptrace/bun"

// TaskCategory groups tasks for display and filtering.
type TaskCategory string

const (
	CategoryTravel    TaskCategory = "Travel"
	CategoryGear      TaskCategory = "Gear & Clothing"
	CategoryAdmin     TaskCategory = "Admin & Rules"
	CategoryNutrition TaskCategory = "Nutrition & Strategy"
	CategoryPersonal  TaskCategory = "Personal & Misc"
)

// Valid reports whether c is one of the five known categories.
func (c TaskCategory) Valid() bool {
	switch c {
	case CategoryTravel, CategoryGear, CategoryAdmin, CategoryNutrition, CategoryPersonal:
		return true
	}
	return false
}

// TaskStatus is the completion state of a task. DONE and SKIPPED both count
// as complete for progress purposes.
type TaskStatus string

const (
	StatusNotStarted TaskStatus = "NOT_STARTED"
	StatusInProgress TaskStatus = "IN_PROGRESS"
	StatusDone       TaskStatus = "DONE"
	StatusSkipped    TaskStatus = "SKIPPED"
)

// Valid reports whether s is a known status.
func (s TaskStatus) Valid() bool {
	switch s {
	case StatusNotStarted, StatusInProgress, StatusDone, StatusSkipped:
		return true
	}
	return false
}

// Terminal reports whether the task no longer needs attention.
func (s TaskStatus) Terminal() bool {
	return s == StatusDone || s == StatusSkipped
}

// Task is a single checklist item owned by exactly one race. Hidden tasks are
// suppressed from progress and due-now views but keep their state so a later
// re-enable restores them untouched.
type Task struct {
	bun.BaseModel `bun:"table:tasks,alias:t"`

	ID          string       `bun:"id,pk" json:"id"`
	RaceID      string       `bun:"race_id,notnull" json:"race_id"`
	Title       string       `bun:"title,notnull" json:"title"`
	Description *string      `bun:"description" json:"description,omitempty"`
	Category    TaskCategory `bun:"category,notnull" json:"category"`
	Milestone   Milestone    `bun:"milestone,notnull" json:"milestone"`
	Status      TaskStatus   `bun:"status,notnull,default:'NOT_STARTED'" json:"status"`
	SortOrder   int          `bun:"sort_order,notnull,default:0" json:"sort_order"`
	IsDefault   bool         `bun:"is_default,notnull,default:false" json:"is_default"`
	IsHidden    bool         `bun:"is_hidden,notnull,default:false" json:"is_hidden"`
}
