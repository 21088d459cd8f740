package models

import (
	"strings"
	"time"
)

// Category is the classifier's topic label for a complaint.
type Category string

const (
	CategoryWaterSanitation Category = "water_sanitation"
	CategoryFoodCanteen     Category = "food_canteen"
	CategoryInfrastructure  Category = "infrastructure"
	CategoryAcademic        Category = "academic"
	CategoryHostel          Category = "hostel"
)

// Department is the human-facing routing target derived from a Category.
type Department string

const (
	DepartmentWaterSanitation Department = "Water & Sanitation"
	DepartmentFoodCanteen     Department = "Food & Canteen Services"
	DepartmentInfrastructure  Department = "Infrastructure & Maintenance"
	DepartmentAcademic        Department = "Academic Affairs"
	DepartmentHostel          Department = "Hostel Administration"
)

// Departments lists every routing target in display order.
var Departments = []Department{
	DepartmentWaterSanitation,
	DepartmentFoodCanteen,
	DepartmentInfrastructure,
	DepartmentAcademic,
	DepartmentHostel,
}

// Valid reports whether d is one of the fixed routing targets.
func (d Department) Valid() bool {
	for _, known := range Departments {
		if d == known {
			return true
		}
	}
	return false
}

// Priority is the urgency tier assigned at submission.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

// Priorities lists every urgency tier from lowest to highest.
var Priorities = []Priority{PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent}

// Rank orders priorities for the triage queue; unknown values rank lowest.
func (p Priority) Rank() int {
	switch p {
	case PriorityUrgent:
		return 4
	case PriorityHigh:
		return 3
	case PriorityMedium:
		return 2
	case PriorityLow:
		return 1
	default:
		return 0
	}
}

// Valid reports whether p is a known priority.
func (p Priority) Valid() bool {
	return p.Rank() > 0
}

// Status is the complaint's lifecycle stage.
type Status string

const (
	StatusPending    Status = "pending"
	StatusInProgress Status = "in_progress"
	StatusResolved   Status = "resolved"
	StatusRejected   Status = "rejected"
)

// Statuses lists every lifecycle stage.
var Statuses = []Status{StatusPending, StatusInProgress, StatusResolved, StatusRejected}

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	for _, known := range Statuses {
		if s == known {
			return true
		}
	}
	return false
}

// FilterAll disables a queue filter.
const FilterAll = "all"

// Names joins enum values for error messages.
func Names[T ~string](values []T) string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = string(v)
	}
	return strings.Join(out, ", ")
}

// Complaint is a submitted grievance tracked through the lifecycle. Submitter
// fields are copied at submission and never follow later account changes.
type Complaint struct {
	ID           string     `json:"id"`
	Title        string     `json:"title"`
	Description  string     `json:"description"`
	Category     Category   `json:"category"`
	Priority     Priority   `json:"priority"`
	Status       Status     `json:"status"`
	StudentName  string     `json:"studentName"`
	StudentEmail string     `json:"studentEmail"`
	StudentID    string     `json:"studentId"`
	Department   Department `json:"department"`
	SubmittedAt  time.Time  `json:"submittedAt"`
	ResolvedAt   *time.Time `json:"resolvedAt,omitempty"`
	AdminNotes   string     `json:"adminNotes,omitempty"`
	AssignedTo   string     `json:"assignedTo,omitempty"`
}

// Classification is the classifier output for a piece of complaint text.
type Classification struct {
	Category   Category   `json:"category"`
	Department Department `json:"department"`
	Priority   Priority   `json:"priority"`
}

// ClassificationPreview is a classification together with the per-category
// keyword scores that produced it.
type ClassificationPreview struct {
	Classification
	Scores map[Category]int `json:"scores"`
}

// StatusUpdate carries a staff-driven transition. A nil or empty Notes keeps
// the existing admin notes.
type StatusUpdate struct {
	Status Status
	Notes  *string
}

// SubmitComplaintRequest carries the free text of a new complaint.
type SubmitComplaintRequest struct {
	Title       string `json:"title" validate:"required,max=200"`
	Description string `json:"description" validate:"required,max=5000"`
}

// StatusUpdateRequest is the staff payload for a transition.
type StatusUpdateRequest struct {
	Status string  `json:"status" validate:"required"`
	Notes  *string `json:"notes"`
}

// QueueFilter captures the staff triage filters. Empty or "all" disables a field.
type QueueFilter struct {
	Status     string `form:"status" json:"status"`
	Priority   string `form:"priority" json:"priority"`
	Department string `form:"department" json:"department"`
	Search     string `form:"search" json:"search"`
}

// QueueStats are the dashboard counters shown above a queue.
type QueueStats struct {
	Total      int `json:"total"`
	Pending    int `json:"pending"`
	InProgress int `json:"inProgress"`
	Resolved   int `json:"resolved"`
	Rejected   int `json:"rejected"`
	Urgent     int `json:"urgent"`
}
