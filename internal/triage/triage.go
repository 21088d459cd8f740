// Package triage derives the staff and student views of the complaint queue.
// Every function is pure and never mutates its input.
package triage

import (
	"fmt"
	"sort"
	"strings"

	"github.com/noah-isme/complaint-desk/internal/classifier"
	"github.com/noah-isme/complaint-desk/internal/models"
)

// Project filters all complaints by the conjunction of the active filters and
// orders them by priority rank, then most recent submission first.
func Project(all []models.Complaint, filter models.QueueFilter) []models.Complaint {
	status := normalize(filter.Status)
	priority := normalize(filter.Priority)
	department := strings.TrimSpace(filter.Department)
	if strings.EqualFold(department, models.FilterAll) {
		department = ""
	}
	search := strings.ToLower(filter.Search)

	out := make([]models.Complaint, 0, len(all))
	for _, c := range all {
		if status != "" && string(c.Status) != status {
			continue
		}
		if priority != "" && string(c.Priority) != priority {
			continue
		}
		if department != "" && string(c.Department) != department {
			continue
		}
		if search != "" && !matchesSearch(c, search) {
			continue
		}
		out = append(out, c)
	}

	sort.SliceStable(out, func(i, j int) bool {
		ri, rj := out[i].Priority.Rank(), out[j].Priority.Rank()
		if ri != rj {
			return ri > rj
		}
		return out[i].SubmittedAt.After(out[j].SubmittedAt)
	})
	return out
}

// Own returns the complaints submitted by account, optionally narrowed to a
// single status, in store order.
func Own(all []models.Complaint, account models.Account, status string) []models.Complaint {
	status = normalize(status)
	out := make([]models.Complaint, 0)
	for _, c := range all {
		if c.StudentEmail != account.Email {
			continue
		}
		if status != "" && string(c.Status) != status {
			continue
		}
		out = append(out, c)
	}
	return out
}

// Summarize counts complaints per status plus the urgent ones.
func Summarize(complaints []models.Complaint) models.QueueStats {
	stats := models.QueueStats{Total: len(complaints)}
	for _, c := range complaints {
		switch c.Status {
		case models.StatusPending:
			stats.Pending++
		case models.StatusInProgress:
			stats.InProgress++
		case models.StatusResolved:
			stats.Resolved++
		case models.StatusRejected:
			stats.Rejected++
		}
		if c.Priority == models.PriorityUrgent {
			stats.Urgent++
		}
	}
	return stats
}

// ValidateFilter rejects filter values naming no known status, priority or
// department. Empty values and "all" always pass.
func ValidateFilter(filter models.QueueFilter) error {
	if status := normalize(filter.Status); status != "" && !models.Status(status).Valid() {
		return fmt.Errorf("unknown status %q: status must be one of %s", filter.Status, models.Names(models.Statuses))
	}
	if priority := normalize(filter.Priority); priority != "" && !models.Priority(priority).Valid() {
		return fmt.Errorf("unknown priority %q: priority must be one of %s", filter.Priority, models.Names(models.Priorities))
	}
	department := strings.TrimSpace(filter.Department)
	if department == "" || strings.EqualFold(department, models.FilterAll) {
		return nil
	}
	if _, ok := classifier.CategoryFor(models.Department(department)); !ok {
		return fmt.Errorf("unknown department %q: department must be one of %s", filter.Department, departmentNames())
	}
	return nil
}

func departmentNames() string {
	categories := classifier.Categories()
	departments := make([]models.Department, len(categories))
	for i, category := range categories {
		departments[i] = classifier.DepartmentFor(category)
	}
	return models.Names(departments)
}

func matchesSearch(c models.Complaint, needle string) bool {
	for _, field := range []string{c.Title, c.Description, c.StudentName, c.ID} {
		if strings.Contains(strings.ToLower(field), needle) {
			return true
		}
	}
	return false
}

func normalize(value string) string {
	value = strings.ToLower(strings.TrimSpace(value))
	if value == models.FilterAll {
		return ""
	}
	return value
}
