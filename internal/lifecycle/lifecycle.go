// Package lifecycle stamps new complaints and applies staff status transitions.
//
// Every status may move to every other status; resolved and rejected are only
// conventionally final. ResolvedAt is written on each move to resolved and is
// never cleared afterwards.
package lifecycle

import (
	"fmt"
	"strings"
	"time"

	"github.com/noah-isme/complaint-desk/internal/classifier"
	"github.com/noah-isme/complaint-desk/internal/models"
)

// Open builds a pending complaint for submitter from the classifier result.
func Open(class models.Classification, submitter models.Account, title, description string, now time.Time) models.Complaint {
	return models.Complaint{
		ID:           classifier.NewComplaintID(now),
		Title:        title,
		Description:  description,
		Category:     class.Category,
		Priority:     class.Priority,
		Status:       models.StatusPending,
		StudentName:  submitter.Name,
		StudentEmail: submitter.Email,
		StudentID:    submitter.StudentID,
		Department:   class.Department,
		SubmittedAt:  now,
	}
}

// Apply moves c to update.Status on behalf of actor.
func Apply(c *models.Complaint, update models.StatusUpdate, actor models.Account, now time.Time) {
	c.Status = update.Status
	if update.Notes != nil && *update.Notes != "" {
		c.AdminNotes = *update.Notes
	}
	if update.Status == models.StatusResolved {
		resolvedAt := now
		c.ResolvedAt = &resolvedAt
	}
	c.AssignedTo = actor.Name
}

// ApplyByID applies update to the complaint with id inside complaints. It
// reports whether a complaint matched; an unknown id leaves the slice untouched.
func ApplyByID(complaints []models.Complaint, id string, update models.StatusUpdate, actor models.Account, now time.Time) bool {
	matched := false
	for i := range complaints {
		if complaints[i].ID == id {
			Apply(&complaints[i], update, actor, now)
			matched = true
		}
	}
	return matched
}

// ParseStatus validates a status coming from outside the core.
func ParseStatus(raw string) (models.Status, error) {
	status := models.Status(strings.ToLower(strings.TrimSpace(raw)))
	if !status.Valid() {
		return "", fmt.Errorf("unknown status %q: status must be one of %s", raw, models.Names(models.Statuses))
	}
	return status, nil
}
