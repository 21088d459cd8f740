// Package classifier maps free complaint text to a category, routing
// department and priority using fixed keyword tables.
package classifier

import (
	"strconv"
	"strings"
	"time"

	"github.com/noah-isme/complaint-desk/internal/models"
)

type categoryRule struct {
	category   models.Category
	department models.Department
	keywords   []string
}

// Order matters: on equal scores the earlier category keeps the lead.
var categoryRules = []categoryRule{
	{
		category:   models.CategoryWaterSanitation,
		department: models.DepartmentWaterSanitation,
		keywords:   []string{"water", "toilet", "bathroom", "washroom", "drainage", "plumbing", "leak", "flush", "tap", "pipe", "sewage", "hygiene", "cleaning"},
	},
	{
		category:   models.CategoryFoodCanteen,
		department: models.DepartmentFoodCanteen,
		keywords:   []string{"food", "canteen", "mess", "cafeteria", "meal", "lunch", "dinner", "breakfast", "quality", "taste", "hygiene", "cooking"},
	},
	{
		category:   models.CategoryInfrastructure,
		department: models.DepartmentInfrastructure,
		keywords:   []string{"building", "classroom", "ceiling", "wall", "door", "window", "furniture", "chair", "table", "fan", "light", "electricity", "ac", "projector"},
	},
	{
		category:   models.CategoryAcademic,
		department: models.DepartmentAcademic,
		keywords:   []string{"teacher", "professor", "class", "exam", "grade", "syllabus", "timetable", "assignment", "lecture", "course", "subject", "marks"},
	},
	{
		category:   models.CategoryHostel,
		department: models.DepartmentHostel,
		keywords:   []string{"hostel", "room", "bed", "roommate", "warden", "mess", "laundry", "wifi", "internet", "accommodation", "dormitory"},
	},
}

type priorityTier struct {
	priority models.Priority
	keywords []string
}

// Checked top to bottom; the first tier with any hit wins.
var priorityTiers = []priorityTier{
	{priority: models.PriorityUrgent, keywords: []string{"urgent", "emergency", "broken", "not working", "immediate", "asap"}},
	{priority: models.PriorityHigh, keywords: []string{"important", "serious", "problem", "issue", "complaint"}},
	{priority: models.PriorityMedium, keywords: []string{"request", "improvement", "suggestion"}},
}

const (
	defaultCategory = models.CategoryInfrastructure
	defaultPriority = models.PriorityLow
	idPrefix        = "CMP"
)

// Classify derives the category, department and priority of a complaint. It
// never fails: text without any keyword lands in infrastructure at low priority.
func Classify(title, description string) models.Classification {
	text := strings.ToLower(title + " " + description)

	best := defaultCategory
	bestScore := 0
	for _, rule := range categoryRules {
		if score := countMatches(text, rule.keywords); score > bestScore {
			bestScore = score
			best = rule.category
		}
	}

	return models.Classification{
		Category:   best,
		Department: DepartmentFor(best),
		Priority:   priorityOf(text),
	}
}

// Score returns the per-category keyword score for the given text.
func Score(title, description string) map[models.Category]int {
	text := strings.ToLower(title + " " + description)
	scores := make(map[models.Category]int, len(categoryRules))
	for _, rule := range categoryRules {
		scores[rule.category] = countMatches(text, rule.keywords)
	}
	return scores
}

// DepartmentFor returns the fixed routing partner of category.
func DepartmentFor(category models.Category) models.Department {
	for _, rule := range categoryRules {
		if rule.category == category {
			return rule.department
		}
	}
	return DepartmentFor(defaultCategory)
}

// CategoryFor is the inverse of DepartmentFor.
func CategoryFor(department models.Department) (models.Category, bool) {
	for _, rule := range categoryRules {
		if rule.department == department {
			return rule.category, true
		}
	}
	return "", false
}

// Categories returns the categories in tie-breaking order.
func Categories() []models.Category {
	out := make([]models.Category, len(categoryRules))
	for i, rule := range categoryRules {
		out[i] = rule.category
	}
	return out
}

// NewComplaintID builds a complaint id from the millisecond clock. Uniqueness
// relies on human-paced submissions; the store is not consulted.
func NewComplaintID(now time.Time) string {
	return idPrefix + strings.ToUpper(strconv.FormatInt(now.UnixMilli(), 36))
}

func priorityOf(text string) models.Priority {
	for _, tier := range priorityTiers {
		if countMatches(text, tier.keywords) > 0 {
			return tier.priority
		}
	}
	return defaultPriority
}

// countMatches counts distinct keywords present in text, not occurrences.
func countMatches(text string, keywords []string) int {
	n := 0
	for _, kw := range keywords {
		if strings.Contains(text, kw) {
			n++
		}
	}
	return n
}
