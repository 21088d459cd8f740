package service

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/complaint-desk/internal/models"
	"github.com/noah-isme/complaint-desk/internal/notify"
	appErrors "github.com/noah-isme/complaint-desk/pkg/errors"
)

func strPtr(s string) *string { return &s }

func TestSubmitEndToEnd(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	asha := f.student(t, "Asha Rao", "asha@college.edu", "S-101")

	complaint, err := f.desk.Submit(ctx, asha, models.SubmitComplaintRequest{
		Title:       "Urgent: broken water pipe in hostel room",
		Description: "leak is getting worse, emergency repair needed",
	})
	require.NoError(t, err)

	assert.Equal(t, models.CategoryWaterSanitation, complaint.Category)
	assert.Equal(t, models.DepartmentWaterSanitation, complaint.Department)
	assert.Equal(t, models.PriorityUrgent, complaint.Priority)
	assert.Equal(t, models.StatusPending, complaint.Status)
	assert.Nil(t, complaint.ResolvedAt)
	assert.Equal(t, "Asha Rao", complaint.StudentName)
	assert.Equal(t, "asha@college.edu", complaint.StudentEmail)
	assert.Equal(t, "S-101", complaint.StudentID)
	assert.Regexp(t, `^CMP[0-9A-Z]+$`, complaint.ID)

	stored, err := f.complaints.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []models.Complaint{*complaint}, stored)

	events := f.notifier.sent()
	require.Len(t, events, 1)
	assert.Equal(t, notify.EventSubmitted, events[0].event)
	assert.Equal(t, complaint.ID, events[0].complaint.ID)
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.submissions.WithLabelValues("water_sanitation", "urgent")))
}

func TestSubmitRequiresStudentAndText(t *testing.T) {
	f := newFixture(t)
	super := f.superAdmin(t)
	asha := f.student(t, "Asha", "asha@college.edu", "S-1")

	_, err := f.desk.Submit(context.Background(), super, models.SubmitComplaintRequest{Title: "t", Description: "d"})
	assert.ErrorIs(t, err, appErrors.ErrForbidden)

	_, err = f.desk.Submit(context.Background(), asha, models.SubmitComplaintRequest{Title: "   ", Description: "d"})
	assert.ErrorIs(t, err, appErrors.ErrValidation)
}

func TestPreviewDoesNotStore(t *testing.T) {
	f := newFixture(t)
	asha := f.student(t, "Asha", "asha@college.edu", "S-1")

	class, err := f.desk.Preview(asha, models.SubmitComplaintRequest{Title: "Exam timetable clash", Description: "please fix"})
	require.NoError(t, err)
	assert.Equal(t, models.CategoryAcademic, class.Category)
	assert.Equal(t, models.DepartmentAcademic, class.Department)
	assert.Equal(t, 2, class.Scores[models.CategoryAcademic])
	assert.Equal(t, 1, class.Scores[models.CategoryInfrastructure])
	assert.Len(t, class.Scores, 5)

	stored, err := f.complaints.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, stored)
}

func TestUpdateStatusResolveThenReopen(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	asha := f.student(t, "Asha", "asha@college.edu", "S-1")
	super := f.superAdmin(t)

	complaint, err := f.desk.Submit(ctx, asha, models.SubmitComplaintRequest{Title: "Leaking tap", Description: "washroom"})
	require.NoError(t, err)

	require.NoError(t, f.desk.UpdateStatus(ctx, super, complaint.ID, models.StatusUpdateRequest{Status: "resolved", Notes: strPtr("Tap replaced")}))
	stored, err := f.complaints.List(ctx)
	require.NoError(t, err)
	resolved := stored[0]
	assert.Equal(t, models.StatusResolved, resolved.Status)
	require.NotNil(t, resolved.ResolvedAt)
	assert.Equal(t, "Tap replaced", resolved.AdminNotes)
	assert.Equal(t, "Super Administrator", resolved.AssignedTo)

	require.NoError(t, f.desk.UpdateStatus(ctx, super, complaint.ID, models.StatusUpdateRequest{Status: "in_progress", Notes: strPtr("")}))
	stored, err = f.complaints.List(ctx)
	require.NoError(t, err)
	reopened := stored[0]
	assert.Equal(t, models.StatusInProgress, reopened.Status)
	assert.Equal(t, "Tap replaced", reopened.AdminNotes)
	require.NotNil(t, reopened.ResolvedAt)
	assert.True(t, resolved.ResolvedAt.Equal(*reopened.ResolvedAt))

	events := f.notifier.sent()
	require.Len(t, events, 3)
	assert.Equal(t, notify.EventStatusChanged, events[2].event)
	assert.Equal(t, models.StatusInProgress, events[2].complaint.Status)
}

func TestUpdateStatusUnknownIDIsSilent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	asha := f.student(t, "Asha", "asha@college.edu", "S-1")
	super := f.superAdmin(t)
	_, err := f.desk.Submit(ctx, asha, models.SubmitComplaintRequest{Title: "Fan", Description: "noisy"})
	require.NoError(t, err)
	before, err := f.complaints.List(ctx)
	require.NoError(t, err)

	err = f.desk.UpdateStatus(ctx, super, "CMPDOESNOTEXIST", models.StatusUpdateRequest{Status: "resolved"})
	require.NoError(t, err)

	after, err := f.complaints.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, before, after)
	assert.Len(t, f.notifier.sent(), 1)
}

func TestUpdateStatusGuards(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	asha := f.student(t, "Asha", "asha@college.edu", "S-1")
	super := f.superAdmin(t)
	complaint, err := f.desk.Submit(ctx, asha, models.SubmitComplaintRequest{Title: "Fan", Description: "noisy"})
	require.NoError(t, err)

	err = f.desk.UpdateStatus(ctx, asha, complaint.ID, models.StatusUpdateRequest{Status: "resolved"})
	assert.ErrorIs(t, err, appErrors.ErrForbidden)

	err = f.desk.UpdateStatus(ctx, super, complaint.ID, models.StatusUpdateRequest{Status: "closed"})
	require.ErrorIs(t, err, appErrors.ErrValidation)
	assert.Contains(t, appErrors.FromError(err).Message, "pending, in_progress, resolved, rejected")

	err = f.desk.UpdateStatus(ctx, super, complaint.ID, models.StatusUpdateRequest{})
	assert.ErrorIs(t, err, appErrors.ErrValidation)
}

func TestQueueProjectionAndStats(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	asha := f.student(t, "Asha Rao", "asha@college.edu", "S-1")
	ben := f.student(t, "Ben Paul", "ben@college.edu", "S-2")
	super := f.superAdmin(t)

	low, err := f.desk.Submit(ctx, asha, models.SubmitComplaintRequest{Title: "Menu", Description: "more fruit at lunch"})
	require.NoError(t, err)
	urgentOld, err := f.desk.Submit(ctx, ben, models.SubmitComplaintRequest{Title: "Projector broken", Description: "lecture hall 2"})
	require.NoError(t, err)
	medium, err := f.desk.Submit(ctx, asha, models.SubmitComplaintRequest{Title: "Wifi improvement request", Description: "hostel block B"})
	require.NoError(t, err)
	urgentNew, err := f.desk.Submit(ctx, ben, models.SubmitComplaintRequest{Title: "Emergency", Description: "sewage overflow near hostel"})
	require.NoError(t, err)

	require.Equal(t, models.PriorityLow, low.Priority)
	require.Equal(t, models.PriorityMedium, medium.Priority)

	queue, err := f.desk.Queue(ctx, super, models.QueueFilter{})
	require.NoError(t, err)
	assert.Equal(t, []string{urgentNew.ID, urgentOld.ID, medium.ID, low.ID}, complaintIDs(queue))

	queue, err = f.desk.Queue(ctx, super, models.QueueFilter{Priority: "urgent", Search: "BEN"})
	require.NoError(t, err)
	assert.Equal(t, []string{urgentNew.ID, urgentOld.ID}, complaintIDs(queue))

	require.NoError(t, f.desk.UpdateStatus(ctx, super, urgentOld.ID, models.StatusUpdateRequest{Status: "resolved"}))
	stats, err := f.desk.Stats(ctx, super)
	require.NoError(t, err)
	assert.Equal(t, models.QueueStats{Total: 4, Pending: 3, Resolved: 1, Urgent: 2}, stats)

	mine, err := f.desk.Mine(ctx, asha, "all")
	require.NoError(t, err)
	assert.Equal(t, []string{low.ID, medium.ID}, complaintIDs(mine))

	mine, err = f.desk.Mine(ctx, ben, "resolved")
	require.NoError(t, err)
	assert.Equal(t, []string{urgentOld.ID}, complaintIDs(mine))

	own, err := f.desk.MineStats(ctx, ben)
	require.NoError(t, err)
	assert.Equal(t, models.QueueStats{Total: 2, Pending: 1, Resolved: 1, Urgent: 2}, own)

	_, err = f.desk.Queue(ctx, asha, models.QueueFilter{})
	assert.ErrorIs(t, err, appErrors.ErrForbidden)
	_, err = f.desk.Mine(ctx, super, "")
	assert.ErrorIs(t, err, appErrors.ErrForbidden)
}

func TestQueueRejectsUnknownFilterValues(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	asha := f.student(t, "Asha Rao", "asha@college.edu", "S-1")
	super := f.superAdmin(t)

	_, err := f.desk.Queue(ctx, super, models.QueueFilter{Priority: "critical"})
	require.ErrorIs(t, err, appErrors.ErrValidation)
	assert.Contains(t, appErrors.FromError(err).Message, "low, medium, high, urgent")

	_, err = f.desk.Queue(ctx, super, models.QueueFilter{Department: "Library"})
	assert.ErrorIs(t, err, appErrors.ErrValidation)

	_, err = f.desk.Mine(ctx, asha, "closed")
	require.ErrorIs(t, err, appErrors.ErrValidation)
	assert.Contains(t, appErrors.FromError(err).Message, "pending, in_progress, resolved, rejected")

	_, err = f.desk.Queue(ctx, asha, models.QueueFilter{Priority: "critical"})
	assert.ErrorIs(t, err, appErrors.ErrForbidden)
}

func TestNotifierFailureDoesNotFailSubmission(t *testing.T) {
	f := newFixture(t)
	f.notifier.err = errors.New("broker down")
	asha := f.student(t, "Asha", "asha@college.edu", "S-1")

	complaint, err := f.desk.Submit(context.Background(), asha, models.SubmitComplaintRequest{Title: "Fan", Description: "noisy"})
	require.NoError(t, err)
	assert.NotEmpty(t, complaint.ID)
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.notifyFailures.WithLabelValues("submitted")))
}

func TestStoreFailureSurfacesAsInternal(t *testing.T) {
	f := newFixtureWithStore(t, failingStore{err: errStoreDown})
	student := models.Account{ID: "s", Name: "Asha", Email: "asha@college.edu", Role: models.RoleStudent}

	_, err := f.desk.Submit(context.Background(), student, models.SubmitComplaintRequest{Title: "Fan", Description: "noisy"})
	assert.ErrorIs(t, err, appErrors.ErrInternal)

	_, err = f.desk.Mine(context.Background(), student, "")
	assert.ErrorIs(t, err, appErrors.ErrInternal)
	assert.Empty(t, f.notifier.sent())
}

func complaintIDs(complaints []models.Complaint) []string {
	out := make([]string, len(complaints))
	for i, c := range complaints {
		out[i] = c.ID
	}
	return out
}
