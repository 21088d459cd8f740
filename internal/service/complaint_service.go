package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/complaint-desk/internal/access"
	"github.com/noah-isme/complaint-desk/internal/classifier"
	"github.com/noah-isme/complaint-desk/internal/lifecycle"
	"github.com/noah-isme/complaint-desk/internal/models"
	"github.com/noah-isme/complaint-desk/internal/notify"
	"github.com/noah-isme/complaint-desk/internal/triage"
	appErrors "github.com/noah-isme/complaint-desk/pkg/errors"
	"github.com/noah-isme/complaint-desk/pkg/middleware/requestid"
)

type complaintRepository interface {
	List(ctx context.Context) ([]models.Complaint, error)
	ReplaceAll(ctx context.Context, complaints []models.Complaint) error
}

// ComplaintService runs submission, triage and the queue projections.
type ComplaintService struct {
	complaints complaintRepository
	writer     storeWriter
	policy     access.Policy
	notifier   notify.Notifier
	validator  *validator.Validate
	metrics    *MetricsService
	logger     *zap.Logger
	now        func() time.Time
}

// ComplaintServiceParams groups constructor dependencies.
type ComplaintServiceParams struct {
	Complaints complaintRepository
	Writer     storeWriter
	Policy     access.Policy
	Notifier   notify.Notifier
	Validator  *validator.Validate
	Metrics    *MetricsService
	Logger     *zap.Logger
}

// NewComplaintService constructs a ComplaintService.
func NewComplaintService(params ComplaintServiceParams) *ComplaintService {
	if params.Logger == nil {
		params.Logger = zap.NewNop()
	}
	if params.Validator == nil {
		params.Validator = validator.New()
	}
	if params.Policy == nil {
		params.Policy = access.NewRolePolicy("")
	}
	if params.Notifier == nil {
		params.Notifier = notify.Nop{}
	}
	return &ComplaintService{
		complaints: params.Complaints,
		writer:     params.Writer,
		policy:     params.Policy,
		notifier:   params.Notifier,
		validator:  params.Validator,
		metrics:    params.Metrics,
		logger:     params.Logger,
		now:        time.Now,
	}
}

// Preview classifies text without storing anything and reports the keyword
// score of every category.
func (s *ComplaintService) Preview(actor models.Account, req models.SubmitComplaintRequest) (models.ClassificationPreview, error) {
	if !s.policy.Allows(actor, access.CapSubmit) {
		return models.ClassificationPreview{}, appErrors.Clone(appErrors.ErrForbidden, "only students can submit complaints")
	}
	return models.ClassificationPreview{
		Classification: classifier.Classify(req.Title, req.Description),
		Scores:         classifier.Score(req.Title, req.Description),
	}, nil
}

// Submit classifies and appends a new pending complaint for submitter.
func (s *ComplaintService) Submit(ctx context.Context, submitter models.Account, req models.SubmitComplaintRequest) (*models.Complaint, error) {
	if !s.policy.Allows(submitter, access.CapSubmit) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only students can submit complaints")
	}
	req.Title = strings.TrimSpace(req.Title)
	req.Description = strings.TrimSpace(req.Description)
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid complaint payload")
	}

	class := classifier.Classify(req.Title, req.Description)
	var complaint models.Complaint
	err := runMutation(ctx, s.writer, s.metrics, "submit_complaint", func(ctx context.Context) error {
		all, err := s.complaints.List(ctx)
		if err != nil {
			return err
		}
		complaint = lifecycle.Open(class, submitter, req.Title, req.Description, s.now().UTC())
		return s.complaints.ReplaceAll(ctx, append(all, complaint))
	})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store complaint")
	}

	s.metrics.RecordSubmission(string(complaint.Category), string(complaint.Priority))
	s.logger.Info("complaint submitted",
		zap.String("complaint_id", complaint.ID),
		zap.String("category", string(complaint.Category)),
		zap.String("priority", string(complaint.Priority)),
		zap.String("department", string(complaint.Department)),
	)
	s.publish(ctx, notify.EventSubmitted, complaint)
	return &complaint, nil
}

// UpdateStatus applies a staff transition to the complaint with id. An
// unknown id is ignored and reported as success.
func (s *ComplaintService) UpdateStatus(ctx context.Context, actor models.Account, id string, req models.StatusUpdateRequest) error {
	if !s.policy.Allows(actor, access.CapTriage) {
		return appErrors.Clone(appErrors.ErrForbidden, "only staff can update complaints")
	}
	if err := s.validator.Struct(req); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid status payload")
	}
	status, err := lifecycle.ParseStatus(req.Status)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, err.Error())
	}
	update := models.StatusUpdate{Status: status, Notes: req.Notes}

	var (
		updated models.Complaint
		matched bool
	)
	err = runMutation(ctx, s.writer, s.metrics, "update_status", func(ctx context.Context) error {
		all, err := s.complaints.List(ctx)
		if err != nil {
			return err
		}
		// An unknown id leaves the collection unchanged, so the rewrite is skipped.
		if matched = lifecycle.ApplyByID(all, id, update, actor, s.now().UTC()); !matched {
			return nil
		}
		for _, c := range all {
			if c.ID == id {
				updated = c
				break
			}
		}
		return s.complaints.ReplaceAll(ctx, all)
	})
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update complaint")
	}
	if !matched {
		s.logger.Debug("status update for unknown complaint ignored", zap.String("complaint_id", id))
		return nil
	}

	s.metrics.RecordStatusChange(string(status))
	s.logger.Info("complaint status updated",
		zap.String("complaint_id", id),
		zap.String("status", string(status)),
		zap.String("assigned_to", updated.AssignedTo),
	)
	s.publish(ctx, notify.EventStatusChanged, updated)
	return nil
}

// Queue returns the staff projection of every complaint.
func (s *ComplaintService) Queue(ctx context.Context, actor models.Account, filter models.QueueFilter) ([]models.Complaint, error) {
	all, err := s.load(ctx, actor, access.CapViewAll)
	if err != nil {
		return nil, err
	}
	if err := triage.ValidateFilter(filter); err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, err.Error())
	}
	return triage.Project(all, filter), nil
}

// Stats returns the counters over every complaint.
func (s *ComplaintService) Stats(ctx context.Context, actor models.Account) (models.QueueStats, error) {
	all, err := s.load(ctx, actor, access.CapViewAll)
	if err != nil {
		return models.QueueStats{}, err
	}
	return triage.Summarize(all), nil
}

// Mine returns the complaints submitted by actor, optionally narrowed to one status.
func (s *ComplaintService) Mine(ctx context.Context, actor models.Account, status string) ([]models.Complaint, error) {
	all, err := s.load(ctx, actor, access.CapViewOwn)
	if err != nil {
		return nil, err
	}
	if err := triage.ValidateFilter(models.QueueFilter{Status: status}); err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, err.Error())
	}
	return triage.Own(all, actor, status), nil
}

// MineStats returns the counters over the complaints submitted by actor.
func (s *ComplaintService) MineStats(ctx context.Context, actor models.Account) (models.QueueStats, error) {
	all, err := s.load(ctx, actor, access.CapViewOwn)
	if err != nil {
		return models.QueueStats{}, err
	}
	return triage.Summarize(triage.Own(all, actor, "")), nil
}

func (s *ComplaintService) load(ctx context.Context, actor models.Account, capability access.Capability) ([]models.Complaint, error) {
	if !s.policy.Allows(actor, capability) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, fmt.Sprintf("missing capability %s", capability))
	}
	all, err := s.complaints.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load complaints")
	}
	return all, nil
}

func (s *ComplaintService) publish(ctx context.Context, event notify.Event, complaint models.Complaint) {
	if err := s.notifier.Notify(ctx, event, complaint); err != nil {
		s.metrics.RecordNotifyFailure(string(event))
		s.logger.Warn("failed to notify department",
			zap.String("event", string(event)),
			zap.String("complaint_id", complaint.ID),
			zap.String("request_id", requestid.FromContext(ctx)),
			zap.Error(err),
		)
	}
}
