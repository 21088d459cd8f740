package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/complaint-desk/internal/models"
	appErrors "github.com/noah-isme/complaint-desk/pkg/errors"
	"github.com/noah-isme/complaint-desk/pkg/export"
)

var queueExportHeaders = []string{
	"ID", "Title", "Description", "Category", "Department", "Priority", "Status",
	"Student", "Email", "Student ID", "Submitted At", "Resolved At", "Assigned To", "Admin Notes",
}

type queueReader interface {
	Queue(ctx context.Context, actor models.Account, filter models.QueueFilter) ([]models.Complaint, error)
}

type datasetRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

// ExportConfig tunes export behaviour.
type ExportConfig struct {
	Enabled bool
}

// ExportFile is a rendered queue projection ready to be served.
type ExportFile struct {
	Filename    string
	ContentType string
	Data        []byte
	Rows        int
}

// ExportService renders the staff queue projection into downloadable files.
type ExportService struct {
	queue     queueReader
	renderers map[export.Format]datasetRenderer
	logger    *zap.Logger
	cfg       ExportConfig
	now       func() time.Time
}

// NewExportService constructs an ExportService with the CSV, PDF and XLSX renderers.
func NewExportService(queue queueReader, cfg ExportConfig, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExportService{
		queue: queue,
		renderers: map[export.Format]datasetRenderer{
			export.FormatCSV:  export.NewCSVExporter(),
			export.FormatPDF:  export.NewPDFExporter(),
			export.FormatXLSX: export.NewXLSXExporter(),
		},
		logger: logger,
		cfg:    cfg,
		now:    time.Now,
	}
}

// Export renders the queue projection selected by filter in the requested format.
func (s *ExportService) Export(ctx context.Context, actor models.Account, filter models.QueueFilter, rawFormat string) (*ExportFile, error) {
	if !s.cfg.Enabled {
		return nil, appErrors.Clone(appErrors.ErrDisabled, "exports are disabled")
	}
	format, err := export.ParseFormat(rawFormat)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, err.Error())
	}

	complaints, err := s.queue.Queue(ctx, actor, filter)
	if err != nil {
		return nil, err
	}

	data, err := s.renderers[format].Render(queueDataset(complaints))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render export")
	}

	file := &ExportFile{
		Filename:    fmt.Sprintf("complaints-%s.%s", s.now().UTC().Format("20060102-150405"), format.Extension()),
		ContentType: format.ContentType(),
		Data:        data,
		Rows:        len(complaints),
	}
	s.logger.Info("queue exported", zap.String("format", string(format)), zap.Int("rows", file.Rows), zap.String("account_id", actor.ID))
	return file, nil
}

func queueDataset(complaints []models.Complaint) export.Dataset {
	rows := make([]map[string]string, 0, len(complaints))
	for _, c := range complaints {
		resolvedAt := ""
		if c.ResolvedAt != nil {
			resolvedAt = c.ResolvedAt.UTC().Format(time.RFC3339)
		}
		rows = append(rows, map[string]string{
			"ID":           c.ID,
			"Title":        c.Title,
			"Description":  c.Description,
			"Category":     string(c.Category),
			"Department":   string(c.Department),
			"Priority":     string(c.Priority),
			"Status":       string(c.Status),
			"Student":      c.StudentName,
			"Email":        c.StudentEmail,
			"Student ID":   c.StudentID,
			"Submitted At": c.SubmittedAt.UTC().Format(time.RFC3339),
			"Resolved At":  resolvedAt,
			"Assigned To":  c.AssignedTo,
			"Admin Notes":  c.AdminNotes,
		})
	}
	return export.Dataset{Title: "Complaint Queue", Headers: queueExportHeaders, Rows: rows}
}
