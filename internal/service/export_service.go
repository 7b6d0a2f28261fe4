package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/tahfizku/tahfiz-api/internal/models"
	appErrors "github.com/tahfizku/tahfiz-api/pkg/errors"
	"github.com/tahfizku/tahfiz-api/pkg/export"
	"github.com/tahfizku/tahfiz-api/pkg/jobs"
	"github.com/tahfizku/tahfiz-api/pkg/storage"
)

type rankingComputer interface {
	ComputeRanking(ctx context.Context, classID, semesterID string) ([]models.RankingRow, error)
}

// ExportService renders class rankings as downloadable documents. When
// an archive is configured, rendered documents are kept on disk and can
// be re-downloaded through signed, expiring links.
type ExportService struct {
	rankings rankingComputer
	csv      *export.CSVExporter
	pdf      *export.PDFExporter
	archive  *storage.Archive
	signer   *storage.DownloadSigner
	queue    *jobs.Queue
	logger   *zap.Logger
}

// NewExportService constructs the service. archive and signer may be
// nil, which disables signed download links.
func NewExportService(rankings rankingComputer, archive *storage.Archive, signer *storage.DownloadSigner, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &ExportService{
		rankings: rankings,
		csv:      export.NewCSVExporter(),
		pdf:      export.NewPDFExporter(),
		archive:  archive,
		signer:   signer,
		logger:   logger,
	}
	if archive != nil {
		s.queue = jobs.NewQueue("export-archive", s.runArchiveTask, jobs.Options{Workers: 1, MaxRetries: 2}, logger)
	}
	return s
}

// Start launches the background archive writer.
func (s *ExportService) Start(ctx context.Context) {
	if s.queue != nil {
		s.queue.Start(ctx)
	}
}

// Stop drains the background archive writer.
func (s *ExportService) Stop() {
	if s.queue != nil {
		s.queue.Stop()
	}
}

// RankingDocument is a rendered ranking table.
type RankingDocument struct {
	Content     []byte
	ContentType string
	Filename    string
}

// DownloadLink grants time-boxed access to an archived document.
type DownloadLink struct {
	Token     string    `json:"token"`
	Filename  string    `json:"filename"`
	ExpiresAt time.Time `json:"expires_at"`
}

var rankingHeaders = []string{"Rank", "Student", "Total Score", "Total Max", "Percentage"}

// RenderRanking computes the ranking and renders it in the requested
// format ("csv" or "pdf"). The rendered document is archived in the
// background when an archive is configured.
func (s *ExportService) RenderRanking(ctx context.Context, classID, semesterID, format string) (*RankingDocument, error) {
	doc, err := s.render(ctx, classID, semesterID, format)
	if err != nil {
		return nil, err
	}
	if s.queue != nil {
		task := jobs.Task{ID: doc.Filename, Kind: "archive", Payload: doc}
		if err := s.queue.Submit(task); err != nil {
			s.logger.Warn("failed to queue export for archival", zap.String("filename", doc.Filename), zap.Error(err))
		}
	}
	return doc, nil
}

// SignedDownloadLink renders the ranking, archives it synchronously and
// returns a signed link for later download.
func (s *ExportService) SignedDownloadLink(ctx context.Context, classID, semesterID, format string) (*DownloadLink, error) {
	if s.archive == nil || s.signer == nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "export downloads are disabled")
	}
	doc, err := s.render(ctx, classID, semesterID, format)
	if err != nil {
		return nil, err
	}
	if err := s.archive.Save(doc.Filename, doc.Content); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to archive export")
	}
	token, expiresAt, err := s.signer.Sign(doc.Filename)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sign download link")
	}
	return &DownloadLink{Token: token, Filename: doc.Filename, ExpiresAt: expiresAt}, nil
}

// FetchArchived resolves a signed token and returns the archived
// document it grants access to.
func (s *ExportService) FetchArchived(ctx context.Context, token string) (*RankingDocument, error) {
	if s.archive == nil || s.signer == nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "export downloads are disabled")
	}
	name, err := s.signer.Verify(token)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUnauthorized.Code, appErrors.ErrUnauthorized.Status, "invalid download token")
	}
	content, err := s.archive.Read(name)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "archived export not found")
	}
	return &RankingDocument{Content: content, ContentType: contentTypeFor(name), Filename: name}, nil
}

// CleanupArchive deletes archived documents older than the TTL.
func (s *ExportService) CleanupArchive(ttl time.Duration) {
	if s.archive == nil {
		return
	}
	deleted, err := s.archive.CleanupOlderThan(ttl)
	if err != nil {
		s.logger.Warn("export archive cleanup failed", zap.Error(err))
		return
	}
	if len(deleted) > 0 {
		s.logger.Info("export archive cleaned", zap.Int("deleted", len(deleted)))
	}
}

func (s *ExportService) runArchiveTask(_ context.Context, task jobs.Task) error {
	doc, ok := task.Payload.(*RankingDocument)
	if !ok {
		return fmt.Errorf("unexpected payload for task %s", task.ID)
	}
	return s.archive.Save(doc.Filename, doc.Content)
}

func (s *ExportService) render(ctx context.Context, classID, semesterID, format string) (*RankingDocument, error) {
	rows, err := s.rankings.ComputeRanking(ctx, classID, semesterID)
	if err != nil {
		return nil, err
	}

	dataset := export.Dataset{Headers: rankingHeaders}
	for _, row := range rows {
		rendered := map[string]string{
			"Rank":        "-",
			"Student":     row.StudentID,
			"Total Score": strconv.FormatFloat(row.TotalScore, 'f', 2, 64),
			"Total Max":   strconv.FormatFloat(row.TotalMaxScore, 'f', 2, 64),
			"Percentage":  "-",
		}
		if row.Rank != nil {
			rendered["Rank"] = strconv.Itoa(*row.Rank)
		}
		if row.OverallPercentage != nil {
			rendered["Percentage"] = strconv.FormatFloat(*row.OverallPercentage, 'f', 2, 64)
		}
		dataset.Rows = append(dataset.Rows, rendered)
	}

	switch format {
	case "csv":
		content, err := s.csv.Render(dataset)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render csv")
		}
		return &RankingDocument{
			Content:     content,
			ContentType: "text/csv",
			Filename:    fmt.Sprintf("ranking-%s.csv", classID),
		}, nil
	case "pdf":
		content, err := s.pdf.Render(dataset, fmt.Sprintf("Class Ranking %s", classID))
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render pdf")
		}
		return &RankingDocument{
			Content:     content,
			ContentType: "application/pdf",
			Filename:    fmt.Sprintf("ranking-%s.pdf", classID),
		}, nil
	default:
		return nil, appErrors.Validationf("format must be csv or pdf")
	}
}

func contentTypeFor(name string) string {
	switch {
	case strings.HasSuffix(name, ".csv"):
		return "text/csv"
	case strings.HasSuffix(name, ".pdf"):
		return "application/pdf"
	default:
		return "application/octet-stream"
	}
}
