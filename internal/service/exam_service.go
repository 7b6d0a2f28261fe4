package service

import (
	"context"
	"database/sql"
	"errors"
	"math"
	"sort"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/tahfizku/tahfiz-api/internal/models"
	appErrors "github.com/tahfizku/tahfiz-api/pkg/errors"
)

type examRepository interface {
	InsertBatch(ctx context.Context, entries []models.ExamEntry) error
	List(ctx context.Context, filter models.ExamFilter) ([]models.ExamEntry, error)
	ListByKey(ctx context.Context, key models.ExamBatchKey) ([]models.ExamEntry, error)
	GetEntry(ctx context.Context, id string) (*models.ExamEntry, error)
	UpdateEntry(ctx context.Context, entry *models.ExamEntry) error
	UpdateBatch(ctx context.Context, key models.ExamBatchKey, next models.ExamBatchKey) (int64, error)
	DeleteBatch(ctx context.Context, key models.ExamBatchKey) (int64, error)
	DeleteEntry(ctx context.Context, id string) error
}

// ExamService records exam batches and derives per-subject performance
// and the tie-aware class ranking.
type ExamService struct {
	repo      examRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewExamService constructs the service.
func NewExamService(repo examRepository, validate *validator.Validate, logger *zap.Logger) *ExamService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExamService{repo: repo, validator: validate, logger: logger}
}

// ExamEntryRequest is one student row in a batch payload.
type ExamEntryRequest struct {
	StudentID     string   `json:"student_id" validate:"required"`
	Score         *float64 `json:"score"`
	IsAbsent      bool     `json:"is_absent"`
	AbsenceReason *string  `json:"absence_reason"`
	Notes         *string  `json:"notes"`
}

// RecordExamBatchRequest creates every entry of one exam sitting.
type RecordExamBatchRequest struct {
	ClassID    string             `json:"class_id" validate:"required"`
	Subject    string             `json:"subject" validate:"required"`
	ExamDate   time.Time          `json:"exam_date" validate:"required"`
	SemesterID string             `json:"semester_id" validate:"required"`
	MaxScore   float64            `json:"max_score" validate:"required,gt=0"`
	Entries    []ExamEntryRequest `json:"entries" validate:"required,min=1"`
}

// ExamBatchPatch changes batch identity fields for every entry.
type ExamBatchPatch struct {
	Subject    *string    `json:"subject"`
	ExamDate   *time.Time `json:"exam_date"`
	SemesterID *string    `json:"semester_id"`
	MaxScore   *float64   `json:"max_score"`
}

// ExamEntryPatch changes one student's score, absence or notes.
type ExamEntryPatch struct {
	Score         *float64 `json:"score"`
	IsAbsent      bool     `json:"is_absent"`
	AbsenceReason *string  `json:"absence_reason"`
	Notes         *string  `json:"notes"`
}

// RecordBatch validates and writes the whole batch atomically. The
// first invalid entry rejects all of them; nothing is persisted.
func (s *ExamService) RecordBatch(ctx context.Context, req RecordExamBatchRequest) (*models.ExamBatch, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid exam batch payload")
	}
	key := models.ExamBatchKey{
		ClassID:    req.ClassID,
		Subject:    req.Subject,
		ExamDate:   dateOnly(req.ExamDate),
		SemesterID: req.SemesterID,
		MaxScore:   req.MaxScore,
	}
	entries := make([]models.ExamEntry, 0, len(req.Entries))
	for i, in := range req.Entries {
		entry := models.ExamEntry{
			StudentID:  in.StudentID,
			ClassID:    key.ClassID,
			Subject:    key.Subject,
			SemesterID: key.SemesterID,
			ExamDate:   key.ExamDate,
			MaxScore:   key.MaxScore,
			Notes:      in.Notes,
		}
		if err := applyScoreFields(&entry, in.Score, in.IsAbsent, in.AbsenceReason, in.Notes, key.MaxScore, i); err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	if err := s.repo.InsertBatch(ctx, entries); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record exam batch")
	}
	return &models.ExamBatch{Key: key, Entries: entries}, nil
}

// applyScoreFields enforces the score/absence exclusivity rules shared
// by batch create and single-entry edits. idx is -1 for edits.
func applyScoreFields(entry *models.ExamEntry, score *float64, isAbsent bool, reason *string, notes *string, maxScore float64, idx int) error {
	at := func(field string) *appErrors.Error {
		if idx >= 0 {
			return appErrors.Validationf("entry %d: %s", idx, field)
		}
		return appErrors.Validationf("%s", field)
	}
	if isAbsent {
		if score != nil {
			return at("absent entries must not carry a score")
		}
		if reason == nil {
			return at("absence_reason is required for absent entries")
		}
		r := models.AbsenceReason(*reason)
		if !r.Valid() {
			return at("absence_reason must be one of SICK, PARENT_REQUEST, NOT_NOTIFIED, OTHER")
		}
		if r == models.AbsenceOther && (notes == nil || *notes == "") {
			return at("notes are required when absence_reason is OTHER")
		}
		entry.IsAbsent = true
		entry.AbsenceReason = &r
		entry.Score = nil
		return nil
	}
	if score == nil {
		return at("score is required for present entries")
	}
	if *score < 0 || *score > maxScore {
		return at("score must be between 0 and max_score")
	}
	entry.IsAbsent = false
	entry.AbsenceReason = nil
	entry.Score = score
	return nil
}

// EditBatch moves every entry sharing the key to the patched identity.
func (s *ExamService) EditBatch(ctx context.Context, key models.ExamBatchKey, patch ExamBatchPatch) (*models.ExamBatch, error) {
	next := key
	if patch.Subject != nil {
		next.Subject = *patch.Subject
	}
	if patch.ExamDate != nil {
		next.ExamDate = dateOnly(*patch.ExamDate)
	}
	if patch.SemesterID != nil {
		next.SemesterID = *patch.SemesterID
	}
	if patch.MaxScore != nil {
		if *patch.MaxScore <= 0 {
			return nil, appErrors.Validationf("max_score must be positive")
		}
		next.MaxScore = *patch.MaxScore
	}
	if patch.MaxScore != nil && next.MaxScore < key.MaxScore {
		existing, err := s.repo.ListByKey(ctx, key)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load exam batch")
		}
		for _, entry := range existing {
			if entry.Score != nil && *entry.Score > next.MaxScore {
				return nil, appErrors.Validationf("max_score %.2f is below an existing score of %.2f", next.MaxScore, *entry.Score)
			}
		}
	}
	affected, err := s.repo.UpdateBatch(ctx, key, next)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to edit exam batch")
	}
	if affected == 0 {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "exam batch not found")
	}
	entries, err := s.repo.ListByKey(ctx, next)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to reload exam batch")
	}
	return &models.ExamBatch{Key: next, Entries: entries}, nil
}

// EditEntry rewrites one student's score, absence and notes.
func (s *ExamService) EditEntry(ctx context.Context, entryID string, patch ExamEntryPatch) (*models.ExamEntry, error) {
	entry, err := s.repo.GetEntry(ctx, entryID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "exam entry not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load exam entry")
	}
	entry.Notes = patch.Notes
	if err := applyScoreFields(entry, patch.Score, patch.IsAbsent, patch.AbsenceReason, patch.Notes, entry.MaxScore, -1); err != nil {
		return nil, err
	}
	if err := s.repo.UpdateEntry(ctx, entry); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "exam entry not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to edit exam entry")
	}
	return entry, nil
}

// DeleteBatch removes every entry of a batch.
func (s *ExamService) DeleteBatch(ctx context.Context, key models.ExamBatchKey) error {
	affected, err := s.repo.DeleteBatch(ctx, key)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete exam batch")
	}
	if affected == 0 {
		return appErrors.Clone(appErrors.ErrNotFound, "exam batch not found")
	}
	return nil
}

// DeleteEntry removes one entry.
func (s *ExamService) DeleteEntry(ctx context.Context, entryID string) error {
	if err := s.repo.DeleteEntry(ctx, entryID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "exam entry not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete exam entry")
	}
	return nil
}

// ComputePerformance projects entries with their derived percentage.
// Absent rows carry no percentage. Ordering is whatever the store
// returned; this is a projection, not the ranking.
func (s *ExamService) ComputePerformance(ctx context.Context, filter models.ExamFilter) ([]models.PerformanceRow, error) {
	if filter.ClassID == "" {
		return nil, appErrors.Validationf("class_id is required")
	}
	entries, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load exam entries")
	}
	rows := make([]models.PerformanceRow, 0, len(entries))
	for _, entry := range entries {
		row := models.PerformanceRow{ExamEntry: entry}
		if !entry.IsAbsent && entry.Score != nil && entry.MaxScore > 0 {
			pct := *entry.Score / entry.MaxScore * 100
			row.Percentage = &pct
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// ComputeRanking aggregates every subject in scope per student and
// assigns competition ranks: percentages equal at two decimals share a
// rank, and the next distinct percentage is ranked one past the number
// of students strictly ahead, so ranks may skip values.
func (s *ExamService) ComputeRanking(ctx context.Context, classID, semesterID string) ([]models.RankingRow, error) {
	if classID == "" {
		return nil, appErrors.Validationf("class_id is required")
	}
	entries, err := s.repo.List(ctx, models.ExamFilter{ClassID: classID, SemesterID: semesterID})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load exam entries")
	}

	totals := make(map[string]*models.RankingRow)
	order := make([]string, 0)
	for _, entry := range entries {
		row, ok := totals[entry.StudentID]
		if !ok {
			row = &models.RankingRow{StudentID: entry.StudentID}
			totals[entry.StudentID] = row
			order = append(order, entry.StudentID)
		}
		if entry.IsAbsent || entry.Score == nil {
			continue
		}
		row.TotalScore += *entry.Score
		row.TotalMaxScore += entry.MaxScore
	}

	ranked := make([]models.RankingRow, 0, len(order))
	unranked := make([]models.RankingRow, 0)
	for _, studentID := range order {
		row := totals[studentID]
		if row.TotalMaxScore <= 0 {
			// absentee-only: listed, never ranked
			unranked = append(unranked, *row)
			continue
		}
		pct := roundPercent(row.TotalScore / row.TotalMaxScore * 100)
		row.OverallPercentage = &pct
		ranked = append(ranked, *row)
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		if *ranked[i].OverallPercentage != *ranked[j].OverallPercentage {
			return *ranked[i].OverallPercentage > *ranked[j].OverallPercentage
		}
		return ranked[i].StudentID < ranked[j].StudentID
	})
	for i := range ranked {
		if i > 0 && *ranked[i].OverallPercentage == *ranked[i-1].OverallPercentage {
			ranked[i].Rank = ranked[i-1].Rank
			continue
		}
		rank := i + 1
		ranked[i].Rank = &rank
	}

	sort.SliceStable(unranked, func(i, j int) bool { return unranked[i].StudentID < unranked[j].StudentID })
	return append(ranked, unranked...), nil
}

// roundPercent fixes percentages at two decimals so tie comparison is
// deterministic.
func roundPercent(p float64) float64 {
	return math.Round(p*100) / 100
}
