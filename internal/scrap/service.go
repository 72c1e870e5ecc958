package scrap

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/Selami79/rubber-ds/internal"
	"github.com/Selami79/rubber-ds/internal/auth"
	scrapDatamodel "github.com/Selami79/rubber-ds/internal/core/datamodel/scrap"
)

// RepositoryAPI writes through the ORM. Reads go through ReaderAPI.
type RepositoryAPI interface {
	Create(ctx context.Context, r *scrapDatamodel.ScrapRecord) error
	UpdateStatus(ctx context.Context, id int64, status string, notes *string) error
}

type ReaderAPI interface {
	// List returns every record, newest first.
	List(ctx context.Context) ([]*scrapDatamodel.ScrapRecord, error)
	// GetByID returns nil, nil when the record does not exist.
	GetByID(ctx context.Context, id int64) (*scrapDatamodel.ScrapRecord, error)
	// Between returns records recorded in [from, to].
	Between(ctx context.Context, from, to time.Time) ([]*scrapDatamodel.ScrapRecord, error)
	// WithMachine returns records that name a machine, by machine id then time.
	WithMachine(ctx context.Context) ([]*scrapDatamodel.ScrapRecord, error)
}

type Service struct {
	repo   RepositoryAPI
	reader ReaderAPI
	logger *slog.Logger
	now    func() time.Time
}

func NewService(repo RepositoryAPI, reader ReaderAPI, logger *slog.Logger) *Service {
	return &Service{
		repo:   repo,
		reader: reader,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Create records scrap for the calling operator. New records are always
// under review.
func (s *Service) Create(ctx context.Context, identity auth.Identity, dto CreateRecordDTO) (*Record, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	recordedAt := s.now()
	if dto.RecordedAt != nil {
		recordedAt = dto.RecordedAt.UTC()
	}
	location := dto.Location
	if location == "" {
		location = DefaultLocation
	}

	row := &scrapDatamodel.ScrapRecord{
		ProductID:   dto.ProductID,
		BatchNumber: dto.BatchNumber,
		MachineID:   dto.MachineID,
		Quantity:    dto.Quantity,
		Unit:        dto.Unit,
		Reason:      dto.Reason,
		SubReason:   dto.SubReason,
		Status:      StatusUnderReview,
		Cost:        dto.Cost,
		Notes:       dto.Notes,
		Location:    location,
		OperatorID:  identity.UserID,
		RecordedAt:  recordedAt,
	}
	if err := s.repo.Create(ctx, row); err != nil {
		s.logger.Error("failed to create scrap record", "error", err)
		return nil, internal.NewInternalError("could not create scrap record", err)
	}

	s.logger.Info("scrap recorded",
		"scrap_id", row.ID,
		"product_id", row.ProductID,
		"reason", row.Reason,
		"quantity", row.Quantity)
	return FromDataModel(row), nil
}

func (s *Service) List(ctx context.Context) ([]*Record, error) {
	rows, err := s.reader.List(ctx)
	if err != nil {
		s.logger.Error("failed to list scrap records", "error", err)
		return nil, internal.NewInternalError("could not list scrap records", err)
	}
	return fromDataModels(rows), nil
}

func (s *Service) Get(ctx context.Context, id int64) (*Record, error) {
	row, err := s.reader.GetByID(ctx, id)
	if err != nil {
		s.logger.Error("failed to get scrap record", "error", err, "scrap_id", id)
		return nil, internal.NewInternalError("could not load scrap record", err)
	}
	if row == nil {
		return nil, internal.ErrScrapNotFound
	}
	return FromDataModel(row), nil
}

func (s *Service) UpdateStatus(ctx context.Context, identity auth.Identity, id int64, dto StatusDTO) (*Record, error) {
	if !auth.Permits(identity.Role, auth.ActionReviewScrap) {
		return nil, internal.ErrForbidden
	}
	if err := dto.Validate(); err != nil {
		return nil, err
	}
	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}

	if err := s.repo.UpdateStatus(ctx, id, dto.Status, dto.Notes); err != nil {
		s.logger.Error("failed to update scrap status", "error", err, "scrap_id", id)
		return nil, internal.NewInternalError("could not update scrap record", err)
	}

	s.logger.Info("scrap status changed", "scrap_id", id, "status", dto.Status, "user_id", identity.UserID)
	return s.Get(ctx, id)
}

// Report summarizes the records between from and to, both inclusive.
func (s *Service) Report(ctx context.Context, from, to time.Time) (RangeSummary, error) {
	if to.Before(from) {
		return RangeSummary{}, internal.ErrInvalidDateRange.WithMessage("from must not be after to")
	}

	rows, err := s.reader.Between(ctx, from, to)
	if err != nil {
		s.logger.Error("failed to load scrap report", "error", err)
		return RangeSummary{}, internal.NewInternalError("could not build scrap report", err)
	}
	return SummarizeRange(fromDataModels(rows), from, to), nil
}

func (s *Service) ByMachine(ctx context.Context) ([]*MachineSummary, error) {
	rows, err := s.reader.WithMachine(ctx)
	if err != nil {
		s.logger.Error("failed to load scrap by machine", "error", err)
		return nil, internal.NewInternalError("could not build machine analysis", err)
	}
	return GroupByMachine(fromDataModels(rows)), nil
}

const dateLayout = "2006-01-02"

// ParseRange reads report bounds given as RFC3339 timestamps or plain dates.
// A plain date for to covers that whole day.
func ParseRange(rawFrom, rawTo string) (time.Time, time.Time, error) {
	from, err := parseBound("from", rawFrom, false)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	to, err := parseBound("to", rawTo, true)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	if to.Before(from) {
		return time.Time{}, time.Time{}, internal.ErrInvalidDateRange.WithMessage("from must not be after to")
	}
	return from, to, nil
}

func parseBound(name, raw string, endOfDay bool) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, internal.ErrInvalidDateRange.WithMessage(fmt.Sprintf("%s is required", name))
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t.UTC(), nil
	}
	d, err := time.Parse(dateLayout, raw)
	if err != nil {
		return time.Time{}, internal.ErrInvalidDateRange.WithMessage(
			fmt.Sprintf("%s must be an RFC3339 timestamp or a YYYY-MM-DD date", name))
	}
	if endOfDay {
		d = d.Add(24*time.Hour - time.Nanosecond)
	}
	return d, nil
}
