package quality

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/Selami79/rubber-ds/internal"
	"github.com/Selami79/rubber-ds/internal/auth"
	qualityDatamodel "github.com/Selami79/rubber-ds/internal/core/datamodel/quality"
	"github.com/Selami79/rubber-ds/internal/core/events"
)

type RepositoryAPI interface {
	Create(ctx context.Context, t *qualityDatamodel.QualityTest) error
	// List returns tests newest first with measurements loaded, optionally
	// only those for one product.
	List(ctx context.Context, productID *int64) ([]*qualityDatamodel.QualityTest, error)
	// GetByID returns nil, nil when the test does not exist.
	GetByID(ctx context.Context, id int64) (*qualityDatamodel.QualityTest, error)
	// AddMeasurement inserts m and recomputes the test's overall result from
	// every stored measurement while holding the test row. It returns
	// internal.ErrQualityTestNotFound for an unknown test.
	AddMeasurement(ctx context.Context, testID int64, m *qualityDatamodel.QualityMeasurement) (*qualityDatamodel.QualityTest, error)
	UpdateApproval(ctx context.Context, t *qualityDatamodel.QualityTest) error
}

type EventPublisher interface {
	Publish(ctx context.Context, event events.Event) error
}

type Service struct {
	repo      RepositoryAPI
	publisher EventPublisher
	logger    *slog.Logger
}

func NewService(repo RepositoryAPI, publisher EventPublisher, logger *slog.Logger) *Service {
	return &Service{
		repo:      repo,
		publisher: publisher,
		logger:    logger,
	}
}

// CreateTest records a new test for the calling tester. Result and approval
// both start out pending.
func (s *Service) CreateTest(ctx context.Context, identity auth.Identity, dto CreateTestDTO) (*Test, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	testedAt := time.Now().UTC()
	if dto.TestedAt != nil {
		testedAt = dto.TestedAt.UTC()
	}

	row := &qualityDatamodel.QualityTest{
		ProductID:      dto.ProductID,
		BatchNumber:    dto.BatchNumber,
		TestedAt:       testedAt,
		TesterID:       identity.UserID,
		Result:         ResultPending,
		ApprovalStatus: ApprovalPending,
		Notes:          dto.Notes,
	}
	if err := s.repo.Create(ctx, row); err != nil {
		s.logger.Error("failed to create quality test", "error", err)
		return nil, internal.NewInternalError("could not create quality test", err)
	}

	s.logger.Info("quality test created", "test_id", row.ID, "product_id", row.ProductID, "batch_number", row.BatchNumber)
	return FromDataModel(row), nil
}

func (s *Service) List(ctx context.Context, productID *int64) ([]*Test, error) {
	rows, err := s.repo.List(ctx, productID)
	if err != nil {
		s.logger.Error("failed to list quality tests", "error", err)
		return nil, internal.NewInternalError("could not list quality tests", err)
	}

	out := make([]*Test, 0, len(rows))
	for _, row := range rows {
		out = append(out, FromDataModel(row))
	}
	return out, nil
}

func (s *Service) Get(ctx context.Context, id int64) (*Test, error) {
	row, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	return FromDataModel(row), nil
}

// AddMeasurement evaluates the measurement against its limits and stores it.
// The test's overall result is recomputed in the same transaction.
func (s *Service) AddMeasurement(ctx context.Context, testID int64, dto MeasurementDTO) (*Test, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	m := &qualityDatamodel.QualityMeasurement{
		MeasurementType: dto.MeasurementType,
		Value:           dto.Value,
		Unit:            dto.Unit,
		MinValue:        dto.MinValue,
		MaxValue:        dto.MaxValue,
		Result:          Evaluate(dto.Value, dto.MinValue, dto.MaxValue),
	}

	row, err := s.repo.AddMeasurement(ctx, testID, m)
	if err != nil {
		if errors.Is(err, internal.ErrQualityTestNotFound) {
			return nil, internal.ErrQualityTestNotFound
		}
		s.logger.Error("failed to add measurement", "error", err, "test_id", testID)
		return nil, internal.NewInternalError("could not add measurement", err)
	}

	s.logger.Info("measurement recorded",
		"test_id", testID,
		"measurement_type", m.MeasurementType,
		"result", m.Result,
		"overall", row.Result)

	if m.Result == ResultFail && s.publisher != nil {
		event := events.NewQualityTestFailedEvent(row.ID, row.ProductID, row.BatchNumber, m.MeasurementType)
		if err := s.publisher.Publish(context.WithoutCancel(ctx), event); err != nil {
			s.logger.Warn("failed to publish quality failure event", "error", err, "test_id", testID)
		}
	}

	return FromDataModel(row), nil
}

// Approve records the approver's decision. It does not look at or change the
// computed result.
func (s *Service) Approve(ctx context.Context, identity auth.Identity, id int64, dto ApprovalDTO) (*Test, error) {
	if !auth.Permits(identity.Role, auth.ActionApproveQuality) {
		return nil, internal.ErrForbidden
	}
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	row, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	approver := identity.UserID
	row.ApprovalStatus = dto.Status
	row.ApproverID = &approver
	row.ApprovedAt = &now
	if dto.Notes != nil {
		row.Notes = dto.Notes
	}

	if err := s.repo.UpdateApproval(ctx, row); err != nil {
		s.logger.Error("failed to approve quality test", "error", err, "test_id", id)
		return nil, internal.NewInternalError("could not update approval", err)
	}

	s.logger.Info("quality test approval recorded", "test_id", id, "status", dto.Status, "approver_id", approver)
	return FromDataModel(row), nil
}

func (s *Service) ProductSummary(ctx context.Context, productID int64) (ProductSummary, error) {
	tests, err := s.List(ctx, &productID)
	if err != nil {
		return ProductSummary{}, err
	}
	return SummarizeQualityByProduct(productID, tests), nil
}

func (s *Service) load(ctx context.Context, id int64) (*qualityDatamodel.QualityTest, error) {
	row, err := s.repo.GetByID(ctx, id)
	if err != nil {
		s.logger.Error("failed to get quality test", "error", err, "test_id", id)
		return nil, internal.NewInternalError("could not load quality test", err)
	}
	if row == nil {
		return nil, internal.ErrQualityTestNotFound
	}
	return row, nil
}
