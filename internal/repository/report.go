package repository

import (
	"context"

	"anonrelay/internal/models"
	"anonrelay/internal/observability"

	"gorm.io/gorm"
)

// ReportRepository defines persistence operations for user reports.
type ReportRepository interface {
	Create(ctx context.Context, report *models.Report) error
	ListOpen(ctx context.Context, limit, offset int) ([]models.Report, error)
	SetStatus(ctx context.Context, id uint, status models.ReportStatus) error
	CountOpen(ctx context.Context) (int64, error)
}

type reportRepository struct {
	db     *gorm.DB
	logger *observability.RepoLogger
}

// NewReportRepository returns a new ReportRepository implementation.
func NewReportRepository(db *gorm.DB) ReportRepository {
	return &reportRepository{db: db, logger: observability.NewRepoLogger("reports")}
}

func (r *reportRepository) Create(ctx context.Context, report *models.Report) error {
	if err := r.db.WithContext(ctx).Create(report).Error; err != nil {
		r.logger.LogError(ctx, err, "create")
		return models.NewInternalError(err)
	}
	return nil
}

func (r *reportRepository) ListOpen(ctx context.Context, limit, offset int) ([]models.Report, error) {
	var reports []models.Report
	if err := r.db.WithContext(ctx).
		Where("status = ?", models.ReportStatusOpen).
		Order("created_at ASC").
		Limit(clampLimit(limit)).Offset(offset).
		Find(&reports).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return reports, nil
}

func (r *reportRepository) SetStatus(ctx context.Context, id uint, status models.ReportStatus) error {
	if err := r.db.WithContext(ctx).Model(&models.Report{}).
		Where("id = ?", id).Update("status", status).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *reportRepository) CountOpen(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.WithContext(ctx).Model(&models.Report{}).
		Where("status = ?", models.ReportStatusOpen).Count(&n).Error; err != nil {
		return 0, models.NewInternalError(err)
	}
	return n, nil
}
