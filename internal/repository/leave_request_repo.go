package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"studio-attendance/internal/models"
)

type LeaveRequestRepository interface {
	WithTx(tx *gorm.DB) LeaveRequestRepository
	Create(ctx context.Context, request *models.LeaveRequest) error
	Update(ctx context.Context, request *models.LeaveRequest) error
	GetByID(ctx context.Context, id uint) (*models.LeaveRequest, error)
	GetByIDForUpdate(ctx context.Context, id uint) (*models.LeaveRequest, error)
	ListByStatus(ctx context.Context, status string) ([]models.LeaveRequest, error)
	DeleteByPlan(ctx context.Context, planID uint) error
}

type GormLeaveRequestRepository struct {
	db *gorm.DB
}

func NewGormLeaveRequestRepository(db *gorm.DB) (*GormLeaveRequestRepository, error) {
	if err := db.AutoMigrate(&models.LeaveRequest{}); err != nil {
		return nil, err
	}
	return &GormLeaveRequestRepository{db: db}, nil
}

func (r *GormLeaveRequestRepository) WithTx(tx *gorm.DB) LeaveRequestRepository {
	return &GormLeaveRequestRepository{db: tx}
}

func (r *GormLeaveRequestRepository) Create(ctx context.Context, request *models.LeaveRequest) error {
	return r.db.WithContext(ctx).Create(request).Error
}

func (r *GormLeaveRequestRepository) Update(ctx context.Context, request *models.LeaveRequest) error {
	return r.db.WithContext(ctx).Save(request).Error
}

func (r *GormLeaveRequestRepository) GetByID(ctx context.Context, id uint) (*models.LeaveRequest, error) {
	var request models.LeaveRequest
	err := r.db.WithContext(ctx).First(&request, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &request, nil
}

func (r *GormLeaveRequestRepository) GetByIDForUpdate(ctx context.Context, id uint) (*models.LeaveRequest, error) {
	var request models.LeaveRequest
	err := r.db.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}).First(&request, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &request, nil
}

func (r *GormLeaveRequestRepository) ListByStatus(ctx context.Context, status string) ([]models.LeaveRequest, error) {
	var requests []models.LeaveRequest
	err := r.db.WithContext(ctx).
		Where("status = ?", status).
		Order("created_at DESC, id DESC").
		Find(&requests).Error
	return requests, err
}

func (r *GormLeaveRequestRepository) DeleteByPlan(ctx context.Context, planID uint) error {
	return r.db.WithContext(ctx).Where("attendance_plan_id = ?", planID).Delete(&models.LeaveRequest{}).Error
}
