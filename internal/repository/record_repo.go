package repository

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"studio-attendance/internal/models"
)

type RecordRepository interface {
	WithTx(tx *gorm.DB) RecordRepository
	Create(ctx context.Context, record *models.AttendanceRecord) error
	CreateBatch(ctx context.Context, records []models.AttendanceRecord) error
	Update(ctx context.Context, record *models.AttendanceRecord) error
	GetByPlanAndStudent(ctx context.Context, planID, studentID uint) (*models.AttendanceRecord, error)
	GetByPlanAndStudentForUpdate(ctx context.Context, planID, studentID uint) (*models.AttendanceRecord, error)
	ListByPlan(ctx context.Context, planID uint) ([]models.AttendanceRecord, error)
	ListStudentIDsByPlan(ctx context.Context, planID uint) ([]uint, error)
	DeleteByPlan(ctx context.Context, planID uint) error
	DeleteByPlanAndStudents(ctx context.Context, planID uint, studentIDs []uint) (int64, error)
	MarkPendingAbsent(ctx context.Context, planID uint) (int64, error)
	CountByStatus(ctx context.Context, planID uint) ([]models.StatusCount, error)
	CountByStatusForDay(ctx context.Context, planType string, dayStart, dayEnd time.Time) ([]models.StatusCount, error)
}

type GormRecordRepository struct {
	db     *gorm.DB
	logger *logrus.Logger
}

func NewGormRecordRepository(db *gorm.DB) (*GormRecordRepository, error) {
	logger := newLogger()

	if err := db.AutoMigrate(&models.AttendanceRecord{}); err != nil {
		logger.WithError(err).Error("Failed to auto-migrate attendance_records table")
		return nil, err
	}

	return &GormRecordRepository{db: db, logger: logger}, nil
}

func (r *GormRecordRepository) WithTx(tx *gorm.DB) RecordRepository {
	return &GormRecordRepository{db: tx, logger: r.logger}
}

func (r *GormRecordRepository) Create(ctx context.Context, record *models.AttendanceRecord) error {
	if !record.IsValid() {
		return errors.New("некорректные данные записи посещаемости")
	}
	return r.db.WithContext(ctx).Create(record).Error
}

func (r *GormRecordRepository) CreateBatch(ctx context.Context, records []models.AttendanceRecord) error {
	if len(records) == 0 {
		return nil
	}
	for i := range records {
		if !records[i].IsValid() {
			return errors.New("некорректные данные записи посещаемости")
		}
	}
	if err := r.db.WithContext(ctx).CreateInBatches(records, 100).Error; err != nil {
		r.logger.WithError(err).WithField("count", len(records)).Error("Failed to create attendance records")
		return err
	}
	return nil
}

func (r *GormRecordRepository) Update(ctx context.Context, record *models.AttendanceRecord) error {
	if !record.IsValid() {
		return errors.New("некорректные данные записи посещаемости")
	}
	return r.db.WithContext(ctx).Save(record).Error
}

func (r *GormRecordRepository) GetByPlanAndStudent(ctx context.Context, planID, studentID uint) (*models.AttendanceRecord, error) {
	return r.getByPlanAndStudent(r.db.WithContext(ctx), planID, studentID)
}

// GetByPlanAndStudentForUpdate читает запись под блокировкой строки.
// На SQLite блокировка строк не поддерживается и клауза опускается драйвером.
func (r *GormRecordRepository) GetByPlanAndStudentForUpdate(ctx context.Context, planID, studentID uint) (*models.AttendanceRecord, error) {
	return r.getByPlanAndStudent(
		r.db.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}),
		planID, studentID,
	)
}

func (r *GormRecordRepository) getByPlanAndStudent(q *gorm.DB, planID, studentID uint) (*models.AttendanceRecord, error) {
	var record models.AttendanceRecord
	err := q.Where("plan_id = ? AND student_id = ?", planID, studentID).First(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &record, nil
}

func (r *GormRecordRepository) ListByPlan(ctx context.Context, planID uint) ([]models.AttendanceRecord, error) {
	var records []models.AttendanceRecord
	err := r.db.WithContext(ctx).
		Where("plan_id = ?", planID).
		Order("student_id ASC").
		Find(&records).Error
	return records, err
}

func (r *GormRecordRepository) ListStudentIDsByPlan(ctx context.Context, planID uint) ([]uint, error) {
	var ids []uint
	err := r.db.WithContext(ctx).
		Model(&models.AttendanceRecord{}).
		Where("plan_id = ?", planID).
		Order("student_id ASC").
		Pluck("student_id", &ids).Error
	return ids, err
}

func (r *GormRecordRepository) DeleteByPlan(ctx context.Context, planID uint) error {
	return r.db.WithContext(ctx).Where("plan_id = ?", planID).Delete(&models.AttendanceRecord{}).Error
}

func (r *GormRecordRepository) DeleteByPlanAndStudents(ctx context.Context, planID uint, studentIDs []uint) (int64, error) {
	if len(studentIDs) == 0 {
		return 0, nil
	}
	result := r.db.WithContext(ctx).
		Where("plan_id = ? AND student_id IN ?", planID, studentIDs).
		Delete(&models.AttendanceRecord{})
	return result.RowsAffected, result.Error
}

// MarkPendingAbsent переводит все pending-записи плана в absent
func (r *GormRecordRepository) MarkPendingAbsent(ctx context.Context, planID uint) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&models.AttendanceRecord{}).
		Where("plan_id = ? AND status = ?", planID, models.RecordStatusPending).
		Update("status", models.RecordStatusAbsent)
	if result.Error != nil {
		r.logger.WithError(result.Error).WithField("plan_id", planID).Error("Failed to mark pending records absent")
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

func (r *GormRecordRepository) CountByStatus(ctx context.Context, planID uint) ([]models.StatusCount, error) {
	var counts []models.StatusCount
	err := r.db.WithContext(ctx).
		Model(&models.AttendanceRecord{}).
		Select("status, COUNT(*) AS count").
		Where("plan_id = ?", planID).
		Group("status").
		Scan(&counts).Error
	return counts, err
}

// CountByStatusForDay считает записи планов указанного типа, начинающихся в [dayStart, dayEnd)
func (r *GormRecordRepository) CountByStatusForDay(ctx context.Context, planType string, dayStart, dayEnd time.Time) ([]models.StatusCount, error) {
	var counts []models.StatusCount
	err := r.db.WithContext(ctx).
		Table("attendance_records AS r").
		Select("r.status AS status, COUNT(*) AS count").
		Joins("JOIN attendance_plans AS p ON p.id = r.plan_id").
		Where("p.type = ? AND p.start_time >= ? AND p.start_time < ?", planType, dayStart.UTC(), dayEnd.UTC()).
		Group("r.status").
		Scan(&counts).Error
	return counts, err
}
