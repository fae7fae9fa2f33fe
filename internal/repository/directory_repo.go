package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"studio-attendance/internal/models"
)

// ReservationRepository брони мероприятий, удаляемые вместе с планом
type ReservationRepository interface {
	WithTx(tx *gorm.DB) ReservationRepository
	DeleteByPlan(ctx context.Context, planID uint) error
}

// GormDirectoryRepository справочник курсов, броней и составов дежурств поверх той же БД
type GormDirectoryRepository struct {
	db *gorm.DB
}

func NewGormDirectoryRepository(db *gorm.DB) (*GormDirectoryRepository, error) {
	if err := db.AutoMigrate(
		&models.Course{},
		&models.CourseStudent{},
		&models.ActivityReservation{},
		&models.DutyScheduleStudent{},
	); err != nil {
		return nil, err
	}
	return &GormDirectoryRepository{db: db}, nil
}

func (r *GormDirectoryRepository) CourseExists(ctx context.Context, courseID uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Course{}).Where("id = ?", courseID).Count(&count).Error
	return count > 0, err
}

func (r *GormDirectoryRepository) CourseStudents(ctx context.Context, courseID uint) ([]uint, error) {
	var ids []uint
	err := r.db.WithContext(ctx).
		Model(&models.CourseStudent{}).
		Where("course_id = ?", courseID).
		Order("student_id ASC").
		Pluck("student_id", &ids).Error
	return ids, err
}

func (r *GormDirectoryRepository) IsEnrolled(ctx context.Context, studentID, courseID uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.CourseStudent{}).
		Where("course_id = ? AND student_id = ?", courseID, studentID).
		Count(&count).Error
	return count > 0, err
}

// GetReservationStatus возвращает статус брони или пустую строку, если брони нет
func (r *GormDirectoryRepository) GetReservationStatus(ctx context.Context, planID, studentID uint) (string, error) {
	var reservation models.ActivityReservation
	err := r.db.WithContext(ctx).
		Where("plan_id = ? AND student_id = ?", planID, studentID).
		First(&reservation).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return reservation.Status, nil
}

func (r *GormDirectoryRepository) UpdateReservationStatus(ctx context.Context, planID, studentID uint, status string) error {
	result := r.db.WithContext(ctx).
		Model(&models.ActivityReservation{}).
		Where("plan_id = ? AND student_id = ?", planID, studentID).
		Update("status", status)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return errors.New("бронь не найдена")
	}
	return nil
}

func (r *GormDirectoryRepository) GetRosterMembers(ctx context.Context, scheduleID uint) ([]uint, error) {
	var ids []uint
	err := r.db.WithContext(ctx).
		Model(&models.DutyScheduleStudent{}).
		Where("schedule_id = ?", scheduleID).
		Order("student_id ASC").
		Pluck("student_id", &ids).Error
	return ids, err
}

func (r *GormDirectoryRepository) WithTx(tx *gorm.DB) ReservationRepository {
	return &GormDirectoryRepository{db: tx}
}

// DeleteByPlan удаляет брони мероприятия (каскад при удалении плана)
func (r *GormDirectoryRepository) DeleteByPlan(ctx context.Context, planID uint) error {
	return r.db.WithContext(ctx).Where("plan_id = ?", planID).Delete(&models.ActivityReservation{}).Error
}

func (r *GormDirectoryRepository) CreateCourse(ctx context.Context, course *models.Course) error {
	return r.db.WithContext(ctx).Create(course).Error
}

func (r *GormDirectoryRepository) Enroll(ctx context.Context, courseID, studentID uint) error {
	return r.db.WithContext(ctx).Create(&models.CourseStudent{CourseID: courseID, StudentID: studentID}).Error
}

func (r *GormDirectoryRepository) Reserve(ctx context.Context, planID, studentID uint, status string) error {
	return r.db.WithContext(ctx).Create(&models.ActivityReservation{
		PlanID:    planID,
		StudentID: studentID,
		Status:    status,
	}).Error
}
