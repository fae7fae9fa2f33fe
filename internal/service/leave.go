package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"studio-attendance/internal/models"
	"studio-attendance/internal/repository"
)

// LeaveSpec заявка участника на отпуск по плану
type LeaveSpec struct {
	StudentID uint      `validate:"required"`
	PlanID    uint      `validate:"required"`
	Type      string    `validate:"required,oneof=sick personal other"`
	Reason    string    `validate:"max=1000"`
	StartTime time.Time `validate:"required"`
	EndTime   time.Time `validate:"required,gtfield=StartTime"`
}

type LeaveService struct {
	db         *gorm.DB
	leaveRepo  repository.LeaveRequestRepository
	planRepo   repository.PlanRepository
	recordRepo repository.RecordRepository
	locker     *RecordLocker
	stats      *StatisticsService
	validate   *validator.Validate
	logger     *logrus.Logger
	now        func() time.Time
}

func NewLeaveService(
	db *gorm.DB,
	leaveRepo repository.LeaveRequestRepository,
	planRepo repository.PlanRepository,
	recordRepo repository.RecordRepository,
	locker *RecordLocker,
	stats *StatisticsService,
) *LeaveService {
	return &LeaveService{
		db:         db,
		leaveRepo:  leaveRepo,
		planRepo:   planRepo,
		recordRepo: recordRepo,
		locker:     locker,
		stats:      stats,
		validate:   validator.New(),
		logger:     newLogger(),
		now:        time.Now,
	}
}

// WithClock подменяет источник текущего времени
func (s *LeaveService) WithClock(now func() time.Time) *LeaveService {
	s.now = now
	return s
}

// Submit регистрирует заявку на отпуск в статусе pending
func (s *LeaveService) Submit(ctx context.Context, spec LeaveSpec) (*models.LeaveRequest, error) {
	if err := s.validate.Struct(spec); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return nil, &ValidationError{Field: verrs[0].Field(), Message: fmt.Sprintf("правило %q не выполнено", verrs[0].Tag())}
		}
		return nil, &ValidationError{Message: err.Error()}
	}

	plan, err := s.planRepo.GetByID(ctx, spec.PlanID)
	if err != nil {
		return nil, wrapSystem("get plan", err)
	}
	if plan == nil {
		return nil, notFound("план", spec.PlanID)
	}

	now := s.now()
	request := &models.LeaveRequest{
		StudentID:        spec.StudentID,
		AttendancePlanID: spec.PlanID,
		Type:             spec.Type,
		Reason:           spec.Reason,
		StartTime:        spec.StartTime,
		EndTime:          spec.EndTime,
		Status:           models.LeaveStatusPending,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if err := s.leaveRepo.Create(ctx, request); err != nil {
		s.logger.WithError(err).Error("Failed to create leave request")
		return nil, wrapSystem("create leave request", err)
	}

	s.logger.WithFields(logrus.Fields{
		"id":         request.ID,
		"student_id": request.StudentID,
		"plan_id":    request.AttendancePlanID,
		"type":       request.Type,
	}).Info("Leave request submitted")
	return request, nil
}

// Approve одобряет заявку и переводит запись участника в leave.
// Повторное одобрение ничего не меняет.
func (s *LeaveService) Approve(ctx context.Context, requestID, approverID uint) (*models.AttendanceRecord, error) {
	log := s.logger.WithFields(logrus.Fields{
		"request_id":  requestID,
		"approver_id": approverID,
	})

	request, err := s.leaveRepo.GetByID(ctx, requestID)
	if err != nil {
		return nil, wrapSystem("get leave request", err)
	}
	if request == nil {
		return nil, notFound("заявка на отпуск", requestID)
	}

	unlock := s.locker.Lock(request.AttendancePlanID, request.StudentID)
	defer unlock()

	var (
		record *models.AttendanceRecord
		plan   *models.AttendancePlan
	)
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		leaveRepo := s.leaveRepo.WithTx(tx)
		current, err := leaveRepo.GetByIDForUpdate(ctx, requestID)
		if err != nil {
			return err
		}
		if current == nil {
			return notFound("заявка на отпуск", requestID)
		}

		switch current.Status {
		case models.LeaveStatusRejected:
			return &ValidationError{Field: "status", Message: "заявка уже отклонена"}
		case models.LeaveStatusPending:
			now := s.now()
			current.Status = models.LeaveStatusApproved
			current.ApproverID = &approverID
			current.DecidedAt = &now
			current.UpdatedAt = now
			if err := leaveRepo.Update(ctx, current); err != nil {
				return err
			}
		}

		plan, record, err = s.applyLeaveTx(ctx, tx, current.StudentID, current.AttendancePlanID, approverID)
		return err
	})
	if err != nil {
		if IsBusinessError(err) {
			log.WithField("reason", ErrorKind(err)).Warn("Leave approval rejected")
		} else {
			log.WithError(err).Error("Failed to approve leave request")
		}
		return nil, wrapSystem("approve leave", err)
	}

	s.stats.recomputePlanDay(ctx, plan)

	log.WithField("record_id", record.ID).Info("Leave request approved")
	return record, nil
}

// Reject отклоняет заявку; одобренную заявку отклонить нельзя
func (s *LeaveService) Reject(ctx context.Context, requestID, approverID uint, reason string) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		leaveRepo := s.leaveRepo.WithTx(tx)
		request, err := leaveRepo.GetByIDForUpdate(ctx, requestID)
		if err != nil {
			return err
		}
		if request == nil {
			return notFound("заявка на отпуск", requestID)
		}

		switch request.Status {
		case models.LeaveStatusRejected:
			return nil
		case models.LeaveStatusApproved:
			return &ValidationError{Field: "status", Message: "заявка уже одобрена"}
		}

		now := s.now()
		request.Status = models.LeaveStatusRejected
		request.ApproverID = &approverID
		request.DecidedAt = &now
		request.RejectReason = reason
		request.UpdatedAt = now
		return leaveRepo.Update(ctx, request)
	})
	if err != nil {
		return wrapSystem("reject leave", err)
	}

	s.logger.WithFields(logrus.Fields{
		"request_id":  requestID,
		"approver_id": approverID,
	}).Info("Leave request rejected")
	return nil
}

// ListPending возвращает заявки, ожидающие решения
func (s *LeaveService) ListPending(ctx context.Context) ([]models.LeaveRequest, error) {
	requests, err := s.leaveRepo.ListByStatus(ctx, models.LeaveStatusPending)
	if err != nil {
		return nil, wrapSystem("list leave requests", err)
	}
	return requests, nil
}

// HandleApprovedLeave переводит запись участника в leave без заявки:
// нет записи - создается в leave, pending/absent - переход, leave - ничего не делает.
func (s *LeaveService) HandleApprovedLeave(ctx context.Context, studentID, planID, approverID uint) (*models.AttendanceRecord, error) {
	unlock := s.locker.Lock(planID, studentID)
	defer unlock()

	var (
		record *models.AttendanceRecord
		plan   *models.AttendancePlan
	)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		plan, record, err = s.applyLeaveTx(ctx, tx, studentID, planID, approverID)
		return err
	})
	if err != nil {
		if !IsBusinessError(err) {
			s.logger.WithError(err).Error("Failed to apply approved leave")
		}
		return nil, wrapSystem("apply leave", err)
	}

	s.stats.recomputePlanDay(ctx, plan)
	return record, nil
}

// applyLeaveTx выполняется под блокировкой пары (план, участник)
func (s *LeaveService) applyLeaveTx(ctx context.Context, tx *gorm.DB, studentID, planID, approverID uint) (*models.AttendancePlan, *models.AttendanceRecord, error) {
	plan, err := s.planRepo.WithTx(tx).GetByID(ctx, planID)
	if err != nil {
		return nil, nil, err
	}
	if plan == nil {
		return nil, nil, notFound("план", planID)
	}

	recordRepo := s.recordRepo.WithTx(tx)
	record, err := recordRepo.GetByPlanAndStudentForUpdate(ctx, planID, studentID)
	if err != nil {
		return nil, nil, err
	}

	log := s.logger.WithFields(logrus.Fields{
		"plan_id":     planID,
		"student_id":  studentID,
		"approver_id": approverID,
	})

	if record != nil && record.Status == models.RecordStatusLeave {
		log.Debug("Record already on leave")
		return plan, record, nil
	}

	now := s.now()
	if record == nil {
		record = &models.AttendanceRecord{
			PlanID:    planID,
			StudentID: studentID,
			Status:    models.RecordStatusPending,
			CreatedAt: now,
		}
	}
	from := record.Status
	if err := transitionRecord(record, models.RecordStatusLeave); err != nil {
		return nil, nil, err
	}
	record.Remark = fmt.Sprintf("отпуск одобрен (%d)", approverID)
	record.UpdatedAt = now

	if record.ID == 0 {
		err = recordRepo.Create(ctx, record)
	} else {
		err = recordRepo.Update(ctx, record)
	}
	if err != nil {
		return nil, nil, err
	}

	log.WithField("from", from).Info("Record moved to leave")
	return plan, record, nil
}
