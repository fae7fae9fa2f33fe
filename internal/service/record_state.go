package service

import (
	"studio-attendance/internal/models"
)

// transitionRecord переводит запись в новый статус по таблице переходов
func transitionRecord(record *models.AttendanceRecord, to string) error {
	if !models.CanTransition(record.Status, to) {
		return &TransitionError{From: record.Status, To: to}
	}
	record.Status = to
	return nil
}

// newPendingRecords создает pending-записи для списка участников
func newPendingRecords(planID uint, studentIDs []uint) []models.AttendanceRecord {
	records := make([]models.AttendanceRecord, 0, len(studentIDs))
	for _, id := range studentIDs {
		records = append(records, models.AttendanceRecord{
			PlanID:    planID,
			StudentID: id,
			Status:    models.RecordStatusPending,
		})
	}
	return records
}

// newClosedRecords записи для плана, по которому уже подведены итоги:
// отметиться уже нельзя, поэтому pending сразу переводится в absent
func newClosedRecords(planID uint, studentIDs []uint) ([]models.AttendanceRecord, error) {
	records := newPendingRecords(planID, studentIDs)
	for i := range records {
		if err := transitionRecord(&records[i], models.RecordStatusAbsent); err != nil {
			return nil, err
		}
		records[i].Remark = "добавлен после закрытия плана"
	}
	return records, nil
}
