package service

import (
	"errors"
	"fmt"
)

// Бизнес-ошибки; доходят до пользователя как есть
var (
	ErrNotFound          = errors.New("не найдено")
	ErrOutOfWindow       = errors.New("отметка вне временного окна")
	ErrOutOfRange        = errors.New("отметка вне зоны")
	ErrNotEligible       = errors.New("нет права на отметку")
	ErrAlreadyCheckedIn  = errors.New("уже отмечен")
	ErrInvalidTransition = errors.New("недопустимый переход статуса")
	ErrValidation        = errors.New("некорректные данные")
)

var businessErrors = []error{
	ErrNotFound,
	ErrOutOfWindow,
	ErrOutOfRange,
	ErrNotEligible,
	ErrAlreadyCheckedIn,
	ErrInvalidTransition,
	ErrValidation,
}

// TransitionError недопустимый переход статуса записи
type TransitionError struct {
	From string
	To   string
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("недопустимый переход статуса: %s -> %s", e.From, e.To)
}

func (e *TransitionError) Is(target error) bool {
	return target == ErrInvalidTransition
}

// AlreadyCheckedInError повторная отметка; Status — текущий статус записи
type AlreadyCheckedInError struct {
	Status string
}

func (e *AlreadyCheckedInError) Error() string {
	if e.Status == "" {
		return ErrAlreadyCheckedIn.Error()
	}
	return fmt.Sprintf("уже отмечен, текущий статус: %s", e.Status)
}

func (e *AlreadyCheckedInError) Is(target error) bool {
	return target == ErrAlreadyCheckedIn
}

// ValidationError некорректное поле входных данных
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("некорректные данные: %s", e.Message)
	}
	return fmt.Sprintf("некорректные данные: %s: %s", e.Field, e.Message)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// SystemError сбой хранилища или инфраструктуры, не относится к бизнес-ошибкам
type SystemError struct {
	Op  string
	Err error
}

func (e *SystemError) Error() string {
	return fmt.Sprintf("системная ошибка (%s): %v", e.Op, e.Err)
}

func (e *SystemError) Unwrap() error {
	return e.Err
}

// IsBusinessError проверяет, относится ли ошибка к бизнес-таксономии
func IsBusinessError(err error) bool {
	for _, target := range businessErrors {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// ErrorKind короткий код ошибки для логов и внешних слоев
func ErrorKind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrOutOfWindow):
		return "out_of_window"
	case errors.Is(err, ErrOutOfRange):
		return "out_of_range"
	case errors.Is(err, ErrNotEligible):
		return "not_eligible"
	case errors.Is(err, ErrAlreadyCheckedIn):
		return "already_checked_in"
	case errors.Is(err, ErrInvalidTransition):
		return "invalid_transition"
	case errors.Is(err, ErrValidation):
		return "validation"
	default:
		return "system"
	}
}

// wrapSystem оборачивает инфраструктурные ошибки, бизнес-ошибки возвращает как есть
func wrapSystem(op string, err error) error {
	if err == nil || IsBusinessError(err) {
		return err
	}
	var sysErr *SystemError
	if errors.As(err, &sysErr) {
		return err
	}
	return &SystemError{Op: op, Err: err}
}

func notFound(what string, id uint) error {
	return fmt.Errorf("%s %d: %w", what, id, ErrNotFound)
}
