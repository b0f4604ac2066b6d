package errors

import (
	"errors"
	"fmt"
)

var (
	// Авторизация
	ErrEmptyAuthHeader   = fmt.Errorf("заголовок авторизации отсутствует")
	ErrInvalidAuthHeader = fmt.Errorf("неверный формат заголовка авторизации")
	ErrInvalidToken      = fmt.Errorf("недопустимый токен")
	ErrTokenExpired      = fmt.Errorf("срок действия токена истёк")

	// Контекст
	ErrUserCodeNotFoundInContext = fmt.Errorf("код пользователя не найден в контексте запроса")

	// Общие
	ErrNotFound = fmt.Errorf("запись не найдена")
)

// ValidationError — некорректные входные данные (пустой список позиций,
// неположительное количество и т.п.).
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

func NewValidationError(format string, args ...interface{}) error {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// NotFoundError — накладная, единица оборудования или группа не существует.
type NotFoundError struct {
	Message string
}

func (e *NotFoundError) Error() string { return e.Message }

func NewNotFoundError(format string, args ...interface{}) error {
	return &NotFoundError{Message: fmt.Sprintf(format, args...)}
}

// StateError — операция недопустима из текущего статуса накладной.
type StateError struct {
	Message string
}

func (e *StateError) Error() string { return e.Message }

func NewStateError(format string, args ...interface{}) error {
	return &StateError{Message: fmt.Sprintf(format, args...)}
}

// ConflictError — нарушение инварианта: недостаточно виртуального остатка,
// единица не в ожидаемом статусе, повторная активная привязка, проигранная
// CAS-гонка. Единственный вид ошибки, при котором повтор со стороны вызывающего
// имеет смысл.
type ConflictError struct {
	Message string
}

func (e *ConflictError) Error() string { return e.Message }

func NewConflictError(format string, args ...interface{}) error {
	return &ConflictError{Message: fmt.Sprintf(format, args...)}
}

func IsConflict(err error) bool {
	var ce *ConflictError
	return errors.As(err, &ce)
}

func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf) || errors.Is(err, ErrNotFound)
}

// HttpError — ошибка с HTTP-кодом для транспортного слоя.
type HttpError struct {
	Code    int
	Message string
	Err     error
}

func (e *HttpError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *HttpError) Unwrap() error { return e.Err }

func NewHttpError(code int, message string, err error, _ interface{}) *HttpError {
	return &HttpError{Code: code, Message: message, Err: err}
}
