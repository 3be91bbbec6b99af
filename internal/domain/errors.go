package domain

import "fmt"

// ValidationError неверные или отсутствующие входные данные
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

// Invalid сокращение для создания ValidationError
func Invalid(msg string) error { return &ValidationError{Msg: msg} }

// NotFoundError упомянутая сущность отсутствует
type NotFoundError struct {
	Entity string
	ID     string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Entity, e.ID)
}

// InsufficientStockError запрошено больше, чем есть на складе
type InsufficientStockError struct {
	ProductID   string
	ProductName string
	Requested   int64
	Available   int64
}

func (e *InsufficientStockError) Error() string {
	return "Insufficient stock for " + e.ProductName
}

// PersistenceError неожиданный сбой хранилища
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// Persistence оборачивает ошибку хранилища; nil остаётся nil
func Persistence(op string, err error) error {
	if err == nil {
		return nil
	}
	return &PersistenceError{Op: op, Err: err}
}
