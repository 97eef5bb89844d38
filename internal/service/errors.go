package service

import (
	"errors"
	"fmt"

	"gorm.io/gorm"
)

var (
	ErrValidation        = errors.New("validation failed")  // 400
	ErrNotFound          = errors.New("not found")          // 404
	ErrConflict          = errors.New("conflict")           // 409
	ErrInsufficientStock = errors.New("insufficient stock") // 400

	ErrNoItems error = ruleError("no items in order")
)

// ruleError is a validation failure whose text is shown to the client as is.
type ruleError string

func (e ruleError) Error() string { return string(e) }

func (e ruleError) Unwrap() error { return ErrValidation }

// NotFoundError names the entity and id that could not be loaded.
type NotFoundError struct {
	Entity string
	ID     uint
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %d not found", e.Entity, e.ID)
}

func (e *NotFoundError) Unwrap() error { return ErrNotFound }

// StockError is returned when a line item asks for more than is in stock.
type StockError struct {
	ProductID uint
	Name      string
	Requested int
	Available int
}

func (e *StockError) Error() string {
	return fmt.Sprintf("insufficient stock for product %q (id %d): requested %d, available %d",
		e.Name, e.ProductID, e.Requested, e.Available)
}

func (e *StockError) Unwrap() error { return ErrInsufficientStock }

func notFound(err error, entity string, id uint) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &NotFoundError{Entity: entity, ID: id}
	}
	return err
}

func conflict(err error, format string, args ...any) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return fmt.Errorf("%w: "+format, append([]any{ErrConflict}, args...)...)
	}
	return err
}
