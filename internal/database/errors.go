package database

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/mattn/go-sqlite3"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// ErrConstraint matches every ConstraintViolation with errors.Is.
var ErrConstraint = errors.New("constraint violation")

type ConstraintKind string

const (
	ConstraintForeignKey ConstraintKind = "foreign_key"
	ConstraintNotNull    ConstraintKind = "not_null"
	ConstraintUnique     ConstraintKind = "unique"
	ConstraintCheck      ConstraintKind = "check"
	ConstraintOther      ConstraintKind = "other"
)

// PersistenceError is a storage failure with the operation, entity and
// row it happened on. ID is zero when the operation has no single row.
type PersistenceError struct {
	Op     string
	Entity string
	ID     uint
	Err    error
}

func (e *PersistenceError) Error() string {
	if e.ID != 0 {
		return fmt.Sprintf("%s %s %d: %v", e.Op, e.Entity, e.ID, e.Err)
	}
	return fmt.Sprintf("%s %s: %v", e.Op, e.Entity, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// ConstraintViolation is a PersistenceError raised by a foreign key,
// NOT NULL, unique or check constraint.
type ConstraintViolation struct {
	PersistenceError
	Kind ConstraintKind
}

func (e *ConstraintViolation) Error() string {
	return fmt.Sprintf("%s constraint violated: %s", e.Kind, e.PersistenceError.Error())
}

func (e *ConstraintViolation) Unwrap() error {
	return e.Err
}

func (e *ConstraintViolation) Is(target error) bool {
	return target == ErrConstraint
}

// As lets errors.As extract the embedded *PersistenceError.
func (e *ConstraintViolation) As(target any) bool {
	if pe, ok := target.(**PersistenceError); ok {
		*pe = &e.PersistenceError
		return true
	}
	return false
}

// Wrap classifies err and attaches the operation context. It returns nil for nil.
func Wrap(op, entity string, id uint, err error) error {
	if err == nil {
		return nil
	}
	base := PersistenceError{Op: op, Entity: entity, ID: id, Err: err}
	if kind, ok := classify(err); ok {
		return &ConstraintViolation{PersistenceError: base, Kind: kind}
	}
	return &base
}

// Fail wraps err like Wrap and logs it. Constraint violations are caller
// mistakes and log at warn; cancellations log at debug.
func Fail(log logrus.FieldLogger, op, entity string, id uint, err error) error {
	wrapped := Wrap(op, entity, id, err)
	if wrapped == nil || log == nil {
		return wrapped
	}

	entry := log.WithFields(logrus.Fields{
		"entity": entity,
		"op":     op,
		"id":     id,
	}).WithError(err)

	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		entry.Debug("Persistence operation abandoned")
	case errors.Is(wrapped, ErrConstraint):
		entry.Warn("Constraint violation")
	default:
		entry.Error("Persistence operation failed")
	}
	return wrapped
}

func classify(err error) (ConstraintKind, bool) {
	switch {
	case errors.Is(err, gorm.ErrForeignKeyViolated):
		return ConstraintForeignKey, true
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return ConstraintUnique, true
	}

	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		if sqliteErr.Code != sqlite3.ErrConstraint {
			return "", false
		}
		switch sqliteErr.ExtendedCode {
		case sqlite3.ErrConstraintForeignKey:
			return ConstraintForeignKey, true
		case sqlite3.ErrConstraintNotNull:
			return ConstraintNotNull, true
		case sqlite3.ErrConstraintUnique, sqlite3.ErrConstraintPrimaryKey:
			return ConstraintUnique, true
		case sqlite3.ErrConstraintCheck:
			return ConstraintCheck, true
		case sqlite3.ErrConstraintTrigger:
			// ON DELETE RESTRICT surfaces as a trigger failure.
			if strings.Contains(strings.ToUpper(sqliteErr.Error()), "FOREIGN KEY") {
				return ConstraintForeignKey, true
			}
			return ConstraintOther, true
		default:
			return ConstraintOther, true
		}
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23503":
			return ConstraintForeignKey, true
		case "23502":
			return ConstraintNotNull, true
		case "23505":
			return ConstraintUnique, true
		case "23514":
			return ConstraintCheck, true
		}
		return "", false
	}

	// The pure Go SQLite driver only reports text.
	msg := strings.ToLower(err.Error())
	if !strings.Contains(msg, "constraint failed") {
		return "", false
	}
	switch {
	case strings.Contains(msg, "foreign key"):
		return ConstraintForeignKey, true
	case strings.Contains(msg, "not null"):
		return ConstraintNotNull, true
	case strings.Contains(msg, "unique"):
		return ConstraintUnique, true
	case strings.Contains(msg, "check"):
		return ConstraintCheck, true
	}
	return ConstraintOther, true
}
