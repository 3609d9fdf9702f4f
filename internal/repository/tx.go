package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Leganyst/studio-booking/internal/apperror"
)

type txKey struct{}

// Transactor выполняет fn в одной транзакции. Репозитории, вызванные с ctx из fn,
// работают в ней же; вложенный вызов присоединяется к внешней.
type Transactor interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}

type GormTransactor struct {
	db   *gorm.DB
	opts *sql.TxOptions
}

// NewGormTransactor создаёт менеджер транзакций; при opts == nil уровень изоляции по умолчанию.
func NewGormTransactor(db *gorm.DB, opts *sql.TxOptions) *GormTransactor {
	return &GormTransactor{db: db, opts: opts}
}

func (t *GormTransactor) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := ctx.Value(txKey{}).(*gorm.DB); ok {
		return fn(ctx)
	}
	run := func(tx *gorm.DB) error {
		return fn(context.WithValue(ctx, txKey{}, tx))
	}
	if t.opts != nil {
		return t.db.WithContext(ctx).Transaction(run, t.opts)
	}
	return t.db.WithContext(ctx).Transaction(run)
}

// conn возвращает транзакцию из ctx, если она есть, иначе общий пул.
func conn(ctx context.Context, db *gorm.DB) *gorm.DB {
	if tx, ok := ctx.Value(txKey{}).(*gorm.DB); ok {
		return tx.WithContext(ctx)
	}
	return db.WithContext(ctx)
}

// forUpdate добавляет SELECT ... FOR UPDATE, sqlite эту часть игнорирует.
func forUpdate(q *gorm.DB) *gorm.DB {
	return q.Clauses(clause.Locking{Strength: "UPDATE"})
}

func translate(err error, entity, id string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperror.NotFound(entity, id)
	}
	return fmt.Errorf("%s %s: %w", entity, id, err)
}

// Коды postgres, которые означают конкурентную запись, а не сбой.
const (
	pgExclusionViolation  = "23P01"
	pgSerializationFailed = "40001"
)

// translateWrite переводит срабатывание exclusion constraint и сбой сериализации в Conflict.
func translateWrite(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}
	switch pgErr.Code {
	case pgExclusionViolation:
		return apperror.Conflict("room is already booked for an overlapping interval")
	case pgSerializationFailed:
		return apperror.Conflict("concurrent write detected, retry the request")
	}
	return err
}
