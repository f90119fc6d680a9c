package base

import (
	"context"
	"errors"

	"github.com/Freeeeeet/supervision/internal/storage"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Querier is satisfied by both *pgxpool.Pool and pgx.Tx, so repositories
// built on it join whatever transaction they were handed.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Repository базовый репозиторий с общими методами
type Repository struct {
	q Querier
}

// NewRepository создаёт новый базовый репозиторий
func NewRepository(q Querier) Repository {
	return Repository{q: q}
}

// Q возвращает текущий исполнитель запросов (пул или транзакция)
func (r Repository) Q() Querier {
	return r.q
}

// ExecAffected выполняет команду и возвращает количество затронутых строк
func (r Repository) ExecAffected(ctx context.Context, query string, args ...any) (int64, error) {
	tag, err := r.q.Exec(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// ExecOne выполняет команду и требует ровно одну затронутую строку
func (r Repository) ExecOne(ctx context.Context, query string, args ...any) error {
	n, err := r.ExecAffected(ctx, query, args...)
	if err != nil {
		return err
	}
	if n == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// Count выполняет COUNT-запрос
func (r Repository) Count(ctx context.Context, query string, args ...any) (int, error) {
	var n int
	if err := r.q.QueryRow(ctx, query, args...).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

// Exists выполняет SELECT EXISTS(...)
func (r Repository) Exists(ctx context.Context, query string, args ...any) (bool, error) {
	var ok bool
	if err := r.q.QueryRow(ctx, query, args...).Scan(&ok); err != nil {
		return false, err
	}
	return ok, nil
}

// IsNotFound проверяет является ли ошибка "строка не найдена"
func IsNotFound(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}

// NotFound converts pgx.ErrNoRows into storage.ErrNotFound and leaves other errors alone.
func NotFound(err error) error {
	if IsNotFound(err) {
		return storage.ErrNotFound
	}
	return err
}
