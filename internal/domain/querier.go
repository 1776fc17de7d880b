package domain

import (
	"context"
	"database/sql"
)

// Querier объединяет *sql.DB и *sql.Tx: репозиторий не знает, выполняется ли
// запрос внутри транзакции.
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}
