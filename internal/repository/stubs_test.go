package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

type stubPool struct {
	queryRowFunc func(ctx context.Context, query string, args ...any) pgx.Row
	queryFunc    func(ctx context.Context, query string, args ...any) (pgx.Rows, error)
	execFunc     func(ctx context.Context, query string, args ...any) (pgconn.CommandTag, error)
	beginTxFunc  func(ctx context.Context, txOptions pgx.TxOptions) (pgx.Tx, error)
}

func (s *stubPool) QueryRow(ctx context.Context, query string, args ...any) pgx.Row {
	if s.queryRowFunc != nil {
		return s.queryRowFunc(ctx, query, args...)
	}
	return &stubRow{scan: func(dest ...any) error { return nil }}
}

func (s *stubPool) Query(ctx context.Context, query string, args ...any) (pgx.Rows, error) {
	if s.queryFunc != nil {
		return s.queryFunc(ctx, query, args...)
	}
	return nil, errors.New("query not implemented")
}

func (s *stubPool) Exec(ctx context.Context, query string, args ...any) (pgconn.CommandTag, error) {
	if s.execFunc != nil {
		return s.execFunc(ctx, query, args...)
	}
	return pgconn.CommandTag{}, errors.New("exec not implemented")
}

func (s *stubPool) BeginTx(ctx context.Context, txOptions pgx.TxOptions) (pgx.Tx, error) {
	if s.beginTxFunc != nil {
		return s.beginTxFunc(ctx, txOptions)
	}
	return nil, errors.New("begin tx not implemented")
}

type stubRow struct {
	scan func(dest ...any) error
}

func (s *stubRow) Scan(dest ...any) error {
	if s.scan != nil {
		return s.scan(dest...)
	}
	return nil
}

type stubRows struct {
	scans []func(dest ...any) error
	idx   int
	err   error
}

func (s *stubRows) Close() {}

func (s *stubRows) Err() error { return s.err }

func (s *stubRows) CommandTag() pgconn.CommandTag { return pgconn.CommandTag{} }

func (s *stubRows) FieldDescriptions() []pgconn.FieldDescription { return nil }

func (s *stubRows) Next() bool {
	if s.err != nil {
		return false
	}
	if s.idx < len(s.scans) {
		s.idx++
		return true
	}
	return false
}

func (s *stubRows) Scan(dest ...any) error {
	if s.idx == 0 || s.idx > len(s.scans) {
		return errors.New("scan called out of order")
	}
	return s.scans[s.idx-1](dest...)
}

func (s *stubRows) Values() ([]any, error) { return nil, nil }

func (s *stubRows) RawValues() [][]byte { return nil }

func (s *stubRows) Conn() *pgx.Conn { return nil }

// stubTx records the statements issued inside a transaction.
type stubTx struct {
	queryRowFunc  func(ctx context.Context, query string, args ...any) pgx.Row
	queryFunc     func(ctx context.Context, query string, args ...any) (pgx.Rows, error)
	execFunc      func(ctx context.Context, query string, args ...any) (pgconn.CommandTag, error)
	sendBatchFunc func(ctx context.Context, b *pgx.Batch) pgx.BatchResults
	committed     bool
	rolledBack    bool
	statements    []string
}

func (s *stubTx) Begin(ctx context.Context) (pgx.Tx, error) { return s, nil }

func (s *stubTx) Commit(ctx context.Context) error {
	s.committed = true
	return nil
}

func (s *stubTx) Rollback(ctx context.Context) error {
	if !s.committed {
		s.rolledBack = true
	}
	return nil
}

func (s *stubTx) CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error) {
	return 0, errors.New("copy not implemented")
}

func (s *stubTx) SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults {
	if s.sendBatchFunc != nil {
		return s.sendBatchFunc(ctx, b)
	}
	return &stubBatchResults{err: errors.New("batch not implemented")}
}

func (s *stubTx) LargeObjects() pgx.LargeObjects { return pgx.LargeObjects{} }

func (s *stubTx) Prepare(ctx context.Context, name, sql string) (*pgconn.StatementDescription, error) {
	return nil, errors.New("prepare not implemented")
}

func (s *stubTx) Exec(ctx context.Context, query string, args ...any) (pgconn.CommandTag, error) {
	s.statements = append(s.statements, query)
	if s.execFunc != nil {
		return s.execFunc(ctx, query, args...)
	}
	return pgconn.CommandTag{}, nil
}

func (s *stubTx) Query(ctx context.Context, query string, args ...any) (pgx.Rows, error) {
	s.statements = append(s.statements, query)
	if s.queryFunc != nil {
		return s.queryFunc(ctx, query, args...)
	}
	return &stubRows{}, nil
}

func (s *stubTx) QueryRow(ctx context.Context, query string, args ...any) pgx.Row {
	s.statements = append(s.statements, query)
	if s.queryRowFunc != nil {
		return s.queryRowFunc(ctx, query, args...)
	}
	return &stubRow{}
}

func (s *stubTx) Conn() *pgx.Conn { return nil }

type stubBatchResults struct {
	tags []pgconn.CommandTag
	idx  int
	err  error
}

func (s *stubBatchResults) Exec() (pgconn.CommandTag, error) {
	if s.err != nil {
		return pgconn.CommandTag{}, s.err
	}
	if s.idx >= len(s.tags) {
		return pgconn.CommandTag{}, errors.New("no more batch results")
	}
	tag := s.tags[s.idx]
	s.idx++
	return tag, nil
}

func (s *stubBatchResults) Query() (pgx.Rows, error) { return nil, errors.New("query not implemented") }

func (s *stubBatchResults) QueryRow() pgx.Row { return &stubRow{} }

func (s *stubBatchResults) Close() error { return nil }
