package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// querier は *pgxpool.Pool と pgx.Tx の共通部分
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PgStore は Store の PostgreSQL 実装
type PgStore struct {
	pool *pgxpool.Pool // トランザクション内では nil
	q    querier
}

// NewPgStore は PgStore を生成する
func NewPgStore(pool *pgxpool.Pool) *PgStore {
	return &PgStore{pool: pool, q: pool}
}

// Ping は DB の疎通確認を行う
func (s *PgStore) Ping(ctx context.Context) error {
	if s.pool == nil {
		return ErrPingInTx
	}
	return s.pool.Ping(ctx)
}

func (s *PgStore) Projects() ProjectRepository     { return &PgProjectRepository{q: s.q} }
func (s *PgStore) Milestones() MilestoneRepository { return &PgMilestoneRepository{q: s.q} }
func (s *PgStore) Deliveries() DeliveryRepository  { return &PgDeliveryRepository{q: s.q} }
func (s *PgStore) Messages() MessageRepository     { return &PgMessageRepository{q: s.q} }
func (s *PgStore) Files() FileRepository           { return &PgFileRepository{q: s.q} }

// WithinTx は fn を 1 トランザクションで実行する
func (s *PgStore) WithinTx(ctx context.Context, fn func(tx Store) error) error {
	if s.pool == nil {
		return fn(s)
	}
	return pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		return fn(&PgStore{q: tx})
	})
}

// notFound は pgx.ErrNoRows を ErrNotFound に変換する
func notFound(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	return err
}

// expectOne は UPDATE の影響行数が 0 のとき ErrNotFound を返す
func expectOne(tag pgconn.CommandTag, err error) error {
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
