package postgres

import (
	"context"
	_ "embed"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"

	"github.com/gosuda/tasktrack/internal/domain"
)

//go:embed schema.sql
var schema string

// DBTX is satisfied by both *pgxpool.Pool and pgx.Tx, so every repository
// runs unchanged inside or outside a transaction.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type repos struct {
	users        *UserRepo
	tasks        *TaskRepo
	participants *ParticipantRepo
	comments     *CommentRepo
	audit        *AuditRepo
}

func newRepos(db DBTX) *repos {
	return &repos{
		users:        NewUserRepo(db),
		tasks:        NewTaskRepo(db),
		participants: NewParticipantRepo(db),
		comments:     NewCommentRepo(db),
		audit:        NewAuditRepo(db),
	}
}

func (r *repos) Users() domain.UserRepository               { return r.users }
func (r *repos) Tasks() domain.TaskRepository               { return r.tasks }
func (r *repos) Participants() domain.ParticipantRepository { return r.participants }
func (r *repos) Comments() domain.CommentRepository         { return r.comments }
func (r *repos) Audit() domain.AuditRepository              { return r.audit }

type Store struct {
	*repos
	pool *pgxpool.Pool
}

func New(ctx context.Context, dsn string, maxConns int32) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres.New: parse config: %w", err)
	}

	cfg.MaxConns = maxConns

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("postgres.New: connect: %w", err)
	}

	err = pool.Ping(ctx)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres.New: ping: %w", err)
	}

	return &Store{repos: newRepos(pool), pool: pool}, nil
}

// EnsureSchema creates any missing tables and indexes. It is idempotent.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("postgres.EnsureSchema: %w", err)
	}
	return nil
}

func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

func (s *Store) Close() {
	s.pool.Close()
}

// WithTx runs fn in a read-committed transaction. Row locks taken through
// GetForUpdate are held until fn returns.
func (s *Store) WithTx(ctx context.Context, fn func(tx domain.Repositories) error) error {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("postgres.WithTx: begin: %w", err)
	}
	defer func() {
		if rbErr := tx.Rollback(ctx); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
			log.Warn().Err(rbErr).Msg("postgres.WithTx: rollback failed")
		}
	}()

	if err := fn(newRepos(tx)); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("postgres.WithTx: commit: %w", translateError(err))
	}

	return nil
}
