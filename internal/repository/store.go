package repository

import (
	"context"
	"fmt"

	"github.com/Freeeeeet/supervision/internal/repository/base"
	"github.com/Freeeeeet/supervision/internal/storage"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Store реализация storage.Store поверх PostgreSQL
type Store struct {
	pool *pgxpool.Pool
	q    base.Querier
	tx   pgx.Tx
}

var _ storage.Store = (*Store)(nil)

// NewStore создаёт хранилище, работающее через пул
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool, q: pool}
}

func (s *Store) Users() storage.UserRepository                 { return &UserRepository{base.NewRepository(s.q)} }
func (s *Store) Shortlists() storage.ShortlistRepository       { return &ShortlistRepository{base.NewRepository(s.q)} }
func (s *Store) Requests() storage.RequestRepository           { return &RequestRepository{base.NewRepository(s.q)} }
func (s *Store) Relationships() storage.RelationshipRepository { return &RelationshipRepository{base.NewRepository(s.q)} }
func (s *Store) Onboarding() storage.OnboardingRepository      { return &OnboardingRepository{base.NewRepository(s.q)} }
func (s *Store) Invitations() storage.InvitationRepository     { return &InvitationRepository{base.NewRepository(s.q)} }
func (s *Store) Unbinds() storage.UnbindRepository             { return &UnbindRepository{base.NewRepository(s.q)} }
func (s *Store) Meetings() storage.MeetingRepository           { return &MeetingRepository{base.NewRepository(s.q)} }
func (s *Store) Abstracts() storage.AbstractRepository         { return &AbstractRepository{base.NewRepository(s.q)} }
func (s *Store) Connections() storage.ConnectionRepository     { return &ConnectionRepository{base.NewRepository(s.q)} }

// InTx выполняет fn в одной транзакции
func (s *Store) InTx(ctx context.Context, fn func(tx storage.Store) error) error {
	// Уже внутри транзакции - используем её
	if s.tx != nil {
		return fn(s)
	}

	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := fn(&Store{pool: s.pool, q: tx, tx: tx}); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}
