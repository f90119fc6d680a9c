package repository

import (
	"context"
	"fmt"

	"github.com/Freeeeeet/supervision/internal/model"
	"github.com/Freeeeeet/supervision/internal/repository/base"
)

type ConnectionRepository struct {
	base.Repository
}

// EnsureAccepted находит связь пары в любом направлении и делает её принятой
func (r *ConnectionRepository) EnsureAccepted(ctx context.Context, a, b int64) (*model.Connection, error) {
	query := `
		SELECT id, requester_id, addressee_id, status, created_at, updated_at
		FROM connections
		WHERE (requester_id = $1 AND addressee_id = $2) OR (requester_id = $2 AND addressee_id = $1)
		LIMIT 1
		FOR UPDATE
	`

	var c model.Connection
	err := r.Q().QueryRow(ctx, query, a, b).Scan(&c.ID, &c.RequesterID, &c.AddresseeID, &c.Status, &c.CreatedAt, &c.UpdatedAt)
	if err != nil && !base.IsNotFound(err) {
		return nil, fmt.Errorf("find connection: %w", err)
	}

	// Связи нет - создаём сразу принятой
	if base.IsNotFound(err) {
		insert := `
			INSERT INTO connections (requester_id, addressee_id, status)
			VALUES ($1, $2, $3)
			RETURNING id, requester_id, addressee_id, status, created_at, updated_at
		`
		err = r.Q().QueryRow(ctx, insert, a, b, model.ConnectionStatusAccepted).
			Scan(&c.ID, &c.RequesterID, &c.AddresseeID, &c.Status, &c.CreatedAt, &c.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("create connection: %w", err)
		}
		return &c, nil
	}

	if c.Status == model.ConnectionStatusAccepted {
		return &c, nil
	}

	update := `UPDATE connections SET status = $1, updated_at = NOW() WHERE id = $2 RETURNING updated_at`
	if err := r.Q().QueryRow(ctx, update, model.ConnectionStatusAccepted, c.ID).Scan(&c.UpdatedAt); err != nil {
		return nil, fmt.Errorf("accept connection: %w", err)
	}
	c.Status = model.ConnectionStatusAccepted
	return &c, nil
}
