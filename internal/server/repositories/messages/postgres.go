package messages

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/mpc180222/messagely/internal/common"
	"github.com/mpc180222/messagely/internal/dbx"
	"github.com/mpc180222/messagely/internal/server/models"
)

const foreignKeyViolationCode = "23503"

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, msg *models.Message) (*models.Message, error) {

	if msg.ID == "" {
		msg.ID = uuid.NewString()
	}

	query :=
		`INSERT INTO messages (id, from_username, to_username, body, sent_at)
         VALUES ($1, $2, $3, $4, now())
		 RETURNING sent_at
		 `

	err := r.db.QueryRowContext(ctx, query,
		msg.ID, msg.FromUsername, msg.ToUsername, msg.Body).Scan(&msg.SentAt)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == foreignKeyViolationCode {
			return nil, common.ErrorValidation
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return msg, nil
}

func (r *PostgresRepository) Get(ctx context.Context, id string) (*models.MessageDetail, error) {
	query :=
		`SELECT m.id, m.body, m.sent_at, m.read_at,
		        f.username, f.first_name, f.last_name, f.phone,
		        t.username, t.first_name, t.last_name, t.phone
		 FROM messages m
		 JOIN users f ON m.from_username = f.username
		 JOIN users t ON m.to_username = t.username
		 WHERE m.id = $1
		 `

	msg := &models.MessageDetail{}
	var readAt sql.NullTime
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&msg.ID, &msg.Body, &msg.SentAt, &readAt,
		&msg.FromUser.Username, &msg.FromUser.FirstName, &msg.FromUser.LastName, &msg.FromUser.Phone,
		&msg.ToUser.Username, &msg.ToUser.FirstName, &msg.ToUser.LastName, &msg.ToUser.Phone)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	if readAt.Valid {
		msg.ReadAt = &readAt.Time
	}

	return msg, nil
}

func (r *PostgresRepository) Recipient(ctx context.Context, id string) (string, error) {
	query :=
		`SELECT to_username FROM messages
		 WHERE id = $1
		 `

	var recipient string
	err := r.db.QueryRowContext(ctx, query, id).Scan(&recipient)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", common.ErrorNotFound
		}
		return "", fmt.Errorf("db error: %w", err)
	}

	return recipient, nil
}

func (r *PostgresRepository) MarkRead(ctx context.Context, id string) (*models.ReadReceipt, error) {
	query :=
		`UPDATE messages SET read_at = now()
		 WHERE id = $1
		 RETURNING id, read_at
		 `

	receipt := &models.ReadReceipt{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(&receipt.ID, &receipt.ReadAt)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return receipt, nil
}

func (r *PostgresRepository) ListFrom(ctx context.Context, username string) ([]models.OutgoingMessage, error) {
	query :=
		`SELECT m.id, m.body, m.sent_at, m.read_at,
		        t.username, t.first_name, t.last_name, t.phone
		 FROM messages m
		 JOIN users t ON m.to_username = t.username
		 WHERE m.from_username = $1
		 ORDER BY m.sent_at
		 `

	rows, err := r.db.QueryContext(ctx, query, username)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	result := make([]models.OutgoingMessage, 0)
	for rows.Next() {
		var m models.OutgoingMessage
		var readAt sql.NullTime
		if err := rows.Scan(&m.ID, &m.Body, &m.SentAt, &readAt,
			&m.ToUser.Username, &m.ToUser.FirstName, &m.ToUser.LastName, &m.ToUser.Phone); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		if readAt.Valid {
			m.ReadAt = &readAt.Time
		}
		result = append(result, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return result, nil
}

func (r *PostgresRepository) ListTo(ctx context.Context, username string) ([]models.IncomingMessage, error) {
	query :=
		`SELECT m.id, m.body, m.sent_at, m.read_at,
		        f.username, f.first_name, f.last_name, f.phone
		 FROM messages m
		 JOIN users f ON m.from_username = f.username
		 WHERE m.to_username = $1
		 ORDER BY m.sent_at
		 `

	rows, err := r.db.QueryContext(ctx, query, username)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	result := make([]models.IncomingMessage, 0)
	for rows.Next() {
		var m models.IncomingMessage
		var readAt sql.NullTime
		if err := rows.Scan(&m.ID, &m.Body, &m.SentAt, &readAt,
			&m.FromUser.Username, &m.FromUser.FirstName, &m.FromUser.LastName, &m.FromUser.Phone); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		if readAt.Valid {
			m.ReadAt = &readAt.Time
		}
		result = append(result, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return result, nil
}
