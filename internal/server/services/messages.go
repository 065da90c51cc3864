// This file implements MessageService, which mediates every message
// operation: the caller's principal username (resolved from the bearer
// token) is checked against the target record before any read or mutation.
package services

import (
	"context"
	"database/sql"
	"errors"

	"github.com/mpc180222/messagely/internal/common"
	"github.com/mpc180222/messagely/internal/server/models"
	"github.com/mpc180222/messagely/internal/server/repositories/repomanager"
)

// MessageService provides message operations with per-operation
// authorization:
// - Send: sender is always the principal
// - Get: only sender or recipient may read
// - MarkRead: only the recipient may mark
// - ListFrom/ListTo: only the named user themselves
type MessageService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
}

// NewMessageService constructs a MessageService.
func NewMessageService(db *sql.DB, m repomanager.RepositoryManager) *MessageService {
	return &MessageService{db: db, repomanager: m}
}

// Send creates a message from the principal to toUsername. A declared
// from_username in the request is honored only when it matches the
// principal; anything else is ErrorForbidden. Unknown recipients map to
// ErrorValidation (referential integrity).
func (s *MessageService) Send(ctx context.Context, principal, declaredFrom, toUsername, body string) (*models.Message, error) {
	if toUsername == "" || body == "" {
		return nil, common.ErrorValidation
	}
	if declaredFrom != "" && declaredFrom != principal {
		return nil, common.ErrorForbidden
	}

	repo := s.repomanager.Messages(s.db)

	msg := &models.Message{
		FromUsername: principal,
		ToUsername:   toUsername,
		Body:         body,
	}

	msg, err := repo.Create(ctx, msg)
	if err != nil {
		if errors.Is(err, common.ErrorValidation) {
			return nil, common.ErrorValidation
		}
		return nil, common.ErrorInternal
	}

	return msg, nil
}

// Get returns the joined message view if the principal is either party.
func (s *MessageService) Get(ctx context.Context, principal, id string) (*models.MessageDetail, error) {
	repo := s.repomanager.Messages(s.db)

	msg, err := repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorNotFound
		}
		return nil, common.ErrorInternal
	}

	if principal != msg.FromUser.Username && principal != msg.ToUser.Username {
		return nil, common.ErrorForbidden
	}

	return msg, nil
}

// MarkRead stamps read_at if the principal is the recipient. The sender may
// never mark their own sent message read. Re-marking re-stamps.
func (s *MessageService) MarkRead(ctx context.Context, principal, id string) (*models.ReadReceipt, error) {
	repo := s.repomanager.Messages(s.db)

	recipient, err := repo.Recipient(ctx, id)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorNotFound
		}
		return nil, common.ErrorInternal
	}

	if recipient != principal {
		return nil, common.ErrorForbidden
	}

	receipt, err := repo.MarkRead(ctx, id)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorNotFound
		}
		return nil, common.ErrorInternal
	}

	return receipt, nil
}

// ListFrom returns the messages username has sent, with the recipients'
// public views. Only the user themselves may ask. No messages is an empty
// slice, not an error.
func (s *MessageService) ListFrom(ctx context.Context, principal, username string) ([]models.OutgoingMessage, error) {
	if principal != username {
		return nil, common.ErrorForbidden
	}

	repo := s.repomanager.Messages(s.db)

	list, err := repo.ListFrom(ctx, username)
	if err != nil {
		return nil, common.ErrorInternal
	}
	return list, nil
}

// ListTo returns the messages sent to username, with the senders' public
// views. Only the user themselves may ask.
func (s *MessageService) ListTo(ctx context.Context, principal, username string) ([]models.IncomingMessage, error) {
	if principal != username {
		return nil, common.ErrorForbidden
	}

	repo := s.repomanager.Messages(s.db)

	list, err := repo.ListTo(ctx, username)
	if err != nil {
		return nil, common.ErrorInternal
	}
	return list, nil
}
