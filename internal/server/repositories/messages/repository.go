package messages

import (
	"context"

	"github.com/mpc180222/messagely/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, msg *models.Message) (*models.Message, error)
	Get(ctx context.Context, id string) (*models.MessageDetail, error)
	// Recipient returns to_username without loading the joined views. Used
	// by the mark-read authorization check.
	Recipient(ctx context.Context, id string) (string, error)
	MarkRead(ctx context.Context, id string) (*models.ReadReceipt, error)
	ListFrom(ctx context.Context, username string) ([]models.OutgoingMessage, error)
	ListTo(ctx context.Context, username string) ([]models.IncomingMessage, error)
}
