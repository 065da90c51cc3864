package users

import (
	"context"
	"time"

	"github.com/mpc180222/messagely/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, user *models.User) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	GetPublic(ctx context.Context, username string) (*models.UserPublic, error)
	ListAll(ctx context.Context) ([]models.UserSummary, error)
	TouchLogin(ctx context.Context, username string) (time.Time, error)
}
