package reports

import (
	"context"

	"github.com/dharitri/backend/internal/server/models"
)

// Repository is the Report Store. All list methods return newest first.
type Repository interface {
	// Create persists a freshly analyzed report and fills its ID.
	Create(ctx context.Context, report *models.Report) (*models.Report, error)
	GetByID(ctx context.Context, id int64) (*models.Report, error)
	// ListForUser returns the owner's active reports.
	ListForUser(ctx context.Context, owner string) ([]models.Report, error)
	// ListPending returns unapproved reports of every user.
	ListPending(ctx context.Context) ([]models.Report, error)
	// ListAllWithOwner inner-joins reports with their owners; reports whose
	// owner no longer exists are omitted.
	ListAllWithOwner(ctx context.Context) ([]models.ReportWithOwner, error)
	// Update overwrites notes and approval. Unknown ids yield common.ErrorNotFound.
	Update(ctx context.Context, id int64, notes string, approval bool) error
	SetNotificationStatus(ctx context.Context, id int64, status models.NotificationStatus) error
	SetDocumentKey(ctx context.Context, id int64, key string) error
}
