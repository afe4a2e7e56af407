package services

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/dharitri/backend/internal/common"
	"github.com/dharitri/backend/internal/server/auth"
	"github.com/dharitri/backend/internal/server/models"
	"github.com/dharitri/backend/internal/server/repositories/repomanager"
	"github.com/dharitri/backend/internal/storage"
	"github.com/samber/lo"
)

// ReportFilter narrows ListAll. Zero values disable a criterion.
type ReportFilter struct {
	// NameFilter is a case-insensitive substring of the owner's username.
	NameFilter string
	// Start and End are inclusive bounds on the upload time.
	Start *time.Time
	End   *time.Time
}

func (f ReportFilter) match(r models.ReportWithOwner) bool {
	if f.NameFilter != "" && !strings.Contains(strings.ToLower(r.Username), strings.ToLower(f.NameFilter)) {
		return false
	}
	if f.Start != nil && r.UploadedAt.Before(*f.Start) {
		return false
	}
	if f.End != nil && r.UploadedAt.After(*f.End) {
		return false
	}
	return true
}

// ReportService serves the report queries and the doctor review update.
type ReportService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	archive     storage.Archive
}

// NewReportService builds the service. archive may be nil when PDF
// archiving is disabled.
func NewReportService(db *sql.DB, m repomanager.RepositoryManager, archive storage.Archive) *ReportService {
	return &ReportService{db: db, repomanager: m, archive: archive}
}

func (s *ReportService) ListForUser(ctx context.Context, owner string) ([]models.Report, error) {
	return s.repomanager.Reports(s.db).ListForUser(ctx, owner)
}

func (s *ReportService) ListPending(ctx context.Context) ([]models.Report, error) {
	return s.repomanager.Reports(s.db).ListPending(ctx)
}

// ListAll returns every report joined with its owner, filtered in memory.
func (s *ReportService) ListAll(ctx context.Context, filter ReportFilter) ([]models.ReportWithOwner, error) {
	all, err := s.repomanager.Reports(s.db).ListAllWithOwner(ctx)
	if err != nil {
		return nil, err
	}
	return lo.Filter(all, func(r models.ReportWithOwner, _ int) bool {
		return filter.match(r)
	}), nil
}

// Update overwrites the doctor's notes and approval flag.
func (s *ReportService) Update(ctx context.Context, id int64, notes string, approval bool) error {
	if err := s.repomanager.Reports(s.db).Update(ctx, id, notes, approval); err != nil {
		return fmt.Errorf("error updating report %d: %w", id, err)
	}
	return nil
}

// DocumentURL returns a presigned link to the archived PDF of report id.
// Doctors may fetch any report, patients only their own.
func (s *ReportService) DocumentURL(ctx context.Context, p *auth.Principal, id int64) (string, error) {
	report, err := s.repomanager.Reports(s.db).GetByID(ctx, id)
	if err != nil {
		return "", err
	}

	if p.Role != models.RoleDoctor && p.Username != report.Owner {
		return "", common.ErrorForbidden
	}

	if report.DocumentKey == nil || s.archive == nil {
		return "", fmt.Errorf("%w: report %d has no archived document", common.ErrorNotFound, id)
	}

	return s.archive.PresignGet(ctx, *report.DocumentKey)
}
