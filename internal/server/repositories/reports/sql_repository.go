package reports

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dharitri/backend/internal/common"
	"github.com/dharitri/backend/internal/dbx"
	"github.com/dharitri/backend/internal/server/models"
)

const reportColumns = `user_reports.id, user_reports.user_id, user_reports.report_name,
	user_reports.upload_date, user_reports.analysis_result, user_reports.doctor_notes,
	user_reports.doctor_approval, user_reports.is_active,
	user_reports.notification_status, user_reports.document_key`

// SQLRepository implements Repository over database/sql for sqlite and pgx.
type SQLRepository struct {
	db dbx.DBTX
}

func NewSQLRepository(db dbx.DBTX) *SQLRepository {
	return &SQLRepository{db: db}
}

type scanner interface {
	Scan(dest ...any) error
}

func scanReport(s scanner, extra ...any) (models.Report, error) {
	var (
		r      models.Report
		notes  sql.NullString
		key    sql.NullString
		status string
	)
	dest := []any{&r.ID, &r.Owner, &r.Name, &r.UploadedAt, &r.Analysis, &notes,
		&r.DoctorApproval, &r.Active, &status, &key}
	if err := s.Scan(append(dest, extra...)...); err != nil {
		return models.Report{}, err
	}
	if notes.Valid {
		r.DoctorNotes = &notes.String
	}
	if key.Valid {
		r.DocumentKey = &key.String
	}
	r.UploadedAt = r.UploadedAt.UTC()
	r.NotificationStatus = models.NotificationStatus(status)
	return r, nil
}

func (r *SQLRepository) Create(ctx context.Context, report *models.Report) (*models.Report, error) {
	query :=
		`INSERT INTO user_reports
		 (user_id, report_name, upload_date, analysis_result, doctor_approval, is_active, notification_status)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING id`

	if report.NotificationStatus == "" {
		report.NotificationStatus = models.NotificationPending
	}
	report.UploadedAt = report.UploadedAt.UTC()

	err := r.db.QueryRowContext(ctx, query,
		report.Owner, report.Name, report.UploadedAt, report.Analysis,
		report.DoctorApproval, report.Active, string(report.NotificationStatus),
	).Scan(&report.ID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return report, nil
}

func (r *SQLRepository) GetByID(ctx context.Context, id int64) (*models.Report, error) {
	query := `SELECT ` + reportColumns + ` FROM user_reports WHERE user_reports.id = $1`

	report, err := scanReport(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return &report, nil
}

func (r *SQLRepository) ListForUser(ctx context.Context, owner string) ([]models.Report, error) {
	query := `SELECT ` + reportColumns + ` FROM user_reports
		WHERE user_reports.user_id = $1 AND user_reports.is_active = $2
		ORDER BY user_reports.upload_date DESC`

	return r.list(ctx, query, owner, true)
}

func (r *SQLRepository) ListPending(ctx context.Context) ([]models.Report, error) {
	query := `SELECT ` + reportColumns + ` FROM user_reports
		WHERE user_reports.doctor_approval = $1
		ORDER BY user_reports.upload_date DESC`

	return r.list(ctx, query, false)
}

func (r *SQLRepository) list(ctx context.Context, query string, args ...any) ([]models.Report, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	result := []models.Report{}
	for rows.Next() {
		report, err := scanReport(rows)
		if err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, report)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return result, nil
}

func (r *SQLRepository) ListAllWithOwner(ctx context.Context) ([]models.ReportWithOwner, error) {
	query := `SELECT ` + reportColumns + `, users.username, users.email
		FROM user_reports
		JOIN users ON user_reports.user_id = users.username
		ORDER BY user_reports.upload_date DESC`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	result := []models.ReportWithOwner{}
	for rows.Next() {
		var item models.ReportWithOwner
		report, err := scanReport(rows, &item.Username, &item.Email)
		if err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		item.Report = report
		result = append(result, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return result, nil
}

func (r *SQLRepository) Update(ctx context.Context, id int64, notes string, approval bool) error {
	query :=
		`UPDATE user_reports SET doctor_notes = $1, doctor_approval = $2
		 WHERE id = $3`

	return r.execOne(ctx, query, notes, approval, id)
}

func (r *SQLRepository) SetNotificationStatus(ctx context.Context, id int64, status models.NotificationStatus) error {
	query := `UPDATE user_reports SET notification_status = $1 WHERE id = $2`

	return r.execOne(ctx, query, string(status), id)
}

func (r *SQLRepository) SetDocumentKey(ctx context.Context, id int64, key string) error {
	query := `UPDATE user_reports SET document_key = $1 WHERE id = $2`

	return r.execOne(ctx, query, key, id)
}

// execOne runs an UPDATE addressed by primary key and maps zero affected
// rows to common.ErrorNotFound.
func (r *SQLRepository) execOne(ctx context.Context, query string, args ...any) error {
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}
