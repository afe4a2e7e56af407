package services

import (
	"context"
	"database/sql"
	"sync"

	"github.com/dharitri/backend/internal/common"
	"github.com/dharitri/backend/internal/dbx"
	"github.com/dharitri/backend/internal/server/models"
	"github.com/dharitri/backend/internal/server/repositories/reports"
	"github.com/dharitri/backend/internal/server/repositories/users"
)

type fakeUsersRepo struct {
	mu     sync.Mutex
	byName map[string]*models.User
	getErr error
}

func newFakeUsersRepo() *fakeUsersRepo {
	return &fakeUsersRepo{byName: map[string]*models.User{}}
}

func (f *fakeUsersRepo) Create(ctx context.Context, u *models.User) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.byName[u.Username]; ok {
		return nil, common.ErrorAlreadyExists
	}
	u.ID = int64(len(f.byName) + 1)
	cp := *u
	f.byName[u.Username] = &cp
	return u, nil
}

func (f *fakeUsersRepo) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, f.getErr
	}
	u, ok := f.byName[username]
	if !ok {
		return nil, common.ErrorNotFound
	}
	cp := *u
	return &cp, nil
}

type fakeReportsRepo struct {
	reports.Repository
	byID      map[int64]*models.Report
	all       []models.ReportWithOwner
	updateErr error
	updated   []int64
}

func (f *fakeReportsRepo) GetByID(ctx context.Context, id int64) (*models.Report, error) {
	r, ok := f.byID[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return r, nil
}

func (f *fakeReportsRepo) ListAllWithOwner(ctx context.Context) ([]models.ReportWithOwner, error) {
	return f.all, nil
}

func (f *fakeReportsRepo) Update(ctx context.Context, id int64, notes string, approval bool) error {
	if f.updateErr != nil {
		return f.updateErr
	}
	f.updated = append(f.updated, id)
	return nil
}

type fakeRepoManager struct {
	u *fakeUsersRepo
	r *fakeReportsRepo
}

func (m *fakeRepoManager) RunMigrations(context.Context, *sql.DB) error { return nil }
func (m *fakeRepoManager) Users(db dbx.DBTX) users.Repository          { return m.u }
func (m *fakeRepoManager) Reports(db dbx.DBTX) reports.Repository      { return m.r }

type fakeArchive struct {
	presigned []string
}

func (a *fakeArchive) Put(ctx context.Context, key string, body []byte, contentType string) error {
	return nil
}

func (a *fakeArchive) PresignGet(ctx context.Context, key string) (string, error) {
	a.presigned = append(a.presigned, key)
	return "https://s3.test/" + key, nil
}
