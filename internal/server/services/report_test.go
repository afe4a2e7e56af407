package services

import (
	"context"
	"testing"
	"time"

	"github.com/dharitri/backend/internal/common"
	"github.com/dharitri/backend/internal/server/auth"
	"github.com/dharitri/backend/internal/server/models"
	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func withOwner(id int64, username string, at time.Time) models.ReportWithOwner {
	return models.ReportWithOwner{
		Report:   models.Report{ID: id, Owner: username, UploadedAt: at},
		Username: username,
	}
}

func TestListAll_Filters(t *testing.T) {
	day := func(d int) time.Time { return time.Date(2025, 1, d, 12, 0, 0, 0, time.UTC) }
	repo := &fakeReportsRepo{all: []models.ReportWithOwner{
		withOwner(4, "PatientAlice", day(20)),
		withOwner(3, "bob", day(15)),
		withOwner(2, "alice_b", day(10)),
		withOwner(1, "carol", day(5)),
	}}
	s := NewReportService(nil, &fakeRepoManager{r: repo}, nil)

	ids := func(rs []models.ReportWithOwner) []int64 {
		return lo.Map(rs, func(r models.ReportWithOwner, _ int) int64 { return r.ID })
	}
	start, end := day(10), day(15)

	tests := []struct {
		name   string
		filter ReportFilter
		want   []int64
	}{
		{"none", ReportFilter{}, []int64{4, 3, 2, 1}},
		{"name case-insensitive", ReportFilter{NameFilter: "ALICE"}, []int64{4, 2}},
		{"inclusive range", ReportFilter{Start: &start, End: &end}, []int64{3, 2}},
		{"name and start", ReportFilter{NameFilter: "alice", Start: &end}, []int64{4}},
		{"no match", ReportFilter{NameFilter: "zed"}, []int64{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := s.ListAll(context.Background(), tt.filter)
			require.NoError(t, err)
			assert.Equal(t, tt.want, ids(got))
		})
	}
}

func TestUpdate_UnknownReport(t *testing.T) {
	repo := &fakeReportsRepo{updateErr: common.ErrorNotFound}
	s := NewReportService(nil, &fakeRepoManager{r: repo}, nil)

	err := s.Update(context.Background(), 42, "n", true)
	assert.ErrorIs(t, err, common.ErrorNotFound)
}

func TestDocumentURL(t *testing.T) {
	key := "reports/2025/01/01/a.pdf"
	repo := &fakeReportsRepo{byID: map[int64]*models.Report{
		1: {ID: 1, Owner: "alice", DocumentKey: &key},
		2: {ID: 2, Owner: "alice"},
	}}
	archive := &fakeArchive{}
	s := NewReportService(nil, &fakeRepoManager{r: repo}, archive)
	ctx := context.Background()

	owner := &auth.Principal{Username: "alice", Role: models.RolePatient}
	doctor := &auth.Principal{Username: "house", Role: models.RoleDoctor}
	stranger := &auth.Principal{Username: "mallory", Role: models.RolePatient}

	url, err := s.DocumentURL(ctx, owner, 1)
	require.NoError(t, err)
	assert.Equal(t, "https://s3.test/"+key, url)

	_, err = s.DocumentURL(ctx, doctor, 1)
	require.NoError(t, err)

	_, err = s.DocumentURL(ctx, stranger, 1)
	assert.ErrorIs(t, err, common.ErrorForbidden)

	_, err = s.DocumentURL(ctx, owner, 2)
	assert.ErrorIs(t, err, common.ErrorNotFound)

	_, err = s.DocumentURL(ctx, doctor, 99)
	assert.ErrorIs(t, err, common.ErrorNotFound)

	assert.Len(t, archive.presigned, 2)

	noArchive := NewReportService(nil, &fakeRepoManager{r: repo}, nil)
	_, err = noArchive.DocumentURL(ctx, owner, 1)
	assert.ErrorIs(t, err, common.ErrorNotFound)
}
