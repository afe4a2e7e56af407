package pipeline

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/dharitri/backend/internal/common"
	"github.com/dharitri/backend/internal/dbx"
	"github.com/dharitri/backend/internal/events"
	"github.com/dharitri/backend/internal/notify"
	"github.com/dharitri/backend/internal/server/models"
	"github.com/dharitri/backend/internal/server/repositories/reports"
	"github.com/dharitri/backend/internal/server/repositories/users"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"
)

// memReports stores reports in memory.
type memReports struct {
	reports.Repository
	mu      sync.Mutex
	rows    map[int64]*models.Report
	nextID  int64
	saveErr error
}

func newMemReports() *memReports {
	return &memReports{rows: map[int64]*models.Report{}}
}

func (m *memReports) Create(ctx context.Context, r *models.Report) (*models.Report, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveErr != nil {
		return nil, m.saveErr
	}
	m.nextID++
	r.ID = m.nextID
	cp := *r
	m.rows[r.ID] = &cp
	return r, nil
}

func (m *memReports) SetNotificationStatus(ctx context.Context, id int64, status models.NotificationStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows[id].NotificationStatus = status
	return nil
}

func (m *memReports) SetDocumentKey(ctx context.Context, id int64, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows[id].DocumentKey = &key
	return nil
}

func (m *memReports) get(id int64) models.Report {
	m.mu.Lock()
	defer m.mu.Unlock()
	return *m.rows[id]
}

type memManager struct{ r *memReports }

func (m *memManager) RunMigrations(context.Context, *sql.DB) error { return nil }
func (m *memManager) Users(dbx.DBTX) users.Repository               { return nil }
func (m *memManager) Reports(dbx.DBTX) reports.Repository           { return m.r }

// flatEmbedder gives every text the same direction, so retrieval order is
// irrelevant and only the chunk set matters.
type flatEmbedder struct{ err error }

func (e flatEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if e.err != nil {
		return nil, e.err
	}
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = []float32{1, 0}
	}
	return out, nil
}

// echoAnalyzer returns the chunks it was given.
type echoAnalyzer struct{ err error }

func (a echoAnalyzer) Analyze(ctx context.Context, chunks []string) (string, error) {
	if a.err != nil {
		return "", a.err
	}
	return "analysis of " + strings.Join(chunks, "|"), nil
}

type sentMail struct{ to, body, filename string }

type fakeSender struct {
	mu   sync.Mutex
	sent []sentMail
	err  error
}

func (s *fakeSender) SendReport(ctx context.Context, to, analysis string, pdf []byte, filename string) error {
	if to == "" {
		return notify.ErrNoRecipient
	}
	if s.err != nil {
		return s.err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = append(s.sent, sentMail{to: to, body: analysis, filename: filename})
	return nil
}

type fakeArchive struct {
	keys []string
	err  error
}

func (a *fakeArchive) Put(ctx context.Context, key string, body []byte, contentType string) error {
	if a.err != nil {
		return a.err
	}
	a.keys = append(a.keys, key)
	return nil
}

func (a *fakeArchive) PresignGet(ctx context.Context, key string) (string, error) {
	return "", nil
}

type fakePublisher struct {
	mu     sync.Mutex
	events []events.Event
}

func (p *fakePublisher) Publish(ctx context.Context, e events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return nil
}

func (p *fakePublisher) Close() error { return nil }

// stubExtract makes every upload's content its text.
func stubExtract(t *testing.T) {
	t.Helper()
	orig := extractText
	extractText = func(b []byte) (string, error) {
		if string(b) == "%corrupt" {
			return "", errors.New("malformed pdf")
		}
		return string(b), nil
	}
	t.Cleanup(func() { extractText = orig })
}

type fixture struct {
	p         *Pipeline
	repo      *memReports
	sender    *fakeSender
	archive   *fakeArchive
	publisher *fakePublisher
}

func newFixture(t *testing.T, mod func(*Deps)) *fixture {
	t.Helper()
	stubExtract(t)

	// only transaction boundaries hit the database; rows live in memReports
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	f := &fixture{
		repo:      newMemReports(),
		sender:    &fakeSender{},
		archive:   &fakeArchive{},
		publisher: &fakePublisher{},
	}
	d := Deps{
		DB:        db,
		Repos:     &memManager{r: f.repo},
		Embedder:  flatEmbedder{},
		Analyzer:  echoAnalyzer{},
		Sender:    f.sender,
		Recipient: "doctor@clinic.test",
		Archive:   f.archive,
		Publisher: f.publisher,
	}
	if mod != nil {
		mod(&d)
	}
	f.p = New(d)
	f.p.now = func() time.Time { return time.Date(2025, 3, 4, 10, 0, 0, 0, time.UTC) }
	return f
}

func TestAnalyze(t *testing.T) {
	f := newFixture(t, nil)

	res, err := f.p.Analyze(context.Background(), "alice", Upload{Name: "labs.pdf", Content: []byte("glucose 180")})
	require.NoError(t, err)

	assert.Equal(t, int64(1), res.ReportID)
	assert.Equal(t, "analysis of glucose 180", res.Analysis)
	assert.Equal(t, models.NotificationSent, res.NotificationStatus)
	assert.Equal(t, "doctor@clinic.test", res.Recipient)

	row := f.repo.get(1)
	assert.Equal(t, "alice", row.Owner)
	assert.Equal(t, "labs.pdf", row.Name)
	assert.Equal(t, res.Analysis, row.Analysis)
	assert.False(t, row.DoctorApproval)
	assert.Nil(t, row.DoctorNotes)
	assert.True(t, row.Active)
	assert.Equal(t, models.NotificationSent, row.NotificationStatus)
	require.NotNil(t, row.DocumentKey)
	assert.True(t, strings.HasPrefix(*row.DocumentKey, "reports/2025/03/04/"))

	require.Len(t, f.sender.sent, 1)
	assert.Equal(t, sentMail{to: "doctor@clinic.test", body: res.Analysis, filename: "labs.pdf"}, f.sender.sent[0])

	require.Len(t, f.publisher.events, 1)
	e := f.publisher.events[0]
	assert.Equal(t, events.TypeReportAnalyzed, e.Type)
	assert.Equal(t, int64(1), e.ReportID)
	assert.Equal(t, "sent", e.NotificationStatus)
	assert.Equal(t, *row.DocumentKey, e.DocumentKey)
}

func TestAnalyze_AbortsBeforePersisting(t *testing.T) {
	tests := []struct {
		name    string
		content string
		mod     func(*Deps)
		want    error
	}{
		{name: "malformed", content: "%corrupt"},
		{name: "no text", content: "", want: common.ErrorValidation},
		{name: "embedding fails", content: "x", mod: func(d *Deps) { d.Embedder = flatEmbedder{err: errors.New("quota")} }},
		{name: "generation fails", content: "x", mod: func(d *Deps) { d.Analyzer = echoAnalyzer{err: errors.New("quota")} }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, tt.mod)

			_, err := f.p.Analyze(context.Background(), "alice", Upload{Name: "r.pdf", Content: []byte(tt.content)})
			require.Error(t, err)
			if tt.want != nil {
				assert.ErrorIs(t, err, tt.want)
			}
			assert.Empty(t, f.repo.rows)
			assert.Empty(t, f.sender.sent)
			assert.Empty(t, f.publisher.events)
		})
	}
}

func TestAnalyze_PersistFailure(t *testing.T) {
	f := newFixture(t, nil)
	f.repo.saveErr = fmt.Errorf("db error: %w", errors.New("disk full"))

	_, err := f.p.Analyze(context.Background(), "alice", Upload{Name: "r.pdf", Content: []byte("x")})
	require.Error(t, err)
	assert.Empty(t, f.sender.sent)
}

func TestAnalyze_NotificationIsBestEffort(t *testing.T) {
	tests := []struct {
		name string
		mod  func(*Deps)
	}{
		{name: "smtp down", mod: func(d *Deps) { d.Sender = &fakeSender{err: errors.New("dial tcp: refused")} }},
		{name: "no recipient", mod: func(d *Deps) { d.Recipient = "" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, tt.mod)

			res, err := f.p.Analyze(context.Background(), "alice", Upload{Name: "r.pdf", Content: []byte("x")})
			require.NoError(t, err)
			assert.Equal(t, models.NotificationFailed, res.NotificationStatus)
			assert.Equal(t, models.NotificationFailed, f.repo.get(res.ReportID).NotificationStatus)
		})
	}
}

func TestAnalyze_ArchiveIsOptional(t *testing.T) {
	t.Run("disabled", func(t *testing.T) {
		f := newFixture(t, func(d *Deps) { d.Archive = nil })
		res, err := f.p.Analyze(context.Background(), "alice", Upload{Name: "r.pdf", Content: []byte("x")})
		require.NoError(t, err)
		assert.Nil(t, f.repo.get(res.ReportID).DocumentKey)
	})

	t.Run("failing", func(t *testing.T) {
		f := newFixture(t, nil)
		f.archive.err = errors.New("access denied")
		res, err := f.p.Analyze(context.Background(), "alice", Upload{Name: "r.pdf", Content: []byte("x")})
		require.NoError(t, err)
		assert.Nil(t, f.repo.get(res.ReportID).DocumentKey)
		assert.Equal(t, models.NotificationSent, res.NotificationStatus)
		assert.Empty(t, f.publisher.events[0].DocumentKey)
	})
}

func TestAnalyze_ChunksLongReports(t *testing.T) {
	var got []string
	f := newFixture(t, func(d *Deps) {
		d.ChunkSize, d.ChunkOverlap = 10, 2
		d.RetrievalK = 100
		d.Analyzer = analyzerFunc(func(chunks []string) { got = chunks })
	})

	_, err := f.p.Analyze(context.Background(), "alice", Upload{Name: "r.pdf", Content: []byte(strings.Repeat("a", 25))})
	require.NoError(t, err)
	assert.Len(t, got, 3)
}

type analyzerFunc func([]string)

func (fn analyzerFunc) Analyze(ctx context.Context, chunks []string) (string, error) {
	fn(chunks)
	return "ok", nil
}

func TestAnalyze_Concurrent(t *testing.T) {
	f := newFixture(t, func(d *Deps) { d.Archive = nil })

	const n = 8
	var wg sync.WaitGroup
	results := make([]*Result, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			res, err := f.p.Analyze(context.Background(), fmt.Sprintf("user%d", i),
				Upload{Name: "r.pdf", Content: []byte(fmt.Sprintf("report-%d", i))})
			assert.NoError(t, err)
			results[i] = res
		}(i)
	}
	wg.Wait()

	seen := map[int64]bool{}
	for i, res := range results {
		require.NotNil(t, res)
		assert.Equal(t, fmt.Sprintf("analysis of report-%d", i), res.Analysis, "indexes must not leak between requests")
		assert.False(t, seen[res.ReportID])
		seen[res.ReportID] = true
	}
	assert.Len(t, f.sender.sent, n)
}
