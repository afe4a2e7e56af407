// Package pipeline turns an uploaded lab report into a persisted clinical
// analysis: extract, chunk, index, analyze, persist, then archive, notify
// and publish on a best-effort basis.
package pipeline

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dharitri/backend/internal/analysis"
	"github.com/dharitri/backend/internal/common"
	"github.com/dharitri/backend/internal/dbx"
	"github.com/dharitri/backend/internal/events"
	"github.com/dharitri/backend/internal/llm"
	"github.com/dharitri/backend/internal/logging"
	"github.com/dharitri/backend/internal/notify"
	"github.com/dharitri/backend/internal/pdftext"
	"github.com/dharitri/backend/internal/retrieval"
	"github.com/dharitri/backend/internal/server/models"
	"github.com/dharitri/backend/internal/server/repositories/repomanager"
	"github.com/dharitri/backend/internal/storage"
)

// extractText is a seam for tests that avoid building real PDFs.
var extractText = pdftext.ExtractBytes

// ReportAnalyzer is satisfied by analysis.Analyzer.
type ReportAnalyzer interface {
	Analyze(ctx context.Context, chunks []string) (string, error)
}

// Upload is a single received PDF.
type Upload struct {
	Name    string
	Content []byte
}

type Result struct {
	ReportID           int64
	Analysis           string
	NotificationStatus models.NotificationStatus
	// Recipient is the address the analysis was (or would have been) sent to.
	Recipient string
}

// Deps are the collaborators of a Pipeline. Archive and Publisher are
// optional.
type Deps struct {
	DB           *sql.DB
	Repos        repomanager.RepositoryManager
	Embedder     llm.Embedder
	Analyzer     ReportAnalyzer
	Sender       notify.Sender
	Recipient    string
	Archive      storage.Archive
	Publisher    events.Publisher
	Logger       logging.Logger
	RetrievalK   int
	ChunkSize    int
	ChunkOverlap int
}

type Pipeline struct {
	d      Deps
	logger logging.Logger
	now    func() time.Time
}

func New(d Deps) *Pipeline {
	if d.Publisher == nil {
		d.Publisher = events.Nop{}
	}
	if d.Logger == nil {
		d.Logger = logging.Nop()
	}
	if d.RetrievalK <= 0 {
		d.RetrievalK = retrieval.DefaultK
	}
	if d.ChunkSize <= 0 {
		d.ChunkSize = pdftext.ChunkSize
		d.ChunkOverlap = pdftext.ChunkOverlap
	}
	return &Pipeline{
		d:      d,
		logger: d.Logger.With("module", "pipeline"),
		now:    time.Now,
	}
}

// Analyze runs the pipeline for owner's upload. Failures up to and including
// persistence abort with no row written; later steps only log.
func (p *Pipeline) Analyze(ctx context.Context, owner string, up Upload) (*Result, error) {
	text, err := extractText(up.Content)
	if err != nil {
		return nil, fmt.Errorf("extracting %q: %w", up.Name, err)
	}

	chunks := pdftext.Chunk(text, p.d.ChunkSize, p.d.ChunkOverlap)
	if len(chunks) == 0 {
		return nil, fmt.Errorf("%w: %q contains no extractable text", common.ErrorValidation, up.Name)
	}

	idx, err := retrieval.Build(ctx, p.d.Embedder, chunks)
	if err != nil {
		return nil, fmt.Errorf("indexing %q: %w", up.Name, err)
	}

	relevant, err := idx.Query(ctx, analysis.RetrievalQuery, p.d.RetrievalK)
	if err != nil {
		return nil, fmt.Errorf("querying index: %w", err)
	}

	summary, err := p.d.Analyzer.Analyze(ctx, relevant)
	if err != nil {
		return nil, fmt.Errorf("analyzing %q: %w", up.Name, err)
	}

	report, err := p.d.Repos.Reports(p.d.DB).Create(ctx, &models.Report{
		Owner:              owner,
		Name:               up.Name,
		UploadedAt:         p.now().UTC(),
		Analysis:           summary,
		Active:             true,
		NotificationStatus: models.NotificationPending,
	})
	if err != nil {
		return nil, fmt.Errorf("error saving report: %w", err)
	}

	p.logger.Info(ctx, "report analyzed", "report_id", report.ID, "owner", owner, "chunks", len(chunks))

	// The row exists now; a client hang-up must not stop the follow-up steps.
	ctx = context.WithoutCancel(ctx)

	key := p.archive(ctx, report.ID, up)
	status := p.notify(ctx, report.ID, summary, up)
	if !p.record(ctx, report.ID, key, status) {
		key = ""
	}
	p.publish(ctx, report, status, key)

	return &Result{
		ReportID:           report.ID,
		Analysis:           summary,
		NotificationStatus: status,
		Recipient:          p.d.Recipient,
	}, nil
}

func (p *Pipeline) archive(ctx context.Context, id int64, up Upload) string {
	if p.d.Archive == nil {
		return ""
	}

	key := storage.ReportKey(p.now())
	if err := p.d.Archive.Put(ctx, key, up.Content, "application/pdf"); err != nil {
		p.logger.Warn(ctx, "archiving report failed", "report_id", id, "error", err)
		return ""
	}
	return key
}

func (p *Pipeline) notify(ctx context.Context, id int64, body string, up Upload) models.NotificationStatus {
	status := models.NotificationSent
	err := p.d.Sender.SendReport(ctx, p.d.Recipient, body, up.Content, up.Name)
	if err != nil {
		status = models.NotificationFailed
		level := p.logger.Error
		if errors.Is(err, notify.ErrNoRecipient) {
			level = p.logger.Warn
		}
		level(ctx, "notifying doctor failed", "report_id", id, "error", err)
	}
	return status
}

// record stores the archive key (if any) and the delivery status together.
func (p *Pipeline) record(ctx context.Context, id int64, key string, status models.NotificationStatus) bool {
	err := dbx.WithTx(ctx, p.d.DB, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := p.d.Repos.Reports(tx)
		if key != "" {
			if err := repo.SetDocumentKey(ctx, id, key); err != nil {
				return err
			}
		}
		return repo.SetNotificationStatus(ctx, id, status)
	})
	if err != nil {
		p.logger.Warn(ctx, "recording delivery outcome failed", "report_id", id, "error", err)
		return false
	}
	return true
}

func (p *Pipeline) publish(ctx context.Context, r *models.Report, status models.NotificationStatus, key string) {
	e := events.Event{
		Type:               events.TypeReportAnalyzed,
		ReportID:           r.ID,
		Owner:              r.Owner,
		ReportName:         r.Name,
		NotificationStatus: string(status),
		DocumentKey:        key,
		OccurredAt:         p.now().UTC(),
	}
	if err := p.d.Publisher.Publish(ctx, e); err != nil {
		p.logger.Warn(ctx, "publishing event failed", "report_id", r.ID, "error", err)
	}
}
