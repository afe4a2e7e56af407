package httpapi

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/dharitri/backend/internal/common"
	"github.com/dharitri/backend/internal/server/models"
	"github.com/dharitri/backend/internal/server/pipeline"
	"github.com/dharitri/backend/internal/server/services"
	"github.com/gin-gonic/gin"
	"github.com/samber/lo"
)

// dateLayouts are tried in order for the start_date and end_date filters.
// Values without a zone are read as UTC.
var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02",
}

func parseDate(v string) (time.Time, error) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, v); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: invalid date %q", common.ErrorValidation, v)
}

func (s *Server) analyzeReport(c *gin.Context) {
	form, err := c.MultipartForm()
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			s.writeError(c, err)
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"detail": "No files uploaded"})
		return
	}

	files := form.File["files"]
	if len(files) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "No files uploaded"})
		return
	}

	// only the first file is analyzed
	fh := files[0]
	f, err := fh.Open()
	if err != nil {
		s.writeError(c, err)
		return
	}
	defer f.Close()

	content, err := io.ReadAll(f)
	if err != nil {
		s.writeError(c, err)
		return
	}

	res, err := s.pipeline.Analyze(c.Request.Context(), principal(c).Username, pipeline.Upload{Name: fh.Filename, Content: content})
	if err != nil {
		s.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, analyzeResponse{
		ReportID:           res.ReportID,
		Analysis:           res.Analysis,
		Message:            "Report sent to " + res.Recipient,
		NotificationStatus: string(res.NotificationStatus),
	})
}

func (s *Server) listReports(c *gin.Context) {
	reports, err := s.reports.ListForUser(c.Request.Context(), principal(c).Username)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, lo.Map(reports, func(r models.Report, _ int) reportResponse {
		return newReportResponse(r)
	}))
}

func (s *Server) listPending(c *gin.Context) {
	reports, err := s.reports.ListPending(c.Request.Context())
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, lo.Map(reports, func(r models.Report, _ int) reportResponse {
		return newReportResponse(r)
	}))
}

func (s *Server) listAll(c *gin.Context) {
	filter := services.ReportFilter{NameFilter: c.Query("name_filter")}

	for param, dst := range map[string]**time.Time{"start_date": &filter.Start, "end_date": &filter.End} {
		v := c.Query(param)
		if v == "" {
			continue
		}
		t, err := parseDate(v)
		if err != nil {
			s.writeError(c, err)
			return
		}
		*dst = &t
	}

	reports, err := s.reports.ListAll(c.Request.Context(), filter)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, lo.Map(reports, func(r models.ReportWithOwner, _ int) ownedReportResponse {
		return newOwnedReportResponse(r)
	}))
}

func (s *Server) updateReport(c *gin.Context) {
	id, ok := s.reportID(c)
	if !ok {
		return
	}

	var req updateReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": err.Error()})
		return
	}

	if err := s.reports.Update(c.Request.Context(), id, *req.Notes, *req.Approval); err != nil {
		s.writeError(c, err)
		return
	}

	s.logger.Info(c.Request.Context(), "report reviewed", "report_id", id, "doctor", principal(c).Username, "approval", *req.Approval)
	c.JSON(http.StatusOK, gin.H{"message": "Report updated successfully"})
}

func (s *Server) reportDocument(c *gin.Context) {
	id, ok := s.reportID(c)
	if !ok {
		return
	}

	url, err := s.reports.DocumentURL(c.Request.Context(), principal(c), id)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"url": url})
}

func (s *Server) reportID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "invalid report id"})
		return 0, false
	}
	return id, true
}
