package httpapi

import (
	"time"

	"github.com/dharitri/backend/internal/server/models"
)

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

type registerRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Role     string `json:"role"`
}

type updateReportRequest struct {
	Notes    *string `json:"notes" binding:"required"`
	Approval *bool   `json:"approval" binding:"required"`
}

type dietRequest struct {
	Question   string `json:"question" binding:"required"`
	ReportText string `json:"report_text"`
}

type analyzeResponse struct {
	ReportID           int64  `json:"report_id"`
	Analysis           string `json:"analysis"`
	Message            string `json:"message"`
	NotificationStatus string `json:"notification_status"`
}

type reportResponse struct {
	ID                 int64     `json:"id"`
	UserID             string    `json:"user_id"`
	ReportName         string    `json:"report_name"`
	UploadDate         time.Time `json:"upload_date"`
	AnalysisResult     string    `json:"analysis_result"`
	DoctorNotes        *string   `json:"doctor_notes"`
	DoctorApproval     bool      `json:"doctor_approval"`
	NotificationStatus string    `json:"notification_status"`
	HasDocument        bool      `json:"has_document"`
}

func newReportResponse(r models.Report) reportResponse {
	return reportResponse{
		ID:                 r.ID,
		UserID:             r.Owner,
		ReportName:         r.Name,
		UploadDate:         r.UploadedAt.UTC(),
		AnalysisResult:     r.Analysis,
		DoctorNotes:        r.DoctorNotes,
		DoctorApproval:     r.DoctorApproval,
		NotificationStatus: string(r.NotificationStatus),
		HasDocument:        r.DocumentKey != nil,
	}
}

// ownedReportResponse is a report joined with its owner's account.
type ownedReportResponse struct {
	ID                 int64     `json:"id"`
	Username           string    `json:"username"`
	Email              string    `json:"email"`
	ReportName         string    `json:"report_name"`
	UploadDate         time.Time `json:"upload_date"`
	AnalysisResult     string    `json:"analysis_result"`
	DoctorNotes        *string   `json:"doctor_notes"`
	DoctorApproval     bool      `json:"doctor_approval"`
	NotificationStatus string    `json:"notification_status"`
}

func newOwnedReportResponse(r models.ReportWithOwner) ownedReportResponse {
	return ownedReportResponse{
		ID:                 r.ID,
		Username:           r.Username,
		Email:              r.Email,
		ReportName:         r.Name,
		UploadDate:         r.UploadedAt.UTC(),
		AnalysisResult:     r.Analysis,
		DoctorNotes:        r.DoctorNotes,
		DoctorApproval:     r.DoctorApproval,
		NotificationStatus: string(r.NotificationStatus),
	}
}
