package models

import "time"

// NotificationStatus tracks delivery of the analysis email for a report.
type NotificationStatus string

const (
	NotificationPending NotificationStatus = "pending"
	NotificationSent    NotificationStatus = "sent"
	NotificationFailed  NotificationStatus = "failed"
)

// Report is one analyzed upload. Owner is the owning username; reports are
// tied to users by value, not by foreign key.
type Report struct {
	ID                 int64
	Owner              string
	Name               string
	UploadedAt         time.Time
	Analysis           string
	DoctorNotes        *string
	DoctorApproval     bool
	Active             bool
	NotificationStatus NotificationStatus
	// DocumentKey is the object-storage key of the archived PDF, if any.
	DocumentKey *string
}

// ReportWithOwner is a report joined with its owner's account details.
type ReportWithOwner struct {
	Report
	Username string
	Email    string
}
