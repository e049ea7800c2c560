package api

import "github.com/kiez-net/kiez/internal/domain"

// The reason length cap is configured, not hardcoded; the service enforces it.
type ReportPostRequest struct {
	Reason string         `json:"reason" validate:"required"`
	RuleId *domain.RuleId `json:"ruleId"`
}

type ModerateReportRequest struct {
	ReportId domain.ReportId `json:"reportId" validate:"required"`
	Action   string          `json:"action" validate:"required,oneof=review resolve reopen delete"`
}

// Response DTOs

type ReportListResponse struct {
	Total   int             `json:"total"`
	Page    int             `json:"page"`
	Limit   int             `json:"limit"`
	Reports []domain.Report `json:"reports"`
}

type ModerateReportResponse struct {
	Ok     bool   `json:"ok"`
	Status string `json:"status,omitempty"`
}

type ModLogResponse struct {
	Total int                  `json:"total"`
	Page  int                  `json:"page"`
	Limit int                  `json:"limit"`
	Logs  []domain.ModLogEntry `json:"logs"`
}

type NotificationListResponse struct {
	Total         int                   `json:"total"`
	Notifications []domain.Notification `json:"notifications"`
}
