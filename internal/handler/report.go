package handler

import (
	"net/http"

	"github.com/kiez-net/kiez/internal/api"
	"github.com/kiez-net/kiez/internal/domain"
	mw "github.com/kiez-net/kiez/internal/middleware"
	"github.com/kiez-net/kiez/internal/utils"
)

func (h *Handler) ReportPost(w http.ResponseWriter, r *http.Request) {
	user := mw.GetUserFromContext(r)
	if user == nil {
		http.Error(w, "Nicht autorisiert", http.StatusUnauthorized)
		return
	}

	id, err := idParam(r, "postId")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	var body api.ReportPostRequest
	if err := utils.DecodeValidate(r.Body, &body); err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	if _, err := h.reports.Report(id, body.Reason, body.RuleId, user); err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	w.WriteHeader(http.StatusCreated)
	writeJSON(w, api.OkResponse{Ok: true})
}

func (h *Handler) GetReports(w http.ResponseWriter, r *http.Request) {
	user := mw.GetUserFromContext(r)
	if user == nil {
		http.Error(w, "Nicht autorisiert", http.StatusUnauthorized)
		return
	}

	page, err := pageParam(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	status := r.URL.Query().Get("status")
	if status == "" {
		status = domain.ReportOpen
	} else if status == "all" {
		status = ""
	}

	reports, total, err := h.reports.List(slugParam(r), status, user, page)
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	writeJSON(w, api.ReportListResponse{
		Total:   total,
		Page:    page,
		Limit:   h.cfg.Public.ModLogPerPage,
		Reports: reports,
	})
}

func (h *Handler) ModerateReport(w http.ResponseWriter, r *http.Request) {
	user := mw.GetUserFromContext(r)
	if user == nil {
		http.Error(w, "Nicht autorisiert", http.StatusUnauthorized)
		return
	}

	var body api.ModerateReportRequest
	if err := utils.DecodeValidate(r.Body, &body); err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	status, err := h.reports.Moderate(slugParam(r), body.ReportId, body.Action, user)
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	writeJSON(w, api.ModerateReportResponse{Ok: true, Status: status})
}

func (h *Handler) GetModLog(w http.ResponseWriter, r *http.Request) {
	user := mw.GetUserFromContext(r)
	if user == nil {
		http.Error(w, "Nicht autorisiert", http.StatusUnauthorized)
		return
	}

	page, err := pageParam(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	logs, total, err := h.modlog.List(slugParam(r), r.URL.Query().Get("action"), user, page)
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	writeJSON(w, api.ModLogResponse{
		Total: total,
		Page:  page,
		Limit: h.cfg.Public.ModLogPerPage,
		Logs:  logs,
	})
}
