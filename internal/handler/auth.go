package handler

import (
	"net/http"

	"github.com/kiez-net/kiez/internal/api"
	"github.com/kiez-net/kiez/internal/domain"
	"github.com/kiez-net/kiez/internal/utils"
)

func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var body api.RegisterRequest
	if err := utils.DecodeValidate(r.Body, &body); err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	if _, err := h.auth.Register(body.Email, body.Password, body.DisplayName); err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	w.WriteHeader(http.StatusCreated)
	writeJSON(w, api.OkResponse{Ok: true})
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var body api.LoginRequest
	if err := utils.DecodeValidate(r.Body, &body); err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	token, _, err := h.auth.Login(domain.Credentials{Email: body.Email, Password: body.Password})
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Path:     "/",
		Name:     "accessToken",
		Value:    token,
		MaxAge:   int(h.cfg.JwtTTL().Seconds()),
		HttpOnly: true,
		Secure:   h.cfg.Public.SecureCookies,
		SameSite: http.SameSiteLaxMode,
	})
	writeJSON(w, api.OkResponse{Ok: true})
}

func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Path:     "/",
		Name:     "accessToken",
		Value:    "",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.cfg.Public.SecureCookies,
		SameSite: http.SameSiteLaxMode,
	})
	writeJSON(w, api.OkResponse{Ok: true})
}
