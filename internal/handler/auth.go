package handler

import (
	"html/template"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/keygate-dev/keygate/internal/domain"
	"github.com/keygate-dev/keygate/internal/logger"
	"github.com/keygate-dev/keygate/internal/utils"
)

type registerRequest struct {
	Username string `validate:"required" json:"username"`
	Email    string `validate:"required" json:"email"`
	Password string `validate:"required" json:"password"`
}

type credentials struct {
	Email    string `validate:"required" json:"email"`
	Password string `validate:"required" json:"password"`
}

type registerResponse struct {
	Message string               `json:"message"`
	User    domain.PublicAccount `json:"user"`
}

type loginResponse struct {
	Message string               `json:"message"`
	Token   string               `json:"token"`
	User    domain.PublicAccount `json:"user"`
}

func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := utils.DecodeValidate(r.Body, &req); err != nil {
		utils.WriteError(w, err)
		return
	}

	account, err := h.auth.Register(req.Username, req.Email, req.Password)
	if err != nil {
		utils.WriteError(w, err)
		return
	}

	utils.WriteJSON(w, http.StatusCreated, registerResponse{
		Message: "User registered successfully",
		User:    account.Public(),
	})
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var creds credentials
	if err := utils.DecodeValidate(r.Body, &creds); err != nil {
		utils.WriteError(w, err)
		return
	}

	token, account, err := h.auth.Login(creds.Email, creds.Password)
	if err != nil {
		utils.WriteError(w, err)
		return
	}

	utils.WriteJSON(w, http.StatusOK, loginResponse{
		Message: "Login successful",
		Token:   token,
		User:    account.Public(),
	})
}

// VerifyEmail redeems the link from the verification email. The response is
// a small HTML page because it is opened in a browser, not by an API client.
func (h *Handler) VerifyEmail(w http.ResponseWriter, r *http.Request) {
	token := chi.URLParam(r, "token")

	if err := h.auth.VerifyEmail(token); err != nil {
		writeVerifyPage(w, http.StatusBadRequest, verifyPageData{
			Title: "Verification failed",
			Body:  "This verification link is invalid or has expired. Please register again to receive a new one.",
		})
		return
	}

	writeVerifyPage(w, http.StatusOK, verifyPageData{
		Title: "Email verified",
		Body:  "Your email address has been verified. You can log in now.",
	})
}

type verifyPageData struct {
	Title string
	Body  string
}

var verifyPageTmpl = template.Must(template.New("verify").Parse(`<!DOCTYPE html>
<html>
<head><title>{{.Title}}</title></head>
<body>
<h1>{{.Title}}</h1>
<p>{{.Body}}</p>
</body>
</html>
`))

func writeVerifyPage(w http.ResponseWriter, statusCode int, data verifyPageData) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(statusCode)
	if err := verifyPageTmpl.Execute(w, data); err != nil {
		logger.Log.Error("failed to render verification page", "error", err)
	}
}
