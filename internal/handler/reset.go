package handler

import (
	"net/http"

	"github.com/keygate-dev/keygate/internal/utils"
)

type forgotPasswordRequest struct {
	Email string `validate:"required" json:"email"`
}

type verifyCodeRequest struct {
	Email string `validate:"required" json:"email"`
	Code  string `validate:"required" json:"code"`
}

type resetPasswordRequest struct {
	Email       string `validate:"required" json:"email"`
	Code        string `validate:"required" json:"code"`
	NewPassword string `validate:"required" json:"newPassword"`
}

func (h *Handler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req forgotPasswordRequest
	if err := utils.DecodeValidate(r.Body, &req); err != nil {
		utils.WriteError(w, err)
		return
	}

	if err := h.reset.RequestReset(req.Email); err != nil {
		utils.WriteError(w, err)
		return
	}

	utils.WriteMessage(w, http.StatusOK, "Code sent to email")
}

func (h *Handler) VerifyCode(w http.ResponseWriter, r *http.Request) {
	var req verifyCodeRequest
	if err := utils.DecodeValidate(r.Body, &req); err != nil {
		utils.WriteError(w, err)
		return
	}

	if err := h.reset.VerifyCode(req.Email, req.Code); err != nil {
		utils.WriteError(w, err)
		return
	}

	utils.WriteMessage(w, http.StatusOK, "Code verified")
}

func (h *Handler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req resetPasswordRequest
	if err := utils.DecodeValidate(r.Body, &req); err != nil {
		utils.WriteError(w, err)
		return
	}

	if err := h.reset.ResetPassword(req.Email, req.Code, req.NewPassword); err != nil {
		utils.WriteError(w, err)
		return
	}

	utils.WriteMessage(w, http.StatusOK, "Password updated successfully")
}
