package service

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/keygate-dev/keygate/internal/config"
	"github.com/keygate-dev/keygate/internal/domain"
	"github.com/keygate-dev/keygate/internal/errors"
	"github.com/keygate-dev/keygate/internal/logger"
	"github.com/keygate-dev/keygate/internal/utils"
)

type ResetService interface {
	RequestReset(email domain.Email) error
	VerifyCode(email domain.Email, code string) error
	ResetPassword(email domain.Email, code string, newPassword domain.Password) error
}

type ResetStorage interface {
	SaveResetRequest(req domain.ResetRequest) error
	ResetRequest(email domain.Email, code string) (domain.ResetRequest, error)
	DeleteResetRequests(email domain.Email) error
}

// Reset orchestrates reset-code issuance, verification and consumption.
// Codes are never individually marked used: VerifyCode is a pure check, and
// a successful ResetPassword deletes the email's whole outstanding set.
type Reset struct {
	accounts AccountStorage
	resets   ResetStorage
	email    Email
	cfg      *config.Config
}

func NewReset(accounts AccountStorage, resets ResetStorage, email Email, cfg *config.Config) *Reset {
	return &Reset{
		accounts: accounts,
		resets:   resets,
		email:    email,
		cfg:      cfg,
	}
}

// RequestReset issues a fresh 6-digit code for the email and sends it.
// Outstanding codes stay valid; each request is independent. The code
// persists even if the send fails.
func (r *Reset) RequestReset(email domain.Email) error {
	email = strings.ToLower(email)

	if err := r.email.IsCorrect(email); err != nil {
		return err
	}

	if _, err := r.accounts.AccountByEmail(email); err != nil {
		if errors.IsNotFound(err) {
			return &errors.ErrorWithStatusCode{Message: "Email not found", StatusCode: http.StatusBadRequest}
		}
		return err
	}

	code := utils.GenerateResetCode()
	req := domain.ResetRequest{
		Email:   email,
		Code:    code,
		Expires: time.Now().UTC().Add(r.cfg.ResetCodeTTL()),
	}
	if err := r.resets.SaveResetRequest(req); err != nil {
		return err
	}

	body := fmt.Sprintf(`
		Hello,

		Your password reset code below

		%s

		It expires in 10 minutes. If you did not request this, please ignore this email.
	`, code)

	if err := r.email.Send(email, "Password Reset Code", body); err != nil {
		logger.Log.Error("failed to send reset code email", "error", err)
	}

	return nil
}

// VerifyCode checks that the (email, code) pair exists and has not expired.
// A missing pair and an expired one are distinct errors. The code is not
// consumed; clients may call this before the final submission.
func (r *Reset) VerifyCode(email domain.Email, code string) error {
	email = strings.ToLower(email)
	_, err := r.lookup(email, code)
	return err
}

// ResetPassword redeems a valid code: it replaces the account's password
// hash and then invalidates every outstanding code for the email.
func (r *Reset) ResetPassword(email domain.Email, code string, newPassword domain.Password) error {
	email = strings.ToLower(email)

	if _, err := r.lookup(email, code); err != nil {
		return err
	}

	passHash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		logger.Log.Error("failed to hash new password", "error", err)
		return err
	}

	if err := r.accounts.UpdatePassword(email, string(passHash)); err != nil {
		// A valid code implies the account existed moments ago; a missing
		// account here is an internal inconsistency, not a caller mistake.
		if errors.IsNotFound(err) {
			return fmt.Errorf("account disappeared during password reset: %w", err)
		}
		return err
	}

	return r.resets.DeleteResetRequests(email)
}

func (r *Reset) lookup(email domain.Email, code string) (domain.ResetRequest, error) {
	req, err := r.resets.ResetRequest(email, code)
	if err != nil {
		if errors.IsNotFound(err) {
			return domain.ResetRequest{}, &errors.ErrorWithStatusCode{Message: "Invalid code", StatusCode: http.StatusBadRequest}
		}
		return domain.ResetRequest{}, err
	}
	if req.Expires.Before(time.Now().UTC()) {
		return domain.ResetRequest{}, &errors.ErrorWithStatusCode{Message: "Code expired", StatusCode: http.StatusBadRequest}
	}
	return req, nil
}
