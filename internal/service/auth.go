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

type AuthService interface {
	Register(username string, email domain.Email, password domain.Password) (domain.Account, error)
	VerifyEmail(token string) error
	Login(email domain.Email, password domain.Password) (string, domain.Account, error)
}

type AccountStorage interface {
	SaveAccount(account domain.Account) (domain.AccountId, error)
	AccountByEmail(email domain.Email) (domain.Account, error)
	AccountById(id domain.AccountId) (domain.Account, error)
	AccountByVerificationToken(token string) (domain.Account, error)
	MarkVerified(id domain.AccountId) error
	UpdatePassword(email domain.Email, passHash string) error
}

type Email interface {
	Send(recipientEmail, subject, body string) error
	IsCorrect(email domain.Email) error
}

type Jwt interface {
	NewToken(account domain.Account) (string, error)
}

// Auth orchestrates registration, email verification and login gating.
type Auth struct {
	storage AccountStorage
	email   Email
	jwt     Jwt
	cfg     *config.Config
}

func NewAuth(storage AccountStorage, email Email, jwt Jwt, cfg *config.Config) *Auth {
	return &Auth{
		storage: storage,
		email:   email,
		jwt:     jwt,
		cfg:     cfg,
	}
}

// Register creates an unverified account and emails a verification link.
// The account persists even if the email send fails: notification is
// best-effort and must never roll back the state mutation it follows.
func (a *Auth) Register(username string, email domain.Email, password domain.Password) (domain.Account, error) {
	email = strings.ToLower(email)

	if err := a.email.IsCorrect(email); err != nil {
		return domain.Account{}, err
	}

	_, err := a.storage.AccountByEmail(email)
	if err == nil {
		return domain.Account{}, errDuplicateEmail()
	}
	if !errors.IsNotFound(err) {
		return domain.Account{}, err
	}

	passHash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		logger.Log.Error("failed to hash password", "error", err)
		return domain.Account{}, err
	}

	account := domain.Account{
		Username:            username,
		Email:               email,
		PassHash:            string(passHash),
		Verified:            false,
		VerificationToken:   utils.GenerateVerificationToken(),
		VerificationExpires: time.Now().UTC().Add(a.cfg.VerificationTokenTTL()),
	}

	id, err := a.storage.SaveAccount(account)
	if err != nil {
		// The unique constraint on email is the source of truth; a concurrent
		// register may win between the pre-check and the insert.
		if errors.IsConflict(err) {
			return domain.Account{}, errDuplicateEmail()
		}
		return domain.Account{}, err
	}
	account.Id = id

	link := fmt.Sprintf("%s/v1/auth/verify-email/%s", a.cfg.Public.BaseURL, account.VerificationToken)
	body := fmt.Sprintf(`
		Hello %s,

		Please confirm your email address by opening the link below

		%s

		The link expires in 24 hours. If you did not register, please ignore this email.
	`, username, link)

	if err := a.email.Send(email, "Please confirm your email address", body); err != nil {
		logger.Log.Error("failed to send verification email", "account_id", id, "error", err)
	}

	return account, nil
}

// VerifyEmail redeems a pending verification token. Redeeming clears the
// token, so a second redemption of the same value fails the lookup. Callers
// get one generic error for wrong and expired tokens alike.
func (a *Auth) VerifyEmail(token string) error {
	if token == "" {
		return errInvalidOrExpiredToken()
	}

	account, err := a.storage.AccountByVerificationToken(token)
	if err != nil {
		if errors.IsNotFound(err) {
			return errInvalidOrExpiredToken()
		}
		return err
	}
	if account.VerificationExpires.Before(time.Now().UTC()) {
		logger.Log.Info("verification token expired", "account_id", account.Id)
		return errInvalidOrExpiredToken()
	}

	return a.storage.MarkVerified(account.Id)
}

// Login checks credentials and issues a bearer token. Unknown email and
// wrong password return an identical error so accounts cannot be
// enumerated. Verification state is checked only after the password
// verifies, so it is never an oracle for someone without the password.
func (a *Auth) Login(email domain.Email, password domain.Password) (string, domain.Account, error) {
	email = strings.ToLower(email)

	if err := a.email.IsCorrect(email); err != nil {
		return "", domain.Account{}, err
	}

	account, err := a.storage.AccountByEmail(email)
	if err != nil {
		if errors.IsNotFound(err) {
			return "", domain.Account{}, errInvalidCredentials()
		}
		return "", domain.Account{}, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(account.PassHash), []byte(password)); err != nil {
		return "", domain.Account{}, errInvalidCredentials()
	}

	if !account.Verified {
		return "", domain.Account{}, &errors.ErrorWithStatusCode{Message: "Email not verified", StatusCode: http.StatusForbidden}
	}

	token, err := a.jwt.NewToken(account)
	if err != nil {
		logger.Log.Error("failed to create jwt token", "account_id", account.Id, "error", err)
		return "", domain.Account{}, err
	}

	return token, account, nil
}

func errDuplicateEmail() error {
	return &errors.ErrorWithStatusCode{Message: "Email already used", StatusCode: http.StatusBadRequest}
}

func errInvalidCredentials() error {
	return &errors.ErrorWithStatusCode{Message: "Invalid email or password", StatusCode: http.StatusBadRequest}
}

func errInvalidOrExpiredToken() error {
	return &errors.ErrorWithStatusCode{Message: "Invalid or expired verification token", StatusCode: http.StatusBadRequest}
}
