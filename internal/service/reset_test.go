package service

import (
	"errors"
	"net/http"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/keygate-dev/keygate/internal/domain"
	internal_errors "github.com/keygate-dev/keygate/internal/errors"
)

func TestRequestReset(t *testing.T) {
	accounts := &MockAccountStorage{}
	resets := &MockResetStorage{}
	email := &MockEmail{}
	service := NewReset(accounts, resets, email, testConfig())

	existing := domain.Account{Id: "id-1", Email: "a@x.com", Verified: true}

	t.Run("Successful request", func(t *testing.T) {
		// Arrange
		var savedCode string
		sendCalled := false
		accounts.AccountByEmailFunc = func(email domain.Email) (domain.Account, error) {
			assert.Equal(t, "a@x.com", email)
			return existing, nil
		}
		resets.SaveResetRequestFunc = func(req domain.ResetRequest) error {
			assert.Equal(t, "a@x.com", req.Email)
			assert.Len(t, req.Code, 6)
			n, err := strconv.Atoi(req.Code)
			require.NoError(t, err)
			assert.GreaterOrEqual(t, n, 100000)
			assert.LessOrEqual(t, n, 999999)
			assert.True(t, req.Expires.After(time.Now().UTC().Add(9*time.Minute)))
			assert.True(t, req.Expires.Before(time.Now().UTC().Add(11*time.Minute)))
			savedCode = req.Code
			return nil
		}
		email.SendFunc = func(recipientEmail, subject, body string) error {
			sendCalled = true
			assert.Equal(t, "a@x.com", recipientEmail)
			assert.Equal(t, "Password Reset Code", subject)
			assert.Contains(t, body, savedCode)
			return nil
		}
		defer func() {
			accounts.AccountByEmailFunc = nil
			resets.SaveResetRequestFunc = nil
			email.SendFunc = nil
		}()

		// Act
		err := service.RequestReset("A@X.com")

		// Assert
		require.NoError(t, err)
		assert.True(t, sendCalled, "Send should be called")
	})

	t.Run("Unknown email", func(t *testing.T) {
		// Act
		err := service.RequestReset("nobody@x.com")

		// Assert
		require.Error(t, err)
		var errWithStatus *internal_errors.ErrorWithStatusCode
		require.True(t, errors.As(err, &errWithStatus))
		assert.Equal(t, http.StatusBadRequest, errWithStatus.StatusCode)
		assert.Equal(t, "Email not found", errWithStatus.Message)
	})

	t.Run("Email send failure does not fail the request", func(t *testing.T) {
		// Arrange
		saved := false
		accounts.AccountByEmailFunc = func(email domain.Email) (domain.Account, error) {
			return existing, nil
		}
		resets.SaveResetRequestFunc = func(req domain.ResetRequest) error {
			saved = true
			return nil
		}
		email.SendFunc = func(recipientEmail, subject, body string) error {
			return errors.New("smtp down")
		}
		defer func() {
			accounts.AccountByEmailFunc = nil
			resets.SaveResetRequestFunc = nil
			email.SendFunc = nil
		}()

		// Act
		err := service.RequestReset("a@x.com")

		// Assert
		require.NoError(t, err)
		assert.True(t, saved, "code is persisted even if the email never leaves")
	})

	t.Run("storage.SaveResetRequest error", func(t *testing.T) {
		// Arrange
		mockError := errors.New("mock SaveResetRequest error")
		accounts.AccountByEmailFunc = func(email domain.Email) (domain.Account, error) {
			return existing, nil
		}
		resets.SaveResetRequestFunc = func(req domain.ResetRequest) error {
			return mockError
		}
		defer func() {
			accounts.AccountByEmailFunc = nil
			resets.SaveResetRequestFunc = nil
		}()

		// Act
		err := service.RequestReset("a@x.com")

		// Assert
		require.Error(t, err)
		assert.True(t, errors.Is(err, mockError))
	})
}

func TestVerifyCode(t *testing.T) {
	accounts := &MockAccountStorage{}
	resets := &MockResetStorage{}
	email := &MockEmail{}
	service := NewReset(accounts, resets, email, testConfig())

	liveRequest := domain.ResetRequest{
		Email:   "a@x.com",
		Code:    "123456",
		Expires: time.Now().UTC().Add(5 * time.Minute),
	}

	t.Run("Valid code", func(t *testing.T) {
		// Arrange
		resets.ResetRequestFunc = func(email domain.Email, code string) (domain.ResetRequest, error) {
			assert.Equal(t, "a@x.com", email)
			assert.Equal(t, "123456", code)
			return liveRequest, nil
		}
		defer func() { resets.ResetRequestFunc = nil }()

		// Act
		err := service.VerifyCode("A@X.com", "123456")

		// Assert
		require.NoError(t, err)
	})

	t.Run("Unknown code", func(t *testing.T) {
		// Act
		err := service.VerifyCode("a@x.com", "000000")

		// Assert
		require.Error(t, err)
		var errWithStatus *internal_errors.ErrorWithStatusCode
		require.True(t, errors.As(err, &errWithStatus))
		assert.Equal(t, http.StatusBadRequest, errWithStatus.StatusCode)
		assert.Equal(t, "Invalid code", errWithStatus.Message)
	})

	t.Run("Expired code", func(t *testing.T) {
		// Arrange
		expired := liveRequest
		expired.Expires = time.Now().UTC().Add(-1 * time.Minute)
		resets.ResetRequestFunc = func(email domain.Email, code string) (domain.ResetRequest, error) {
			return expired, nil
		}
		defer func() { resets.ResetRequestFunc = nil }()

		// Act
		err := service.VerifyCode("a@x.com", "123456")

		// Assert
		require.Error(t, err)
		var errWithStatus *internal_errors.ErrorWithStatusCode
		require.True(t, errors.As(err, &errWithStatus))
		// Distinct from the unknown-code message
		assert.Equal(t, "Code expired", errWithStatus.Message)
	})

	t.Run("Verification does not consume the code", func(t *testing.T) {
		// Arrange
		deleteCalled := false
		resets.ResetRequestFunc = func(email domain.Email, code string) (domain.ResetRequest, error) {
			return liveRequest, nil
		}
		resets.DeleteResetRequestsFunc = func(email domain.Email) error {
			deleteCalled = true
			return nil
		}
		defer func() {
			resets.ResetRequestFunc = nil
			resets.DeleteResetRequestsFunc = nil
		}()

		// Act
		err := service.VerifyCode("a@x.com", "123456")
		require.NoError(t, err)
		err = service.VerifyCode("a@x.com", "123456")

		// Assert
		require.NoError(t, err, "a verified code stays redeemable")
		assert.False(t, deleteCalled)
	})
}

func TestResetPassword(t *testing.T) {
	accounts := &MockAccountStorage{}
	resets := &MockResetStorage{}
	email := &MockEmail{}
	service := NewReset(accounts, resets, email, testConfig())

	liveRequest := domain.ResetRequest{
		Email:   "a@x.com",
		Code:    "123456",
		Expires: time.Now().UTC().Add(5 * time.Minute),
	}

	t.Run("Successful reset", func(t *testing.T) {
		// Arrange
		updateCalled := false
		deleteCalled := false
		resets.ResetRequestFunc = func(email domain.Email, code string) (domain.ResetRequest, error) {
			return liveRequest, nil
		}
		accounts.UpdatePasswordFunc = func(email domain.Email, passHash string) error {
			updateCalled = true
			assert.Equal(t, "a@x.com", email)
			err := bcrypt.CompareHashAndPassword([]byte(passHash), []byte("newpass"))
			assert.NoError(t, err, "stored hash must match the new password")
			return nil
		}
		resets.DeleteResetRequestsFunc = func(email domain.Email) error {
			deleteCalled = true
			assert.Equal(t, "a@x.com", email)
			return nil
		}
		defer func() {
			resets.ResetRequestFunc = nil
			accounts.UpdatePasswordFunc = nil
			resets.DeleteResetRequestsFunc = nil
		}()

		// Act
		err := service.ResetPassword("A@X.com", "123456", "newpass")

		// Assert
		require.NoError(t, err)
		assert.True(t, updateCalled, "UpdatePassword should be called")
		assert.True(t, deleteCalled, "all outstanding codes for the email are dropped")
	})

	t.Run("Invalid code", func(t *testing.T) {
		// Arrange
		updateCalled := false
		accounts.UpdatePasswordFunc = func(email domain.Email, passHash string) error {
			updateCalled = true
			return nil
		}
		defer func() { accounts.UpdatePasswordFunc = nil }()

		// Act
		err := service.ResetPassword("a@x.com", "000000", "newpass")

		// Assert
		require.Error(t, err)
		var errWithStatus *internal_errors.ErrorWithStatusCode
		require.True(t, errors.As(err, &errWithStatus))
		assert.Equal(t, "Invalid code", errWithStatus.Message)
		assert.False(t, updateCalled, "password must stay untouched")
	})

	t.Run("Expired code", func(t *testing.T) {
		// Arrange
		expired := liveRequest
		expired.Expires = time.Now().UTC().Add(-1 * time.Minute)
		resets.ResetRequestFunc = func(email domain.Email, code string) (domain.ResetRequest, error) {
			return expired, nil
		}
		defer func() { resets.ResetRequestFunc = nil }()

		// Act
		err := service.ResetPassword("a@x.com", "123456", "newpass")

		// Assert
		require.Error(t, err)
		var errWithStatus *internal_errors.ErrorWithStatusCode
		require.True(t, errors.As(err, &errWithStatus))
		assert.Equal(t, "Code expired", errWithStatus.Message)
	})

	t.Run("Account missing during reset", func(t *testing.T) {
		// Arrange
		resets.ResetRequestFunc = func(email domain.Email, code string) (domain.ResetRequest, error) {
			return liveRequest, nil
		}
		accounts.UpdatePasswordFunc = func(email domain.Email, passHash string) error {
			return &internal_errors.ErrorWithStatusCode{Message: "Account not found", StatusCode: http.StatusNotFound}
		}
		defer func() {
			resets.ResetRequestFunc = nil
			accounts.UpdatePasswordFunc = nil
		}()

		// Act
		err := service.ResetPassword("a@x.com", "123456", "newpass")

		// Assert
		require.Error(t, err)
		// Wrapped: the handler layer treats it as an internal error, not a 404
		_, ok := err.(*internal_errors.ErrorWithStatusCode)
		assert.False(t, ok)
		assert.Contains(t, err.Error(), "account disappeared")
	})

	t.Run("storage.DeleteResetRequests error", func(t *testing.T) {
		// Arrange
		mockError := errors.New("mock DeleteResetRequests error")
		resets.ResetRequestFunc = func(email domain.Email, code string) (domain.ResetRequest, error) {
			return liveRequest, nil
		}
		resets.DeleteResetRequestsFunc = func(email domain.Email) error {
			return mockError
		}
		defer func() {
			resets.ResetRequestFunc = nil
			resets.DeleteResetRequestsFunc = nil
		}()

		// Act
		err := service.ResetPassword("a@x.com", "123456", "newpass")

		// Assert
		require.Error(t, err)
		assert.True(t, errors.Is(err, mockError))
	})
}
