package pg

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"

	"github.com/keygate-dev/keygate/internal/domain"
	internal_errors "github.com/keygate-dev/keygate/internal/errors"
)

// =========================================================================
// Public methods (satisfy the service.ResetStorage interface)
// =========================================================================

// SaveResetRequest inserts a password reset code. Several rows may exist for
// the same email at once.
func (s *Storage) SaveResetRequest(req domain.ResetRequest) error {
	ctx, cancel := context.WithTimeout(context.Background(), queryTimeout)
	defer cancel()

	return s.withTx(ctx, func(tx *sql.Tx) error {
		return s.saveResetRequest(tx, req)
	})
}

// ResetRequest fetches a reset request by exact (email, code) match. Expiry
// is not checked here: the service distinguishes a missing code from an
// expired one.
func (s *Storage) ResetRequest(email domain.Email, code string) (domain.ResetRequest, error) {
	return s.resetRequest(s.db, email, code)
}

// DeleteResetRequests removes every outstanding reset request for the email.
// Deleting zero rows is not an error.
func (s *Storage) DeleteResetRequests(email domain.Email) error {
	ctx, cancel := context.WithTimeout(context.Background(), queryTimeout)
	defer cancel()

	return s.withTx(ctx, func(tx *sql.Tx) error {
		return s.deleteResetRequests(tx, email)
	})
}

// =========================================================================
// Internal methods (core database logic, transaction-agnostic)
// =========================================================================

func (s *Storage) saveResetRequest(q Querier, req domain.ResetRequest) error {
	_, err := q.Exec(`
        INSERT INTO password_resets(email, code, expires_at)
        VALUES($1, $2, $3)`,
		req.Email, req.Code, req.Expires,
	)
	if err != nil {
		return fmt.Errorf("failed to insert reset request: %w", err)
	}
	return nil
}

func (s *Storage) resetRequest(q Querier, email domain.Email, code string) (domain.ResetRequest, error) {
	var req domain.ResetRequest
	err := q.QueryRow(`
        SELECT email, code, (expires_at at time zone 'utc')
        FROM password_resets
        WHERE email = $1 AND code = $2
        ORDER BY expires_at DESC
        LIMIT 1`,
		email, code,
	).Scan(&req.Email, &req.Code, &req.Expires)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.ResetRequest{}, &internal_errors.ErrorWithStatusCode{Message: "Reset request not found", StatusCode: http.StatusNotFound}
		}
		return domain.ResetRequest{}, fmt.Errorf("failed to query reset request: %w", err)
	}
	return req, nil
}

func (s *Storage) deleteResetRequests(q Querier, email domain.Email) error {
	if _, err := q.Exec("DELETE FROM password_resets WHERE email = $1", email); err != nil {
		return fmt.Errorf("failed to delete reset requests: %w", err)
	}
	return nil
}
