package pg

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/keygate-dev/keygate/internal/domain"
	internal_errors "github.com/keygate-dev/keygate/internal/errors"
)

// uniqueViolation is the postgres error code for unique constraint violations.
// It is the source of truth for email uniqueness: the service pre-checks for
// duplicates, but this closes the check-then-act race.
const uniqueViolation = "23505"

// =========================================================================
// Public methods (satisfy the service.AccountStorage interface)
// =========================================================================

// SaveAccount inserts a new account and returns its generated id.
func (s *Storage) SaveAccount(account domain.Account) (domain.AccountId, error) {
	ctx, cancel := context.WithTimeout(context.Background(), queryTimeout)
	defer cancel()

	var id domain.AccountId
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		var err error
		id, err = s.saveAccount(tx, account)
		return err
	})
	return id, err
}

// AccountByEmail fetches a single account by email using the main pool.
func (s *Storage) AccountByEmail(email domain.Email) (domain.Account, error) {
	return s.account(s.db, "email = $1", email)
}

// AccountById fetches a single account by its id.
func (s *Storage) AccountById(id domain.AccountId) (domain.Account, error) {
	return s.account(s.db, "id = $1", id)
}

// AccountByVerificationToken fetches the account holding the given pending
// verification token. Verified accounts never match because the token column
// is cleared on verification.
func (s *Storage) AccountByVerificationToken(token string) (domain.Account, error) {
	return s.account(s.db, "verification_token = $1", token)
}

// MarkVerified flips the account to verified and clears the pending token.
// This is the terminal transition of the verification state machine.
func (s *Storage) MarkVerified(id domain.AccountId) error {
	ctx, cancel := context.WithTimeout(context.Background(), queryTimeout)
	defer cancel()

	return s.withTx(ctx, func(tx *sql.Tx) error {
		return s.markVerified(tx, id)
	})
}

// UpdatePassword replaces the stored password hash for the account.
func (s *Storage) UpdatePassword(email domain.Email, passHash string) error {
	ctx, cancel := context.WithTimeout(context.Background(), queryTimeout)
	defer cancel()

	return s.withTx(ctx, func(tx *sql.Tx) error {
		return s.updatePassword(tx, email, passHash)
	})
}

// =========================================================================
// Internal methods (core database logic, transaction-agnostic)
// =========================================================================

func (s *Storage) saveAccount(q Querier, account domain.Account) (domain.AccountId, error) {
	id := uuid.NewString()
	_, err := q.Exec(`
        INSERT INTO accounts(id, username, email, password_hash, is_verified, verification_token, verification_expires)
        VALUES($1, $2, $3, $4, $5, $6, $7)`,
		id, account.Username, account.Email, account.PassHash, account.Verified,
		nullString(account.VerificationToken), nullTime(account.VerificationExpires),
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return "", &internal_errors.ErrorWithStatusCode{Message: "Email already used", StatusCode: http.StatusConflict}
		}
		return "", fmt.Errorf("failed to insert account: %w", err)
	}
	return id, nil
}

func (s *Storage) account(q Querier, where string, arg any) (domain.Account, error) {
	var account domain.Account
	var token sql.NullString
	var expires sql.NullTime
	err := q.QueryRow(`
        SELECT id, username, email, password_hash, is_verified,
               verification_token, (verification_expires at time zone 'utc'), (created_at at time zone 'utc')
        FROM accounts WHERE `+where,
		arg,
	).Scan(&account.Id, &account.Username, &account.Email, &account.PassHash,
		&account.Verified, &token, &expires, &account.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Account{}, &internal_errors.ErrorWithStatusCode{Message: "Account not found", StatusCode: http.StatusNotFound}
		}
		return domain.Account{}, fmt.Errorf("failed to query account: %w", err)
	}
	if token.Valid {
		account.VerificationToken = token.String
	}
	if expires.Valid {
		account.VerificationExpires = expires.Time
	}
	return account, nil
}

func (s *Storage) markVerified(q Querier, id domain.AccountId) error {
	result, err := q.Exec(`
        UPDATE accounts
        SET is_verified = TRUE, verification_token = NULL, verification_expires = NULL
        WHERE id = $1`,
		id,
	)
	if err != nil {
		return fmt.Errorf("failed to mark account verified: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check affected rows for verification: %w", err)
	}
	if rowsAffected == 0 {
		return &internal_errors.ErrorWithStatusCode{Message: "Account not found", StatusCode: http.StatusNotFound}
	}
	return nil
}

func (s *Storage) updatePassword(q Querier, email domain.Email, passHash string) error {
	result, err := q.Exec("UPDATE accounts SET password_hash = $1 WHERE email = $2", passHash, email)
	if err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check affected rows for password update: %w", err)
	}
	if rowsAffected == 0 {
		return &internal_errors.ErrorWithStatusCode{Message: "Account not found", StatusCode: http.StatusNotFound}
	}
	return nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullTime(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t
}
