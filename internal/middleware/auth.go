package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"github.com/keygate-dev/keygate/internal/domain"
	"github.com/keygate-dev/keygate/internal/errors"
	jwt_internal "github.com/keygate-dev/keygate/internal/jwt"
	"github.com/keygate-dev/keygate/internal/logger"
	"github.com/keygate-dev/keygate/internal/utils"
)

// AccountLoader is the storage subset the guard needs for its fresh lookup.
type AccountLoader interface {
	AccountById(id domain.AccountId) (domain.Account, error)
}

// Key to store the account in the request context
type key int

const AccountKey key = 0

// Guard validates bearer tokens on protected calls. Claims are only used to
// locate the account; the account itself is always freshly loaded from the
// store so deleted accounts surface as 404 instead of stale data.
type Guard struct {
	jwtService jwt_internal.JwtService
	accounts   AccountLoader
}

func NewGuard(jwtService jwt_internal.JwtService, accounts AccountLoader) *Guard {
	return &Guard{
		jwtService: jwtService,
		accounts:   accounts,
	}
}

// RequireAuth returns middleware that rejects unauthenticated requests and
// stores the sanitized account in the request context.
func (g *Guard) RequireAuth() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			account, err := g.resolveAccount(r)
			if err != nil {
				utils.WriteError(w, err)
				return
			}

			ctx := context.WithValue(r.Context(), AccountKey, account)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// resolveAccount extracts the token, validates it and resolves it to a live
// account with the password hash stripped.
func (g *Guard) resolveAccount(r *http.Request) (*domain.Account, error) {
	var tokenString string
	if token, found := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer "); found {
		tokenString = token
	} else if accessCookie, err := r.Cookie("accessToken"); err == nil {
		// Browser clients carry the token in a cookie instead
		tokenString = accessCookie.Value
	}

	if tokenString == "" {
		return nil, &errors.ErrorWithStatusCode{Message: "Please sign in", StatusCode: http.StatusUnauthorized}
	}

	token, err := g.jwtService.DecodeToken(tokenString)
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		logger.Log.Error("invalid jwt claims")
		return nil, &errors.ErrorWithStatusCode{Message: "Invalid token", StatusCode: http.StatusUnauthorized}
	}

	uid, ok := claims["uid"].(string)
	if !ok || uid == "" {
		logger.Log.Error("invalid jwt claims", "claim", "uid")
		return nil, &errors.ErrorWithStatusCode{Message: "Invalid token", StatusCode: http.StatusUnauthorized}
	}

	account, err := g.accounts.AccountById(uid)
	if err != nil {
		if errors.IsNotFound(err) {
			return nil, &errors.ErrorWithStatusCode{Message: "Account not found", StatusCode: http.StatusNotFound}
		}
		return nil, err
	}

	sanitized := account.Sanitized()
	return &sanitized, nil
}

// AccountFromContext retrieves the authenticated account from the context
func AccountFromContext(r *http.Request) *domain.Account {
	account, ok := r.Context().Value(AccountKey).(*domain.Account)
	if !ok {
		return nil
	}
	return account
}
