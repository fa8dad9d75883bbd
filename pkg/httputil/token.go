package httputil

import (
	"net/http"
	"strings"

	"github.com/pkg/errors"
)

// TokenQueryParam is accepted where headers cannot be set, such as a browser websocket upgrade.
const TokenQueryParam = "token"

var ErrNoToken = errors.New("no table token in header or query")

// GetTokenFromRequest reads "Authorization: Bearer <token>", falling back to the token query param.
func GetTokenFromRequest(r *http.Request) (string, error) {
	authHeader := r.Header.Get("Authorization")
	if authHeader != "" {
		if len(authHeader) > 7 && strings.EqualFold(authHeader[:7], "Bearer ") {
			return strings.TrimSpace(authHeader[7:]), nil
		}
		return strings.TrimSpace(authHeader), nil
	}

	if token := r.URL.Query().Get(TokenQueryParam); token != "" {
		return token, nil
	}

	return "", ErrNoToken
}
