package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/pkg/errors"
)

var (
	ErrInvalidToken = errors.New("invalid table token")
	ErrWrongTable   = errors.New("token was issued for another table")
)

// TableClaims binds a presentation client to one table.
type TableClaims struct {
	TableID string `json:"table_id"`
	jwt.RegisteredClaims
}

// IssueTableToken creates a signed token for tableID that expires after ttl.
func IssueTableToken(secret, tableID string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := &TableClaims{
		TableID: tableID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   tableID,
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		return "", errors.Wrap(err, "sign table token")
	}
	return signed, nil
}

// ValidateTableToken verifies the signature and expiry and returns the claims.
func ValidateTableToken(secret, tokenString string) (*TableClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &TableClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("invalid signing method")
		}
		return []byte(secret), nil
	})
	if err != nil {
		return nil, errors.Wrap(ErrInvalidToken, err.Error())
	}

	claims, ok := token.Claims.(*TableClaims)
	if !ok || !token.Valid || claims.TableID == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// ValidateForTable is ValidateTableToken plus a check that the token belongs to tableID.
func ValidateForTable(secret, tokenString, tableID string) (*TableClaims, error) {
	claims, err := ValidateTableToken(secret, tokenString)
	if err != nil {
		return nil, err
	}
	if claims.TableID != tableID {
		return nil, ErrWrongTable
	}
	return claims, nil
}
