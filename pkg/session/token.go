package session

import (
	"fmt"

	"github.com/golang-jwt/jwt"
	"github.com/pkg/errors"

	"github.com/CoopHive/bacalhau/pkg/dashboard/types"
)

const userClaim = "user"

// GenerateToken issues a dashboard style HS256 token naming username.
func GenerateToken(secret string, username string) (string, error) {
	token := jwt.New(jwt.SigningMethodHS256)
	claims := token.Claims.(jwt.MapClaims)
	claims["authorized"] = true
	claims[userClaim] = username
	return token.SignedString([]byte(secret))
}

// ParseToken verifies tokenString against secret and returns the user it names.
func ParseToken(secret string, tokenString string) (string, error) {
	parsedToken, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		return "", err
	}
	return userFromClaims(parsedToken.Claims)
}

// FromToken starts a session for the user named by a dashboard token. The
// token is not verified here: the dashboard verifies it on every moderation
// call, the client only needs to know who it is acting as.
func FromToken(tokenString string) (*Session, error) {
	if tokenString == "" {
		return New(), nil
	}
	parsedToken, _, err := new(jwt.Parser).ParseUnverified(tokenString, jwt.MapClaims{})
	if err != nil {
		return nil, errors.Wrap(err, "error parsing token")
	}
	username, err := userFromClaims(parsedToken.Claims)
	if err != nil {
		return nil, err
	}
	s := New()
	s.Start(&types.User{Username: username}, tokenString)
	return s, nil
}

func userFromClaims(claims jwt.Claims) (string, error) {
	mapClaims, ok := claims.(jwt.MapClaims)
	if !ok {
		return "", fmt.Errorf("could not parse claims")
	}
	username, ok := mapClaims[userClaim].(string)
	if !ok || username == "" {
		return "", fmt.Errorf("token has no %q claim", userClaim)
	}
	return username, nil
}
