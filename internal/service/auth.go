package service

import (
	"net/http"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/kiez-net/kiez/internal/domain"
	internal_errors "github.com/kiez-net/kiez/internal/errors"
	"github.com/kiez-net/kiez/internal/logger"
)

// to mock service in tests
type AuthService interface {
	Register(email, password, displayName string) (domain.User, error)
	Login(creds domain.Credentials) (string, domain.User, error)
}

type Auth struct {
	storage AuthStorage
	jwt     Jwt
}

type AuthStorage interface {
	SaveUser(user domain.User) (domain.UserId, error)
	UserByEmail(email domain.Email) (domain.User, error)
}

type Jwt interface {
	NewToken(user domain.User) (string, error)
}

func NewAuth(storage AuthStorage, jwt Jwt) *Auth {
	return &Auth{storage, jwt}
}

func (a *Auth) Register(email, password, displayName string) (domain.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	passHash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		logger.Log.Error("failed to hash password", "err", err)
		return domain.User{}, err
	}

	user := domain.User{
		Email:       email,
		DisplayName: strings.TrimSpace(displayName),
		PassHash:    string(passHash),
	}
	user.Id, err = a.storage.SaveUser(user)
	if err != nil {
		return domain.User{}, err
	}
	return user, nil
}

// Login checks the credentials and returns a signed token. Wrong email and
// wrong password yield the same error so accounts cannot be enumerated.
func (a *Auth) Login(creds domain.Credentials) (string, domain.User, error) {
	badCreds := &internal_errors.ErrorWithStatusCode{Message: "E-Mail oder Passwort falsch", StatusCode: http.StatusUnauthorized}

	user, err := a.storage.UserByEmail(strings.ToLower(strings.TrimSpace(creds.Email)))
	if err != nil {
		if internal_errors.IsNotFound(err) {
			return "", domain.User{}, badCreds
		}
		return "", domain.User{}, err
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PassHash), []byte(creds.Password)) != nil {
		return "", domain.User{}, badCreds
	}

	token, err := a.jwt.NewToken(user)
	if err != nil {
		return "", domain.User{}, err
	}
	return token, user, nil
}
