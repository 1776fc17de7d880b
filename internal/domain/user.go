package domain

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

var ErrUserNotFound = errors.New("user not found")
var ErrUserAlreadyExists = errors.New("user already exists")
var ErrInvalidCredentials = errors.New("invalid credentials")

type User struct {
	ID           int64
	Email        string
	PasswordHash string
	FirstName    string
	LastName     string
	Address      string
	Balance      decimal.Decimal
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
