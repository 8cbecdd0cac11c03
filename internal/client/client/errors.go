package client

import "errors"

var (
	ErrUnavailable         = errors.New("server unavailable")
	ErrUnauthorized        = errors.New("unauthorized")
	ErrUserNotFound        = errors.New("user not found")
	ErrWrongPassword       = errors.New("wrong password")
	ErrAlreadyExists       = errors.New("user already exists")
	ErrSessionExpired      = errors.New("session expired, log in again")
	ErrInvalidRefreshToken = errors.New("invalid refresh token")
)
