package repository

import "errors"

var (
	ErrUserNotFound      = errors.New("user not found")
	ErrFunctionNotFound  = errors.New("function not found")
	ErrExecutionNotFound = errors.New("execution not found")
	ErrDuplicate         = errors.New("record already exists")
	ErrUsernameExists    = errors.New("username already exists")
	ErrEmailExists       = errors.New("email already exists")
)

// Redis key prefixes shared by the cache-backed repositories.
const (
	otpKeyPrefix     = "runbox:otp:"
	sessionKeyPrefix = "runbox:session:"
)
