package models

import "errors"

var (
	ErrNotFound         = errors.New("not found")
	ErrUsernameInvalid  = errors.New("username must be 1-20 characters: letters, numbers, '_' or '.'")
	ErrUsernameReserved = errors.New("username is reserved")
	ErrUsernameTaken    = errors.New("username is already taken")
	ErrEmailTaken       = errors.New("email is already registered")
	ErrBadgeExists      = errors.New("a badge with that name already exists")
	ErrInviteInvalid    = errors.New("invalid invite token")
	ErrInviteUsed       = errors.New("invite token already used")
	ErrNotEligible      = errors.New("not allowed to create invites")
	ErrInviteLimit      = errors.New("invite limit reached")
	ErrLimitReached     = errors.New("limit reached")
	ErrSelf             = errors.New("cannot do that to your own account")
)

// ErrInvalid matches every InvalidError
var ErrInvalid = errors.New("invalid input")

// InvalidError is a rejected user input, safe to show to the client
type InvalidError struct {
	Msg string
}

func (e InvalidError) Error() string {
	return e.Msg
}

func (e InvalidError) Is(target error) bool {
	return target == ErrInvalid
}

func invalid(msg string) error {
	return InvalidError{Msg: msg}
}
