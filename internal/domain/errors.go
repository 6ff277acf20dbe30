package domain

import "errors"

var (
	ErrEmptyName        = errors.New("please enter a player name")
	ErrNameTooShort     = errors.New("name must be at least 2 characters")
	ErrDuplicateName    = errors.New("a player with this name already exists")
	ErrPermissionDenied = errors.New("operator access required")
	ErrInvalidSelection = errors.New("invalid player selection")
	ErrInvalidScore     = errors.New("goals must be whole numbers between 0 and 99")
	ErrPlayerNotFound   = errors.New("player not found")
	ErrUpdateFailed     = errors.New("update failed, check connection and permissions")
	ErrNoPendingRemoval = errors.New("no deletion is pending")
)

type detailed struct {
	err error
	msg string
}

func (d *detailed) Error() string { return d.msg }
func (d *detailed) Unwrap() error { return d.err }

// Detail returns an error matching err with a more specific message.
func Detail(err error, msg string) error {
	return &detailed{err: err, msg: msg}
}

// Kind groups errors the way the interface reports them.
type Kind int

const (
	KindNone Kind = iota
	KindValidation
	KindPermission
	KindRemote
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindPermission:
		return "permission"
	case KindRemote:
		return "remote"
	}
	return "none"
}

// KindOf classifies err. Unknown errors are treated as remote failures.
func KindOf(err error) Kind {
	switch {
	case err == nil:
		return KindNone
	case errors.Is(err, ErrPermissionDenied):
		return KindPermission
	case errors.Is(err, ErrEmptyName),
		errors.Is(err, ErrNameTooShort),
		errors.Is(err, ErrDuplicateName),
		errors.Is(err, ErrInvalidSelection),
		errors.Is(err, ErrInvalidScore),
		errors.Is(err, ErrPlayerNotFound),
		errors.Is(err, ErrNoPendingRemoval):
		return KindValidation
	}
	return KindRemote
}
