package errors

import "errors"

// Kind classifies a failure so transports can map it to a stable status.
type Kind int

const (
	KindInternal Kind = iota
	KindNotFound
	KindForbidden
	KindInvalidInput
	KindConflict
	KindUpstream
	KindUnauthorized
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindForbidden:
		return "forbidden"
	case KindInvalidInput:
		return "invalid_input"
	case KindConflict:
		return "conflict"
	case KindUpstream:
		return "upstream_failure"
	case KindUnauthorized:
		return "unauthorized"
	default:
		return "internal"
	}
}

// Error is a classified domain error. Two *Error values match under
// errors.Is when kind and message agree, so sentinels survive wrapping.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Msg + ": " + e.Err.Error()
	}
	return e.Msg
}

func (e *Error) Unwrap() error { return e.Err }

func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && t.Msg == e.Msg
}

func NotFound(msg string) *Error     { return &Error{Kind: KindNotFound, Msg: msg} }
func Forbidden(msg string) *Error    { return &Error{Kind: KindForbidden, Msg: msg} }
func InvalidInput(msg string) *Error { return &Error{Kind: KindInvalidInput, Msg: msg} }
func Conflict(msg string) *Error     { return &Error{Kind: KindConflict, Msg: msg} }
func Unauthorized(msg string) *Error { return &Error{Kind: KindUnauthorized, Msg: msg} }

// Upstream wraps a failed or timed-out call to storage, the directory or
// the notifier.
func Upstream(msg string, err error) *Error {
	return &Error{Kind: KindUpstream, Msg: msg, Err: err}
}

// KindOf returns the kind of the first *Error in err's chain, or
// KindInternal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// Sentinel errors for handlers to map to HTTP status.
var (
	ErrProjectNotFound         = NotFound("project not found")
	ErrVersionNotFound         = NotFound("version not found")
	ErrPendingVersionNotFound  = NotFound("pending version not found")
	ErrApprovedVersionNotFound = NotFound("version not found or not approved")
	ErrRequestNotFound         = NotFound("access request not found")
	ErrUserNotFound            = NotFound("user not found")
	ErrCollaboratorNotFound    = NotFound("user is not a collaborator on this project")
	ErrNotificationNotFound    = NotFound("notification not found")

	ErrNoProjectAccess      = Forbidden("you do not have access to this project")
	ErrEditAccessRequired   = Forbidden("you do not have permission to edit this project")
	ErrAdminAccessRequired  = Forbidden("only the project creator can perform this action")
	ErrCannotRemoveCreator  = Forbidden("cannot remove project creator")
	ErrCannotChangeCreator  = Forbidden("cannot change the project creator's access")
	ErrInvalidShareToken    = Unauthorized("invalid or expired share link")
	ErrInvalidCredentials   = Unauthorized("invalid email or password")
	ErrAccountLocked        = Unauthorized("too many failed attempts; try again later")
	ErrWrongPassword        = Unauthorized("current password is incorrect")

	ErrNameRequired         = InvalidInput("project name is required")
	ErrInvalidAccessType    = InvalidInput("access type must be editor or viewer")
	ErrInvalidRequestType   = InvalidInput("request type must be editor")
	ErrInvalidDecision      = InvalidInput("status must be approved or rejected")
	ErrFileRequired         = InvalidInput("file URL and name are required")
	ErrInvalidVersionNumber = InvalidInput("version number must be positive")
	ErrInvalidEmail         = InvalidInput("a valid email address is required")
	ErrWeakPassword         = InvalidInput("password must be at least 8 characters")
	ErrForeignFileKey       = InvalidInput("file key does not belong to this project")
	ErrEmptyProfileUpdate   = InvalidInput("name or email is required")

	ErrUserExists              = Conflict("user already exists")
	ErrAlreadyEditor           = Conflict("you already have editor access to this project")
	ErrDuplicatePendingRequest = Conflict("you already have a pending access request")
	ErrRequestDecided          = Conflict("access request has already been decided")
	ErrVersionNumberTaken      = Conflict("version number already exists for this project")
)
