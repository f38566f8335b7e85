package ledger

// Error is a rejection of a single attempted operation. The ledger state is
// always left unchanged when one is returned.
type Error struct {
	Code    string
	Message string
}

func (e *Error) Error() string { return e.Message }

// The full rejection taxonomy. Every mutating operation validates against
// these before performing any state mutation.
var (
	ErrNotAuthorized  = &Error{Code: "NOT_AUTHORIZED", Message: "only the ledger owner may do this"}
	ErrPostNotFound   = &Error{Code: "POST_NOT_FOUND", Message: "post does not exist"}
	ErrInvalidContent = &Error{Code: "INVALID_CONTENT", Message: "content reference must be 1 to 256 code points"}
	ErrContractPaused = &Error{Code: "CONTRACT_PAUSED", Message: "ledger is paused"}
	ErrAlreadyLiked   = &Error{Code: "ALREADY_LIKED", Message: "post already liked by this user"}
	ErrNotLiked       = &Error{Code: "NOT_LIKED", Message: "post not currently liked by this user"}
)
