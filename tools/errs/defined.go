package errs

// Gateway-wide sentinel errors. Handshake failures are fatal to the
// connection; the rest degrade to unicast error frames.
var (
	ErrTokenMissing = NewCodeError(4010, "missing token")
	ErrTokenInvalid = NewCodeError(4011, "invalid token")
	ErrUserNotFound = NewCodeError(4040, "user not found")
	ErrEmptyText    = NewCodeError(4220, "message text is required")
	ErrPersistence  = NewCodeError(5001, "message persistence failed")
)
