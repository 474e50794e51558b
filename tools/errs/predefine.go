package errs

// Error codes for the realtime gateway and the REST layer. All of these are
// recovered locally: none terminate a connection or the process.
const (
	ServerInternalError = 500

	InvalidCredentialCode = 1101 // bad/expired token, or missing subject claim
	NotAuthenticatedCode  = 1102 // identity-requiring event before authenticate
	UnknownConnectionCode = 1103 // registry asked about a connection it no longer holds
	NotAParticipantCode   = 1104 // join_chat for a chat the user does not belong to

	RecordNotFoundCode = 1201
	DuplicateKeyCode   = 1202
)

var (
	ErrInternal = NewCodeError(ServerInternalError, "server internal error")

	ErrInvalidCredential = NewCodeError(InvalidCredentialCode, "invalid credential")
	ErrNotAuthenticated  = NewCodeError(NotAuthenticatedCode, "not authenticated")
	ErrUnknownConnection = NewCodeError(UnknownConnectionCode, "unknown connection")
	ErrNotAParticipant   = NewCodeError(NotAParticipantCode, "not a participant")

	ErrRecordNotFound = NewCodeError(RecordNotFoundCode, "record not found")
	ErrDuplicateKey   = NewCodeError(DuplicateKeyCode, "duplicate key")
)
