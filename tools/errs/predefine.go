package errs

// Application error codes. 1xxx argument/auth, 2xxx domain, 5xxx infra.
const (
	ArgsErrCode          = 1001
	TokenInvalidCode     = 1101
	TokenExpiredCode     = 1102
	SessionRevokedCode   = 1103
	PasswordErrCode      = 1201
	UserNotFoundCode     = 2001
	UserExistsCode       = 2002
	MessageEmptyCode     = 2101
	MediaUnsupportedCode = 2201
	DatabaseErrCode      = 5001
	InternalErrCode      = 5000
)

var (
	ErrArgs             = NewCodeError(ArgsErrCode, "invalid argument")
	ErrTokenInvalid     = NewCodeError(TokenInvalidCode, "token invalid")
	ErrTokenExpired     = NewCodeError(TokenExpiredCode, "token expired")
	ErrSessionRevoked   = NewCodeError(SessionRevokedCode, "session revoked")
	ErrPassword         = NewCodeError(PasswordErrCode, "wrong email or password")
	ErrUserNotFound     = NewCodeError(UserNotFoundCode, "user not found")
	ErrUserExists       = NewCodeError(UserExistsCode, "user already exists")
	ErrMessageEmpty     = NewCodeError(MessageEmptyCode, "message has no text or image")
	ErrMediaUnsupported = NewCodeError(MediaUnsupportedCode, "unsupported media type")
	ErrDatabase         = NewCodeError(DatabaseErrCode, "database error")
	ErrInternal         = NewCodeError(InternalErrCode, "internal error")
)
