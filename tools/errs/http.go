package errs

import "net/http"

// HTTPStatus maps application error codes onto HTTP statuses for the REST
// layer.
func HTTPStatus(err error) int {
	switch CodeOf(err) {
	case ArgsErrCode, MessageEmptyCode, MediaUnsupportedCode:
		return http.StatusBadRequest
	case TokenInvalidCode, TokenExpiredCode, SessionRevokedCode, PasswordErrCode:
		return http.StatusUnauthorized
	case UserNotFoundCode:
		return http.StatusNotFound
	case UserExistsCode:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
