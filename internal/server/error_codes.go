package server

const (
	// Validation (1xxx)
	ErrCodeInvalidArgument   = 1000
	ErrCodeInvalidJSON       = 1001
	ErrCodeRequestTooLarge   = 1002
	ErrCodeInvalidQuery      = 1003
	ErrCodeInvalidID         = 1004
	ErrCodeMissingRequired   = 1009
	ErrCodeInvalidTimeFilter = 1010
	ErrCodeInvalidImageURL   = 1015
	ErrCodeInvalidTags       = 1016
	ErrCodeInvalidFileType   = 1017
	ErrCodeInvalidUsername   = 1018
	ErrCodeInvalidEmail      = 1019
	ErrCodeInvalidPassword   = 1020
	ErrCodeImageUnreachable  = 1021

	// Domain state (2xxx)
	ErrCodePostNotFound   = 2001
	ErrCodeUserNotFound   = 2002
	ErrCodeUploadNotFound = 2003
	ErrCodeUsernameTaken  = 2101
	ErrCodeEmailTaken     = 2102
	ErrCodeConflict       = 2103

	// Auth & limits (3xxx)
	ErrCodeUnauthorized      = 3001
	ErrCodeForbidden         = 3002
	ErrCodeResourceExhausted = 3003
	ErrCodeIdentityRequired  = 3004

	// Internal/system (4xxx)
	ErrCodeInternal       = 4001
	ErrCodeStoreFailure   = 4002
	ErrCodeUploadFailed   = 4003
	ErrCodeNotImplemented = 4005
)

func defaultErrorCodeByStatus(status int) int {
	switch status {
	case 400:
		return ErrCodeInvalidArgument
	case 401:
		return ErrCodeUnauthorized
	case 403:
		return ErrCodeForbidden
	case 404:
		return ErrCodePostNotFound
	case 409:
		return ErrCodeConflict
	case 413:
		return ErrCodeRequestTooLarge
	case 429:
		return ErrCodeResourceExhausted
	case 500:
		return ErrCodeInternal
	case 501:
		return ErrCodeNotImplemented
	default:
		return 0
	}
}
