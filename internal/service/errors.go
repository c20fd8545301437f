package service

type ErrorCode string

const (
	ErrorCodeTeamExists       ErrorCode = "TEAM_EXISTS"
	ErrorCodeNotFound         ErrorCode = "NOT_FOUND"
	ErrorCodeEmptyFilter      ErrorCode = "EMPTY_FILTER"
	ErrorCodeInvalidCondition ErrorCode = "INVALID_CONDITION"
	ErrorCodeInvalidPage      ErrorCode = "INVALID_PAGE"
	ErrorCodeUnspecified      ErrorCode = "UNSPECIFIED"
	ErrorCodeInvalidBody      ErrorCode = "INVALID_BODY"
)

type Error struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
}

func NewError(code ErrorCode, message string) *Error {
	return &Error{
		Code:    code,
		Message: message,
	}
}

func (e *Error) Error() string {
	return e.Message
}
