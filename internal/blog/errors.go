package blog

// エラーコード。respondWithError がHTTPステータスへ対応付けます。
const (
	CodeInvalidInput = "INVALID_INPUT"
	CodeNotFound     = "NOT_FOUND"
	CodeTitleTaken   = "TITLE_TAKEN"
	CodeSelfDelete   = "SELF_DELETE"
)

// Error はクライアントへ返す業務エラーです。
type Error struct {
	Code    string
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

func notFoundErr(message string) *Error {
	return &Error{Code: CodeNotFound, Message: message}
}
