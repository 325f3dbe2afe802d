package compare

import "errors"

// 字段级校验错误，显示在对应输入框旁边，不会中断请求
var (
	ErrInvalidTitle     = errors.New("compare-invalid-title")
	ErrTitleNotFound    = errors.New("compare-title-not-exists")
	ErrRevisionNotFound = errors.New("compare-revision-not-exists")
	ErrInvalidRevision  = errors.New("htmlform-int-invalid")
)

var messages = map[error]string{
	ErrInvalidTitle:     "The title you specified is invalid.",
	ErrTitleNotFound:    "The title you specified does not exist.",
	ErrRevisionNotFound: "The revision you specified does not exist.",
	ErrInvalidRevision:  "The value you specified is not an integer.",
}

// Message 返回面向用户的提示文本
func Message(err error) string {
	for sentinel, msg := range messages {
		if errors.Is(err, sentinel) {
			return msg
		}
	}
	return ""
}

func isFieldError(err error) bool {
	return Message(err) != ""
}

// FieldError 绑定到某个表单字段的校验错误
type FieldError struct {
	Field string
	Err   error
}

func (e *FieldError) Error() string { return e.Field + ": " + e.Err.Error() }
func (e *FieldError) Unwrap() error { return e.Err }

// FieldErrors 字段名 -> 错误
type FieldErrors map[string]*FieldError

func (fe FieldErrors) add(field string, err error) {
	fe[field] = &FieldError{Field: field, Err: err}
}

// Messages 字段名 -> 提示文本
func (fe FieldErrors) Messages() map[string]string {
	out := make(map[string]string, len(fe))
	for field, e := range fe {
		out[field] = Message(e.Err)
	}
	return out
}
