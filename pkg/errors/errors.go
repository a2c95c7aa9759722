package errors

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

/*
Error aggregates any mix of errors and plain messages into a single error
value. Handy at boundaries where several independent failures should be
reported together.
*/
type Error struct {
	Errs []error
	Msgs []any
}

func New(parts ...any) error {
	err := &Error{}

	for _, part := range parts {
		switch v := part.(type) {
		case error:
			err.Errs = append(err.Errs, v)
		case string:
			err.Msgs = append(err.Msgs, v)
		}
	}

	return err
}

func (err *Error) Error() string {
	builder := &strings.Builder{}

	for _, e := range err.Errs {
		builder.WriteString(e.Error())
		builder.WriteString("\n")
	}

	for _, msg := range err.Msgs {
		builder.WriteString(fmt.Sprintf("%v\n", msg))
	}

	return builder.String()
}

/*
Truncate bounds a diagnostic string so upstream failure text never bloats a
final response. Truncation is marked with an ellipsis and always lands on a
rune boundary, so multi-byte input stays valid UTF-8.
*/
func Truncate(msg string, limit int) string {
	if limit <= 0 || len(msg) <= limit {
		return msg
	}

	cut := limit
	for cut > 0 && !utf8.RuneStart(msg[cut]) {
		cut--
	}
	return msg[:cut] + "…"
}
