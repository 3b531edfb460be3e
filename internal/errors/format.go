package errors

import (
	"fmt"
	"os"
	"strings"
)

const (
	ansiReset  = "\033[0m"
	ansiRed    = "\033[31m"
	ansiGreen  = "\033[32m"
	ansiYellow = "\033[33m"
	ansiCyan   = "\033[36m"
	ansiGray   = "\033[90m"
	ansiBold   = "\033[1m"
)

// colors is off when NO_COLOR is set, see https://no-color.org.
var colors = os.Getenv("NO_COLOR") == ""

func paint(code, text string) string {
	if !colors {
		return text
	}
	return code + text + ansiReset
}

// label names the error kind in the header line: "CONFIG ERROR E101",
// "BACKEND ERROR" and so on. Internal errors are plain "ERROR".
func (e *Error) label() string {
	l := "ERROR"
	switch e.Category {
	case "", CategoryInternal:
	case CategoryAuth:
		l = "SIGN-IN ERROR"
	default:
		l = strings.ToUpper(string(e.Category)) + " ERROR"
	}
	if e.Code != "" {
		l += " " + e.Code
	}
	return l
}

// Format renders e for a terminal. Configuration errors point at the file
// to edit; other errors show the underlying cause when there is no detail.
func (e *Error) Format() string {
	var b strings.Builder
	b.WriteString("\n" + paint(ansiRed+ansiBold, e.label()+":") + " " + e.Message + "\n\n")

	detail := e.Detail
	if detail == "" && e.Wrapped != nil && e.Wrapped.Error() != e.Message {
		detail = e.Wrapped.Error()
	}
	if detail != "" {
		b.WriteString("  " + detail + "\n\n")
	}
	if e.Suggestion != "" {
		b.WriteString("  " + paint(ansiCyan, "Hint: ") + e.Suggestion + "\n")
	} else if e.Category == CategoryConfig {
		b.WriteString("  " + paint(ansiCyan, "Hint: ") + "Check admin.json and the VANGO_ADMIN_* environment\n")
	}
	if e.DocURL != "" {
		b.WriteString("  " + paint(ansiGray, "Docs: "+e.DocURL) + "\n")
	}
	return b.String()
}

// PrintError prints err to stderr, classifying errors that are not already
// an *Error.
func PrintError(err error) {
	if err == nil {
		return
	}
	fmt.Fprint(os.Stderr, Describe(err).Format())
}

// OK formats a passing check line.
func OK(msg string) string {
	return paint(ansiGreen, "✓ ") + msg
}

// Warn formats a warning line.
func Warn(msg string) string {
	return paint(ansiYellow, "! ") + msg
}
