package errors

import (
	"bufio"
	stderrors "errors"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Category represents the type of error.
type Category string

const (
	CategoryHook    Category = "hook"
	CategoryRuntime Category = "runtime"
	CategoryConfig  Category = "config"
	CategoryCLI     Category = "cli"
)

// Location represents a source code location.
type Location struct {
	File string `json:"file"`
	Line int    `json:"line"`
}

// String returns the location as a formatted string.
func (l *Location) String() string {
	if l == nil {
		return ""
	}
	return fmt.Sprintf("%s:%d", l.File, l.Line)
}

// Error is a coded error with an explanation and a hint.
type Error struct {
	// Code is a unique error identifier (e.g., "H001").
	Code string

	// Category is the error type.
	Category Category

	// Message is a short description of the error.
	Message string

	// Detail is a longer explanation of the error.
	Detail string

	// Location is where in user code the error happened, when known.
	Location *Location

	// Context contains source lines around Location.
	Context []string

	// Suggestion is a hint on how to fix the error.
	Suggestion string

	// Example is code showing the correct approach.
	Example string

	// Wrapped is the underlying error, if any.
	Wrapped error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
	return e.Message
}

// Unwrap returns the wrapped error for errors.Is/As support.
func (e *Error) Unwrap() error {
	return e.Wrapped
}

// WithLocation adds a source location and reads the surrounding lines.
func (e *Error) WithLocation(file string, line int) *Error {
	e.Location = &Location{File: file, Line: line}
	e.Context = readContextLines(file, line, 5)
	return e
}

// WithSuggestion adds a fix suggestion to the error.
func (e *Error) WithSuggestion(s string) *Error {
	e.Suggestion = s
	return e
}

// WithExample adds a code example to the error.
func (e *Error) WithExample(ex string) *Error {
	e.Example = ex
	return e
}

// WithDetail adds a detailed explanation to the error.
func (e *Error) WithDetail(d string) *Error {
	e.Detail = d
	return e
}

// Wrap wraps another error.
func (e *Error) Wrap(err error) *Error {
	e.Wrapped = err
	return e
}

// readContextLines reads lines around the specified line number from a file.
func readContextLines(filename string, targetLine, contextSize int) []string {
	file, err := os.Open(filename)
	if err != nil {
		return nil
	}
	defer file.Close()

	var lines []string
	scanner := bufio.NewScanner(file)
	lineNum := 0
	startLine := targetLine - contextSize/2
	endLine := targetLine + contextSize/2

	for scanner.Scan() {
		lineNum++
		if lineNum >= startLine && lineNum <= endLine {
			lines = append(lines, scanner.Text())
		}
		if lineNum > endLine {
			break
		}
	}
	return lines
}

// New creates an Error from a registered code.
func New(code string) *Error {
	template, ok := registry[code]
	if !ok {
		return &Error{
			Code:    code,
			Message: "Unknown error",
		}
	}
	return &Error{
		Code:       code,
		Category:   template.Category,
		Message:    template.Message,
		Detail:     template.Detail,
		Suggestion: template.Hint,
		Example:    template.Example,
	}
}

// Newf creates an Error with a formatted message and no code.
func Newf(category Category, format string, args ...any) *Error {
	return &Error{
		Category: category,
		Message:  fmt.Sprintf(format, args...),
	}
}

// FromError wraps err in an Error. Errors that expose a registered code
// through a Code() string method use that code; anything else gets
// fallback. The location is taken from a captured stack, if err carries
// one.
func FromError(err error, fallback string) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if stderrors.As(err, &e) {
		return e
	}

	code := fallback
	var coded interface{ Code() string }
	if stderrors.As(err, &coded) {
		if _, ok := registry[coded.Code()]; ok {
			code = coded.Code()
		}
	}
	out := New(code).Wrap(err)

	var stacked interface{ StackTrace() []byte }
	if stderrors.As(err, &stacked) {
		if loc := userFrame(stacked.StackTrace()); loc != nil {
			out.WithLocation(loc.File, loc.Line)
		}
	}
	return out
}

// frameSkips are path fragments of frames that never point at user code.
var frameSkips = []string{
	"/src/runtime/",
	"/hookrt/pkg/hooks/",
	"/hookrt/pkg/host/",
	"/hookrt/internal/",
}

// userFrame finds the first frame of a debug.Stack trace that lies
// outside the Go runtime and hookrt itself.
func userFrame(stack []byte) *Location {
	for _, line := range strings.Split(string(stack), "\n") {
		if !strings.HasPrefix(line, "\t") {
			continue
		}
		line = strings.TrimSpace(line)
		if i := strings.LastIndex(line, " +0x"); i >= 0 {
			line = line[:i]
		}
		colon := strings.LastIndex(line, ":")
		if colon < 0 {
			continue
		}
		file, num := line[:colon], line[colon+1:]
		n, err := strconv.Atoi(num)
		if err != nil || !strings.HasSuffix(file, ".go") || skipFrame(file) {
			continue
		}
		return &Location{File: file, Line: n}
	}
	return nil
}

func skipFrame(file string) bool {
	for _, s := range frameSkips {
		if strings.Contains(file, s) {
			return true
		}
	}
	return false
}
