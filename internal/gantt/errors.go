package gantt

import (
	"fmt"

	"github.com/ganttwork/planner/internal/domain"
)

// Kind classifies a ParseError.
type Kind string

const (
	KindSyntax     Kind = "syntax"
	KindSemantic   Kind = "semantic"
	KindValidation Kind = "validation"
)

// ParseError reports the 1-based line a PlantUML document failed on.
type ParseError struct {
	Line    int
	Kind    Kind
	Message string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("line %d: %s", e.Line, e.Message)
}

// Unwrap lets callers match any parse failure with errors.Is(err, domain.ErrInvalidPlantUML).
func (e *ParseError) Unwrap() error { return domain.ErrInvalidPlantUML }

func newError(line int, kind Kind, format string, args ...any) *ParseError {
	return &ParseError{Line: line, Kind: kind, Message: fmt.Sprintf(format, args...)}
}
