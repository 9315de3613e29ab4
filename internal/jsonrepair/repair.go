// Package jsonrepair recovers JSON values from free-form model output.
//
// Repair is an ordered chain of steps. Each step rewrites the text left by
// the previous one and the result is parsed after every rewrite, so the
// first step that yields valid JSON wins.
package jsonrepair

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Step is one fallible rewrite in the repair chain.
type Step interface {
	// Name identifies the step in errors and logs, e.g. "fence".
	Name() string

	// Rewrite returns the transformed text and whether anything changed.
	// Steps that do not apply return the input with ok == false and are
	// not followed by a parse attempt.
	Rewrite(text string) (out string, ok bool)
}

// StepError records why a single step did not produce valid JSON.
type StepError struct {
	Step string
	Err  error
}

// ParseError is returned when no step produced valid JSON.
type ParseError struct {
	Attempts []StepError
}

// ErrEmptyInput is reported for blank input.
var ErrEmptyInput = errors.New("empty input")

// errNotApplicable marks a step that left the text unchanged.
var errNotApplicable = errors.New("not applicable")

func (e *ParseError) Error() string {
	parts := make([]string, 0, len(e.Attempts))
	for _, a := range e.Attempts {
		parts = append(parts, fmt.Sprintf("%s: %v", a.Step, a.Err))
	}
	return "no valid JSON found (" + strings.Join(parts, "; ") + ")"
}

// Unwrap exposes every step error to errors.Is and errors.As.
func (e *ParseError) Unwrap() []error {
	errs := make([]error, 0, len(e.Attempts))
	for _, a := range e.Attempts {
		errs = append(errs, a.Err)
	}
	return errs
}

// Last returns the error of the final attempted step, or nil.
func (e *ParseError) Last() error {
	for i := len(e.Attempts) - 1; i >= 0; i-- {
		if !errors.Is(e.Attempts[i].Err, errNotApplicable) {
			return e.Attempts[i].Err
		}
	}
	return nil
}

// Chain is an ordered list of repair steps.
type Chain struct {
	steps []Step
}

// NewChain builds a chain that runs a direct parse followed by steps in order.
func NewChain(steps ...Step) *Chain {
	return &Chain{steps: steps}
}

// DefaultChain returns the standard ladder: fence, comments, span, literals.
func DefaultChain() *Chain {
	return NewChain(
		FenceStep{},
		CommentStep{},
		SpanStep{},
		LiteralStep{},
	)
}

// Steps returns the names of the configured steps, in order.
func (c *Chain) Steps() []string {
	names := make([]string, 0, len(c.steps)+1)
	names = append(names, "direct")
	for _, s := range c.steps {
		names = append(names, s.Name())
	}
	return names
}

// Parse returns the first successfully parsed value along with the name of
// the step that produced it.
func (c *Chain) Parse(text string) (any, string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, "", &ParseError{Attempts: []StepError{{Step: "direct", Err: ErrEmptyInput}}}
	}

	perr := &ParseError{}

	v, err := decode(text)
	if err == nil {
		return v, "direct", nil
	}
	perr.Attempts = append(perr.Attempts, StepError{Step: "direct", Err: err})

	current := text
	for _, s := range c.steps {
		out, ok := s.Rewrite(current)
		if !ok {
			perr.Attempts = append(perr.Attempts, StepError{Step: s.Name(), Err: errNotApplicable})
			continue
		}
		current = strings.TrimSpace(out)
		v, err := decode(current)
		if err == nil {
			return v, s.Name(), nil
		}
		perr.Attempts = append(perr.Attempts, StepError{Step: s.Name(), Err: err})
	}

	return nil, "", perr
}

var defaultChain = DefaultChain()

// Parse runs the default chain over text.
func Parse(text string) (any, error) {
	v, _, err := defaultChain.Parse(text)
	return v, err
}

// ParseInto runs the default chain and decodes the result into dst.
func ParseInto(text string, dst any) error {
	v, err := Parse(text)
	if err != nil {
		return err
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("re-encode repaired value: %w", err)
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("decode repaired value: %w", err)
	}
	return nil
}

func decode(text string) (any, error) {
	var v any
	if err := json.Unmarshal([]byte(text), &v); err != nil {
		return nil, err
	}
	return v, nil
}
