package console

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jiaming2012/tradebox/src/eventmodels"
)

// field is one prompt of a form. apply parses the answer and stores it; a
// returned error is shown and the same field is asked again.
type field struct {
	label string
	apply func(answer string) error
	// when is nil for fields that are always asked
	when func() bool
}

// form walks its fields in order, then runs submit with the collected answers.
type form struct {
	fields []field
	pos    int
	submit func(ctx context.Context) (string, error)
}

func newForm(submit func(ctx context.Context) (string, error), fields ...field) *form {
	f := &form{fields: fields, submit: submit, pos: -1}
	f.advance()
	return f
}

func (f *form) current() *field {
	if f.done() {
		return nil
	}

	return &f.fields[f.pos]
}

func (f *form) done() bool {
	return f.pos >= len(f.fields)
}

func (f *form) advance() {
	for f.pos++; f.pos < len(f.fields); f.pos++ {
		if w := f.fields[f.pos].when; w == nil || w() {
			return
		}
	}
}

func (f field) onlyIf(when func() bool) field {
	f.when = when
	return f
}

func choiceField(label string, set func(string), allowed ...string) field {
	return field{label: label, apply: func(answer string) error {
		answer = strings.ToLower(answer)
		for _, a := range allowed {
			if answer == a {
				set(answer)
				return nil
			}
		}

		return fmt.Errorf("'%s' is not one of %s", answer, strings.Join(allowed, "/"))
	}}
}

func stringField(label string, blank bool, set func(string)) field {
	return field{label: label, apply: func(answer string) error {
		if answer == "" && !blank {
			return fmt.Errorf("blank values are not allowed")
		}

		set(answer)
		return nil
	}}
}

func intField(label string, set func(int)) field {
	return field{label: label, apply: func(answer string) error {
		n, err := strconv.Atoi(answer)
		if err != nil {
			return fmt.Errorf("'%s' is not an integer", answer)
		}

		set(n)
		return nil
	}}
}

func floatField(label string, set func(float64)) field {
	return field{label: label, apply: func(answer string) error {
		f, err := strconv.ParseFloat(answer, 64)
		if err != nil {
			return fmt.Errorf("'%s' is not a number", answer)
		}

		set(f)
		return nil
	}}
}

func boolField(label string, set func(bool)) field {
	return field{label: label, apply: func(answer string) error {
		switch strings.ToLower(answer) {
		case "true", "t", "yes", "y":
			set(true)
		case "false", "f", "no", "n":
			set(false)
		default:
			return fmt.Errorf("'%s' is not true or false", answer)
		}

		return nil
	}}
}

func dateField(label string, set func(string)) field {
	return field{label: label, apply: func(answer string) error {
		if _, err := time.Parse(eventmodels.ExpirationLayout, answer); err != nil {
			return fmt.Errorf("'%s' is not a YYYY-MM-DD date", answer)
		}

		set(answer)
		return nil
	}}
}

// optionalIDField stores nil for a blank answer.
func optionalIDField(label string, set func(*uint)) field {
	return field{label: label, apply: func(answer string) error {
		if answer == "" {
			set(nil)
			return nil
		}

		n, err := strconv.ParseUint(answer, 10, 64)
		if err != nil || n == 0 {
			return fmt.Errorf("'%s' is not an order number", answer)
		}

		set(eventmodels.UintPtr(uint(n)))
		return nil
	}}
}

func orderIDField(label string, set func(uint)) field {
	return field{label: label, apply: func(answer string) error {
		n, err := strconv.ParseUint(answer, 10, 64)
		if err != nil || n == 0 {
			return fmt.Errorf("'%s' is not an order number", answer)
		}

		set(uint(n))
		return nil
	}}
}
