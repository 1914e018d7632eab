package form

import (
	"fmt"
	"net/mail"
	"slices"
	"strconv"
	"strings"
	"time"
)

// Rule checks one field. Check returns "" when value is acceptable.
type Rule struct {
	Field string
	Check func(value any, all Values) string
}

// WithMessage returns r reporting msg instead of its own message.
func (r Rule) WithMessage(msg string) Rule {
	check := r.Check
	r.Check = func(v any, all Values) string {
		if check(v, all) != "" {
			return msg
		}
		return ""
	}
	return r
}

// Require is Required for a single field with a custom message.
func Require(field, msg string) Rule {
	return Required(field)[0].WithMessage(msg)
}

// Rule messages.
const (
	MsgRequired = "Este campo es obligatorio."
	MsgPositive = "Debe ser un número mayor que cero."
	MsgNumber   = "Debe ser un número."
	MsgOneOf    = "Valor no permitido."
	MsgEmail    = "Correo electrónico no válido."
	MsgDate     = "Fecha no válida, use AAAA-MM-DD."
)

func text(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(x)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	default:
		return strings.TrimSpace(fmt.Sprint(x))
	}
}

func number(v any) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		return f, err == nil
	default:
		return 0, false
	}
}

// Required rejects fields that are empty after trimming.
func Required(fields ...string) []Rule {
	rules := make([]Rule, 0, len(fields))
	for _, f := range fields {
		rules = append(rules, Rule{Field: f, Check: func(v any, _ Values) string {
			if text(v) == "" {
				return MsgRequired
			}
			return ""
		}})
	}
	return rules
}

// Positive requires a number greater than zero.
func Positive(field string) Rule {
	return Rule{Field: field, Check: func(v any, _ Values) string {
		n, ok := number(v)
		if !ok {
			return MsgNumber
		}
		if n <= 0 {
			return MsgPositive
		}
		return ""
	}}
}

// NonNegative requires a number of zero or more when the field is set.
func NonNegative(field string) Rule {
	return Rule{Field: field, Check: func(v any, _ Values) string {
		if text(v) == "" {
			return ""
		}
		n, ok := number(v)
		if !ok {
			return MsgNumber
		}
		if n < 0 {
			return "No puede ser negativo."
		}
		return ""
	}}
}

// ExactDigits requires a string of exactly n decimal digits.
func ExactDigits(field string, n int) Rule {
	return Rule{Field: field, Check: func(v any, _ Values) string {
		s := text(v)
		if len(s) != n || strings.IndexFunc(s, func(r rune) bool { return r < '0' || r > '9' }) >= 0 {
			return fmt.Sprintf("Debe tener exactamente %d dígitos.", n)
		}
		return ""
	}}
}

// OneOf requires one of allowed when the field is set.
func OneOf(field string, allowed ...string) Rule {
	return Rule{Field: field, Check: func(v any, _ Values) string {
		s := text(v)
		if s == "" || slices.Contains(allowed, s) {
			return ""
		}
		return MsgOneOf
	}}
}

// Email requires a well-formed address when the field is set.
func Email(field string) Rule {
	return Rule{Field: field, Check: func(v any, _ Values) string {
		s := text(v)
		if s == "" {
			return ""
		}
		if addr, err := mail.ParseAddress(s); err != nil || addr.Address != s {
			return MsgEmail
		}
		return ""
	}}
}

// Date requires a YYYY-MM-DD date when the field is set.
func Date(field string) Rule {
	return Rule{Field: field, Check: func(v any, _ Values) string {
		s := text(v)
		if s == "" {
			return ""
		}
		if _, err := time.Parse("2006-01-02", s); err != nil {
			return MsgDate
		}
		return ""
	}}
}
