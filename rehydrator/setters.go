package rehydrator

import (
	"errors"
	"fmt"
	"net/netip"
	"time"
)

// FieldSetter assigns one rehydrated value to one field of a domain object.
// A setter must return ErrNilSequence when a nil value arrives for a
// sequence-typed field, so the engine can retry the assignment with an empty
// sequence. Any other error marks the field as dropped.
type FieldSetter func(obj any, value any) error

// Setters maps record field names to their typed setters.
type Setters = map[string]FieldSetter

// StringField builds a setter for a string-typed field of O.
func StringField[O any](assign func(target *O, value string)) FieldSetter {
	return func(obj any, value any) error {
		target, ok := obj.(*O)
		if !ok {
			return ErrWrongObjectType
		}

		if value == nil {
			assign(target, "")

			return nil
		}

		typed, ok := value.(string)
		if !ok {
			return unassignable("string", value)
		}

		assign(target, typed)

		return nil
	}
}

// IntField builds a setter for an integer-typed field of O. JSON decoding
// delivers numbers as float64, so both forms are accepted.
func IntField[O any](assign func(target *O, value int64)) FieldSetter {
	return func(obj any, value any) error {
		target, ok := obj.(*O)
		if !ok {
			return ErrWrongObjectType
		}

		switch typed := value.(type) {
		case nil:
			assign(target, 0)
		case float64:
			assign(target, int64(typed))
		case int:
			assign(target, int64(typed))
		case int64:
			assign(target, typed)
		default:
			return unassignable("number", value)
		}

		return nil
	}
}

// FloatField builds a setter for a float-typed field of O.
func FloatField[O any](assign func(target *O, value float64)) FieldSetter {
	return func(obj any, value any) error {
		target, ok := obj.(*O)
		if !ok {
			return ErrWrongObjectType
		}

		switch typed := value.(type) {
		case nil:
			assign(target, 0)
		case float64:
			assign(target, typed)
		case int:
			assign(target, float64(typed))
		case int64:
			assign(target, float64(typed))
		default:
			return unassignable("number", value)
		}

		return nil
	}
}

// BoolField builds a setter for a bool-typed field of O.
func BoolField[O any](assign func(target *O, value bool)) FieldSetter {
	return func(obj any, value any) error {
		target, ok := obj.(*O)
		if !ok {
			return ErrWrongObjectType
		}

		if value == nil {
			assign(target, false)

			return nil
		}

		typed, ok := value.(bool)
		if !ok {
			return unassignable("bool", value)
		}

		assign(target, typed)

		return nil
	}
}

// TimeField builds a setter for a time.Time field of O, fed by the datetime
// strategy handler.
func TimeField[O any](assign func(target *O, value time.Time)) FieldSetter {
	return func(obj any, value any) error {
		target, ok := obj.(*O)
		if !ok {
			return ErrWrongObjectType
		}

		if value == nil {
			assign(target, time.Time{})

			return nil
		}

		typed, ok := value.(time.Time)
		if !ok {
			return unassignable("time.Time", value)
		}

		assign(target, typed)

		return nil
	}
}

// PrefixField builds a setter for a netip.Prefix field of O, fed by the
// ip-network strategy handler.
func PrefixField[O any](assign func(target *O, value netip.Prefix)) FieldSetter {
	return func(obj any, value any) error {
		target, ok := obj.(*O)
		if !ok {
			return ErrWrongObjectType
		}

		if value == nil {
			assign(target, netip.Prefix{})

			return nil
		}

		typed, ok := value.(netip.Prefix)
		if !ok {
			return unassignable("netip.Prefix", value)
		}

		assign(target, typed)

		return nil
	}
}

// ObjectField builds a setter for a field of O holding a reconstructed domain
// object of type *F.
func ObjectField[O any, F any](assign func(target *O, value *F)) FieldSetter {
	return func(obj any, value any) error {
		target, ok := obj.(*O)
		if !ok {
			return ErrWrongObjectType
		}

		if value == nil {
			assign(target, nil)

			return nil
		}

		typed, ok := value.(*F)
		if !ok {
			return unassignable(fmt.Sprintf("%T", (*F)(nil)), value)
		}

		assign(target, typed)

		return nil
	}
}

// SliceField builds a setter for a sequence-typed field of O with element
// type E. Elements are converted by type assertion, which covers strings,
// bools, and reconstructed object pointers; for numeric elements use float64,
// the form JSON decoding delivers. A nil value yields ErrNilSequence so the
// engine can retry with an empty sequence.
func SliceField[O any, E any](assign func(target *O, value []E)) FieldSetter {
	return func(obj any, value any) error {
		target, ok := obj.(*O)
		if !ok {
			return ErrWrongObjectType
		}

		if value == nil {
			return ErrNilSequence
		}

		elements, ok := value.(Sequence)
		if !ok {
			return unassignable("sequence", value)
		}

		out := make([]E, 0, len(elements))

		for i, element := range elements {
			typed, elementOK := element.(E)
			if !elementOK {
				return errors.Join(
					ErrUnassignableFieldValue,
					fmt.Errorf("sequence element %d has type %T", i, element))
			}

			out = append(out, typed)
		}

		assign(target, out)

		return nil
	}
}

func unassignable(expected string, value any) error {
	return errors.Join(
		ErrUnassignableFieldValue,
		fmt.Errorf("expected %s, got %T", expected, value))
}
