package persisted

import (
	"errors"
	"reflect"
)

// Validator is implemented by values that can check their own invariants.
// Values are validated after every decode and before every write.
type Validator interface {
	Validate() error
}

func (c Configuration[V]) validate(value V) error {
	if err := validateValue(value); err != nil {
		return err
	}
	var errs []error
	for _, rule := range c.Rules {
		if rule == nil {
			continue
		}
		if err := rule.Check(c.Key, value); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func validateValue[V any](value V) error {
	rv := reflect.ValueOf(value)
	if rv.Kind() == reflect.Pointer && rv.IsNil() {
		return nil
	}
	if v, ok := any(value).(Validator); ok {
		return v.Validate()
	}
	if v, ok := any(&value).(Validator); ok {
		return v.Validate()
	}
	return nil
}
