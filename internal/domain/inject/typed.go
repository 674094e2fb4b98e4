package inject

import (
	"fmt"
	"reflect"
)

// Resolve is a typed Get. A nil value resolves to the zero T.
func Resolve[T any](i *Injector, name string) (T, error) {
	var zero T

	v, err := i.Get(name)
	if err != nil {
		return zero, err
	}
	if v == nil {
		return zero, nil
	}

	typed, ok := v.(T)
	if !ok {
		return zero, &WrongTypeError{
			Name: name,
			Want: reflect.TypeFor[T]().String(),
			Got:  fmt.Sprintf("%T", v),
		}
	}
	return typed, nil
}

// MustResolve is like Resolve but panics on error. It is meant for program
// setup where a missing dependency is a bug.
func MustResolve[T any](i *Injector, name string) T {
	v, err := Resolve[T](i, name)
	if err != nil {
		panic(err)
	}
	return v
}
