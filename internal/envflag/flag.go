// Copyright 2026 The Gradual Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package envflag fills a struct of debug switches from a comma-separated
// environment variable such as LABEL_DEBUG=logsolve,strict.
package envflag

import (
	"errors"
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"
)

// Init uses Parse with the contents of the given environment variable as input.
func Init[T any](flags *T, envVar string) error {
	if err := Parse(flags, os.Getenv(envVar)); err != nil {
		return fmt.Errorf("cannot parse %s: %w", envVar, err)
	}
	return nil
}

// Parse sets the fields of flags from env, a comma-separated list of
// name=value pairs. Field names match case-insensitively. For boolean
// fields the value may be omitted, in which case it is true.
//
// A field may carry a default other than its zero value in its tag,
// for instance `envflag:"default:true"`.
//
// Supported field kinds are bool, int and string.
func Parse[T any](flags *T, env string) error {
	fv := reflect.ValueOf(flags).Elem()
	ft := fv.Type()
	byName := make(map[string]int, ft.NumField())
	for i := 0; i < ft.NumField(); i++ {
		field := ft.Field(i)
		name := strings.ToLower(field.Name)
		byName[name] = i
		tag, ok := field.Tag.Lookup("envflag")
		if !ok {
			continue
		}
		def, ok := strings.CutPrefix(tag, "default:")
		if !ok {
			return fmt.Errorf("unknown envflag tag %q", tag)
		}
		val, err := parseValue(name, field.Type.Kind(), def)
		if err != nil {
			return err
		}
		fv.Field(i).Set(reflect.ValueOf(val))
	}

	var errs []error
	for _, elem := range strings.Split(env, ",") {
		if elem == "" {
			continue
		}
		name, str, hasValue := strings.Cut(elem, "=")
		i, ok := byName[strings.ToLower(name)]
		if !ok {
			errs = append(errs, fmt.Errorf("unknown flag %q", elem))
			continue
		}
		field := fv.Field(i)
		switch {
		case hasValue:
			val, err := parseValue(name, field.Kind(), str)
			if err != nil {
				errs = append(errs, err)
				continue
			}
			field.Set(reflect.ValueOf(val))
		case field.Kind() == reflect.Bool:
			field.SetBool(true)
		default:
			errs = append(errs, fmt.Errorf("value needed for %s flag %q", field.Kind(), name))
		}
	}
	return errors.Join(errs...)
}

func parseValue(name string, kind reflect.Kind, str string) (val any, err error) {
	switch kind {
	case reflect.Bool:
		val, err = strconv.ParseBool(str)
	case reflect.Int:
		val, err = strconv.Atoi(str)
	case reflect.String:
		val = str
	default:
		return nil, errInvalid{fmt.Errorf("unsupported kind %s", kind)}
	}
	if err != nil {
		return nil, errInvalid{fmt.Errorf("invalid %s value for %s: %v", kind, name, err)}
	}
	return val, nil
}

// ErrInvalid indicates a malformed input string.
var ErrInvalid = errors.New("invalid value")

type errInvalid struct{ error }

func (errInvalid) Is(err error) bool {
	return err == ErrInvalid
}
