/*
Copyright 2024 The Kubernetes Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package config

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/samber/lo"
)

// ErrInvalidConfiguration wraps every validation failure.
var ErrInvalidConfiguration = errors.New("invalid configuration")

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// Report fields by the names used in configuration files.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Validate checks c and reports all failures at once.
func Validate(c *Configuration) error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}

	var failures validator.ValidationErrors
	if !errors.As(err, &failures) {
		return fmt.Errorf("%w: %w", ErrInvalidConfiguration, err)
	}
	msgs := lo.Map(failures, func(fe validator.FieldError, _ int) string {
		field := strings.TrimPrefix(fe.Namespace(), "Configuration.")
		if fe.Param() == "" {
			return fmt.Sprintf("%s failed %s (got %v)", field, fe.Tag(), fe.Value())
		}
		return fmt.Sprintf("%s failed %s=%s (got %v)", field, fe.Tag(), fe.Param(), fe.Value())
	})
	return fmt.Errorf("%w: %s", ErrInvalidConfiguration, strings.Join(msgs, "; "))
}
