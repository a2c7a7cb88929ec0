/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package domain

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// trimmin: minimum rune count after trimming surrounding whitespace
	err := v.RegisterValidation("trimmin", func(fl validator.FieldLevel) bool {
		var n int
		if _, err := fmt.Sscan(fl.Param(), &n); err != nil {
			return false
		}
		return utf8.RuneCountInString(strings.TrimSpace(fl.Field().String())) >= n
	})
	if err != nil {
		panic(fmt.Sprintf("domain: register trimmin: %v", err))
	}
	return v
}

// FieldError is a single human readable validation failure.
type FieldError struct {
	Field   string
	Message string
}

// ValidationError lists everything wrong with a node.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	msgs := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		msgs[i] = f.Message
	}
	return "invalid node: " + strings.Join(msgs, "; ")
}

// Validate checks n against the field limits. It returns nil or a
// *ValidationError.
func Validate(n Node) error {
	var ve ValidationError
	if err := validate.Struct(n); err != nil {
		var fes validator.ValidationErrors
		if !errors.As(err, &fes) {
			return err
		}
		for _, fe := range fes {
			ve.Fields = append(ve.Fields, FieldError{Field: fe.Field(), Message: fieldMessage(fe)})
		}
	}
	if !n.Position.IsFinite() {
		ve.Fields = append(ve.Fields, FieldError{Field: "Position", Message: "position must be finite"})
	}
	if len(ve.Fields) == 0 {
		return nil
	}
	return &ve
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.StructNamespace() {
	case "Node.Title":
		if fe.Tag() == "trimmin" {
			return fmt.Sprintf("title must be at least %d characters", MinTitleLength)
		}
		return fmt.Sprintf("title must be at most %d characters", MaxTitleLength)
	case "Node.Description":
		return fmt.Sprintf("description must be at most %d characters", MaxDescriptionLength)
	case "Node.Tags":
		return fmt.Sprintf("at most %d tags allowed", MaxTags)
	}
	if strings.HasPrefix(fe.StructNamespace(), "Node.Tags[") {
		return fmt.Sprintf("tags must be at most %d characters", MaxTagLength)
	}
	field := strings.ToLower(fe.Field())
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, fe.Param())
	default:
		return field + " is invalid"
	}
}
