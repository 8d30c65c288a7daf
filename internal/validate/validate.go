// SPDX-License-Identifier: MIT

// Package validate collects configuration problems so Load can report all of
// them at once instead of stopping at the first.
package validate

import (
	"fmt"
	"path/filepath"
	"slices"
	"strings"
	"time"
)

// FieldError is one rejected setting.
type FieldError struct {
	Field   string
	Value   any
	Message string
}

func (e *FieldError) Error() string {
	return e.Field + ": " + e.Message
}

// Errors is the aggregate returned by Validator.Err.
type Errors []*FieldError

func (es Errors) Error() string {
	parts := make([]string, len(es))
	for i, e := range es {
		parts[i] = e.Error()
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Unwrap exposes the individual field errors to errors.Is/As.
func (es Errors) Unwrap() []error {
	out := make([]error, len(es))
	for i, e := range es {
		out[i] = e
	}
	return out
}

// Fields lists the rejected field names in check order.
func (es Errors) Fields() []string {
	out := make([]string, len(es))
	for i, e := range es {
		out[i] = e.Field
	}
	return out
}

// Validator accumulates FieldErrors. The zero value is ready to use.
type Validator struct {
	errs Errors
}

func New() *Validator { return &Validator{} }

func (v *Validator) AddError(field, message string, value any) {
	v.errs = append(v.errs, &FieldError{Field: field, Value: value, Message: message})
}

// Err returns nil when every check passed, otherwise an Errors value.
func (v *Validator) Err() error {
	if len(v.errs) == 0 {
		return nil
	}
	return slices.Clone(v.errs)
}

func (v *Validator) NotEmpty(field, value string) {
	if strings.TrimSpace(value) == "" {
		v.AddError(field, "must not be empty", value)
	}
}

func (v *Validator) Port(field string, port int) {
	if port < 1 || port > 65535 {
		v.AddError(field, fmt.Sprintf("port %d out of range 1-65535", port), port)
	}
}

// Range checks lo <= value <= hi.
func (v *Validator) Range(field string, value, lo, hi int) {
	if value < lo || value > hi {
		v.AddError(field, fmt.Sprintf("%d out of range %d-%d", value, lo, hi), value)
	}
}

func (v *Validator) PositiveDuration(field string, d time.Duration) {
	if d <= 0 {
		v.AddError(field, fmt.Sprintf("duration must be positive, got %s", d), d)
	}
}

func (v *Validator) OneOf(field, value string, allowed []string) {
	if !slices.Contains(allowed, value) {
		v.AddError(field, fmt.Sprintf("%q is not one of %s", value, strings.Join(allowed, ", ")), value)
	}
}

// AbsPath requires a local absolute path without ".." elements.
func (v *Validator) AbsPath(field, path string) {
	switch {
	case path == "":
		v.AddError(field, "must not be empty", path)
	case !filepath.IsAbs(path):
		v.AddError(field, "must be an absolute path", path)
	case slices.Contains(strings.Split(filepath.ToSlash(path), "/"), ".."):
		v.AddError(field, "must not contain ..", path)
	}
}

// UNCRoot requires a share root as ARGUS TV reports it, \\server\share.
// Forward slashes are accepted.
func (v *Validator) UNCRoot(field, root string) {
	norm := strings.ReplaceAll(root, "/", `\`)
	if !strings.HasPrefix(norm, `\\`) || strings.Trim(norm, `\`) == "" {
		v.AddError(field, `must be a UNC path like \\server\share`, root)
	}
}
