// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package config

import "errors"

var (
	// ErrUnknownConfigField marks a YAML key the strict decoder does not know,
	// usually a typo such as "timeshfit:".
	ErrUnknownConfigField = errors.New("config: unknown field")
	// ErrMultipleDocuments rejects a file with more than one YAML document.
	ErrMultipleDocuments = errors.New("config: file must hold exactly one YAML document")
	// ErrInvalidConfig wraps every validation failure from Load.
	ErrInvalidConfig = errors.New("config: invalid")
)
