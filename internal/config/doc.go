// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package config loads the bridge settings.
//
// Precedence is ENV (prefix ARGUSTV_) over the YAML file over defaults. The
// YAML file is parsed strictly: unknown keys and multiple documents are
// rejected. Holder keeps the active configuration and reloads it when the
// file changes.
package config
