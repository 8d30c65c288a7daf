// SPDX-License-Identifier: MIT

package validate

import (
	"errors"
	"strings"

	"github.com/rs/zerolog"
)

// ErrInvalidLogLevel rejects anything but trace, debug, info, warn or error.
var ErrInvalidLogLevel = errors.New("log level must be trace, debug, info, warn or error")

// ParseLogLevel accepts the levels an operator may configure. fatal, panic
// and disabled are zerolog levels too but would silence the daemon.
func ParseLogLevel(s string) (zerolog.Level, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return zerolog.NoLevel, ErrInvalidLogLevel
	}
	lvl, err := zerolog.ParseLevel(s)
	if err != nil || lvl < zerolog.TraceLevel || lvl > zerolog.ErrorLevel {
		return zerolog.NoLevel, ErrInvalidLogLevel
	}
	return lvl, nil
}
