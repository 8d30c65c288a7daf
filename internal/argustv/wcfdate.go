// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package argustv

import (
	"bytes"
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"time"
)

// wcfDatePattern matches "/Date(1290896700000+0100)/". The offset is optional.
var wcfDatePattern = regexp.MustCompile(`^/Date\((-?\d+)(?:([+-])(\d{2})(\d{2}))?\)/$`)

// ParseWCFDate decodes a WCF JSON date. The millisecond value is UTC; the
// optional offset only selects the zone the result is presented in.
func ParseWCFDate(s string) (time.Time, error) {
	m := wcfDatePattern.FindStringSubmatch(s)
	if m == nil {
		return time.Time{}, fmt.Errorf("%w: not a WCF date: %q", ErrUpstreamBadResponse, s)
	}
	ms, err := strconv.ParseInt(m[1], 10, 64)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: WCF date %q: %v", ErrUpstreamBadResponse, s, err)
	}
	t := time.UnixMilli(ms)
	if m[2] == "" {
		return t.UTC(), nil
	}
	hours, _ := strconv.Atoi(m[3])
	minutes, _ := strconv.Atoi(m[4])
	offset := hours*3600 + minutes*60
	if m[2] == "-" {
		offset = -offset
	}
	return t.In(time.FixedZone("", offset)), nil
}

// FormatWCFDate renders t with the offset of its own location.
func FormatWCFDate(t time.Time) string {
	_, offset := t.Zone()
	sign := '+'
	if offset < 0 {
		sign = '-'
		offset = -offset
	}
	return fmt.Sprintf("/Date(%d%c%02d%02d)/", t.UnixMilli(), sign, offset/3600, (offset%3600)/60)
}

// WCFTime is a time.Time that (un)marshals in WCF JSON date form.
type WCFTime struct {
	time.Time
}

func (t WCFTime) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(FormatWCFDate(t.Time))
}

func (t *WCFTime) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		t.Time = time.Time{}
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("%w: WCF date: %v", ErrUpstreamBadResponse, err)
	}
	if s == "" {
		t.Time = time.Time{}
		return nil
	}
	parsed, err := ParseWCFDate(s)
	if err != nil {
		return err
	}
	t.Time = parsed
	return nil
}
