// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package pvr

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/ManuGH/argustv-pvr/internal/config"
)

// ErrUnsupportedPath is returned for server paths no mapping covers.
var ErrUnsupportedPath = errors.New("pvr: no local mapping for server path")

// UnsupportedPathError carries the smb:// form of an unmapped UNC path so
// callers can hand it to a client that speaks CIFS.
type UnsupportedPathError struct {
	Remote string
	// CIFS is the smb:// URL including credentials.
	CIFS string
	user string
}

func (e *UnsupportedPathError) Error() string {
	return fmt.Sprintf("%v: %s (smb: %s)", ErrUnsupportedPath, e.Remote, redactUser(e.CIFS, e.user))
}

func (e *UnsupportedPathError) Unwrap() error {
	return ErrUnsupportedPath
}

type mapping struct {
	remote string // backslashes, no trailing separator
	local  string
}

// PathMapper resolves the server's UNC timeshift and recording paths to
// locally mounted directories.
type PathMapper struct {
	mappings []mapping
	user     string
	pass     string
}

// NewPathMapper keeps the usable mappings; user and pass are inserted into
// the smb:// fallback URL.
func NewPathMapper(mappings []config.PathMapping, user, pass string) *PathMapper {
	var valid []mapping
	for _, m := range mappings {
		remote := normalizeUNC(m.RemoteRoot)
		local := strings.TrimRight(m.LocalRoot, `/\`)
		// Both roots must be absolute and below the root itself.
		if !strings.HasPrefix(remote, `\\`) || len(strings.Trim(remote, `\`)) == 0 {
			continue
		}
		if !filepath.IsAbs(m.LocalRoot) || local == "" {
			continue
		}
		valid = append(valid, mapping{remote: remote, local: local})
	}
	return &PathMapper{mappings: valid, user: user, pass: pass}
}

// Resolve maps a server path to a local one. Paths that are already local
// and absolute are returned unchanged.
func (pm *PathMapper) Resolve(remote string) (string, error) {
	if remote == "" {
		return "", fmt.Errorf("%w: empty path", ErrUnsupportedPath)
	}
	if strings.HasPrefix(remote, "/") && !strings.HasPrefix(remote, "//") {
		return filepath.Clean(remote), nil
	}

	norm := normalizeUNC(remote)

	// Shares are case-insensitive. Longest prefix wins (\\srv\ts vs \\srv\ts2).
	best := -1
	var rel string
	for i, m := range pm.mappings {
		n := len(m.remote)
		if len(norm) < n || !strings.EqualFold(norm[:n], m.remote) {
			continue
		}
		var r string
		switch {
		case len(norm) == n:
			r = ""
		case norm[n] == '\\':
			r = norm[n+1:]
		default:
			continue
		}
		if best < 0 || len(m.remote) > len(pm.mappings[best].remote) {
			best = i
			rel = r
		}
	}

	if best < 0 {
		return "", &UnsupportedPathError{
			Remote: remote,
			CIFS:   InsertUser(ToCIFS(remote), pm.user, pm.pass),
			user:   pm.user,
		}
	}

	parts := strings.Split(rel, `\`)
	for _, p := range parts {
		if p == ".." {
			return "", fmt.Errorf("%w: traversal in %s", ErrUnsupportedPath, remote)
		}
	}
	return filepath.Join(append([]string{pm.mappings[best].local}, parts...)...), nil
}

func normalizeUNC(p string) string {
	return strings.TrimRight(strings.ReplaceAll(p, "/", `\`), `\`)
}

// ToCIFS turns \\server\share\file into smb://server/share/file.
func ToCIFS(unc string) string {
	s := strings.ReplaceAll(unc, `\`, "/")
	if len(s) >= 2 {
		s = s[2:]
	} else {
		s = ""
	}
	return "smb://" + s
}

// InsertUser adds user[:pass]@ to an smb:// URL. Other URLs and an empty
// user leave the input unchanged.
func InsertUser(cifs, user, pass string) string {
	if user == "" || !strings.HasPrefix(cifs, "smb://") {
		return cifs
	}
	cred := user
	if pass != "" {
		cred += ":" + pass
	}
	return "smb://" + cred + "@" + strings.TrimPrefix(cifs, "smb://")
}

func redactUser(cifs, user string) string {
	if user == "" {
		return cifs
	}
	if i := strings.Index(cifs, "@"); i >= 0 && strings.HasPrefix(cifs, "smb://") {
		return "smb://" + user + ":***" + cifs[i:]
	}
	return cifs
}
