/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package did

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

const (
	// Scheme is the DID URI scheme.
	Scheme = "did"

	pctEncoded = `(?:%[0-9a-fA-F]{2})`
	idChar     = `(?:[a-zA-Z0-9._-]|` + pctEncoded + `)`
	paramChar  = `[a-zA-Z0-9_.:%-]`
)

var (
	// ErrInvalidScheme is returned when the URI does not start with "did:".
	ErrInvalidScheme = errors.New("invalid DID scheme")

	// ErrInvalidMethod is returned when the method name is empty or malformed.
	ErrInvalidMethod = errors.New("invalid DID method")

	// ErrInvalidID is returned when the method-specific id is empty or malformed.
	ErrInvalidID = errors.New("invalid DID method-specific id")

	methodPattern = regexp.MustCompile(`^[a-z0-9]+$`)
	idPattern     = regexp.MustCompile(`^(?:` + idChar + `*:)*` + idChar + `+$`)
	paramPattern  = regexp.MustCompile(`^` + paramChar + `+=` + paramChar + `*$`)
)

// DID is a parsed DID URL. URI is the bare DID (did:<method>:<id>) and URL the full input,
// including any params, path, query and fragment.
type DID struct {
	URI      string
	URL      string
	Method   string
	ID       string
	Params   map[string]string
	Path     string
	Query    string
	Fragment string
}

// Parse parses a DID or DID URL.
func Parse(input string) (*DID, error) {
	if !strings.HasPrefix(input, Scheme+":") {
		return nil, fmt.Errorf("%w: '%s'", ErrInvalidScheme, input)
	}

	rest := input[len(Scheme)+1:]

	d := &DID{URL: input}

	if i := strings.IndexByte(rest, '#'); i >= 0 {
		d.Fragment = rest[i+1:]
		rest = rest[:i]
	}

	if i := strings.IndexByte(rest, '?'); i >= 0 {
		d.Query = rest[i+1:]
		rest = rest[:i]
	}

	if i := strings.IndexByte(rest, '/'); i >= 0 {
		d.Path = rest[i:]
		rest = rest[:i]
	}

	if i := strings.IndexByte(rest, ';'); i >= 0 {
		params, err := parseParams(rest[i+1:])
		if err != nil {
			return nil, err
		}

		d.Params = params
		rest = rest[:i]
	}

	i := strings.IndexByte(rest, ':')
	if i < 0 {
		return nil, fmt.Errorf("%w: '%s'", ErrInvalidMethod, input)
	}

	d.Method = rest[:i]
	d.ID = rest[i+1:]

	if !methodPattern.MatchString(d.Method) {
		return nil, fmt.Errorf("%w: '%s'", ErrInvalidMethod, d.Method)
	}

	if !idPattern.MatchString(d.ID) {
		return nil, fmt.Errorf("%w: '%s'", ErrInvalidID, d.ID)
	}

	d.URI = Scheme + ":" + d.Method + ":" + d.ID

	return d, nil
}

// String returns the bare DID.
func (d *DID) String() string {
	return d.URI
}

// IsURL returns true if the parsed input carried more than the bare DID.
func (d *DID) IsURL() bool {
	return d.URL != d.URI
}

func parseParams(s string) (map[string]string, error) {
	params := make(map[string]string)

	for _, p := range strings.Split(s, ";") {
		if !paramPattern.MatchString(p) {
			return nil, fmt.Errorf("%w: invalid param '%s'", ErrInvalidID, p)
		}

		kv := strings.SplitN(p, "=", 2) //nolint:gomnd
		params[kv[0]] = kv[1]
	}

	return params, nil
}
