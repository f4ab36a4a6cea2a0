package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"schoolledger/internal/core"
)

var (
	errInvalidParam  = errors.New("invalid parameter")
	errMalformedBody = errors.New("malformed request body")
)

const maxBodyBytes = 1 << 20

// ParseDateParam reads a yyyy-mm-dd query parameter, falling back to def
// when it is absent.
func ParseDateParam(q url.Values, key string, def core.Date) (core.Date, error) {
	v := strings.TrimSpace(q.Get(key))
	if v == "" {
		return def, nil
	}
	d, err := core.ParseDate(v)
	if err != nil {
		return core.Date{}, fmt.Errorf("%w: %s: %w", errInvalidParam, key, err)
	}
	return d, nil
}

// ParseRangeParams reads start and end, defaulting to the month containing
// today.
func ParseRangeParams(q url.Values, today core.Date) (start, end core.Date, err error) {
	if start, err = ParseDateParam(q, "start", today.FirstOfMonth()); err != nil {
		return core.Date{}, core.Date{}, err
	}
	if end, err = ParseDateParam(q, "end", today.LastOfMonth()); err != nil {
		return core.Date{}, core.Date{}, err
	}
	return start, end, nil
}

// ParseAccountParam reads the optional account_id filter.
func ParseAccountParam(q url.Values) (*int64, error) {
	v := strings.TrimSpace(q.Get("account_id"))
	if v == "" {
		return nil, nil
	}
	id, err := parseID(v)
	if err != nil {
		return nil, fmt.Errorf("%w: account_id: %w", errInvalidParam, err)
	}
	return &id, nil
}

func parseID(v string) (int64, error) {
	id, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0, err
	}
	if id <= 0 {
		return 0, errors.New("must be positive")
	}
	return id, nil
}

// PathID reads a numeric path wildcard.
func PathID(r *http.Request, name string) (int64, error) {
	id, err := parseID(r.PathValue(name))
	if err != nil {
		return 0, fmt.Errorf("%w: %s: %w", errInvalidParam, name, err)
	}
	return id, nil
}

// DecodeJSONBody decodes a single JSON object into dst, rejecting unknown
// fields and bodies over 1 MiB.
func DecodeJSONBody(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("%w: %w", errMalformedBody, err)
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return fmt.Errorf("%w: trailing data", errMalformedBody)
	}
	return nil
}

// sanitizeInput trims whitespace and drops control characters other than
// tab and newlines.
func sanitizeInput(s string) string {
	return strings.Map(func(r rune) rune {
		if r < 32 && r != '\t' && r != '\n' && r != '\r' {
			return -1
		}
		return r
	}, strings.TrimSpace(s))
}
