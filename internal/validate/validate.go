// Package validate checks tool arguments before they reach the API.
package validate

import (
	"errors"
	"fmt"
	"net/netip"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var (
	severities          = set("low", "medium", "high", "critical")
	entityTypes         = set("account", "host")
	detectionCategories = set(
		"botnet_activity",
		"command_and_control",
		"exfiltration",
		"lateral_movement",
		"reconnaissance",
		"info",
	)
	states              = set("active", "inactive", "fixed")

	emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)
)

func set(values ...string) map[string]struct{} {
	m := make(map[string]struct{}, len(values))
	for _, v := range values {
		m[v] = struct{}{}
	}
	return m
}

func in(m map[string]struct{}, v string) bool {
	_, ok := m[strings.ToLower(v)]
	return ok
}

// isoLayouts are tried in order. Offsets are optional; a trailing Z is UTC.
var isoLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02",
}

// ParseISO parses an ISO-8601 timestamp with or without zone.
func ParseISO(value string) (time.Time, error) {
	for _, layout := range isoLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized ISO timestamp %q", value)
}

// DateRange parses the optional bounds. Zero times are returned for empty
// inputs. It fails when either bound is malformed or start is after end.
func DateRange(start, end string) (time.Time, time.Time, error) {
	var s, e time.Time
	var err error

	if start != "" {
		if s, err = ParseISO(start); err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid start_date format: %s. Expected ISO format", start)
		}
	}
	if end != "" {
		if e, err = ParseISO(end); err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid end_date format: %s. Expected ISO format", end)
		}
	}
	if !s.IsZero() && !e.IsZero() && s.After(e) {
		return time.Time{}, time.Time{}, errors.New("start_date must be before end_date")
	}
	return s, e, nil
}

// IP reports whether ip is a valid IPv4 or IPv6 address.
func IP(ip string) bool {
	_, err := netip.ParseAddr(ip)
	return err == nil
}

// Severity reports whether s is low, medium, high or critical.
func Severity(s string) bool { return in(severities, s) }

// EntityType reports whether t is account or host.
func EntityType(t string) bool { return in(entityTypes, t) }

// DetectionCategory reports whether c is a known detection category.
func DetectionCategory(c string) bool { return in(detectionCategories, c) }

// State reports whether s is active, inactive or fixed.
func State(s string) bool { return in(states, s) }

// ScoreRange reports whether score parses as an integer in [min, max].
func ScoreRange(score string, min, max int) bool {
	n, err := strconv.Atoi(strings.TrimSpace(score))
	if err != nil {
		return false
	}
	return n >= min && n <= max
}

// ID reports whether id is a positive integer.
func ID(id int) bool { return id > 0 }

// Email reports whether email looks like an address.
func Email(email string) bool { return emailPattern.MatchString(email) }

// SanitizeString drops control characters other than tab, newline and
// carriage return, rejects results longer than maxLength runes and trims
// surrounding whitespace.
func SanitizeString(value string, maxLength int) (string, error) {
	var b strings.Builder
	b.Grow(len(value))
	n := 0
	for _, r := range value {
		if r < 32 && r != '\t' && r != '\n' && r != '\r' {
			continue
		}
		b.WriteRune(r)
		n++
	}
	if n > maxLength {
		return "", fmt.Errorf("string too long: %d > %d", n, maxLength)
	}
	return strings.TrimSpace(b.String()), nil
}

// Default paging used by LimitOffset when values are omitted.
const (
	DefaultLimit = 50
	MaxLimit     = 1000
)

// LimitOffset validates optional paging values and fills in defaults.
func LimitOffset(limit, offset *int) (int, int, error) {
	l, o := DefaultLimit, 0
	if limit != nil {
		if *limit < 1 || *limit > MaxLimit {
			return 0, 0, fmt.Errorf("limit must be between 1 and %d", MaxLimit)
		}
		l = *limit
	}
	if offset != nil {
		if *offset < 0 {
			return 0, 0, errors.New("offset must be non-negative")
		}
		o = *offset
	}
	return l, o, nil
}
