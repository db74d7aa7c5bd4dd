package filter

import (
	"strconv"
	"strings"
	"time"

	"github.com/kballard/go-shellquote"

	"github.com/kanbu/wikigraph/errors"
	"github.com/kanbu/wikigraph/graph"
)

// ParseQuery parses a filter expression into a Config. Expressions are
// whitespace-separated key=value tokens with shell-style quoting, e.g.
//
//	kind=page,concept since=2026-01-02 until="2026-02-01" orphans=hide
//	focus=getting-started depth=2 cap=200
//
// An empty expression returns DefaultConfig. Unknown keys and malformed
// values are reported as errors so the UI can surface them; parsing never
// partially applies a bad expression.
func ParseQuery(query string) (Config, error) {
	return ParseQueryWith(DefaultConfig(), query)
}

// ParseQueryWith parses a filter expression on top of a base config, so a
// host can seed session defaults (node cap, depth) that an expression only
// overrides when it names them explicitly.
func ParseQueryWith(base Config, query string) (Config, error) {
	cfg := base

	trimmed := strings.TrimSpace(query)
	if trimmed == "" {
		return cfg, nil
	}

	args, err := shellquote.Split(trimmed)
	if err != nil {
		// Fall back to a plain split so a stray quote doesn't dead-end
		// the whole filter bar
		args = strings.Fields(trimmed)
	}

	for _, arg := range args {
		key, value, ok := strings.Cut(arg, "=")
		if !ok {
			return cfg, errors.Newf("expected key=value, got %q", arg)
		}

		switch key {
		case "kind", "kinds", "type", "types":
			kinds, err := parseKinds(value)
			if err != nil {
				return cfg, err
			}
			cfg.Kinds = kinds
		case "since":
			t, err := parseStamp(value, false)
			if err != nil {
				return cfg, err
			}
			cfg.Since = t
		case "until":
			t, err := parseStamp(value, true)
			if err != nil {
				return cfg, err
			}
			cfg.Until = t
		case "orphans":
			switch value {
			case "hide":
				cfg.HideOrphans = true
			case "show":
				cfg.HideOrphans = false
			default:
				return cfg, errors.Newf("orphans must be hide or show, got %q", value)
			}
		case "focus":
			cfg.Focus = value
		case "depth":
			n, err := strconv.Atoi(value)
			if err != nil || n < 0 {
				return cfg, errors.Newf("depth must be a non-negative integer, got %q", value)
			}
			cfg.Depth = n
		case "cap":
			n, err := strconv.Atoi(value)
			if err != nil || n < 0 {
				return cfg, errors.Newf("cap must be a non-negative integer, got %q", value)
			}
			cfg.MaxNodes = n
		default:
			return cfg, errors.Newf("unknown filter key %q", key)
		}
	}

	return cfg, nil
}

// parseKinds parses a comma-separated kind list. An explicit "none" yields
// the empty set, which the pipeline treats as an empty result.
func parseKinds(value string) ([]graph.NodeKind, error) {
	if value == "all" {
		return graph.AllNodeKinds(), nil
	}
	if value == "none" || value == "" {
		return []graph.NodeKind{}, nil
	}

	parts := strings.Split(value, ",")
	kinds := make([]graph.NodeKind, 0, len(parts))
	for _, part := range parts {
		kind, err := graph.ParseNodeKind(strings.TrimSpace(part))
		if err != nil {
			return nil, errors.Wrapf(err, "bad kind list %q", value)
		}
		kinds = append(kinds, kind)
	}
	return kinds, nil
}

// parseStamp accepts RFC 3339 timestamps and bare dates. Bare dates snap to
// the start of day for since bounds and the end of day for until bounds so
// that date-only windows are inclusive.
func parseStamp(value string, endOfDay bool) (*time.Time, error) {
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return &t, nil
	}

	t, err := time.Parse("2006-01-02", value)
	if err != nil {
		return nil, errors.Newf("bad timestamp %q (want RFC 3339 or YYYY-MM-DD)", value)
	}
	if endOfDay {
		t = t.Add(24*time.Hour - time.Nanosecond)
	}
	return &t, nil
}
