package parser

import (
	"fmt"
	"regexp"
	"strings"
)

// Pattern is an include/exclude rule over a single line of text.
//
// A nil Include means no pattern is configured at all, which callers such as
// watchdogs treat differently from a configured pattern that matches nothing.
type Pattern struct {
	Include []*regexp.Regexp
	Exclude []*regexp.Regexp
}

// NewPattern compiles include and exclude expressions. A nil include slice
// yields a nil Pattern.
func NewPattern(include, exclude []string) (*Pattern, error) {
	if include == nil {
		return nil, nil
	}
	p := &Pattern{Include: make([]*regexp.Regexp, 0, len(include))}
	for _, expr := range include {
		re, err := CompileMatcher(expr)
		if err != nil {
			return nil, fmt.Errorf("include %q: %w", expr, err)
		}
		p.Include = append(p.Include, re)
	}
	for _, expr := range exclude {
		re, err := CompileMatcher(expr)
		if err != nil {
			return nil, fmt.Errorf("exclude %q: %w", expr, err)
		}
		p.Exclude = append(p.Exclude, re)
	}
	return p, nil
}

// MustPattern is like NewPattern but panics on an invalid expression.
func MustPattern(include, exclude []string) *Pattern {
	p, err := NewPattern(include, exclude)
	if err != nil {
		panic(err)
	}
	return p
}

// Configured reports whether an include set exists.
func (p *Pattern) Configured() bool {
	return p != nil && p.Include != nil
}

// Match reports whether at least one include matcher and no exclude matcher
// matches the line. An unconfigured pattern never matches.
func (p *Pattern) Match(line string) bool {
	if !p.Configured() {
		return false
	}
	included := false
	for _, re := range p.Include {
		if re.MatchString(line) {
			included = true
			break
		}
	}
	if !included {
		return false
	}
	for _, re := range p.Exclude {
		if re.MatchString(line) {
			return false
		}
	}
	return true
}

// CompileMatcher compiles one matcher expression. Besides plain Go regular
// expressions it accepts the slash form /expr/flags, where flags is any of
// "i" (case-insensitive), "m" and "s", scoped to this matcher only.
func CompileMatcher(expr string) (*regexp.Regexp, error) {
	if body, flags, ok := splitSlashForm(expr); ok {
		if flags != "" {
			body = "(?" + flags + ")" + body
		}
		expr = body
	}
	re, err := regexp.Compile(expr)
	if err != nil {
		return nil, fmt.Errorf("invalid regex pattern: %w", err)
	}
	return re, nil
}

func splitSlashForm(expr string) (body, flags string, ok bool) {
	if len(expr) < 2 || expr[0] != '/' {
		return "", "", false
	}
	end := strings.LastIndexByte(expr, '/')
	if end == 0 {
		return "", "", false
	}
	flags = expr[end+1:]
	if strings.Trim(flags, "ims") != "" {
		// Something like /dev/ttyAMA0: a plain expression that starts with a slash.
		return "", "", false
	}
	return expr[1:end], flags, true
}
