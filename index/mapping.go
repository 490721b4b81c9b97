package index

import (
	"fmt"
	"regexp"
	"strconv"

	"github.com/dlclark/regexp2"
	"github.com/reclass-go/reclass/config"
)

// compiledMapping pairs a compiled class_mappings pattern with the extra
// class templates it contributes, per spec §4.1/§4.3/§9: the pattern
// language needs lookaround/backreference matching beyond what stdlib
// regexp (RE2) supports, so it is compiled with dlclark/regexp2 instead (see
// DESIGN.md — no pack example exercises the regexp2 API directly, so the
// call sites below are authored from the upstream regexp2 docs rather than
// a retrieved snippet).
type compiledMapping struct {
	source  string
	re      *regexp2.Regexp
	classes []string
}

func compileMappings(specs []config.ClassMapping) ([]compiledMapping, error) {
	out := make([]compiledMapping, 0, len(specs))
	for _, s := range specs {
		re, err := regexp2.Compile(s.Pattern, regexp2.None)
		if err != nil {
			return nil, fmt.Errorf("index: invalid class_mappings pattern %q: %w", s.Pattern, err)
		}
		out = append(out, compiledMapping{source: s.Pattern, re: re, classes: s.ExtraClasses})
	}
	return out, nil
}

// backrefPattern recognizes \N and ${N} backreferences inside an
// ExtraClasses template (spec §4.1 "class_mappings may use backreferences
// from the pattern").
var backrefPattern = regexp.MustCompile(`\\(\d+)|\$\{(\d+)\}`)

// resolve reports whether target matches m's pattern and, if so, the extra
// class names it contributes with backreferences substituted from the
// match's capture groups.
func (m compiledMapping) resolve(target string) ([]string, bool, error) {
	match, err := m.re.FindStringMatch(target)
	if err != nil {
		return nil, false, err
	}
	if match == nil {
		return nil, false, nil
	}

	resolved := make([]string, len(m.classes))
	for i, tmpl := range m.classes {
		resolved[i] = substituteBackrefs(tmpl, match)
	}
	return resolved, true, nil
}

func substituteBackrefs(tmpl string, match *regexp2.Match) string {
	return backrefPattern.ReplaceAllStringFunc(tmpl, func(tok string) string {
		sub := backrefPattern.FindStringSubmatch(tok)
		numStr := sub[1]
		if numStr == "" {
			numStr = sub[2]
		}
		n, err := strconv.Atoi(numStr)
		if err != nil {
			return tok
		}
		group := match.GroupByNumber(n)
		if group == nil || len(group.Captures) == 0 {
			return ""
		}
		return group.String()
	})
}

// matchPattern reports whether s matches pattern, using the same regexp2
// engine as class_mappings so ignore_class_notfound_regexp accepts the same
// pattern language (spec §4.1).
func matchPattern(pattern, s string) (bool, error) {
	re, err := regexp2.Compile(pattern, regexp2.None)
	if err != nil {
		return false, fmt.Errorf("index: invalid regexp %q: %w", pattern, err)
	}
	match, err := re.FindStringMatch(s)
	if err != nil {
		return false, err
	}
	return match != nil, nil
}
