// Package fetchrule implements the Fetch Rule (§4.2): the ordered set
// of scope/pattern filters a discovered URL must pass before a Web
// Session is allowed to request it. Robots.txt policy is evaluated
// separately by the Web Session's CHECK_ROBOTS state (package robots);
// this package only covers span/domain/hostname/directory/regex/level/
// parent/protocol admission.
package fetchrule

import (
	"regexp"
	"strings"
)

// Evaluate runs every filter in order, short-circuiting at the first
// failure so Failed always has exactly zero or one entry, and Passed
// lists every filter checked before that point.
func Evaluate(c Candidate, limits Limits) Verdict {
	v := Verdict{Accepted: true, Reason: ReasonFilters}

	check := func(name FilterName, ok bool) bool {
		if !ok {
			v.Accepted = false
			v.Failed = append(v.Failed, name)
			return false
		}
		v.Passed = append(v.Passed, name)
		return true
	}

	if !check(FilterProtocol, limits.AllowedSchemes == nil || limits.AllowedSchemes[c.Scheme]) {
		return v
	}
	if c.Scheme == "ftp" && !limits.FollowFTP {
		v.Accepted = false
		v.Failed = append(v.Failed, FilterProtocol)
		return v
	}

	if !check(FilterSpanHosts, limits.SpanHosts || c.Host == c.SeedHost) {
		return v
	}

	if !check(FilterDomain, matchDomain(c.Host, limits.DomainInclude, limits.DomainExclude)) {
		return v
	}

	if !check(FilterHostname, matchHostname(c.Host, limits.HostnameInclude, limits.HostnameExclude)) {
		return v
	}

	if !check(FilterDirectory, matchDirectory(c.Path, limits.DirectoryInclude, limits.DirectoryExclude)) {
		return v
	}

	if !check(FilterPattern, matchPattern(c.URL, limits.AcceptPatterns, limits.RejectPatterns)) {
		return v
	}

	if !check(FilterLevel, limits.MaxLevel <= 0 || c.Level <= limits.MaxLevel) {
		return v
	}

	if !check(FilterParent, !limits.NoParent || strings.HasPrefix(c.Path, c.SeedPath)) {
		return v
	}

	return v
}

func matchDomain(host string, include, exclude []string) bool {
	for _, d := range exclude {
		if host == d || strings.HasSuffix(host, "."+d) {
			return false
		}
	}
	if len(include) == 0 {
		return true
	}
	for _, d := range include {
		if host == d || strings.HasSuffix(host, "."+d) {
			return true
		}
	}
	return false
}

func matchHostname(host string, include, exclude map[string]bool) bool {
	if exclude[host] {
		return false
	}
	if len(include) == 0 {
		return true
	}
	return include[host]
}

func matchDirectory(path string, include, exclude []string) bool {
	for _, p := range exclude {
		if strings.HasPrefix(path, p) {
			return false
		}
	}
	if len(include) == 0 {
		return true
	}
	for _, p := range include {
		if strings.HasPrefix(path, p) {
			return true
		}
	}
	return false
}

func matchPattern(rawURL string, accept, reject []string) bool {
	for _, pat := range reject {
		if re, err := regexp.Compile(pat); err == nil && re.MatchString(rawURL) {
			return false
		}
	}
	if len(accept) == 0 {
		return true
	}
	for _, pat := range accept {
		if re, err := regexp.Compile(pat); err == nil && re.MatchString(rawURL) {
			return true
		}
	}
	return false
}
