package guardian

import (
	"net"
	"net/url"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/net/idna"
	"golang.org/x/net/publicsuffix"
	"golang.org/x/text/unicode/norm"
)

// urlRe matches url-like tokens, with or without scheme. The ip form requires a scheme
// to avoid picking up version numbers and dates. Host names go first, so "http://1.2.3.4.example.com"
// is not cut at the ip prefix.
var urlRe = regexp.MustCompile(`(?i)` +
	`(?:(?:https?://)?(?:[\p{L}\p{N}](?:[\p{L}\p{M}\p{N}-]{0,61}[\p{L}\p{M}\p{N}])?\.)+(?:xn--[a-z0-9-]{1,59}|\p{L}{2,63})` +
	`|https?://(?:\d{1,3}\.){3}\d{1,3})` + // scheme followed by ipv4
	`(?::\d{1,5})?` + // port
	`(?:[/?#][^\s<>"']*)?`) // path, query and fragment

var capitalizedRe = regexp.MustCompile(`^\p{Lu}\p{Ll}+$`)

// extractDomains returns distinct lowercase hosts found in text, in first-seen order.
// Tokens failing any check are skipped without affecting the rest.
func extractDomains(text string) []string {
	if text == "" {
		return nil
	}
	text = norm.NFKC.String(cleanText(text))

	var res []string
	seen := map[string]bool{}
	for _, loc := range urlRe.FindAllStringIndex(text, -1) {
		if !standalone(text, loc[0], loc[1]) {
			continue
		}
		host, ok := parseHost(text[loc[0]:loc[1]])
		if !ok || seen[host] {
			continue
		}
		seen[host] = true
		res = append(res, host)
	}
	return res
}

// standalone checks the token is not a part of a larger word, e-mail address or dotted sequence.
// A dot or dash before the token breaks it only when it follows a word, so "...bit.ly" is still a link.
func standalone(text string, start, end int) bool {
	if start > 0 {
		prev, size := utf8.DecodeLastRuneInString(text[:start])
		if isWordRune(prev) || prev == '_' || prev == '@' {
			return false
		}
		if (prev == '.' || prev == '-') && start > size {
			if beforePrev, _ := utf8.DecodeLastRuneInString(text[:start-size]); isWordRune(beforePrev) {
				return false
			}
		}
	}
	if end < len(text) {
		next, _ := utf8.DecodeRuneInString(text[end:])
		if isWordRune(next) || next == '@' {
			return false
		}
	}
	return true
}

// parseHost extracts and validates the host of a single url-like token
func parseHost(token string) (host string, ok bool) {
	lower := strings.ToLower(token)
	hasScheme := strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")
	authority := token
	if hasScheme {
		authority = token[strings.Index(token, "://")+3:]
	}
	hasPath := false
	if idx := strings.IndexAny(authority, "/?#"); idx >= 0 {
		authority, hasPath = authority[:idx], true
	}
	u, err := url.Parse("http://" + authority)
	if err != nil || u.Hostname() == "" {
		return "", false
	}
	host = strings.TrimSuffix(u.Hostname(), ".")

	if ip := net.ParseIP(host); ip != nil {
		if !hasScheme || ip.To4() == nil {
			return "", false
		}
		return ip.String(), true
	}

	bare := !hasScheme && !hasPath && !strings.HasPrefix(lower, "www.") && u.Port() == ""
	if bare && strings.Count(host, ".") == 1 && !strings.Contains(host, "-") {
		// "done.Now" is a sentence without a space after the period, not a domain
		tld := host[strings.LastIndex(host, ".")+1:]
		if capitalizedRe.MatchString(tld) {
			return "", false
		}
	}

	ascii, err := idna.Lookup.ToASCII(host)
	if err != nil {
		return "", false
	}
	ascii = strings.ToLower(ascii)
	if !plausibleHost(ascii) {
		return "", false
	}
	return ascii, true
}

// plausibleHost checks the host has a registrable label under a known public suffix
func plausibleHost(host string) bool {
	etld, icann := publicsuffix.PublicSuffix(host)
	if !icann && !strings.Contains(etld, ".") {
		return false // unknown top-level label
	}
	if _, err := publicsuffix.EffectiveTLDPlusOne(host); err != nil {
		return false
	}
	for _, r := range host {
		if r > unicode.MaxASCII {
			return false
		}
	}
	return true
}

// domainRule is a compiled suspicious-domain indicator
type domainRule struct {
	pattern string
	weight  float64
	mode    MatchMode
}

func compileDomains(rules []Rule) []domainRule {
	res := make([]domainRule, 0, len(rules))
	for _, r := range rules {
		mode := r.Match
		if mode == "" {
			mode = MatchContains
		}
		p := normalize(r.Pattern)
		if mode == MatchHost || mode == MatchContains {
			if ascii, err := idna.Lookup.ToASCII(p); err == nil && ascii != "" {
				p = strings.ToLower(ascii)
			}
		}
		res = append(res, domainRule{pattern: p, weight: r.Weight, mode: mode})
	}
	return res
}

// match checks if host matches the indicator
func (d domainRule) match(host string) bool {
	switch d.mode {
	case MatchHost:
		return host == d.pattern || strings.HasSuffix(host, "."+d.pattern)
	case MatchSuffix:
		return strings.HasSuffix(host, d.pattern)
	case MatchIP:
		return net.ParseIP(host) != nil
	default:
		return strings.Contains(host, d.pattern)
	}
}

func (d domainRule) name() string {
	if d.mode == MatchIP {
		return "ip-address"
	}
	return d.pattern
}
