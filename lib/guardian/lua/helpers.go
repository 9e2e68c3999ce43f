package lua

import (
	"regexp"
	"strings"

	lua "github.com/yuin/gopher-lua"
)

// registerHelpers exposes helper functions to scripts
func (c *Checker) registerHelpers() {
	helpers := map[string]lua.LGFunction{
		"count_substring": countSubstring,
		"match_regex":     matchRegex,
		"contains_any":    containsAny,
		"domain_matches":  domainMatches,
		"starts_with":     startsWith,
		"ends_with":       endsWith,
		"split":           split,
	}
	for name, fn := range helpers {
		c.vm.SetGlobal(name, c.vm.NewFunction(fn))
	}
}

// countSubstring returns number of non-overlapping occurrences of a substring
func countSubstring(l *lua.LState) int {
	str := l.CheckString(1)
	substr := l.CheckString(2)
	if substr == "" {
		l.Push(lua.LNumber(0))
		return 1
	}
	l.Push(lua.LNumber(strings.Count(str, substr)))
	return 1
}

// matchRegex checks if a string matches a regex pattern, returns false and error message for bad patterns
func matchRegex(l *lua.LState) int {
	text := l.CheckString(1)
	pattern := l.CheckString(2)
	re, err := regexp.Compile(pattern)
	if err != nil {
		l.Push(lua.LBool(false))
		l.Push(lua.LString("invalid pattern: " + err.Error()))
		return 2
	}
	l.Push(lua.LBool(re.MatchString(text)))
	return 1
}

// containsAny checks if a string contains any of the given substrings, passed as a table or as arguments.
// Returns true and the matched substring or false.
func containsAny(l *lua.LState) int {
	str := l.CheckString(1)
	for _, item := range stringArgs(l, 2) {
		if item != "" && strings.Contains(str, item) {
			l.Push(lua.LBool(true))
			l.Push(lua.LString(item))
			return 2
		}
	}
	l.Push(lua.LBool(false))
	return 1
}

// domainMatches checks if any domain from the table (first arg) is equal to or a subdomain of
// any of the given hosts. Returns true and the matched domain or false.
func domainMatches(l *lua.LState) int {
	domains := l.CheckTable(1)
	hosts := stringArgs(l, 2)
	var found string
	domains.ForEach(func(_, v lua.LValue) {
		if found != "" || v.Type() != lua.LTString {
			return
		}
		d := strings.ToLower(v.String())
		for _, h := range hosts {
			h = strings.ToLower(h)
			if d == h || strings.HasSuffix(d, "."+h) {
				found = d
				return
			}
		}
	})
	if found == "" {
		l.Push(lua.LBool(false))
		return 1
	}
	l.Push(lua.LBool(true))
	l.Push(lua.LString(found))
	return 2
}

func startsWith(l *lua.LState) int {
	l.Push(lua.LBool(strings.HasPrefix(l.CheckString(1), l.CheckString(2))))
	return 1
}

func endsWith(l *lua.LState) int {
	l.Push(lua.LBool(strings.HasSuffix(l.CheckString(1), l.CheckString(2))))
	return 1
}

// split splits a string by a separator into a table
func split(l *lua.LState) int {
	parts := strings.Split(l.CheckString(1), l.CheckString(2))
	res := l.NewTable()
	for i, part := range parts {
		res.RawSetInt(i+1, lua.LString(part))
	}
	l.Push(res)
	return 1
}

// stringArgs collects string arguments starting from position, either from a table or from the rest of args
func stringArgs(l *lua.LState, from int) []string {
	var res []string
	if l.GetTop() >= from && l.Get(from).Type() == lua.LTTable {
		l.ToTable(from).ForEach(func(_, v lua.LValue) {
			if v.Type() == lua.LTString {
				res = append(res, v.String())
			}
		})
		return res
	}
	for i := from; i <= l.GetTop(); i++ {
		res = append(res, l.CheckString(i))
	}
	return res
}
