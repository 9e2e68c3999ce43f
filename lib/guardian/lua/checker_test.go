package lua

import (
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	lua "github.com/yuin/gopher-lua"

	"github.com/naijacyber/cyberguardian/lib/guardian"
	"github.com/naijacyber/cyberguardian/lib/riskcheck"
)

func writeScript(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestChecker_LoadScript(t *testing.T) {
	path := writeScript(t, t.TempDir(), "test.lua", `
		function score(input)
			return 12.5, "msg=" .. input.msg .. " n=" .. input.normalized .. " d=" .. #input.domains
		end
	`)

	checker := NewChecker()
	defer checker.Close()
	require.NoError(t, checker.LoadScript(path))
	assert.Equal(t, []string{"test"}, checker.Names())

	scorers := checker.Scorers()
	require.Len(t, scorers, 1)
	assert.Equal(t, "lua-test", scorers[0].Name)

	sig := scorers[0].Score(riskcheck.Input{Msg: "Hi", Normalized: "hi", Domains: []string{"a.com", "b.com"}})
	assert.Equal(t, riskcheck.Signal{Name: "lua-test", Category: riskcheck.CategoryPlugin, Weight: 12.5,
		Details: "msg=Hi n=hi d=2"}, sig)
}

func TestChecker_LoadInvalidScript(t *testing.T) {
	dir := t.TempDir()
	checker := NewChecker()
	defer checker.Close()

	err := checker.LoadScript(writeScript(t, dir, "invalid.lua", "this is not valid lua code"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to load lua script")

	err = checker.LoadScript(writeScript(t, dir, "nofunc.lua", "function check(input) return 1 end"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "must define a 'score' function")
	assert.Empty(t, checker.Names())
}

func TestChecker_ScriptErrors(t *testing.T) {
	dir := t.TempDir()
	checker := NewChecker()
	defer checker.Close()

	require.NoError(t, checker.LoadScript(writeScript(t, dir, "runtime.lua", `
		function score(input)
			error("boom")
		end
	`)))
	require.NoError(t, checker.LoadScript(writeScript(t, dir, "notnum.lua", `
		function score(input)
			return "lots", "bad type"
		end
	`)))
	require.NoError(t, checker.LoadScript(writeScript(t, dir, "negative.lua", `
		function score(input)
			return -10
		end
	`)))

	scorers := checker.Scorers()
	require.Len(t, scorers, 3)
	byName := map[string]guardian.Scorer{}
	for _, s := range scorers {
		byName[s.Name] = s.Score
	}

	sig := byName["lua-runtime"](riskcheck.Input{})
	require.Error(t, sig.Error)
	assert.Contains(t, sig.Details, "error executing lua script")
	assert.Zero(t, sig.Weight)

	sig = byName["lua-notnum"](riskcheck.Input{})
	require.Error(t, sig.Error)
	assert.Contains(t, sig.Error.Error(), "score must return a number")
	assert.Zero(t, sig.Weight)

	sig = byName["lua-negative"](riskcheck.Input{})
	require.NoError(t, sig.Error)
	assert.Zero(t, sig.Weight)
	assert.Empty(t, sig.Details)
}

func TestChecker_ReloadAndRemove(t *testing.T) {
	dir := t.TempDir()
	path := writeScript(t, dir, "reload.lua", `function score(input) return 1, "original" end`)

	checker := NewChecker()
	defer checker.Close()
	require.NoError(t, checker.LoadScript(path))
	scorer := checker.Scorers()[0].Score
	assert.Equal(t, "original", scorer(riskcheck.Input{}).Details)

	writeScript(t, dir, "reload.lua", `function score(input) return 2, "reloaded" end`)
	require.NoError(t, checker.ReloadScript(path))
	sig := scorer(riskcheck.Input{})
	assert.Equal(t, "reloaded", sig.Details, "existing scorer picks up reloaded script")
	assert.InDelta(t, 2.0, sig.Weight, 0.0001)

	writeScript(t, dir, "reload.lua", `broken script`)
	require.Error(t, checker.ReloadScript(path))
	assert.Equal(t, "reloaded", scorer(riskcheck.Input{}).Details, "failed reload keeps previous version")

	checker.RemoveScript(path)
	assert.Empty(t, checker.Names())
	assert.Equal(t, riskcheck.Signal{Name: "lua-reload", Category: riskcheck.CategoryPlugin}, scorer(riskcheck.Input{}))

	err := checker.ReloadScript("/path/to/nonexistent/script.lua")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to load lua script")
}

func TestChecker_LoadDirectory(t *testing.T) {
	checker := NewChecker()
	defer checker.Close()
	require.NoError(t, checker.LoadDirectory("testdata"))
	assert.Equal(t, []string{"bank_impersonation"}, checker.Names())

	e, err := guardian.New(guardian.RuleTable{MaxScore: 100, Thresholds: guardian.Thresholds{Low: 20, High: 70}},
		guardian.WithScorers(checker.Scorers()...))
	require.NoError(t, err)

	res := e.Analyze("GTBank: your account needs review, visit gt-bank-review.com/login")
	assert.InDelta(t, 25.0, res.RawScore, 0.0001)
	assert.Equal(t, riskcheck.LevelMedium, res.Level)
	require.Len(t, res.Signals, 1)
	assert.Equal(t, "lua-bank_impersonation", res.Signals[0].Name)
	assert.Equal(t, "mentions gtbank with a non-bank link", res.Signals[0].Details)

	res = e.Analyze("GTBank: see https://www.gtbank.com/help")
	assert.Zero(t, res.RawScore)
	assert.Empty(t, res.Signals)

	res = e.Analyze("gtbank branch opens at 9")
	assert.Zero(t, res.RawScore)

	emptyDir := t.TempDir()
	require.NoError(t, checker.LoadDirectory(emptyDir))
}

func TestChecker_ConcurrentAccess(t *testing.T) {
	dir := t.TempDir()
	path := writeScript(t, dir, "concurrent.lua", `function score(input) return 1, input.msg end`)
	checker := NewChecker()
	defer checker.Close()
	require.NoError(t, checker.LoadScript(path))
	scorer := checker.Scorers()[0].Score

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 20 {
				sig := scorer(riskcheck.Input{Msg: "hello"})
				assert.Equal(t, "hello", sig.Details)
			}
		}()
	}
	for range 5 {
		assert.NoError(t, checker.ReloadScript(path))
	}
	wg.Wait()
}

func TestHelpers(t *testing.T) {
	checker := NewChecker()
	defer checker.Close()

	tbl := []struct {
		script string
		want   string
	}{
		{`return tostring(count_substring("otp otp bvn", "otp"))`, "2"},
		{`return tostring(count_substring("otp", ""))`, "0"},
		{`return tostring(match_regex("code 1234", "\\d{4}"))`, "true"},
		{`local ok, err = match_regex("x", "(") return tostring(ok) .. " " .. tostring(err ~= nil)`, "false true"},
		{`local ok, v = contains_any("send your pin", {"otp", "pin"}) return tostring(ok) .. " " .. v`, "true pin"},
		{`local ok, v = contains_any("send your pin", "bvn", "pin") return tostring(ok) .. " " .. v`, "true pin"},
		{`return tostring(contains_any("hello", "bvn"))`, "false"},
		{`local ok, d = domain_matches({"a.com", "x.bit.ly"}, "bit.ly") return tostring(ok) .. " " .. d`, "true x.bit.ly"},
		{`return tostring(domain_matches({"notbit.ly"}, {"bit.ly"}))`, "false"},
		{`return tostring(starts_with("bvn123", "bvn"))`, "true"},
		{`return tostring(ends_with("site.xyz", ".xyz"))`, "true"},
		{`local p = split("a,b,c", ",") return tostring(#p) .. p[2]`, "3b"},
	}
	for _, tt := range tbl {
		t.Run(tt.script, func(t *testing.T) {
			require.NoError(t, checker.vm.DoString("function helper_test() "+tt.script+" end"))
			fn := checker.vm.GetGlobal("helper_test")
			require.NoError(t, checker.vm.CallByParam(lua.P{Fn: fn, NRet: 1, Protect: true}))
			got := checker.vm.ToString(-1)
			checker.vm.Pop(1)
			assert.Equal(t, tt.want, got)
		})
	}
}
