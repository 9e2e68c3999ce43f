package guardian

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRuleTable_Validate(t *testing.T) {
	t.Run("default rules are valid", func(t *testing.T) {
		assert.NoError(t, DefaultRules().Validate())
	})

	t.Run("all problems reported", func(t *testing.T) {
		rules := RuleTable{
			MaxScore:   -1,
			Thresholds: Thresholds{Low: 50, High: 120},
			Keywords:   []Rule{{Pattern: "otp", Weight: -5}, {Pattern: "OTP", Weight: 1}, {Pattern: " ", Weight: 1}},
			Urgency:    []Rule{{Pattern: "now", Weight: 1, Match: MatchHost}},
			Domains:    []Rule{{Pattern: "bit.ly", Weight: 1, Match: MatchWord}, {Weight: 1, Match: MatchIP}},
		}
		err := rules.Validate()
		require.Error(t, err)
		msg := err.Error()
		t.Log(msg)
		assert.Contains(t, msg, "8 errors occurred")
		assert.Contains(t, msg, "max_score must be positive, got -1")
		assert.Contains(t, msg, "high threshold must be within [0,100], got 120")
		assert.Contains(t, msg, `keywords[0] "otp": weight must be non-negative, got -5`)
		assert.Contains(t, msg, `keywords[1]: duplicate pattern "OTP"`)
		assert.Contains(t, msg, "keywords[2]: empty pattern")
		assert.Contains(t, msg, `urgency[0] "now": unsupported match mode "host"`)
		assert.Contains(t, msg, `domains[0] "bit.ly": unsupported match mode "word"`)
	})

	t.Run("low above high", func(t *testing.T) {
		err := RuleTable{MaxScore: 10, Thresholds: Thresholds{Low: 80, High: 70}}.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "low threshold 80 is above high threshold 70")
	})

	t.Run("equal thresholds allowed", func(t *testing.T) {
		assert.NoError(t, RuleTable{MaxScore: 10, Thresholds: Thresholds{Low: 50, High: 50}}.Validate())
	})
}

func TestLoadRules(t *testing.T) {
	t.Run("full table", func(t *testing.T) {
		data := `
model: test model
max_score: 80
thresholds: {low: 20, high: 60}
keywords:
  - {pattern: bvn, weight: 30}
  - {pattern: pin, weight: 5, match: substring}
urgency:
  - {pattern: urgent, weight: 10}
domains:
  - {pattern: bit.ly, weight: 40, match: host}
  - {pattern: verify, weight: 10}
`
		rules, err := LoadRules(strings.NewReader(data))
		require.NoError(t, err)
		assert.Equal(t, RuleTable{
			Model:      "test model",
			MaxScore:   80,
			Thresholds: Thresholds{Low: 20, High: 60},
			Keywords:   []Rule{{Pattern: "bvn", Weight: 30}, {Pattern: "pin", Weight: 5, Match: MatchSubstring}},
			Urgency:    []Rule{{Pattern: "urgent", Weight: 10}},
			Domains:    []Rule{{Pattern: "bit.ly", Weight: 40, Match: MatchHost}, {Pattern: "verify", Weight: 10}},
		}, rules)
		assert.Equal(t, `model:"test model", keywords:2, urgency:1, domains:2, max:80, thresholds:20/60`, rules.Summary())
	})

	t.Run("defaults for unset parameters", func(t *testing.T) {
		rules, err := LoadRules(strings.NewReader("keywords:\n  - {pattern: otp, weight: 10}\n"))
		require.NoError(t, err)
		assert.Equal(t, DefaultModel, rules.Model)
		assert.InDelta(t, 100.0, rules.MaxScore, 0.0001)
		assert.Equal(t, Thresholds{Low: 35, High: 70}, rules.Thresholds)
		assert.Len(t, rules.Keywords, 1)
		assert.Empty(t, rules.Domains)
	})

	t.Run("empty input", func(t *testing.T) {
		rules, err := LoadRules(strings.NewReader(""))
		require.NoError(t, err)
		assert.Equal(t, DefaultModel, rules.Model)
		assert.Empty(t, rules.Keywords)
	})

	t.Run("partial thresholds", func(t *testing.T) {
		tbl := []struct {
			name, data, wantErr string
		}{
			{"high only", "thresholds:\n  high: 80\n", "low threshold is missing"},
			{"low only", "thresholds: {low: 20}\n", "high threshold is missing"},
			{"empty section", "thresholds: {}\n", "low threshold is missing"},
		}
		for _, tt := range tbl {
			t.Run(tt.name, func(t *testing.T) {
				_, err := LoadRules(strings.NewReader(tt.data + "keywords:\n  - {pattern: otp, weight: 10}\n"))
				require.Error(t, err)
				assert.Contains(t, err.Error(), "invalid rules")
				assert.Contains(t, err.Error(), tt.wantErr)
			})
		}
	})

	t.Run("explicit zero thresholds", func(t *testing.T) {
		rules, err := LoadRules(strings.NewReader("thresholds: {low: 0, high: 0}\n"))
		require.NoError(t, err)
		assert.Equal(t, Thresholds{}, rules.Thresholds)
	})

	t.Run("unknown field", func(t *testing.T) {
		_, err := LoadRules(strings.NewReader("keyword:\n  - {pattern: otp, weight: 10}\n"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "can't parse rules")
	})

	t.Run("bad yaml", func(t *testing.T) {
		_, err := LoadRules(strings.NewReader("keywords: [ {pattern: otp"))
		require.Error(t, err)
	})

	t.Run("invalid table", func(t *testing.T) {
		_, err := LoadRules(strings.NewReader("keywords:\n  - {pattern: otp, weight: -1}\n"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid rules")
		assert.Contains(t, err.Error(), "weight must be non-negative")
	})
}

func TestLoadRulesFile(t *testing.T) {
	t.Run("shipped rules match defaults", func(t *testing.T) {
		rules, err := LoadRulesFile("../../data/rules.yml")
		require.NoError(t, err)
		assert.Equal(t, DefaultRules(), rules)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := LoadRulesFile(filepath.Join(t.TempDir(), "nope.yml"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "can't open rules file")
	})

	t.Run("invalid file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "rules.yml")
		require.NoError(t, os.WriteFile(path, []byte("max_score: -5\n"), 0o600))
		_, err := LoadRulesFile(path)
		require.Error(t, err)
		assert.Contains(t, err.Error(), path)
		assert.Contains(t, err.Error(), "max_score must be positive")
	})
}
