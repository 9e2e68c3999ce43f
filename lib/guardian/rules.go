package guardian

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/hashicorp/go-multierror"
	"gopkg.in/yaml.v3"
)

// DefaultModel is the model label used when the rule table doesn't set one.
const DefaultModel = "Rule-Based Mini-AI"

// MatchMode defines how a rule pattern is matched.
// For keyword and urgency rules it is "word" (default) or "substring".
// For domain indicators it is "contains" (default), "host", "suffix" or "ip".
type MatchMode string

// enum of match modes
const (
	MatchWord      MatchMode = "word"      // word-boundary-aware substring match, default for keywords
	MatchSubstring MatchMode = "substring" // plain substring match
	MatchContains  MatchMode = "contains"  // domain contains pattern, default for domain indicators
	MatchHost      MatchMode = "host"      // domain equals pattern or is a subdomain of it
	MatchSuffix    MatchMode = "suffix"    // domain ends with pattern, e.g. ".xyz"
	MatchIP        MatchMode = "ip"        // domain is an ip address, pattern is ignored
)

// Rule is a single declarative (pattern, weight) entry of a rule table.
type Rule struct {
	Pattern string    `yaml:"pattern" json:"pattern"`
	Weight  float64   `yaml:"weight" json:"weight"`
	Match   MatchMode `yaml:"match,omitempty" json:"match,omitempty"`
}

// Thresholds partition the normalized score into levels.
// Score below Low is LOW, at or above High is HIGH, anything in between is MEDIUM.
type Thresholds struct {
	Low  float64 `yaml:"low" json:"low"`
	High float64 `yaml:"high" json:"high"`
}

// RuleTable is a full set of rules and parameters driving the scoring.
// It is validated once and never mutated by the engine.
type RuleTable struct {
	Model      string     `yaml:"model" json:"model"`
	MaxScore   float64    `yaml:"max_score" json:"max_score"` // raw score mapped to 100%
	Thresholds Thresholds `yaml:"thresholds" json:"thresholds"`
	Keywords   []Rule     `yaml:"keywords" json:"keywords"`
	Urgency    []Rule     `yaml:"urgency" json:"urgency"`
	Domains    []Rule     `yaml:"domains" json:"domains"`
}

// Validate checks the rule table and returns all found problems as a single error.
func (t RuleTable) Validate() error {
	errs := new(multierror.Error)

	if t.MaxScore <= 0 || math.IsNaN(t.MaxScore) || math.IsInf(t.MaxScore, 0) {
		errs = multierror.Append(errs, fmt.Errorf("max_score must be positive, got %v", t.MaxScore))
	}
	if !inRange(t.Thresholds.Low) {
		errs = multierror.Append(errs, fmt.Errorf("low threshold must be within [0,100], got %v", t.Thresholds.Low))
	}
	if !inRange(t.Thresholds.High) {
		errs = multierror.Append(errs, fmt.Errorf("high threshold must be within [0,100], got %v", t.Thresholds.High))
	}
	if t.Thresholds.Low > t.Thresholds.High {
		errs = multierror.Append(errs, fmt.Errorf("low threshold %v is above high threshold %v",
			t.Thresholds.Low, t.Thresholds.High))
	}

	checkRules := func(section string, rules []Rule, allowed ...MatchMode) {
		seen := map[string]bool{}
		for i, r := range rules {
			if r.Weight < 0 || math.IsNaN(r.Weight) || math.IsInf(r.Weight, 0) {
				errs = multierror.Append(errs, fmt.Errorf("%s[%d] %q: weight must be non-negative, got %v",
					section, i, r.Pattern, r.Weight))
			}
			if r.Match != "" && !matchAllowed(r.Match, allowed) {
				errs = multierror.Append(errs, fmt.Errorf("%s[%d] %q: unsupported match mode %q", section, i, r.Pattern, r.Match))
			}
			if r.Match == MatchIP {
				continue // pattern is not used for ip indicators
			}
			key := normalize(r.Pattern)
			if key == "" {
				errs = multierror.Append(errs, fmt.Errorf("%s[%d]: empty pattern", section, i))
				continue
			}
			if seen[key] {
				errs = multierror.Append(errs, fmt.Errorf("%s[%d]: duplicate pattern %q", section, i, r.Pattern))
			}
			seen[key] = true
		}
	}
	checkRules("keywords", t.Keywords, MatchWord, MatchSubstring)
	checkRules("urgency", t.Urgency, MatchWord, MatchSubstring)
	checkRules("domains", t.Domains, MatchContains, MatchHost, MatchSuffix, MatchIP)

	return errs.ErrorOrNil()
}

// ruleFile is a yaml representation of RuleTable. Thresholds are pointers to tell
// an absent section from a partially set one.
type ruleFile struct {
	Model      string  `yaml:"model"`
	MaxScore   float64 `yaml:"max_score"`
	Thresholds *struct {
		Low  *float64 `yaml:"low"`
		High *float64 `yaml:"high"`
	} `yaml:"thresholds"`
	Keywords []Rule `yaml:"keywords"`
	Urgency  []Rule `yaml:"urgency"`
	Domains  []Rule `yaml:"domains"`
}

// LoadRules reads a rule table in yaml format. Unset model and max score are taken from the default table,
// as well as thresholds if the thresholds section is absent. A thresholds section must set both bounds.
// The result is validated.
func LoadRules(r io.Reader) (RuleTable, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return RuleTable{}, fmt.Errorf("can't read rules: %w", err)
	}
	def := DefaultRules()
	rf := ruleFile{}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&rf); err != nil && !errors.Is(err, io.EOF) {
		return RuleTable{}, fmt.Errorf("can't parse rules: %w", err)
	}

	res := RuleTable{Model: rf.Model, MaxScore: rf.MaxScore, Thresholds: def.Thresholds,
		Keywords: rf.Keywords, Urgency: rf.Urgency, Domains: rf.Domains}
	if res.Model == "" {
		res.Model = def.Model
	}
	if res.MaxScore == 0 {
		res.MaxScore = def.MaxScore
	}
	if th := rf.Thresholds; th != nil {
		errs := new(multierror.Error)
		if th.Low == nil {
			errs = multierror.Append(errs, errors.New("low threshold is missing"))
		}
		if th.High == nil {
			errs = multierror.Append(errs, errors.New("high threshold is missing"))
		}
		if err := errs.ErrorOrNil(); err != nil {
			return RuleTable{}, fmt.Errorf("invalid rules: %w", err)
		}
		res.Thresholds = Thresholds{Low: *th.Low, High: *th.High}
	}
	if err := res.Validate(); err != nil {
		return RuleTable{}, fmt.Errorf("invalid rules: %w", err)
	}
	return res, nil
}

// LoadRulesFile reads and validates a rule table from the yaml file.
func LoadRulesFile(path string) (RuleTable, error) {
	fh, err := os.Open(path) //nolint gosec // path is controlled by the app
	if err != nil {
		return RuleTable{}, fmt.Errorf("can't open rules file %s: %w", path, err)
	}
	defer fh.Close()
	res, err := LoadRules(fh)
	if err != nil {
		return RuleTable{}, fmt.Errorf("rules file %s: %w", path, err)
	}
	return res, nil
}

// Summary returns a short description of the table, used in logs and the api.
func (t RuleTable) Summary() string {
	return fmt.Sprintf("model:%q, keywords:%d, urgency:%d, domains:%d, max:%v, thresholds:%v/%v",
		t.Model, len(t.Keywords), len(t.Urgency), len(t.Domains), t.MaxScore, t.Thresholds.Low, t.Thresholds.High)
}

// DefaultRules returns the built-in rule table.
// Keywords, informal patterns, shorteners and suspicious host parts follow the community list used
// for nigerian banking and loan scams.
func DefaultRules() RuleTable {
	kw := func(weight float64, patterns ...string) []Rule {
		res := make([]Rule, 0, len(patterns))
		for _, p := range patterns {
			res = append(res, Rule{Pattern: p, Weight: weight})
		}
		return res
	}
	dm := func(weight float64, mode MatchMode, patterns ...string) []Rule {
		res := make([]Rule, 0, len(patterns))
		for _, p := range patterns {
			res = append(res, Rule{Pattern: p, Weight: weight, Match: mode})
		}
		return res
	}

	keywords := kw(15, "bvn", "otp", "password", "bank login", "pin")
	keywords = append(keywords, kw(10, "verify", "cbn", "one time", "you have won", "congratulations",
		"click here", "tinyurl", "bit.ly", "borrow", "loan approved", "no bvn", "no doc", "reset")...)
	keywords = append(keywords, kw(5, "bros", "abeg", "send me", "help me", "i need money", "naira", "pay small")...)

	urgency := kw(15, "urgent", "account suspended", "transfer now", "blocked", "suspended", "immediately",
		"within 24 hours", "act now")

	domains := dm(25, MatchHost, "bit.ly", "tinyurl.com", "t.co", "goo.gl", "ow.ly", "rebrand.ly", "shorturl.at")
	domains = append(domains, dm(15, MatchSuffix, ".xyz", ".top", ".club", ".online", ".info", ".ru", ".tk")...)
	domains = append(domains, dm(10, MatchContains, "verify", "login", "secure", "confirm", "update", "account", "service")...)
	domains = append(domains, Rule{Pattern: "-", Weight: 5, Match: MatchContains})
	domains = append(domains, Rule{Weight: 20, Match: MatchIP})

	return RuleTable{
		Model:      DefaultModel,
		MaxScore:   100,
		Thresholds: Thresholds{Low: 35, High: 70},
		Keywords:   keywords,
		Urgency:    urgency,
		Domains:    domains,
	}
}

func inRange(v float64) bool {
	return v >= 0 && v <= 100 && !math.IsNaN(v)
}

func matchAllowed(m MatchMode, allowed []MatchMode) bool {
	for _, a := range allowed {
		if m == a {
			return true
		}
	}
	return false
}
