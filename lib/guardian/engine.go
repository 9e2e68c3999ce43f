package guardian

import (
	"fmt"
	"log"
	"math"

	"github.com/naijacyber/cyberguardian/lib/riskcheck"
)

// Engine scores messages against a compiled rule table.
// It is safe for concurrent use, nothing is mutated after New returns.
type Engine struct {
	rules    RuleTable
	keywords []keywordRule // keyword rules followed by urgency rules, table order
	domains  []domainRule
	scorers  []NamedScorer
}

// Scorer is an extra scoring function, e.g. a lua plugin. It gets the message with derived data
// and returns a signal. Weight of the signal is added to the raw score.
type Scorer func(in riskcheck.Input) riskcheck.Signal

// NamedScorer is a scorer with the name used to report its failures
type NamedScorer struct {
	Name  string
	Score Scorer
}

// Option sets optional engine parameters
type Option func(e *Engine)

// WithScorers adds extra scorers, called after all the table rules in the given order
func WithScorers(scorers ...NamedScorer) Option {
	return func(e *Engine) {
		e.scorers = append(e.scorers, scorers...)
	}
}

// New validates the rule table and makes an engine for it
func New(rules RuleTable, opts ...Option) (*Engine, error) {
	if err := rules.Validate(); err != nil {
		return nil, fmt.Errorf("invalid rules: %w", err)
	}
	if rules.Model == "" {
		rules.Model = DefaultModel
	}
	res := &Engine{rules: rules}
	res.keywords = append(compileKeywords(rules.Keywords, riskcheck.CategoryKeyword, 0),
		compileKeywords(rules.Urgency, riskcheck.CategoryUrgency, len(rules.Keywords))...)
	res.domains = compileDomains(rules.Domains)
	for _, opt := range opts {
		opt(res)
	}
	return res, nil
}

// MustNew is like New but panics on invalid rules. Intended for tests and built-in tables.
func MustNew(rules RuleTable, opts ...Option) *Engine {
	res, err := New(rules, opts...)
	if err != nil {
		panic(err)
	}
	return res
}

// Rules returns a copy of the rule table used by the engine
func (e *Engine) Rules() RuleTable {
	res := e.rules
	res.Keywords = append([]Rule(nil), e.rules.Keywords...)
	res.Urgency = append([]Rule(nil), e.rules.Urgency...)
	res.Domains = append([]Rule(nil), e.rules.Domains...)
	return res
}

// Analyze scores the message. It never fails, an empty or garbage message gives a LOW result
// with no evidence.
func (e *Engine) Analyze(msg string) riskcheck.Result {
	res := riskcheck.Result{
		Keywords:          []string{},
		Domains:           []string{},
		SuspiciousDomains: []string{},
		Signals:           []riskcheck.Signal{},
		Model:             e.rules.Model,
		Level:             riskcheck.LevelLow,
	}

	normalized := normalize(msg)

	// keywords are reported in order of discovery, weights are summed in table order
	matched := map[*keywordRule]bool{}
	seenKw := map[string]bool{}
	for _, m := range matchKeywords(e.keywords, normalized) {
		matched[m.rule] = true
		if !seenKw[m.rule.pattern] {
			seenKw[m.rule.pattern] = true
			res.Keywords = append(res.Keywords, m.rule.pattern)
		}
	}
	for i := range e.keywords {
		r := &e.keywords[i]
		if matched[r] {
			res.Signals = append(res.Signals, riskcheck.Signal{Name: r.pattern, Category: r.category, Weight: r.weight})
		}
	}

	res.Domains = append(res.Domains, extractDomains(msg)...)
	suspicious := map[string]bool{}
	for _, d := range e.domains {
		for _, host := range res.Domains {
			if !d.match(host) {
				continue
			}
			suspicious[host] = true
			// each indicator counts once, details point to the first matched host
			res.Signals = append(res.Signals, riskcheck.Signal{Name: d.name(), Category: riskcheck.CategoryDomain,
				Weight: d.weight, Details: host})
			break
		}
	}
	for _, host := range res.Domains {
		if suspicious[host] {
			res.SuspiciousDomains = append(res.SuspiciousDomains, host)
		}
	}

	if len(e.scorers) > 0 {
		in := riskcheck.Input{Msg: msg, Normalized: normalized, Domains: append([]string(nil), res.Domains...)}
		for _, s := range e.scorers {
			// zero-weight plugin results are not reported unless failed
			if sig := e.runScorer(s, in); sig.Weight > 0 || sig.Error != nil {
				res.Signals = append(res.Signals, sig)
			}
		}
	}

	for _, s := range res.Signals {
		res.RawScore += s.Weight
	}
	res.Score = e.scale(res.RawScore)
	res.Level = e.level(res.Score)
	return res
}

// runScorer calls the scorer, isolating panics and invalid weights
func (e *Engine) runScorer(s NamedScorer, in riskcheck.Input) (sig riskcheck.Signal) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("[WARN] scorer %s panicked: %v", s.Name, r)
			sig = riskcheck.Signal{Name: s.Name, Category: riskcheck.CategoryPlugin, Error: fmt.Errorf("panic: %v", r)}
		}
	}()
	sig = s.Score(in)
	if sig.Name == "" {
		sig.Name = s.Name
	}
	sig.Category = riskcheck.CategoryPlugin
	if sig.Error != nil || sig.Weight < 0 || math.IsNaN(sig.Weight) || math.IsInf(sig.Weight, 0) {
		sig.Weight = 0
	}
	return sig
}

// scale maps raw score to [0,100] using the table's max score
func (e *Engine) scale(raw float64) float64 {
	if raw <= 0 {
		return 0
	}
	return math.Min(100, raw*100/e.rules.MaxScore)
}

// level maps normalized score to a risk level, both boundaries are inclusive on the upper side.
// Zero score is always LOW, even with zero thresholds.
func (e *Engine) level(score float64) riskcheck.Level {
	switch {
	case score <= 0:
		return riskcheck.LevelLow
	case score >= e.rules.Thresholds.High:
		return riskcheck.LevelHigh
	case score >= e.rules.Thresholds.Low:
		return riskcheck.LevelMedium
	default:
		return riskcheck.LevelLow
	}
}
