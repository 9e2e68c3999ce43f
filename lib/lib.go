// Package lib provides the message risk classifier. The primary type is guardian.Engine, which scores
// free-text messages (SMS, chat messages) against a declarative rule table and returns a riskcheck.Result
// with a normalized score, a risk level and the evidence: matched keywords, extracted domains and
// suspicious domains.
//
// The Engine is built once from a guardian.RuleTable and is safe for concurrent use. The table is never
// modified after guardian.New returns, so reloading rules means building a new Engine.
//
// Rule table:
//
//   - Keywords and Urgency are lists of (pattern, weight) rules matched against the normalized text,
//     i.e. case-folded, NFKC-normalized, with invisible characters and emoji removed and whitespace collapsed.
//     By default patterns match on word boundaries, so "pin" does not match "spinning". A rule with
//     "match: substring" matches anywhere. Each rule counts once per message.
//
//   - Domains is a list of suspicious-domain indicators checked against hosts extracted from the message.
//     Match modes are "contains" (default), "host" (the host or any of its subdomains), "suffix"
//     (e.g. ".xyz") and "ip" (any ip address host). Each indicator counts once per message.
//
//   - MaxScore maps the raw score (sum of weights) to percents: score = min(100, raw*100/MaxScore).
//
//   - Thresholds.Low and Thresholds.High split the score into LOW, MEDIUM (score >= Low) and
//     HIGH (score >= High) levels.
//
// Tables can be loaded from yaml with guardian.LoadRules or guardian.LoadRulesFile, guardian.DefaultRules
// returns the built-in table. Extra scorers, e.g. Lua plugins from the guardian/lua package, are added
// with guardian.WithScorers.
package lib
