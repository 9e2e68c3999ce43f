// Package riskcheck defines the result types shared by the risk engine and its callers.
package riskcheck

import (
	"fmt"
	"math"
	"strings"
)

// Level is a discrete risk bucket derived from the normalized score.
type Level string

// enum of risk levels
const (
	LevelLow    Level = "LOW"
	LevelMedium Level = "MEDIUM"
	LevelHigh   Level = "HIGH"
)

// Category of a rule contributing to the score.
type Category string

// enum of rule categories
const (
	CategoryKeyword Category = "keyword"
	CategoryUrgency Category = "urgency"
	CategoryDomain  Category = "domain"
	CategoryPlugin  Category = "plugin"
)

// Signal is a single rule which matched the message and contributed its weight.
type Signal struct {
	Name     string   `json:"name"`              // pattern or plugin name
	Category Category `json:"category"`          // rule category
	Weight   float64  `json:"weight"`            // contributed weight, never negative
	Details  string   `json:"details,omitempty"` // optional details, e.g. matched domain
	Error    error    `json:"-"`                 // error from a plugin, if any. Do not serialize it
}

func (s Signal) String() string {
	if s.Details == "" {
		return fmt.Sprintf("%s:%s(%g)", s.Category, s.Name, s.Weight)
	}
	return fmt.Sprintf("%s:%s(%g) %s", s.Category, s.Name, s.Weight, s.Details)
}

// Input is what extra scorers (plugins) receive for a single analysis.
type Input struct {
	Msg        string   // original message
	Normalized string   // normalized (folded, collapsed) message
	Domains    []string // extracted domains
}

// Result is the risk assessment of a single message. It is created per call and never mutated afterward.
type Result struct {
	RawScore          float64  `json:"raw_score"`          // sum of contributing weights
	Score             float64  `json:"score"`              // normalized score, 0-100
	Level             Level    `json:"level"`              // risk level
	Keywords          []string `json:"keywords"`           // matched keyword and urgency patterns, order of discovery
	Domains           []string `json:"domains"`            // extracted domains, first-seen order
	SuspiciousDomains []string `json:"suspicious_domains"` // subsequence of Domains flagged suspicious
	Signals           []Signal `json:"signals"`            // all contributing rules
	Model             string   `json:"model"`              // model label
}

// Percent returns the normalized score rounded to the nearest integer percent.
func (r Result) Percent() int {
	return int(math.Round(r.Score))
}

// Weight returns total weight contributed by the given category.
func (r Result) Weight(c Category) float64 {
	total := 0.0
	for _, s := range r.Signals {
		if s.Category == c {
			total += s.Weight
		}
	}
	return total
}

func (r Result) String() string {
	return fmt.Sprintf("level:%s, score:%.2f (raw %.2f), keywords:[%s], domains:[%s], suspicious:[%s]",
		r.Level, r.Score, r.RawScore, strings.Join(r.Keywords, ", "), strings.Join(r.Domains, ", "),
		strings.Join(r.SuspiciousDomains, ", "))
}

// SignalsToString converts a slice of signals to a string
func SignalsToString(signals []Signal) string {
	elems := []string{}
	for _, s := range signals {
		elems = append(elems, "{"+s.String()+"}")
	}
	return fmt.Sprintf("[%s]", strings.Join(elems, ", "))
}
