package bot

import (
	"fmt"
	"math"
	"strings"

	"github.com/naijacyber/cyberguardian/app/storage"
	"github.com/naijacyber/cyberguardian/lib/riskcheck"
)

// verdict is a user-facing presentation of a risk level
type verdict struct {
	icon   string
	word   string
	advice string
}

var verdicts = map[riskcheck.Level]verdict{
	riskcheck.LevelLow: {icon: "✅", word: "SAFE",
		advice: "Looks okay but stay cautious. Never share OTPs or BVN."},
	riskcheck.LevelMedium: {icon: "⚠️", word: "SUSPICIOUS",
		advice: "Proceed with caution. Verify the sender via official channels before taking action."},
	riskcheck.LevelHigh: {icon: "🚨", word: "SCAM",
		advice: "Do NOT click links or share OTP/BVN. Contact your bank via official channels."},
}

// Render makes a markdown reply for the analysis result
func Render(res riskcheck.Result) string {
	v, ok := verdicts[res.Level]
	if !ok {
		v = verdicts[riskcheck.LevelLow]
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s Verdict: *%s*\nScore: %d%%\n", v.icon, v.word, res.Percent())
	list := func(title string, items []string) {
		if len(items) == 0 {
			return
		}
		fmt.Fprintf(&b, "%s: %s\n", title, escapeMarkdown(strings.Join(items, ", ")))
	}
	list("Keywords", res.Keywords)
	list("Domains", res.Domains)
	list("Suspicious domains", res.SuspiciousDomains)
	if res.Model != "" {
		fmt.Fprintf(&b, "Model: %s\n", escapeMarkdown(res.Model))
	}
	fmt.Fprintf(&b, "\nAdvice:\n%s\n", escapeMarkdown(v.advice))
	b.WriteString("\nTo report this message for community tracking, reply /report")
	return b.String()
}

// escapeMarkdown escapes markdown v1 special symbols
func escapeMarkdown(text string) string {
	escSymbols := []string{"_", "*", "`", "["}
	for _, esc := range escSymbols {
		text = strings.ReplaceAll(text, esc, "\\"+esc)
	}
	return text
}

// renderReports makes a markdown list of reports, one line per report with time, level icon, score,
// number of urls and keywords. Empty for no reports.
func renderReports(reports []storage.Report) string {
	if len(reports) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString("Last reports:\n")
	for _, r := range reports {
		v, ok := verdicts[r.Level]
		if !ok {
			v = verdicts[riskcheck.LevelLow]
		}
		fmt.Fprintf(&b, "%s %s %d%% urls: %d", r.Time.Format("2006-01-02 15:04"), v.icon, int(math.Round(r.Score)), r.DomainCount)
		if len(r.Keywords) > 0 {
			fmt.Fprintf(&b, " keywords: %s", escapeMarkdown(strings.Join(r.Keywords, ", ")))
		}
		b.WriteString("\n")
	}
	return b.String()
}
