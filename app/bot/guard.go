package bot

import (
	"context"
	"fmt"
	"io"
	"log"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	cache "github.com/go-pkgz/expirable-cache/v3"
	"github.com/go-pkgz/fileutils"

	"github.com/naijacyber/cyberguardian/app/storage"
	"github.com/naijacyber/cyberguardian/lib/guardian"
	"github.com/naijacyber/cyberguardian/lib/riskcheck"
)

//go:generate moq --out mocks/reports_store.go --pkg mocks --skip-ensure --with-resets . ReportsStore
//go:generate moq --out mocks/super_users.go --pkg mocks --skip-ensure --with-resets . SuperUsers

// Guard bot analyzes messages with the rule engine and replies with the verdict.
// It keeps the last analysis per chat for /report and reloads rules on file change.
type Guard struct {
	params GuardParams
	engine atomic.Pointer[guardian.Engine]
	last   cache.Cache[int64, riskcheck.Result]
	mu     sync.Mutex // serializes reloads
}

// GuardParams is a full set of parameters for the guard bot
type GuardParams struct {
	RulesFile  string                        // yaml rules file, built-in rules used if empty or missing
	WatchDelay time.Duration                 // delay before reloading changed rules file, no watching if zero
	LastTTL    time.Duration                 // how long the last analysis of a chat is available for /report
	Reports    ReportsStore                  // optional, /report and /stats are disabled without it
	SuperUsers SuperUsers                    // optional, /stats allowed for everyone without it
	Scorers    func() []guardian.NamedScorer // extra scorers, called on every engine rebuild
}

// ReportsStore is a storage for anonymized reports
type ReportsStore interface {
	Add(ctx context.Context, report storage.Report) error
	Last(ctx context.Context, limit int) ([]storage.Report, error)
	Stats(ctx context.Context) (storage.Stats, error)
}

// SuperUsers checks if a user is allowed to run privileged commands
type SuperUsers interface {
	IsSuper(userName string) bool
}

const (
	maxLastResults = 10000
	statsReports   = 10 // number of recent reports listed by /stats
)

// NewGuard makes the guard bot with rules loaded from params.RulesFile or built-in ones.
// With WatchDelay set, the rules file is watched and reloaded on change until ctx is done.
func NewGuard(ctx context.Context, params GuardParams) (*Guard, error) {
	if params.LastTTL <= 0 {
		params.LastTTL = time.Hour
	}
	res := &Guard{
		params: params,
		last:   cache.NewCache[int64, riskcheck.Result]().WithMaxKeys(maxLastResults).WithTTL(params.LastTTL),
	}
	if err := res.Reload(); err != nil {
		return nil, err
	}

	if params.WatchDelay > 0 && params.RulesFile != "" && fileutils.IsFile(params.RulesFile) {
		go func() {
			err := watch(ctx, params.RulesFile, params.WatchDelay, func(r io.Reader) error {
				rules, err := guardian.LoadRules(r)
				if err != nil {
					return err
				}
				return res.setRules(rules)
			})
			if err != nil {
				log.Printf("[WARN] rules file watcher failed: %v", err)
			}
		}()
	}
	return res, nil
}

// Reload reads the rules file (or takes built-in rules) and rebuilds the engine with current scorers.
// On error the current engine is kept.
func (g *Guard) Reload() error {
	rules, err := g.loadRules()
	if err != nil {
		return err
	}
	return g.setRules(rules)
}

// Engine returns the current engine
func (g *Guard) Engine() *guardian.Engine {
	return g.engine.Load()
}

// Rules returns the rule table of the current engine
func (g *Guard) Rules() guardian.RuleTable {
	return g.engine.Load().Rules()
}

// Analyze checks the text with the current engine
func (g *Guard) Analyze(text string) riskcheck.Result {
	return g.engine.Load().Analyze(text)
}

// OnMessage handles commands and, in private chats, analyzes plain text messages
func (g *Guard) OnMessage(ctx context.Context, msg Message) (response Response) {
	if msg.From.ID == 0 { // don't check system messages
		return Response{}
	}
	text := strings.TrimSpace(msg.Text)
	if text == "" {
		return Response{}
	}

	cmd, args := parseCommand(text)
	switch cmd {
	case "":
		if !msg.Private {
			return Response{} // groups are checked with /check only
		}
		return g.check(msg, text)
	case "start":
		return g.reply(msg, startMsg)
	case "help":
		return g.reply(msg, helpMsg)
	case "check":
		if args == "" {
			args = strings.TrimSpace(msg.ReplyTo.Text)
		}
		if args == "" {
			return g.reply(msg, "Send /check with the message text, or reply /check to the message you want to check.")
		}
		return g.check(msg, args)
	case "report":
		return g.report(ctx, msg)
	case "stats":
		return g.stats(ctx, msg)
	}
	if msg.Private {
		return g.reply(msg, "Unknown command. "+helpMsg)
	}
	return Response{}
}

func (g *Guard) check(msg Message, text string) Response {
	res := g.Analyze(text)
	g.last.Set(msg.ChatID, res, g.params.LastTTL)
	log.Printf("[INFO] message from %s checked, %s", DisplayName(msg), res)
	return Response{Text: Render(res), Send: true, ReplyTo: msg.ID, Result: &res}
}

func (g *Guard) report(ctx context.Context, msg Message) Response {
	if g.params.Reports == nil {
		return g.reply(msg, "Reports are disabled.")
	}
	res, ok := g.last.Get(msg.ChatID)
	if !ok {
		return g.reply(msg, "No recent message analyzed to report. Send the suspicious message first.")
	}
	if err := g.params.Reports.Add(ctx, storage.NewReport(res)); err != nil {
		log.Printf("[WARN] failed to save report: %v", err)
		return g.reply(msg, "Failed to save the report, please try again later.")
	}
	g.last.Invalidate(msg.ChatID) // the same analysis is reported once
	return g.reply(msg, "Thanks, the suspicious message has been recorded anonymously and will help improve detection.")
}

func (g *Guard) stats(ctx context.Context, msg Message) Response {
	if g.params.SuperUsers != nil && !g.params.SuperUsers.IsSuper(msg.From.Username) {
		log.Printf("[INFO] %s is not allowed to view stats", DisplayName(msg))
		return g.reply(msg, "You are not authorized to view stats.")
	}
	if g.params.Reports == nil {
		return g.reply(msg, "Reports are disabled.")
	}
	st, err := g.params.Reports.Stats(ctx)
	if err != nil {
		log.Printf("[WARN] failed to get reports stats: %v", err)
		return g.reply(msg, "Failed to read stats, please try again later.")
	}
	last, err := g.params.Reports.Last(ctx, statsReports)
	if err != nil {
		log.Printf("[WARN] failed to get last reports: %v", err)
		return g.reply(msg, "Failed to read stats, please try again later.")
	}
	text := fmt.Sprintf("Reports: %d\n✅ safe: %d\n⚠️ suspicious: %d\n🚨 scam: %d\n%s\n",
		st.Total, st.ByLevel[riskcheck.LevelLow], st.ByLevel[riskcheck.LevelMedium], st.ByLevel[riskcheck.LevelHigh],
		escapeMarkdown(g.Engine().Rules().Summary()))
	if lr := renderReports(last); lr != "" {
		text += "\n" + lr
	}
	return g.reply(msg, text)
}

func (g *Guard) reply(msg Message, text string) Response {
	return Response{Text: text, Send: true, ReplyTo: msg.ID}
}

func (g *Guard) loadRules() (guardian.RuleTable, error) {
	if g.params.RulesFile == "" || !fileutils.IsFile(g.params.RulesFile) {
		if g.params.RulesFile != "" {
			log.Printf("[WARN] rules file %s not found, using built-in rules", g.params.RulesFile)
		}
		return guardian.DefaultRules(), nil
	}
	return guardian.LoadRulesFile(g.params.RulesFile)
}

func (g *Guard) setRules(rules guardian.RuleTable) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	var opts []guardian.Option
	if g.params.Scorers != nil {
		opts = append(opts, guardian.WithScorers(g.params.Scorers()...))
	}
	eng, err := guardian.New(rules, opts...)
	if err != nil {
		return fmt.Errorf("can't make engine: %w", err)
	}
	g.engine.Store(eng)
	log.Printf("[INFO] rules loaded, %s", rules.Summary())
	return nil
}

// parseCommand splits "/cmd@bot args" to "cmd" and "args". Returns empty command for non-command text.
func parseCommand(text string) (cmd, args string) {
	if !strings.HasPrefix(text, "/") {
		return "", ""
	}
	cmd, args, _ = strings.Cut(text[1:], " ")
	if i := strings.IndexAny(cmd, "\n\t"); i >= 0 {
		args = cmd[i+1:] + " " + args
		cmd = cmd[:i]
	}
	cmd, _, _ = strings.Cut(cmd, "@")
	return strings.ToLower(cmd), strings.TrimSpace(args)
}

const startMsg = "👋 Welcome to NaijaCyberGuardian!\n" +
	"Send me any suspicious message, link, or SMS and I'll analyze it for scams.\n\n" +
	"Commands:\n" +
	"/check - check the message, send it with the text or as a reply\n" +
	"/report - report the last analyzed message as a scam (stores anonymously)\n" +
	"/help - bot help\n" +
	"/stats - (admin) show reports summary"

const helpMsg = "Send any message and I'll analyze it. In groups use /check.\n" +
	"If you see a scam, use /report to add it to the community reports.\n" +
	"We do not store personal data beyond anonymized summaries."
