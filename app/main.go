package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"math"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	tbapi "github.com/OvyFlash/telegram-bot-api"
	"github.com/fatih/color"
	"github.com/go-pkgz/lgr"
	"github.com/jessevdk/go-flags"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/naijacyber/cyberguardian/app/bot"
	"github.com/naijacyber/cyberguardian/app/events"
	"github.com/naijacyber/cyberguardian/app/storage"
	"github.com/naijacyber/cyberguardian/app/storage/engine"
	"github.com/naijacyber/cyberguardian/app/webapi"
	"github.com/naijacyber/cyberguardian/lib/guardian/lua"
)

type options struct {
	Telegram struct {
		Token        string        `long:"token" env:"TOKEN" description:"telegram bot token"`
		Timeout      time.Duration `long:"timeout" env:"TIMEOUT" default:"30s" description:"http client timeout for telegram" `
		AllowedChats []int64       `long:"chat" env:"CHATS" env-delim:"," description:"group chat ids the bot responds in, all if not set"`
	} `group:"telegram" namespace:"telegram" env-namespace:"TELEGRAM"`

	Logger struct {
		Enabled    bool   `long:"enabled" env:"ENABLED" description:"enable rotated verdict logs"`
		FileName   string `long:"file" env:"FILE"  default:"cyberguardian.log" description:"location of verdict log"`
		MaxSize    string `long:"max-size" env:"MAX_SIZE" default:"100M" description:"maximum size before it gets rotated"`
		MaxBackups int    `long:"max-backups" env:"MAX_BACKUPS" default:"10" description:"maximum number of old log files to retain"`
	} `group:"logger" namespace:"logger" env-namespace:"LOGGER"`

	Server struct {
		Enabled    bool   `long:"enabled" env:"ENABLED" description:"enable web server"`
		ListenAddr string `long:"listen" env:"LISTEN" default:":8080" description:"listen address"`
		AuthPasswd string `long:"auth" env:"AUTH" default:"" description:"basic auth password for user 'cyberguardian', 'auto' to generate"`
	} `group:"server" namespace:"server" env-namespace:"SERVER"`

	Files struct {
		Rules         string        `long:"rules" env:"RULES" default:"data/rules.yml" description:"rules file, built-in rules if missing"`
		WatchInterval time.Duration `long:"watch-interval" env:"WATCH_INTERVAL" default:"5s" description:"rules file watch delay, 0 to disable"`
		ReportsDB     string        `long:"reports-db" env:"REPORTS_DB" default:"data/reports.db" description:"reports database, file or postgres url, empty to disable"`
	} `group:"files" namespace:"files" env-namespace:"FILES"`

	Lua struct {
		Enabled    bool   `long:"enabled" env:"ENABLED" description:"enable lua scoring plugins"`
		PluginsDir string `long:"plugins-dir" env:"PLUGINS_DIR" default:"data/plugins" description:"directory with lua plugins"`
		Watch      bool   `long:"watch" env:"WATCH" description:"reload plugins on change"`
	} `group:"lua" namespace:"lua" env-namespace:"LUA"`

	SuperUsers  events.SuperUser `long:"super" env:"SUPER_USER" env-delim:"," description:"super-users, allowed to see stats"`
	MaxReports  int              `long:"max-reports" env:"MAX_REPORTS" default:"2000" description:"max number of reports to keep"`
	ReportTTL   time.Duration    `long:"report-ttl" env:"REPORT_TTL" default:"1h" description:"how long the last analysis can be reported"`
	ServerOnly  bool             `long:"server-only" env:"SERVER_ONLY" description:"run web server only, no telegram bot"`
	Dbg         bool             `long:"dbg" env:"DEBUG" description:"debug mode"`
	TGDbg       bool             `long:"tg-dbg" env:"TG_DEBUG" description:"telegram debug mode"`
	InstanceGID string           `long:"gid" env:"GID" default:"cyberguardian" description:"instance id, separates reports in a shared database"`
}

var revision = "local"

func main() {
	fmt.Printf("cyberguardian %s\n", revision)
	var opts options
	p := flags.NewParser(&opts, flags.PrintErrors|flags.PassDoubleDash|flags.HelpFlag)
	p.SubcommandsOptional = true
	if _, err := p.Parse(); err != nil {
		var flagsErr *flags.Error
		if !errors.As(err, &flagsErr) || flagsErr.Type != flags.ErrHelp {
			log.Printf("[ERROR] cli error: %v", err)
		}
		os.Exit(2)
	}

	if opts.Server.AuthPasswd == "auto" {
		passwd, err := webapi.GenerateRandomPassword(20)
		if err != nil {
			log.Printf("[ERROR] can't generate password: %v", err)
			os.Exit(1)
		}
		opts.Server.AuthPasswd = passwd
		fmt.Printf("generated basic auth password for user cyberguardian: %q\n", passwd)
	}

	setupLog(opts.Dbg, opts.Telegram.Token, opts.Server.AuthPasswd)
	log.Printf("[DEBUG] options: %+v", opts)

	ctx, cancel := context.WithCancel(context.Background())

	go func() {
		// catch signal and invoke graceful termination
		stop := make(chan os.Signal, 1)
		signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
		<-stop
		log.Printf("[WARN] interrupt signal")
		cancel()
	}()

	if err := execute(ctx, opts); err != nil {
		log.Printf("[ERROR] %v", err)
		os.Exit(1)
	}
}

func execute(ctx context.Context, opts options) error {
	if !opts.ServerOnly && opts.Telegram.Token == "" {
		return errors.New("telegram token is required, unless server-only mode is set")
	}
	if opts.ServerOnly && !opts.Server.Enabled {
		log.Print("[WARN] server-only mode enables web server")
		opts.Server.Enabled = true
	}

	reports, err := makeReports(ctx, opts)
	if err != nil {
		return fmt.Errorf("can't make reports storage, %w", err)
	}
	if reports != nil {
		defer reports.Close()
	}

	luaChecker, err := makeLuaChecker(opts)
	if err != nil {
		return fmt.Errorf("can't load lua plugins, %w", err)
	}
	if luaChecker != nil {
		defer luaChecker.Close()
	}

	guard, err := makeGuard(ctx, opts, reports, luaChecker)
	if err != nil {
		return fmt.Errorf("can't make guard bot, %w", err)
	}

	if luaChecker != nil && opts.Lua.Watch {
		watcher, werr := lua.NewWatcher(luaChecker, opts.Lua.PluginsDir)
		if werr != nil {
			return fmt.Errorf("can't make lua plugins watcher, %w", werr)
		}
		watcher.OnChange = func() {
			if rerr := guard.Reload(); rerr != nil {
				log.Printf("[WARN] can't reload rules after plugins change, %v", rerr)
			}
		}
		if werr = watcher.Start(); werr != nil {
			return fmt.Errorf("can't start lua plugins watcher, %w", werr)
		}
		defer watcher.Stop()
	}

	if opts.Server.Enabled {
		srv := webapi.NewServer(webapi.Config{
			Version:    revision,
			ListenAddr: opts.Server.ListenAddr,
			Checker:    guard,
			AuthPasswd: opts.Server.AuthPasswd,
			Dbg:        opts.Dbg,
		})
		if reports != nil {
			srv.Reports = reports
		}
		go func() {
			if err := srv.Run(ctx); err != nil {
				log.Printf("[ERROR] web server failed, %v", err)
			}
		}()
	}

	if opts.ServerOnly {
		log.Printf("[INFO] server-only mode, telegram bot disabled")
		<-ctx.Done()
		return nil
	}

	// make telegram bot
	tbAPI, err := tbapi.NewBotAPIWithClient(opts.Telegram.Token, tbapi.APIEndpoint, &http.Client{Timeout: opts.Telegram.Timeout})
	if err != nil {
		return fmt.Errorf("can't make telegram bot, %w", err)
	}
	tbAPI.Debug = opts.TGDbg

	// make verdict logger
	loggerWr, err := makeVerdictLogWriter(opts)
	if err != nil {
		return fmt.Errorf("can't make verdict log writer, %w", err)
	}
	defer loggerWr.Close()

	// make telegram listener
	tgListener := events.TelegramListener{
		TbAPI:         tbAPI,
		Bot:           guard,
		VerdictLogger: makeVerdictLogger(loggerWr),
		AllowedChats:  opts.Telegram.AllowedChats,
	}
	log.Printf("[DEBUG] telegram listener config: {allowed: %v, super: %v}", tgListener.AllowedChats, opts.SuperUsers)

	// run telegram listener and event processor loop
	if err := tgListener.Do(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("telegram listener failed, %w", err)
	}
	return nil
}

// makeReports creates reports storage. Returns nil storage if reports db is not set.
func makeReports(ctx context.Context, opts options) (*storage.Reports, error) {
	if opts.Files.ReportsDB == "" {
		log.Printf("[INFO] reports storage disabled")
		return nil, nil
	}
	connURL := opts.Files.ReportsDB
	if !strings.Contains(connURL, "://") && connURL != ":memory:" {
		connURL = expandPath(connURL)
		if err := os.MkdirAll(filepath.Dir(connURL), 0o750); err != nil {
			return nil, fmt.Errorf("can't make reports db directory, %w", err)
		}
	}
	db, err := engine.New(ctx, connURL, opts.InstanceGID)
	if err != nil {
		return nil, fmt.Errorf("can't open reports db %s, %w", opts.Files.ReportsDB, err)
	}
	res, err := storage.NewReports(ctx, db, opts.MaxReports)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	log.Printf("[INFO] reports storage: %s (%s), max %d", db.Type(), opts.InstanceGID, opts.MaxReports)
	return res, nil
}

// makeLuaChecker loads lua scoring plugins. Returns nil checker if plugins are disabled.
func makeLuaChecker(opts options) (*lua.Checker, error) {
	if !opts.Lua.Enabled {
		return nil, nil
	}
	checker := lua.NewChecker()
	if err := checker.LoadDirectory(expandPath(opts.Lua.PluginsDir)); err != nil {
		checker.Close()
		return nil, err
	}
	log.Printf("[INFO] lua plugins loaded from %s: %v", opts.Lua.PluginsDir, checker.Names())
	return checker, nil
}

func makeGuard(ctx context.Context, opts options, reports *storage.Reports, luaChecker *lua.Checker) (*bot.Guard, error) {
	params := bot.GuardParams{
		RulesFile:  expandPath(opts.Files.Rules),
		WatchDelay: opts.Files.WatchInterval,
		LastTTL:    opts.ReportTTL,
	}
	// typed nil pointers are not assigned to keep interfaces nil
	if reports != nil {
		params.Reports = reports
	}
	if len(opts.SuperUsers) > 0 {
		params.SuperUsers = opts.SuperUsers
	}
	if luaChecker != nil {
		params.Scorers = luaChecker.Scorers
	}
	log.Printf("[DEBUG] guard bot config: %+v", params)
	return bot.NewGuard(ctx, params)
}

// makeVerdictLogger creates verdict logger to keep reports about risky messages.
// It writes json lines to the provided writer, without message text and user identity.
func makeVerdictLogger(wr io.Writer) events.VerdictLogger {
	return events.VerdictLoggerFunc(func(msg *bot.Message, response *bot.Response) {
		if response.Result == nil {
			return
		}
		res := response.Result
		log.Printf("[INFO] %s message in chat %d, score %.0f%%", res.Level, msg.ChatID, res.Score)
		m := struct {
			TimeStamp         string   `json:"ts"`
			Level             string   `json:"level"`
			Score             float64  `json:"score"`
			Keywords          []string `json:"keywords"`
			SuspiciousDomains []string `json:"suspicious_domains"`
		}{
			TimeStamp:         time.Now().In(time.Local).Format(time.RFC3339),
			Level:             string(res.Level),
			Score:             math.Round(res.Score*100) / 100,
			Keywords:          res.Keywords,
			SuspiciousDomains: res.SuspiciousDomains,
		}
		line, err := json.Marshal(&m)
		if err != nil {
			log.Printf("[WARN] can't marshal json, %v", err)
			return
		}
		if _, err := wr.Write(append(line, '\n')); err != nil {
			log.Printf("[WARN] can't write to log, %v", err)
		}
	})
}

// makeVerdictLogWriter creates verdict log writer.
// it parses options and makes lumberjack logger with rotation
func makeVerdictLogWriter(opts options) (accessLog io.WriteCloser, err error) {
	if !opts.Logger.Enabled {
		return nopWriteCloser{io.Discard}, nil
	}

	maxSize, perr := sizeParse(opts.Logger.MaxSize)
	if perr != nil {
		return nil, fmt.Errorf("can't parse logger MaxSize: %w", perr)
	}

	maxSize /= 1048576

	log.Printf("[INFO] logger enabled for %s, max size %dM", opts.Logger.FileName, maxSize)
	return &lumberjack.Logger{
		Filename:   expandPath(opts.Logger.FileName),
		MaxSize:    int(maxSize), // in MB
		MaxBackups: opts.Logger.MaxBackups,
		Compress:   true,
		LocalTime:  true,
	}, nil
}

// sizeParse parses size with optional k/m/g/t suffix, case-insensitive
func sizeParse(inp string) (uint64, error) {
	if inp == "" {
		return 0, errors.New("empty value")
	}
	for i, sfx := range []string{"k", "m", "g", "t"} {
		if strings.HasSuffix(inp, strings.ToUpper(sfx)) || strings.HasSuffix(inp, strings.ToLower(sfx)) {
			val, err := strconv.Atoi(inp[:len(inp)-1])
			if err != nil {
				return 0, fmt.Errorf("can't parse %s: %w", inp, err)
			}
			return uint64(float64(val) * math.Pow(float64(1024), float64(i+1))), nil
		}
	}
	return strconv.ParseUint(inp, 10, 64)
}

// expandPath expands ~ to the home directory and makes relative paths absolute.
// Empty path stays empty, failures leave the path as is.
func expandPath(path string) string {
	if path == "" {
		return ""
	}
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, path[1:])
	}
	if filepath.IsAbs(path) {
		return path
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return path
	}
	return abs
}

type nopWriteCloser struct{ io.Writer }

func (n nopWriteCloser) Close() error { return nil }

func setupLog(dbg bool, secrets ...string) {
	logOpts := []lgr.Option{lgr.Msec, lgr.LevelBraces, lgr.StackTraceOnError}
	if dbg {
		logOpts = []lgr.Option{lgr.Debug, lgr.CallerFile, lgr.CallerFunc, lgr.Msec, lgr.LevelBraces, lgr.StackTraceOnError}
	}

	colorizer := lgr.Mapper{
		ErrorFunc:  func(s string) string { return color.New(color.FgHiRed).Sprint(s) },
		WarnFunc:   func(s string) string { return color.New(color.FgRed).Sprint(s) },
		InfoFunc:   func(s string) string { return color.New(color.FgYellow).Sprint(s) },
		DebugFunc:  func(s string) string { return color.New(color.FgWhite).Sprint(s) },
		CallerFunc: func(s string) string { return color.New(color.FgBlue).Sprint(s) },
		TimeFunc:   func(s string) string { return color.New(color.FgCyan).Sprint(s) },
	}
	logOpts = append(logOpts, lgr.Map(colorizer))

	// empty secrets would mask everything
	var nonEmpty []string
	for _, s := range secrets {
		if s != "" {
			nonEmpty = append(nonEmpty, s)
		}
	}
	if len(nonEmpty) > 0 {
		logOpts = append(logOpts, lgr.Secret(nonEmpty...))
	}
	lgr.SetupStdLogger(logOpts...)
	lgr.Setup(logOpts...)
}
