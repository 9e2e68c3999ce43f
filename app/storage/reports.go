package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/naijacyber/cyberguardian/app/storage/engine"
	"github.com/naijacyber/cyberguardian/lib/riskcheck"
)

// DefaultMaxReports is the number of most recent reports kept by default
const DefaultMaxReports = 2000

// Reports is a storage for anonymized analysis reports
type Reports struct {
	*engine.SQL
	engine.RWLocker
	maxEntries int
}

// Report is an anonymized summary of a single analysis, without message text and user identity
type Report struct {
	ID                int64           `json:"id"`
	Time              time.Time       `json:"time"`
	Score             float64         `json:"score"`
	Level             riskcheck.Level `json:"level"`
	Keywords          []string        `json:"keywords"`
	DomainCount       int             `json:"domain_count"`
	SuspiciousDomains []string        `json:"suspicious_domains"`
}

// Stats is a summary of stored reports
type Stats struct {
	Total   int                     `json:"total"`
	ByLevel map[riskcheck.Level]int `json:"by_level"`
}

// reportRow is a db representation of Report, lists are kept as json arrays
type reportRow struct {
	ID                int64     `db:"id"`
	GID               string    `db:"gid"`
	Time              time.Time `db:"report_time"`
	Score             float64   `db:"score"`
	Level             string    `db:"level"`
	Keywords          string    `db:"keywords"`
	DomainCount       int       `db:"domain_count"`
	SuspiciousDomains string    `db:"suspicious_domains"`
}

// reports-related command constants
const (
	CmdCreateReportsTable engine.DBCmd = iota + 500
	CmdCreateReportsIndexes
	CmdAddReport
	CmdTrimReports
	CmdLastReports
	CmdCountReportsByLevel
)

// reportsQueries holds all reports-related queries
var reportsQueries = engine.NewQueryMap().
	Add(CmdCreateReportsTable, engine.Query{
		Sqlite: `CREATE TABLE IF NOT EXISTS reports (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            gid TEXT NOT NULL DEFAULT '',
            report_time TIMESTAMP,
            score REAL NOT NULL DEFAULT 0,
            level TEXT NOT NULL DEFAULT '',
            keywords TEXT NOT NULL DEFAULT '[]',
            domain_count INTEGER NOT NULL DEFAULT 0,
            suspicious_domains TEXT NOT NULL DEFAULT '[]'
        )`,
		Postgres: `CREATE TABLE IF NOT EXISTS reports (
            id SERIAL PRIMARY KEY,
            gid TEXT NOT NULL DEFAULT '',
            report_time TIMESTAMP,
            score DOUBLE PRECISION NOT NULL DEFAULT 0,
            level TEXT NOT NULL DEFAULT '',
            keywords TEXT NOT NULL DEFAULT '[]',
            domain_count INTEGER NOT NULL DEFAULT 0,
            suspicious_domains TEXT NOT NULL DEFAULT '[]'
        )`,
	}).
	AddSame(CmdCreateReportsIndexes, `
        CREATE INDEX IF NOT EXISTS idx_reports_gid_id ON reports(gid, id DESC);
        CREATE INDEX IF NOT EXISTS idx_reports_gid_level ON reports(gid, level);
    `).
	AddSame(CmdAddReport, "INSERT INTO reports (gid, report_time, score, level, keywords, domain_count, suspicious_domains) "+
		"VALUES (:gid, :report_time, :score, :level, :keywords, :domain_count, :suspicious_domains)").
	AddSame(CmdTrimReports, "DELETE FROM reports WHERE gid = ? AND id NOT IN "+
		"(SELECT id FROM reports WHERE gid = ? ORDER BY id DESC LIMIT ?)").
	AddSame(CmdLastReports, "SELECT * FROM reports WHERE gid = ? ORDER BY id DESC LIMIT ?").
	AddSame(CmdCountReportsByLevel, "SELECT level, COUNT(*) AS cnt FROM reports WHERE gid = ? GROUP BY level")

// NewReports creates a new Reports storage keeping up to maxEntries most recent reports.
// Non-positive maxEntries means DefaultMaxReports.
func NewReports(ctx context.Context, db *engine.SQL, maxEntries int) (*Reports, error) {
	if db == nil {
		return nil, fmt.Errorf("db connection is nil")
	}
	if maxEntries <= 0 {
		maxEntries = DefaultMaxReports
	}
	res := &Reports{SQL: db, RWLocker: db.MakeLock(), maxEntries: maxEntries}
	cfg := engine.TableConfig{
		Name:          "reports",
		CreateTable:   CmdCreateReportsTable,
		CreateIndexes: CmdCreateReportsIndexes,
		MigrateFunc:   res.migrate,
		QueriesMap:    reportsQueries,
	}
	if err := engine.InitTable(ctx, db, cfg); err != nil {
		return nil, fmt.Errorf("failed to init reports storage: %w", err)
	}
	return res, nil
}

// migrate is a no-op, the table has a single schema version so far
func (r *Reports) migrate(_ context.Context, _ *sqlx.Tx, _ string) error {
	return nil
}

// NewReport makes an anonymized report from the analysis result
func NewReport(res riskcheck.Result) Report {
	return Report{
		Time:              time.Now(),
		Score:             res.Score,
		Level:             res.Level,
		Keywords:          append([]string{}, res.Keywords...),
		DomainCount:       len(res.Domains),
		SuspiciousDomains: append([]string{}, res.SuspiciousDomains...),
	}
}

// Add stores the report and removes the oldest ones above the limit
func (r *Reports) Add(ctx context.Context, report Report) error {
	r.Lock()
	defer r.Unlock()

	if report.Time.IsZero() {
		report.Time = time.Now()
	}
	row, err := r.toRow(report)
	if err != nil {
		return err
	}

	query, err := reportsQueries.Pick(r.Type(), CmdAddReport)
	if err != nil {
		return fmt.Errorf("failed to get insert query: %w", err)
	}
	if _, err := r.NamedExecContext(ctx, query, row); err != nil {
		return fmt.Errorf("failed to insert report: %w", err)
	}
	log.Printf("[INFO] report added: level:%s, score:%.0f, keywords:%d, domains:%d",
		report.Level, report.Score, len(report.Keywords), report.DomainCount)

	if err := r.trim(ctx); err != nil {
		log.Printf("[WARN] failed to cleanup old reports: %v", err)
	}
	return nil
}

// Last returns up to limit most recent reports, newest first
func (r *Reports) Last(ctx context.Context, limit int) ([]Report, error) {
	r.RLock()
	defer r.RUnlock()

	if limit <= 0 {
		return []Report{}, nil
	}
	query, err := reportsQueries.Pick(r.Type(), CmdLastReports)
	if err != nil {
		return nil, fmt.Errorf("failed to get query: %w", err)
	}

	var rows []reportRow
	if err := r.SelectContext(ctx, &rows, r.Adopt(query), r.GID(), limit); err != nil {
		return nil, fmt.Errorf("failed to get reports: %w", err)
	}
	res := make([]Report, 0, len(rows))
	for _, row := range rows {
		rep, err := fromRow(row)
		if err != nil {
			return nil, err
		}
		res = append(res, rep)
	}
	return res, nil
}

// Stats returns the total number of stored reports and counts per level
func (r *Reports) Stats(ctx context.Context) (Stats, error) {
	r.RLock()
	defer r.RUnlock()

	query, err := reportsQueries.Pick(r.Type(), CmdCountReportsByLevel)
	if err != nil {
		return Stats{}, fmt.Errorf("failed to get query: %w", err)
	}
	var counts []struct {
		Level string `db:"level"`
		Count int    `db:"cnt"`
	}
	if err := r.SelectContext(ctx, &counts, r.Adopt(query), r.GID()); err != nil {
		return Stats{}, fmt.Errorf("failed to get reports stats: %w", err)
	}

	res := Stats{ByLevel: map[riskcheck.Level]int{
		riskcheck.LevelLow: 0, riskcheck.LevelMedium: 0, riskcheck.LevelHigh: 0,
	}}
	for _, c := range counts {
		res.ByLevel[riskcheck.Level(c.Level)] = c.Count
		res.Total += c.Count
	}
	return res, nil
}

// trim removes reports beyond the max entries, called under the write lock
func (r *Reports) trim(ctx context.Context) error {
	query, err := reportsQueries.Pick(r.Type(), CmdTrimReports)
	if err != nil {
		return fmt.Errorf("failed to get query: %w", err)
	}
	res, err := r.ExecContext(ctx, r.Adopt(query), r.GID(), r.GID(), r.maxEntries)
	if err != nil {
		return fmt.Errorf("failed to delete old reports: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n > 0 {
		log.Printf("[DEBUG] removed %d old reports", n)
	}
	return nil
}

func (r *Reports) toRow(report Report) (reportRow, error) {
	kw, err := json.Marshal(nonNil(report.Keywords))
	if err != nil {
		return reportRow{}, fmt.Errorf("failed to marshal keywords: %w", err)
	}
	sd, err := json.Marshal(nonNil(report.SuspiciousDomains))
	if err != nil {
		return reportRow{}, fmt.Errorf("failed to marshal suspicious domains: %w", err)
	}
	return reportRow{
		GID:               r.GID(),
		Time:              report.Time.UTC(),
		Score:             report.Score,
		Level:             string(report.Level),
		Keywords:          string(kw),
		DomainCount:       report.DomainCount,
		SuspiciousDomains: string(sd),
	}, nil
}

func fromRow(row reportRow) (Report, error) {
	res := Report{ID: row.ID, Time: row.Time, Score: row.Score, Level: riskcheck.Level(row.Level), DomainCount: row.DomainCount}
	if err := json.Unmarshal([]byte(row.Keywords), &res.Keywords); err != nil {
		return Report{}, fmt.Errorf("failed to unmarshal keywords of report %d: %w", row.ID, err)
	}
	if err := json.Unmarshal([]byte(row.SuspiciousDomains), &res.SuspiciousDomains); err != nil {
		return Report{}, fmt.Errorf("failed to unmarshal suspicious domains of report %d: %w", row.ID, err)
	}
	return res, nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
