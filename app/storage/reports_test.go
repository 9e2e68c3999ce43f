package storage

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/naijacyber/cyberguardian/app/storage/engine"
	"github.com/naijacyber/cyberguardian/lib/riskcheck"
)

func (s *StorageTestSuite) TestReports_NewReports() {
	ctx := context.Background()
	for _, dbt := range s.getTestDB() {
		db := dbt.DB
		s.Run(fmt.Sprintf("with %s", db.Type()), func() {
			s.Run("create new table", func() {
				r, err := NewReports(ctx, db, 0)
				s.Require().NoError(err)
				defer db.Exec("DROP TABLE reports")
				s.Equal(DefaultMaxReports, r.maxEntries)

				var count int
				err = db.Get(&count, `SELECT COUNT(*) FROM reports`)
				s.Require().NoError(err)
				s.Equal(0, count) // empty but exists
			})

			s.Run("existing table kept", func() {
				r, err := NewReports(ctx, db, 10)
				s.Require().NoError(err)
				defer db.Exec("DROP TABLE reports")
				s.Require().NoError(r.Add(ctx, Report{Level: riskcheck.LevelHigh, Score: 80}))

				r2, err := NewReports(ctx, db, 10)
				s.Require().NoError(err)
				st, err := r2.Stats(ctx)
				s.Require().NoError(err)
				s.Equal(1, st.Total)
			})

			s.Run("nil db connection", func() {
				_, err := NewReports(ctx, nil, 0)
				s.Require().Error(err)
				s.Contains(err.Error(), "db connection is nil")
			})

			s.Run("context cancelled", func() {
				ctx, cancel := context.WithCancel(context.Background())
				cancel()
				_, err := NewReports(ctx, db, 0)
				s.Require().Error(err)
				defer db.Exec("DROP TABLE reports")
			})
		})
	}
}

func (s *StorageTestSuite) TestReports_AddAndLast() {
	ctx := context.Background()
	for _, dbt := range s.getTestDB() {
		db := dbt.DB
		s.Run(fmt.Sprintf("with %s", db.Type()), func() {
			reports, err := NewReports(ctx, db, 0)
			s.Require().NoError(err)
			defer db.Exec("DROP TABLE reports")

			ts := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
			err = reports.Add(ctx, Report{Time: ts, Score: 70, Level: riskcheck.LevelHigh,
				Keywords: []string{"bvn", "urgent"}, DomainCount: 2, SuspiciousDomains: []string{"bit.ly"}})
			s.Require().NoError(err)
			err = reports.Add(ctx, Report{Time: ts.Add(time.Minute), Score: 40, Level: riskcheck.LevelMedium,
				Keywords: []string{"otp"}})
			s.Require().NoError(err)

			res, err := reports.Last(ctx, 10)
			s.Require().NoError(err)
			s.Require().Len(res, 2)

			s.Equal(riskcheck.LevelMedium, res[0].Level, "newest first")
			s.Equal([]string{"otp"}, res[0].Keywords)
			s.Equal([]string{}, res[0].SuspiciousDomains)
			s.Equal(0, res[0].DomainCount)

			s.Equal(riskcheck.LevelHigh, res[1].Level)
			s.InDelta(70.0, res[1].Score, 0.001)
			s.Equal([]string{"bvn", "urgent"}, res[1].Keywords)
			s.Equal(2, res[1].DomainCount)
			s.Equal([]string{"bit.ly"}, res[1].SuspiciousDomains)
			s.True(ts.Equal(res[1].Time), "time %v", res[1].Time)
			s.Positive(res[1].ID)

			s.Run("limit", func() {
				res, err := reports.Last(ctx, 1)
				s.Require().NoError(err)
				s.Require().Len(res, 1)
				s.Equal(riskcheck.LevelMedium, res[0].Level)
			})

			s.Run("zero limit", func() {
				res, err := reports.Last(ctx, 0)
				s.Require().NoError(err)
				s.Empty(res)
			})

			s.Run("zero time set on add", func() {
				s.Require().NoError(reports.Add(ctx, Report{Level: riskcheck.LevelLow}))
				res, err := reports.Last(ctx, 1)
				s.Require().NoError(err)
				s.Require().Len(res, 1)
				s.WithinDuration(time.Now(), res[0].Time, time.Minute)
			})
		})
	}
}

func (s *StorageTestSuite) TestReports_Trim() {
	ctx := context.Background()
	for _, dbt := range s.getTestDB() {
		db := dbt.DB
		s.Run(fmt.Sprintf("with %s", db.Type()), func() {
			reports, err := NewReports(ctx, db, 3)
			s.Require().NoError(err)
			defer db.Exec("DROP TABLE reports")

			for i := 0; i < 5; i++ {
				err := reports.Add(ctx, Report{Score: float64(i * 10), Level: riskcheck.LevelLow})
				s.Require().NoError(err)
			}

			res, err := reports.Last(ctx, 10)
			s.Require().NoError(err)
			s.Require().Len(res, 3)
			s.InDelta(40.0, res[0].Score, 0.001)
			s.InDelta(30.0, res[1].Score, 0.001)
			s.InDelta(20.0, res[2].Score, 0.001)
		})
	}
}

func (s *StorageTestSuite) TestReports_Stats() {
	ctx := context.Background()
	for _, dbt := range s.getTestDB() {
		db := dbt.DB
		s.Run(fmt.Sprintf("with %s", db.Type()), func() {
			reports, err := NewReports(ctx, db, 0)
			s.Require().NoError(err)
			defer db.Exec("DROP TABLE reports")

			st, err := reports.Stats(ctx)
			s.Require().NoError(err)
			s.Equal(0, st.Total)
			s.Equal(map[riskcheck.Level]int{riskcheck.LevelLow: 0, riskcheck.LevelMedium: 0, riskcheck.LevelHigh: 0},
				st.ByLevel)

			for _, lvl := range []riskcheck.Level{riskcheck.LevelHigh, riskcheck.LevelHigh, riskcheck.LevelMedium} {
				s.Require().NoError(reports.Add(ctx, Report{Level: lvl}))
			}
			st, err = reports.Stats(ctx)
			s.Require().NoError(err)
			s.Equal(3, st.Total)
			s.Equal(2, st.ByLevel[riskcheck.LevelHigh])
			s.Equal(1, st.ByLevel[riskcheck.LevelMedium])
			s.Equal(0, st.ByLevel[riskcheck.LevelLow])
		})
	}
}

func TestReports_GroupIsolation(t *testing.T) {
	ctx := context.Background()
	dbFile := filepath.Join(t.TempDir(), "reports.db")

	db1, err := engine.NewSqlite(dbFile, "gr1")
	require.NoError(t, err)
	defer db1.Close()
	db2, err := engine.NewSqlite(dbFile, "gr2")
	require.NoError(t, err)
	defer db2.Close()

	r1, err := NewReports(ctx, db1, 0)
	require.NoError(t, err)
	r2, err := NewReports(ctx, db2, 1)
	require.NoError(t, err)

	require.NoError(t, r1.Add(ctx, Report{Level: riskcheck.LevelHigh}))
	require.NoError(t, r1.Add(ctx, Report{Level: riskcheck.LevelHigh}))
	require.NoError(t, r2.Add(ctx, Report{Level: riskcheck.LevelLow}))
	require.NoError(t, r2.Add(ctx, Report{Level: riskcheck.LevelMedium}))

	st1, err := r1.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, st1.Total, "trim of gr2 doesn't touch gr1")
	assert.Equal(t, 2, st1.ByLevel[riskcheck.LevelHigh])

	st2, err := r2.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, st2.Total)
	assert.Equal(t, 1, st2.ByLevel[riskcheck.LevelMedium])
}

func (s *StorageTestSuite) TestReports_Concurrent() {
	ctx := context.Background()
	for _, dbt := range s.getTestDB() {
		db := dbt.DB
		s.Run(fmt.Sprintf("with %s", db.Type()), func() {
			reports, err := NewReports(ctx, db, 50)
			s.Require().NoError(err)
			defer db.Exec("DROP TABLE reports")

			var wg sync.WaitGroup
			for i := 0; i < 10; i++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					for j := 0; j < 10; j++ {
						s.NoError(reports.Add(ctx, Report{Level: riskcheck.LevelMedium, Keywords: []string{"otp"}}))
						_, err := reports.Last(ctx, 5)
						s.NoError(err)
					}
				}()
			}
			wg.Wait()

			st, err := reports.Stats(ctx)
			s.Require().NoError(err)
			s.Equal(50, st.Total)
		})
	}
}

func (s *StorageTestSuite) TestNewReport() {
	res := riskcheck.Result{Score: 70, Level: riskcheck.LevelHigh, Keywords: []string{"bvn"},
		Domains: []string{"bit.ly", "example.com"}, SuspiciousDomains: []string{"bit.ly"}}
	rep := NewReport(res)
	s.Equal(riskcheck.LevelHigh, rep.Level)
	s.InDelta(70.0, rep.Score, 0.001)
	s.Equal([]string{"bvn"}, rep.Keywords)
	s.Equal(2, rep.DomainCount)
	s.Equal([]string{"bit.ly"}, rep.SuspiciousDomains)
	s.WithinDuration(time.Now(), rep.Time, time.Second)

	res.Keywords[0] = "changed"
	s.Equal([]string{"bvn"}, rep.Keywords, "report doesn't share slices with result")
}
