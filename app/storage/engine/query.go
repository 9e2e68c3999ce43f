package engine

import (
	"fmt"
	"sync"
)

// DBCmd is a database command id, each table package defines its own range
type DBCmd int

// Query is a sql statement in both supported dialects
type Query struct {
	Sqlite   string
	Postgres string
}

// QueryMap maps commands to dialect-specific queries
type QueryMap struct {
	queries map[DBCmd]Query
}

// NewQueryMap makes an empty QueryMap
func NewQueryMap() *QueryMap {
	return &QueryMap{queries: make(map[DBCmd]Query)}
}

// Add sets queries for a command, returns the map for chaining
func (q *QueryMap) Add(cmd DBCmd, query Query) *QueryMap {
	q.queries[cmd] = query
	return q
}

// AddSame sets one query for both dialects
func (q *QueryMap) AddSame(cmd DBCmd, query string) *QueryMap {
	return q.Add(cmd, Query{Sqlite: query, Postgres: query})
}

// Pick returns the query of the command for the database type
func (q *QueryMap) Pick(dbType Type, cmd DBCmd) (string, error) {
	query, ok := q.queries[cmd]
	if !ok {
		return "", fmt.Errorf("unsupported command type %d", cmd)
	}
	switch dbType {
	case Sqlite:
		return query.Sqlite, nil
	case Postgres:
		return query.Postgres, nil
	default:
		return "", fmt.Errorf("unsupported database type %q", dbType)
	}
}

// RWLocker is a read-write locker, *sync.RWMutex for sqlite and NoopLocker for postgres
type RWLocker interface {
	sync.Locker
	RLock()
	RUnlock()
}

// NoopLocker does nothing, used for engines handling concurrent writes themselves
type NoopLocker struct{}

// Lock does nothing
func (NoopLocker) Lock() {}

// Unlock does nothing
func (NoopLocker) Unlock() {}

// RLock does nothing
func (NoopLocker) RLock() {}

// RUnlock does nothing
func (NoopLocker) RUnlock() {}
