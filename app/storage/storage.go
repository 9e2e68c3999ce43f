// Package storage keeps anonymized analysis reports in sql databases (sqlite or postgres).
// Database access goes through engine.SQL, each table is represented by a struct with the business logic
// for its data type. Message text and user identity are never stored.
package storage
