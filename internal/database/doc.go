// Package database opens the optional Postgres connection used by the
// snapshot store. Settings are parsed by pgx and served to database/sql
// through the pgx stdlib adapter.
package database
