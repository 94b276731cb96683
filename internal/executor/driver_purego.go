//go:build !sqlite_cgo

package executor

// Built without the sqlite_cgo tag: pure Go SQLite, no C compiler needed.
//
//	CGO_ENABLED=0 go build ./...

import (
	_ "modernc.org/sqlite"
)

const (
	// DriverName is the database/sql driver used when none is given.
	DriverName = "sqlite"

	// BuildMode describes the current build configuration.
	BuildMode = "purego"
)
