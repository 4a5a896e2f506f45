package members

import "github.com/nikmy/txprop/pkg/errors"

// LogFailMarker in a username makes the log repository fail after its insert.
const LogFailMarker = "logfail"

var ErrLogFailed = errors.Error("log is broken")

type Member struct {
	ID       int64  `db:"id" json:"id"`
	Username string `db:"username" json:"username"`
}

type Log struct {
	ID      int64  `db:"id" json:"id"`
	Message string `db:"message" json:"message"`
}
