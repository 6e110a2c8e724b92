package app

import "onchainlottery/internal/state"

// isTimedOut reports whether the inactivity window has elapsed since the last
// purchase. A game with no purchases yet never times out: LastActivityAt is
// reset to zero when a game starts, and zero short-circuits to false, so an
// untouched game cannot be force-stopped.
func isTimedOut(tr state.Tracking, windowSecs uint64, nowUnix int64) bool {
	if tr.LastActivityAt <= 0 {
		return false
	}
	if nowUnix <= tr.LastActivityAt {
		return false
	}
	return uint64(nowUnix-tr.LastActivityAt) > windowSecs
}
