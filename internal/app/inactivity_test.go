package app

import (
	"testing"

	"onchainlottery/internal/state"
)

func TestIsTimedOut(t *testing.T) {
	cases := []struct {
		name   string
		last   int64
		window uint64
		now    int64
		want   bool
	}{
		{"no activity yet", 0, 600, 99_999, false},
		{"exactly at window", 1000, 600, 1600, false},
		{"one past window", 1000, 600, 1601, true},
		{"well within window", 1000, 600, 1100, false},
		{"clock behind last activity", 1000, 600, 900, false},
		{"zero window one second later", 1000, 0, 1001, true},
		{"same instant", 1000, 600, 1000, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			tr := state.Tracking{CurrentGameID: 1, LastActivityAt: tc.last}
			if got := isTimedOut(tr, tc.window, tc.now); got != tc.want {
				t.Fatalf("isTimedOut(last=%d window=%d now=%d): got %v want %v",
					tc.last, tc.window, tc.now, got, tc.want)
			}
		})
	}
}
