package app

import (
	"math"
	"testing"

	"onchainlottery/internal/state"
)

func TestComputeSplit_ConservesGross(t *testing.T) {
	cases := []struct {
		name                            string
		gross, feePercent, start, draw  uint64
		wantPlatform, wantBonus         uint64
	}{
		{"five percent", 50, 5, 2, 1, 2, 45},
		{"truncating fee", 30, 5, 2, 1, 1, 26},
		{"one percent floor", 99, 1, 0, 0, 0, 99},
		{"large pool", 1_000_000, 10, 500, 500, 100_000, 899_000},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			sp, err := computeSplit(tc.gross, tc.feePercent, tc.start, tc.draw)
			if err != nil {
				t.Fatalf("computeSplit: %v", err)
			}
			if sp.PlatformFee != tc.wantPlatform {
				t.Fatalf("platform: got %d want %d", sp.PlatformFee, tc.wantPlatform)
			}
			if sp.Bonus != tc.wantBonus {
				t.Fatalf("bonus: got %d want %d", sp.Bonus, tc.wantBonus)
			}
			if sum := sp.PlatformFee + sp.StartFee + sp.DrawFee + sp.Bonus; sum != tc.gross {
				t.Fatalf("split does not conserve gross: %d != %d", sum, tc.gross)
			}
		})
	}
}

func TestComputeSplit_RejectsZeroBonus(t *testing.T) {
	// 5% of 50 is 2; fees 2+40+8 == 50 leave nothing for the winner.
	if _, err := computeSplit(50, 5, 40, 8); err == nil {
		t.Fatalf("expected exact-exhaustion split to fail")
	}
	if _, err := computeSplit(50, 5, 40, 10); err == nil {
		t.Fatalf("expected over-exhaustion split to fail")
	}
}

func TestComputeSplit_OverflowRejected(t *testing.T) {
	if _, err := computeSplit(math.MaxUint64, 99, 0, 0); err == nil {
		t.Fatalf("expected gross*feePercent overflow to fail")
	}
	if _, err := computeSplit(100, 5, math.MaxUint64, 1); err == nil {
		t.Fatalf("expected fee-total overflow to fail")
	}
}

func TestBuildPayouts_FixedOrderAndMemos(t *testing.T) {
	g := &state.Game{ID: 7, Starter: "starter"}
	sp := Split{PlatformFee: 2, StartFee: 3, DrawFee: 1, Bonus: 44}

	intents := buildPayouts(g, sp, "platform", "drawer", "winner")
	if len(intents) != 4 {
		t.Fatalf("expected 4 intents, got %d", len(intents))
	}
	want := []PayoutIntent{
		{To: "platform", Amount: 2, Memo: "game 7 platform fee"},
		{To: "starter", Amount: 3, Memo: "game 7 start fee"},
		{To: "drawer", Amount: 1, Memo: "game 7 draw fee"},
		{To: "winner", Amount: 44, Memo: "game 7 bonus"},
	}
	for i := range want {
		if intents[i] != want[i] {
			t.Fatalf("intent %d: got %+v want %+v", i, intents[i], want[i])
		}
	}
}

func TestExecutePayouts_FailsOnShortPool(t *testing.T) {
	st := state.NewState()
	if err := st.Credit(state.PoolAccount, 10); err != nil {
		t.Fatalf("credit: %v", err)
	}
	_, err := executePayouts(st, []PayoutIntent{{To: "winner", Amount: 11, Memo: "m"}})
	if err == nil {
		t.Fatalf("expected short pool to fail")
	}
}

func FuzzComputeSplit_ConservesGross(f *testing.F) {
	f.Add(uint64(50), uint64(5), uint64(2), uint64(1))
	f.Add(uint64(30), uint64(5), uint64(2), uint64(1))
	f.Add(uint64(1), uint64(99), uint64(0), uint64(0))
	f.Fuzz(func(t *testing.T, gross, feePercent, start, draw uint64) {
		sp, err := computeSplit(gross, feePercent, start, draw)
		if err != nil {
			return
		}
		if sp.Bonus == 0 {
			t.Fatalf("accepted split with zero bonus: %+v", sp)
		}
		sum, err := addUint64Checked(sp.PlatformFee, sp.StartFee, "sum")
		if err == nil {
			sum, err = addUint64Checked(sum, sp.DrawFee, "sum")
		}
		if err == nil {
			sum, err = addUint64Checked(sum, sp.Bonus, "sum")
		}
		if err != nil {
			t.Fatalf("accepted split overflows when recombined: %+v", sp)
		}
		if sum != gross {
			t.Fatalf("split does not conserve gross: %d != %d (%+v)", sum, gross, sp)
		}
	})
}
