package app

import (
	"math"
	"testing"
)

func TestAddUint64Checked(t *testing.T) {
	if got, err := addUint64Checked(1, 2, "x"); err != nil || got != 3 {
		t.Fatalf("add 1+2: got %d err %v", got, err)
	}
	if got, err := addUint64Checked(math.MaxUint64, 0, "x"); err != nil || got != math.MaxUint64 {
		t.Fatalf("add max+0: got %d err %v", got, err)
	}
	if _, err := addUint64Checked(math.MaxUint64, 1, "x"); err == nil {
		t.Fatalf("expected overflow error")
	}
}

func TestMulUint64Checked(t *testing.T) {
	if got, err := mulUint64Checked(3, 7, "x"); err != nil || got != 21 {
		t.Fatalf("mul 3*7: got %d err %v", got, err)
	}
	if got, err := mulUint64Checked(0, math.MaxUint64, "x"); err != nil || got != 0 {
		t.Fatalf("mul 0*max: got %d err %v", got, err)
	}
	if got, err := mulUint64Checked(math.MaxUint64, 1, "x"); err != nil || got != math.MaxUint64 {
		t.Fatalf("mul max*1: got %d err %v", got, err)
	}
	if _, err := mulUint64Checked(math.MaxUint64, 2, "x"); err == nil {
		t.Fatalf("expected overflow error")
	}
}
