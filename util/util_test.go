package util_test

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/nasa-jpl/seraph/util"
)

func ExampleSetBit32_msb() {
	out := util.SetBit32(0, 31, true)
	fmt.Printf("%08x\n", out)
	// Output: 80000000
}

func ExampleSetBit32_lsb() {
	out := util.SetBit32(0xFF, 0, false)
	fmt.Printf("%08b\n", out)
	// Output: 11111110
}

func ExampleSetField8() {
	out := util.SetField8(0b0101, 1, 1)
	fmt.Printf("%04b\n", out)
	// Output: 0111
}

func TestGetBit32(t *testing.T) {
	w := uint32(0x00004800)
	for _, idx := range []uint{11, 14} {
		if !util.GetBit32(w, idx) {
			t.Errorf("expected bit %d of %08x to be set", idx, w)
		}
	}
	if util.GetBit32(w, 12) {
		t.Errorf("expected bit 12 of %08x to be clear", w)
	}
}

func TestLowMask(t *testing.T) {
	cases := map[int]uint32{0: 0, 1: 1, 8: 0xFF, 18: 0x3FFFF, 32: 0xFFFFFFFF, 40: 0xFFFFFFFF}
	for n, expected := range cases {
		if got := util.LowMask(n); got != expected {
			t.Errorf("expected %08x got %08x for n=%d", expected, got, n)
		}
	}
}

func TestClampHigh(t *testing.T) {
	clamped := util.Clamp(300, -200, 200)
	if clamped != 200 {
		t.Errorf("expected out of range value to be clipped to 200, got %d", clamped)
	}
}

func TestClampLow(t *testing.T) {
	clamped := util.Clamp(-300, -200, 200)
	if clamped != -200 {
		t.Errorf("expected out of range value to be clipped to -200, got %d", clamped)
	}
}

func TestPollGivesUpAfterBudget(t *testing.T) {
	var (
		calls  int
		sleeps []time.Duration
	)
	ok := util.Poll(10, time.Millisecond, func(d time.Duration) { sleeps = append(sleeps, d) }, func() bool {
		calls++
		return false
	})
	if ok {
		t.Error("expected Poll to report not ready")
	}
	if calls != 10 {
		t.Errorf("expected 10 tries got %d", calls)
	}
	if len(sleeps) != 9 {
		t.Errorf("expected 9 sleeps got %d", len(sleeps))
	}
	for _, d := range sleeps {
		if d != time.Millisecond {
			t.Errorf("expected sleeps of 1ms got %v", d)
		}
	}
}

func TestPollStopsWhenReady(t *testing.T) {
	calls := 0
	ok := util.Poll(5, time.Millisecond, func(time.Duration) {}, func() bool {
		calls++
		return calls == 3
	})
	if !ok {
		t.Error("expected Poll to report ready")
	}
	if calls != 3 {
		t.Errorf("expected 3 tries got %d", calls)
	}
}

func TestPollSingleTry(t *testing.T) {
	calls := 0
	util.Poll(1, time.Hour, func(time.Duration) { t.Error("single try must not sleep") }, func() bool {
		calls++
		return false
	})
	if calls != 1 {
		t.Errorf("expected 1 try got %d", calls)
	}
}

func TestRetryEventuallySucceeds(t *testing.T) {
	n := 0
	err := util.Retry(func() error {
		n++
		if n < 2 {
			return errors.New("not yet")
		}
		return nil
	}, time.Second)
	if err != nil {
		t.Errorf("expected nil error got %v", err)
	}
}
