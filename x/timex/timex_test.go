package timex

import (
	"testing"
	"time"
)

func TestNowMsTracksClock(t *testing.T) {
	before := time.Now().UnixMilli()
	got := NowMs()
	if got < before || got > time.Now().UnixMilli() {
		t.Fatalf("NowMs = %d outside [%d, now]", got, before)
	}
	if Ms(1500*time.Millisecond) != 1500 {
		t.Fatal("Ms")
	}
}
