package calendar

import (
	"encoding/json"
	"errors"
	"testing"
	"time"
)

func clock(t *testing.T, s string) Clock {
	t.Helper()
	c, err := ParseClock(s)
	if err != nil {
		t.Fatalf("parse clock %q: %v", s, err)
	}
	return c
}

func equalRangeSlices(a, b []Range) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

//
// Разбор и сериализация времени суток
//

func TestParseClock(t *testing.T) {
	cases := []struct {
		in      string
		want    Clock
		wantErr bool
	}{
		{in: "00:00", want: 0},
		{in: "09:30", want: 9*60 + 30},
		{in: "23:59", want: 23*60 + 59},
		{in: "18:00:00", want: 18 * 60},
		{in: "24:00", wantErr: true},
		{in: "9:30", wantErr: true},
		{in: "09:60", wantErr: true},
		{in: "0930", wantErr: true},
		{in: "", wantErr: true},
	}

	for _, tc := range cases {
		got, err := ParseClock(tc.in)
		if tc.wantErr {
			if !errors.Is(err, ErrInvalidClock) {
				t.Fatalf("ParseClock(%q): expected ErrInvalidClock, got %v", tc.in, err)
			}
			continue
		}
		if err != nil {
			t.Fatalf("ParseClock(%q): unexpected error %v", tc.in, err)
		}
		if got != tc.want {
			t.Fatalf("ParseClock(%q): expected %d, got %d", tc.in, tc.want, got)
		}
		if tc.in != "18:00:00" && got.String() != tc.in {
			t.Fatalf("expected String() %q, got %q", tc.in, got.String())
		}
	}
}

func TestClock_JSON(t *testing.T) {
	var payload struct {
		From Clock `json:"from"`
	}
	if err := json.Unmarshal([]byte(`{"from":"07:05"}`), &payload); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if payload.From != 7*60+5 {
		t.Fatalf("expected 07:05, got %s", payload.From)
	}

	out, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(out) != `{"from":"07:05"}` {
		t.Fatalf("unexpected json %s", out)
	}

	if err := json.Unmarshal([]byte(`{"from":"7am"}`), &payload); err == nil {
		t.Fatalf("expected error for malformed clock")
	}
}

func TestClock_ScanFromDatabaseValues(t *testing.T) {
	var c Clock
	if err := c.Scan("10:15"); err != nil || c != 10*60+15 {
		t.Fatalf("scan string: got %s, err %v", c, err)
	}
	if err := c.Scan([]byte("11:45:00")); err != nil || c != 11*60+45 {
		t.Fatalf("scan bytes: got %s, err %v", c, err)
	}
	if err := c.Scan(time.Date(0, 1, 1, 8, 20, 0, 0, time.UTC)); err != nil || c != 8*60+20 {
		t.Fatalf("scan time: got %s, err %v", c, err)
	}
	if err := c.Scan(42); err == nil {
		t.Fatalf("expected error for int scan")
	}
}

//
// Интервалы
//

func TestNewRange_Invalid(t *testing.T) {
	if _, err := ParseRange("10:00", "10:00"); !errors.Is(err, ErrInvalidTimeRange) {
		t.Fatalf("expected ErrInvalidTimeRange for empty range, got %v", err)
	}
	if _, err := ParseRange("11:00", "10:00"); !errors.Is(err, ErrInvalidTimeRange) {
		t.Fatalf("expected ErrInvalidTimeRange for swapped bounds, got %v", err)
	}
}

func TestOverlaps_SelfOverlap(t *testing.T) {
	for _, r := range []Range{
		MustRange("00:00", "00:01"),
		MustRange("09:00", "18:00"),
		MustRange("12:30", "23:59"),
	} {
		if !Overlaps(r.Start, r.End, r.Start, r.End) {
			t.Fatalf("expected %s to overlap itself", r)
		}
	}
}

func TestOverlaps_TouchingIsNotOverlap(t *testing.T) {
	a, b, c := clock(t, "09:00"), clock(t, "10:00"), clock(t, "11:00")

	if Overlaps(a, b, b, c) {
		t.Fatalf("expected touching intervals not to overlap")
	}
	if Overlaps(b, c, a, b) {
		t.Fatalf("expected touching intervals not to overlap (reversed)")
	}
}

func TestOverlaps_Partial(t *testing.T) {
	if !MustRange("10:00", "11:00").Overlaps(MustRange("10:59", "12:00")) {
		t.Fatalf("expected one minute overlap to count")
	}
	if !MustRange("10:00", "12:00").Overlaps(MustRange("10:30", "11:00")) {
		t.Fatalf("expected nested interval to overlap")
	}
}

func TestRange_ContainsBoundaryEquality(t *testing.T) {
	shift := MustRange("09:00", "18:00")

	if !shift.Contains(MustRange("09:00", "18:00")) {
		t.Fatalf("expected exact window to be contained")
	}
	if shift.Contains(MustRange("17:30", "18:30")) {
		t.Fatalf("expected 17:30-18:30 to fall outside 09:00-18:00")
	}
	if shift.Contains(MustRange("08:59", "09:30")) {
		t.Fatalf("expected early start to fall outside")
	}
}

func TestHasOverlap_NoOverlap(t *testing.T) {
	newRange := MustRange("10:00", "11:00")
	existing := []Range{MustRange("11:00", "12:00")}

	has, conflicts := HasOverlap(newRange, existing, false)
	if has {
		t.Fatalf("expected no overlap, got conflicts: %+v", conflicts)
	}
}

func TestHasOverlap_TouchInclusive(t *testing.T) {
	newRange := MustRange("10:00", "11:00")
	existing := []Range{MustRange("11:00", "12:00")}

	has, _ := HasOverlap(newRange, existing, true)
	if !has {
		t.Fatalf("expected overlap in inclusive mode")
	}
}

func TestHasOverlap_OverlapFound(t *testing.T) {
	newRange := MustRange("10:30", "11:30")
	existing := []Range{
		MustRange("09:00", "10:00"),
		MustRange("11:00", "12:00"),
	}

	has, conflicts := HasOverlap(newRange, existing, false)
	if !has {
		t.Fatalf("expected overlap, got none")
	}
	if !equalRangeSlices(conflicts, []Range{MustRange("11:00", "12:00")}) {
		t.Fatalf("unexpected conflicts %+v", conflicts)
	}
}

//
// Нарезка окна на слоты
//

func TestSplitToSlots_Basic(t *testing.T) {
	slots, err := SplitToSlots(MustRange("10:00", "12:00"), 30, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	expected := []Range{
		MustRange("10:00", "10:30"),
		MustRange("10:30", "11:00"),
		MustRange("11:00", "11:30"),
		MustRange("11:30", "12:00"),
	}
	if !equalRangeSlices(slots, expected) {
		t.Fatalf("expected %+v, got %+v", expected, slots)
	}
}

func TestSplitToSlots_StepAlignmentAndTail(t *testing.T) {
	slots, err := SplitToSlots(MustRange("10:10", "11:40"), 60, 15)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	expected := []Range{
		MustRange("10:15", "11:15"),
		MustRange("10:30", "11:30"),
	}
	if !equalRangeSlices(slots, expected) {
		t.Fatalf("expected %+v, got %+v", expected, slots)
	}
}

func TestSplitToSlots_InvalidDuration(t *testing.T) {
	if _, err := SplitToSlots(MustRange("10:00", "11:00"), 0, 0); !errors.Is(err, ErrSlotDuration) {
		t.Fatalf("expected ErrSlotDuration, got %v", err)
	}
}
