package domain

import "testing"

func ptr[T any](v T) *T { return &v }

func TestIsWarmupID(t *testing.T) {
	tests := []struct {
		id       string
		expected bool
	}{
		{"warmup", true},
		{"Warmup-1", true},
		{"pre_WARMUP_phase", true},
		{"main", false},
		{"warm-up", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			if got := IsWarmupID(tt.id); got != tt.expected {
				t.Errorf("IsWarmupID(%q) = %v, want %v", tt.id, got, tt.expected)
			}
		})
	}
}

func TestRunRecord_Variant(t *testing.T) {
	tests := []struct {
		name     string
		run      RunRecord
		expected SchemaVariant
	}{
		{"start and end", RunRecord{StartTimestamp: ptr[int64](1), EndTimestamp: ptr[int64](2)}, VariantExplicitEnd},
		{"end wins over elapsed", RunRecord{StartTimestamp: ptr[int64](1), EndTimestamp: ptr[int64](2), ElapsedTimeMs: ptr[int64](5)}, VariantExplicitEnd},
		{"start and elapsed", RunRecord{StartTimestamp: ptr[int64](1), ElapsedTimeMs: ptr[int64](5)}, VariantElapsed},
		{"legacy timestamp", RunRecord{Timestamp: ptr[int64](10), ElapsedTimeMs: ptr[int64](5)}, VariantLegacyTimestamp},
		{"start only", RunRecord{StartTimestamp: ptr[int64](1)}, VariantUnknown},
		{"empty", RunRecord{}, VariantUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.run.Variant(); got != tt.expected {
				t.Errorf("Variant() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestTimeRange(t *testing.T) {
	r := NewTimeRange(1000, 2500)
	if !r.Resolved() {
		t.Fatal("expected resolved range")
	}
	if got := r.Duration().Milliseconds(); got != 1500 {
		t.Errorf("Duration() = %dms, want 1500ms", got)
	}
	if !r.Contains(1000) || !r.Contains(2500) || r.Contains(2501) {
		t.Error("Contains() must treat both ends as inclusive")
	}

	half := TimeRange{Start: ptr[int64](5)}
	if half.Resolved() {
		t.Error("range with nil end must not be resolved")
	}
	if half.Contains(5) {
		t.Error("unresolved range must not contain anything")
	}
	if got := half.String(); got != "[5, none]" {
		t.Errorf("String() = %q", got)
	}

	inverted := NewTimeRange(2000, 1000)
	if got := inverted.Duration().Milliseconds(); got != -1000 {
		t.Errorf("inverted Duration() = %dms, want -1000ms", got)
	}
}

func TestParseTimestampUnit(t *testing.T) {
	tests := []struct {
		in       string
		expected TimestampUnit
		wantErr  bool
	}{
		{"", UnitAuto, false},
		{"auto", UnitAuto, false},
		{"s", UnitSeconds, false},
		{"Seconds", UnitSeconds, false},
		{"ms", UnitMilliseconds, false},
		{"milliseconds", UnitMilliseconds, false},
		{"hours", UnitAuto, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseTimestampUnit(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseTimestampUnit(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if got != tt.expected {
				t.Errorf("ParseTimestampUnit(%q) = %v, want %v", tt.in, got, tt.expected)
			}
		})
	}
}

func TestParseMatchMode(t *testing.T) {
	var m MatchMode
	if err := m.UnmarshalText([]byte("contains")); err != nil {
		t.Fatalf("UnmarshalText: %v", err)
	}
	if m != MatchContains {
		t.Errorf("got %v, want contains", m)
	}
	if _, err := ParseMatchMode("regex"); err == nil {
		t.Error("expected error for unknown mode")
	}
	if got, _ := ParseMatchMode(""); got != MatchPrefix {
		t.Errorf("empty mode = %v, want prefix", got)
	}
}
