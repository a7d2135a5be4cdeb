package logging

import "testing"

func TestNewProgressSampler(t *testing.T) {
	tests := []struct {
		name       string
		bucketSize float64
		wantSize   float64
	}{
		{"default bucket size for zero", 0, 5},
		{"default bucket size for negative", -1, 5},
		{"custom bucket size", 10, 10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewProgressSampler(tt.bucketSize)
			if s.bucketSize != tt.wantSize {
				t.Errorf("bucketSize = %v, want %v", s.bucketSize, tt.wantSize)
			}
			if s.lastBucket != -1 {
				t.Errorf("lastBucket = %d, want -1", s.lastBucket)
			}
		})
	}
}

func TestProgressSamplerNilSampler(t *testing.T) {
	var s *ProgressSampler
	if !s.ShouldLog(50, "unpack") {
		t.Error("ShouldLog on nil sampler should always return true")
	}
	s.Reset()
}

func TestPercent(t *testing.T) {
	tests := []struct {
		done, total int
		want        float64
	}{
		{0, 0, -1},
		{0, 4, 0},
		{1, 4, 25},
		{4, 4, 100},
		{5, 4, 100},
	}
	for _, tt := range tests {
		if got := Percent(tt.done, tt.total); got != tt.want {
			t.Errorf("Percent(%d, %d) = %v, want %v", tt.done, tt.total, got, tt.want)
		}
	}
}

func TestProgressSamplerStageChange(t *testing.T) {
	s := NewProgressSampler(5)

	if !s.ShouldLog(0, "unpack") {
		t.Error("first stage should log")
	}
	if s.ShouldLog(0, "unpack") {
		t.Error("same stage and percent should not log again")
	}
	if !s.ShouldLog(0, " extract ") {
		t.Error("different stage should log")
	}
	if s.lastStage != "extract" {
		t.Errorf("lastStage = %q, want extract (trimmed)", s.lastStage)
	}
}

func TestProgressSamplerPercentBuckets(t *testing.T) {
	s := NewProgressSampler(5)

	if !s.ShouldLog(0, "unpack") {
		t.Error("0% should log")
	}
	if s.ShouldLog(3, "unpack") {
		t.Error("3% should not log (same bucket)")
	}
	if !s.ShouldLog(5, "unpack") {
		t.Error("5% should log (new bucket)")
	}
	if s.ShouldLog(7, "unpack") {
		t.Error("7% should not log (same bucket)")
	}
	if !s.ShouldLog(100, "unpack") {
		t.Error("100% should log")
	}
	if s.ShouldLog(105, "unpack") {
		t.Error("105% should share the 100% bucket")
	}
}

func TestProgressSamplerUnknownPercent(t *testing.T) {
	s := NewProgressSampler(5)
	if !s.ShouldLog(-1, "download") {
		t.Error("first call should log even with unknown percent")
	}
	if s.ShouldLog(-1, "download") {
		t.Error("unknown percent should not trigger bucket logging")
	}
}

func TestProgressSamplerReset(t *testing.T) {
	s := NewProgressSampler(5)
	s.ShouldLog(50, "unpack")
	s.Reset()

	if s.lastStage != "" || s.lastBucket != -1 {
		t.Fatalf("unexpected state after reset: stage=%q bucket=%d", s.lastStage, s.lastBucket)
	}
	if !s.ShouldLog(50, "unpack") {
		t.Error("should log after reset")
	}
}
