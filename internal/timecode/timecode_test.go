package timecode

import (
	"math"
	"testing"
)

var supportedRates = []float64{23.976, 24, 25, 29.97, 30, 50, 59.94, 60}

func TestSnap_Idempotent(t *testing.T) {
	inputs := []float64{0, 0.001, 0.5, 1.0123, 3.14159, 10.99999, 59.5, 3600.017}
	for _, fps := range supportedRates {
		for _, in := range inputs {
			once := Snap(in, fps)
			twice := Snap(once, fps)
			if once != twice {
				t.Fatalf("Snap not idempotent at fps=%v t=%v: %v != %v", fps, in, once, twice)
			}
		}
	}
}

func TestSnap_NearestFrame(t *testing.T) {
	tests := []struct {
		name string
		t    float64
		fps  float64
		want float64
	}{
		{name: "rounds down", t: 1.0123, fps: 30, want: 1.0},
		{name: "rounds up", t: 1.02, fps: 30, want: 31.0 / 30},
		{name: "exact frame", t: 0.5, fps: 24, want: 0.5},
		{name: "zero fps falls back", t: 1.0123, fps: 0, want: 1.0},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := Snap(tc.t, tc.fps)
			if math.Abs(got-tc.want) > 1e-12 {
				t.Fatalf("Snap(%v, %v) = %v, want %v", tc.t, tc.fps, got, tc.want)
			}
		})
	}
}

func TestFormatSMPTE(t *testing.T) {
	tests := []struct {
		name    string
		seconds float64
		fps     float64
		want    string
	}{
		{name: "zero", seconds: 0, fps: 30, want: "00:00:00:00"},
		{name: "one second", seconds: 1, fps: 30, want: "00:00:01:00"},
		{name: "fractional second", seconds: 0.5, fps: 30, want: "00:00:00:15"},
		{name: "one minute", seconds: 60, fps: 30, want: "00:01:00:00"},
		{name: "one hour", seconds: 3600, fps: 30, want: "01:00:00:00"},
		{name: "negative clamps", seconds: -2, fps: 25, want: "00:00:00:00"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := FormatSMPTE(tc.seconds, tc.fps); got != tc.want {
				t.Fatalf("FormatSMPTE(%v, %v) = %q, want %q", tc.seconds, tc.fps, got, tc.want)
			}
		})
	}
}

func TestIsDropFrame(t *testing.T) {
	if !IsDropFrame(29.97) || !IsDropFrame(59.94) {
		t.Fatal("expected NTSC rates to be drop frame")
	}
	if IsDropFrame(30) || IsDropFrame(24) {
		t.Fatal("integer rates must not be drop frame")
	}
}

func TestDeriveDuration(t *testing.T) {
	tests := []struct {
		name   string
		kind   MediaKind
		source float64
		in     float64
		out    float64
		speed  float64
		want   float64
	}{
		{name: "video untrimmed", kind: KindVideo, source: 10, speed: 1, want: 10},
		{name: "video trimmed", kind: KindVideo, source: 10, in: 2, out: 3, speed: 1, want: 5},
		{name: "double speed", kind: KindAudio, source: 10, speed: 2, want: 5},
		{name: "zero speed treated as normal", kind: KindMusic, source: 8, want: 8},
		{name: "over trimmed", kind: KindVideo, source: 4, in: 3, out: 3, speed: 1, want: 0},
		{name: "image default", kind: KindImage, want: DefaultImageDuration},
		{name: "text default", kind: KindText, want: DefaultTextDuration},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := DeriveDuration(tc.kind, tc.source, tc.in, tc.out, tc.speed)
			if got != tc.want {
				t.Fatalf("DeriveDuration() = %v, want %v", got, tc.want)
			}
		})
	}
}
