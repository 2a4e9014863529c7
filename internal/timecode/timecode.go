// Package timecode holds the frame arithmetic shared by the editor, the
// playback controller and the EDL exporter.
package timecode

import (
	"fmt"
	"math"
)

// DefaultFrameRate is used whenever a project carries no usable rate.
const DefaultFrameRate = 30.0

func normalize(fps float64) float64 {
	if fps <= 0 || math.IsNaN(fps) || math.IsInf(fps, 0) {
		return DefaultFrameRate
	}
	return fps
}

// Snap rounds t to the nearest whole frame at fps. Snap is idempotent:
// Snap(Snap(t, fps), fps) == Snap(t, fps).
func Snap(t, fps float64) float64 {
	fps = normalize(fps)
	return FromFrames(Frames(t, fps), fps)
}

// Frames returns the nearest whole frame index for t.
func Frames(t, fps float64) int64 {
	fps = normalize(fps)
	return int64(math.Round(t * fps))
}

// FromFrames converts a frame index back to seconds.
func FromFrames(frames int64, fps float64) float64 {
	fps = normalize(fps)
	return float64(frames) / fps
}

// FrameDuration returns the length of one frame in seconds.
func FrameDuration(fps float64) float64 {
	return 1 / normalize(fps)
}

// IsDropFrame reports whether fps is one of the NTSC drop-frame rates.
func IsDropFrame(fps float64) bool {
	return math.Abs(fps-29.97) < 0.01 || math.Abs(fps-59.94) < 0.01
}

// FormatSMPTE renders seconds as HH:MM:SS:FF using the rounded frame rate.
func FormatSMPTE(seconds, fps float64) string {
	base := int64(math.Round(normalize(fps)))
	if seconds < 0 {
		seconds = 0
	}
	totalFrames := int64(math.Round(seconds * float64(base)))
	frames := totalFrames % base
	totalSeconds := totalFrames / base
	secs := totalSeconds % 60
	totalMinutes := totalSeconds / 60
	minutes := totalMinutes % 60
	hours := totalMinutes / 60
	return fmt.Sprintf("%02d:%02d:%02d:%02d", hours, minutes, secs, frames)
}
