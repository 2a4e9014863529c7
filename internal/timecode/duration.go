package timecode

// Default on-timeline lengths for media without an intrinsic duration.
const (
	DefaultImageDuration = 5.0
	DefaultTextDuration  = 3.0
)

// MediaKind mirrors the asset types that matter for duration derivation.
type MediaKind string

const (
	KindVideo MediaKind = "video"
	KindAudio MediaKind = "audio"
	KindMusic MediaKind = "music"
	KindImage MediaKind = "image"
	KindText  MediaKind = "text"
)

// DeriveDuration computes the timeline length of a placed media unit from
// its source length, trims and speed factor. Stills and text fall back to
// their defaults when the source length is unknown. The result is never
// negative.
func DeriveDuration(kind MediaKind, sourceDuration, trimIn, trimOut, speed float64) float64 {
	if speed <= 0 {
		speed = 1
	}
	switch kind {
	case KindImage:
		if sourceDuration > 0 {
			return sourceDuration
		}
		return DefaultImageDuration
	case KindText:
		if sourceDuration > 0 {
			return sourceDuration
		}
		return DefaultTextDuration
	}

	remaining := sourceDuration - trimIn - trimOut
	if remaining <= 0 {
		return 0
	}
	return remaining / speed
}
