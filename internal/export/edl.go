package export

import (
	"fmt"
	"path"
	"sort"
	"strings"

	"github.com/reelworks/timeline/internal/timecode"
	"github.com/reelworks/timeline/internal/timeline"
)

// Event is one EDL edit decision.
type Event struct {
	Reel      string
	Track     string
	ClipName  string
	MediaPath string
	SourceIn  float64
	SourceOut float64
	RecordIn  float64
	RecordOut float64
	Effect    string
}

// Events lists the visible assets with media as EDL events in record
// order. Text assets are skipped.
func Events(p *timeline.Project) []Event {
	var events []Event
	for i := range p.Assets {
		a := &p.Assets[i]
		if !a.Visible() || a.Type == timeline.AssetText || a.URL == "" {
			continue
		}
		speed := a.Speed
		if speed <= 0 {
			speed = 1
		}
		name := a.Name
		if name == "" {
			name = path.Base(a.URL)
		}
		ev := Event{
			Reel:      "AX",
			Track:     trackCode(a),
			ClipName:  SanitizeName(name, 64),
			MediaPath: a.URL,
			SourceIn:  a.TrimStart,
			SourceOut: a.TrimStart + a.Duration*speed,
			RecordIn:  a.StartTime,
			RecordOut: a.End(),
		}
		if a.Transition != nil {
			ev.Effect = fmt.Sprintf("%s %.2fs", a.Transition.Type, a.Transition.Duration)
		}
		events = append(events, ev)
	}
	sort.SliceStable(events, func(i, j int) bool {
		if events[i].RecordIn != events[j].RecordIn {
			return events[i].RecordIn < events[j].RecordIn
		}
		return events[i].Track < events[j].Track
	})
	return events
}

func trackCode(a *timeline.Asset) string {
	prefix := "V"
	if a.TrackKind == timeline.TrackAudio {
		prefix = "A"
	}
	if a.Track == 0 {
		return prefix
	}
	return fmt.Sprintf("%s%d", prefix, a.Track+1)
}

// GenerateEDL renders the project as a CMX3600 edit decision list.
func GenerateEDL(p *timeline.Project) string {
	fps := p.FPS()

	lines := []string{fmt.Sprintf("TITLE: %s", SanitizeName(p.Name, 70))}
	if timecode.IsDropFrame(fps) {
		lines = append(lines, "FCM: DROP FRAME")
	} else {
		lines = append(lines, "FCM: NON-DROP FRAME")
	}
	lines = append(lines, "")

	for i, ev := range Events(p) {
		lines = append(lines,
			fmt.Sprintf("%03d  %-8s %-5s C        %s %s %s %s", i+1, ev.Reel, ev.Track,
				timecode.FormatSMPTE(ev.SourceIn, fps), timecode.FormatSMPTE(ev.SourceOut, fps),
				timecode.FormatSMPTE(ev.RecordIn, fps), timecode.FormatSMPTE(ev.RecordOut, fps)),
			fmt.Sprintf("* FROM CLIP NAME:  %s", ev.ClipName),
			fmt.Sprintf("* MEDIA PATH:  %s", ev.MediaPath),
		)
		if ev.Effect != "" {
			lines = append(lines, fmt.Sprintf("* TRANSITION:  %s", ev.Effect))
		}
	}

	lines = append(lines, "")
	return strings.Join(lines, "\n")
}
