package export

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/reelworks/timeline/internal/timeline"
)

// FormatVersion is written into every exported document.
const FormatVersion = 1

// Document is the manual export payload.
type Document struct {
	Version int               `json:"version"`
	Project *timeline.Project `json:"project"`
}

// IsEmbedded reports whether ref carries its media inline rather than
// pointing at it.
func IsEmbedded(ref string) bool {
	lower := strings.ToLower(strings.TrimSpace(ref))
	return strings.HasPrefix(lower, "data:") || strings.HasPrefix(lower, "blob:")
}

// Strip returns a copy of p with every inline media payload removed.
// External references are kept. The second result counts stripped fields.
func Strip(p *timeline.Project) (*timeline.Project, int) {
	out := p.Clone()
	n := 0
	drop := func(ref *string) {
		if IsEmbedded(*ref) {
			*ref = ""
			n++
		}
	}
	for i := range out.Assets {
		a := &out.Assets[i]
		drop(&a.URL)
		drop(&a.ThumbnailURL)
		if a.Text != nil {
			drop(&a.Text.Style.Background)
		}
		if a.Origin != nil {
			switch v := a.Origin.Provenance.(type) {
			case timeline.AIVideo:
				drop(&v.SourceImage)
				a.Origin.Provenance = v
			case timeline.Subtitle:
				drop(&v.Source)
				a.Origin.Provenance = v
			}
		}
	}
	for i := range out.Clips {
		drop(&out.Clips[i].URL)
		drop(&out.Clips[i].ThumbnailURL)
	}
	return out, n
}

// Marshal strips p and encodes it as an indented export document.
func Marshal(p *timeline.Project) ([]byte, error) {
	stripped, _ := Strip(p)
	data, err := json.MarshalIndent(Document{Version: FormatVersion, Project: stripped}, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode export document: %w", err)
	}
	return append(data, '\n'), nil
}
