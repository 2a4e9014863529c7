// Package media applies the upload acceptance policy to incoming files.
package media

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/reelworks/timeline/internal/catalog"
)

// Decision is the outcome of an upload policy check. Rejections carry a
// human readable reason; accepted files may still need a proxy.
type Decision struct {
	Accepted    bool   `json:"accepted"`
	Reason      string `json:"reason,omitempty"`
	NeedsProxy  bool   `json:"needs_proxy"`
	ProxyReason string `json:"proxy_reason,omitempty"`
	Extension   string `json:"extension"`
}

// CheckUpload evaluates a file of the given media kind (video, audio,
// music, image). It never fails: every problem is reported in the Decision.
func CheckUpload(kind, filename string, size int64) Decision {
	kind = strings.ToLower(strings.TrimSpace(kind))
	ext := strings.ToLower(filepath.Ext(filename))
	d := Decision{Extension: ext}

	limit, ok := catalog.MaxUploadBytes(kind)
	if !ok {
		d.Reason = fmt.Sprintf("media kind %q cannot be uploaded", kind)
		return d
	}
	if size <= 0 {
		d.Reason = "file is empty"
		return d
	}
	if ext == "" || !catalog.AcceptsFormat(kind, ext) {
		d.Reason = fmt.Sprintf("format %q is not supported for %s", ext, kind)
		return d
	}
	if size > limit {
		d.Reason = fmt.Sprintf("file is %s, %s uploads are limited to %s",
			humanize.IBytes(uint64(size)), kind, humanize.IBytes(uint64(limit)))
		return d
	}

	d.Accepted = true
	switch {
	case catalog.IsProxyFormat(ext):
		d.NeedsProxy = true
		d.ProxyReason = fmt.Sprintf("%s is a professional format", ext)
	case size > catalog.ProxyThresholdBytes():
		d.NeedsProxy = true
		d.ProxyReason = fmt.Sprintf("file exceeds %s", humanize.IBytes(uint64(catalog.ProxyThresholdBytes())))
	}
	return d
}
