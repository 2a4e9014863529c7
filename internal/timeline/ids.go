package timeline

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// IDGenerator produces a fresh identifier for a new entity of the given type.
type IDGenerator func(prefix string, now time.Time) string

// NewID returns an id of the form <prefix>_<unixMillis>_<random9>.
func NewID(prefix string, now time.Time) string {
	random := strings.ReplaceAll(uuid.NewString(), "-", "")
	return fmt.Sprintf("%s_%d_%s", prefix, now.UnixMilli(), random[:9])
}
