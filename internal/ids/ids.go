package ids

import "github.com/segmentio/ksuid"

// New returns a sortable unique id for entity rows. KSUIDs embed their
// creation time, so lexicographic order roughly follows insertion order.
func New() string {
	return ksuid.New().String()
}
