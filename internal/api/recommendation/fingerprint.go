package recommendation

import (
	"strconv"

	"github.com/cespare/xxhash/v2"
	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/FACorreiaa/go-family-activity-suggestions/internal/types"
)

// ProfileFingerprint identifies the inputs a result was resolved from.
// FamilyID is left out: it is the cache key, not an input.
func ProfileFingerprint(p types.FamilyProfile) string {
	p.FamilyID = uuid.Nil
	raw, err := json.Marshal(p)
	if err != nil {
		return ""
	}
	return strconv.FormatUint(xxhash.Sum64(raw), 16)
}
