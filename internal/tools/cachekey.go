// ABOUTME: Cache key policy for cacheable tools.
// ABOUTME: Keys combine the tool name with a name-based UUID of the canonical argument JSON.

package tools

import (
	"encoding/json"

	"github.com/google/uuid"
)

var cacheNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("dataverse-mcp/tools"))

// CacheKey returns the cache key for a call. encoding/json sorts map keys,
// so argument order does not affect the key.
func CacheKey(tool string, args Arguments) string {
	data, err := json.Marshal(args)
	if err != nil || len(args) == 0 {
		data = []byte("{}")
	}
	return tool + ":" + uuid.NewSHA1(cacheNamespace, data).String()
}
