package cache

import (
	"net/url"
	"sort"
	"strings"
)

// KeyPrefix is the namespace shared by every cache key.
const KeyPrefix = "vectra"

// Key identifies a cached API response.
type Key struct {
	// Scope separates deployments sharing one Redis (usually the API host).
	Scope string

	// Endpoint is the API path relative to the version segment (e.g. "detections/42").
	Endpoint string

	// Params are the query parameters of the request.
	Params url.Values
}

// String generates a deterministic cache key string.
// Format: vectra:scope:endpoint:param1=val1:param2=a,b
//
// Example:
//
//	vectra:brain.example.com:detections:page_size=50:state=active
func (k Key) String() string {
	parts := []string{k.namespace() + ":" + strings.Trim(k.Endpoint, "/")}

	if len(k.Params) > 0 {
		names := make([]string, 0, len(k.Params))
		for name := range k.Params {
			names = append(names, name)
		}
		sort.Strings(names)

		for _, name := range names {
			parts = append(parts, name+"="+strings.Join(k.Params[name], ","))
		}
	}

	return strings.Join(parts, ":")
}

// InvalidationPrefixes returns the key prefixes a write to the endpoint
// makes stale. A write invalidates the whole collection of its resource,
// list and detail reads alike, under the plural collection name the read
// endpoints use: "assignment/5" yields "vectra:scope:assignments".
// Tag writes also cover the tagged entity, whose details embed its tags:
// "tagging/detection/42" yields "vectra:scope:tagging/detection" and
// "vectra:scope:detections".
func (k Key) InvalidationPrefixes() []string {
	segments := strings.Split(strings.Trim(k.Endpoint, "/"), "/")
	ns := k.namespace() + ":"

	if segments[0] == "tagging" && len(segments) > 1 {
		return []string{
			ns + "tagging/" + segments[1],
			ns + collection(segments[1]),
		}
	}
	return []string{ns + collection(segments[0])}
}

// collection maps a resource segment to its plural collection name.
func collection(segment string) string {
	if strings.HasSuffix(segment, "s") {
		return segment
	}
	return segment + "s"
}

func (k Key) namespace() string {
	if k.Scope == "" {
		return KeyPrefix
	}
	return KeyPrefix + ":" + k.Scope
}
