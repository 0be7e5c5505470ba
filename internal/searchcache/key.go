package searchcache

import (
	"math"
	"net/url"
	"sort"
	"strconv"
	"strings"
)

// coordPrecision is the number of decimal degrees kept when a location is
// folded into a cache key. Four decimals is roughly 11 m, coarse enough
// that GPS jitter maps to the same key while genuinely different areas
// do not.
const coordPrecision = 4

// BuildKey derives the canonical cache key for a search.
//
// The query is case-folded and trimmed, the location (if any) is snapped to
// coordPrecision decimals, and params (if any) are serialized in sorted-name
// order. Each part is percent-escaped before joining so the "|" separator
// cannot occur inside a part and a crafted query cannot collide with a
// location-only key. Pure function; an empty query still yields a valid key.
func BuildKey(query string, loc *LatLng, params map[string]string) string {
	var b strings.Builder
	b.WriteString("q:")
	b.WriteString(url.QueryEscape(NormalizeQuery(query)))

	if loc != nil {
		b.WriteString("|loc:")
		b.WriteString(formatCoord(loc.Lat))
		b.WriteByte(',')
		b.WriteString(formatCoord(loc.Lng))
	}

	if len(params) > 0 {
		names := make([]string, 0, len(params))
		for name := range params {
			names = append(names, name)
		}
		sort.Strings(names)

		b.WriteString("|p:")
		for i, name := range names {
			if i > 0 {
				b.WriteByte('&')
			}
			b.WriteString(url.QueryEscape(name))
			b.WriteByte('=')
			b.WriteString(url.QueryEscape(params[name]))
		}
	}

	return b.String()
}

// NormalizeQuery produces the diagnostic form of a query: trimmed and
// case-folded. The same form is embedded (escaped) in the cache key.
func NormalizeQuery(query string) string {
	return strings.ToLower(strings.TrimSpace(query))
}

// SnapLocation rounds a location to the precision used in keys, so callers
// can store the same coordinates the key was derived from.
func SnapLocation(loc *LatLng) *LatLng {
	if loc == nil {
		return nil
	}
	return &LatLng{
		Lat: roundCoord(loc.Lat),
		Lng: roundCoord(loc.Lng),
	}
}

func formatCoord(v float64) string {
	return strconv.FormatFloat(roundCoord(v), 'f', coordPrecision, 64)
}

func roundCoord(v float64) float64 {
	const scale = 1e4 // 10^coordPrecision
	return math.Round(v*scale) / scale
}
