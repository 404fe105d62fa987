package ranking

import (
	"fmt"

	"github.com/tidwall/gjson"
)

// Keys of the vanilla stats file layout:
//
//	{"stats": {"minecraft:custom": {"minecraft:deaths": 7, ...}, ...}, "DataVersion": 3953}
const (
	statsKey  = "stats"
	customKey = "minecraft:custom"
	deathsKey = "minecraft:deaths"
)

// ParseFunc extracts the ranked metric from a raw record.
type ParseFunc func(raw []byte) (int64, error)

// ParseDeaths extracts the death count from a stats file. A player that has
// never died has no deaths key, which yields 0. A record without the stats or
// custom sections is malformed.
func ParseDeaths(raw []byte) (int64, error) {
	if !gjson.ValidBytes(raw) {
		return 0, fmt.Errorf("%w: invalid json", ErrMalformedRecord)
	}

	stats := gjson.GetBytes(raw, statsKey)
	if !stats.IsObject() {
		return 0, fmt.Errorf("%w: missing %q object", ErrMalformedRecord, statsKey)
	}

	custom, ok := stats.Map()[customKey]
	if !ok || !custom.IsObject() {
		return 0, fmt.Errorf("%w: missing %q object", ErrMalformedRecord, customKey)
	}

	deaths, ok := custom.Map()[deathsKey]
	if !ok {
		return 0, nil
	}
	if deaths.Type != gjson.Number {
		return 0, fmt.Errorf("%w: %q is not a number", ErrMalformedRecord, deathsKey)
	}
	if v := deaths.Int(); v >= 0 {
		return v, nil
	}
	return 0, fmt.Errorf("%w: negative %q", ErrMalformedRecord, deathsKey)
}
