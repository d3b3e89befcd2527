package util

import (
	"fmt"
	"sort"
	"strings"
)

// FormatStats renders a stats map as "key: value" lines sorted by key.
// Nested maps are indented beneath their key.
func FormatStats(stats map[string]interface{}) string {
	var builder strings.Builder
	writeStats(&builder, stats, "")
	return builder.String()
}

func writeStats(builder *strings.Builder, stats map[string]interface{}, indent string) {
	keys := make([]string, 0, len(stats))
	for k := range stats {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		switch v := stats[k].(type) {
		case map[string]interface{}:
			fmt.Fprintf(builder, "%s%s:\n", indent, k)
			writeStats(builder, v, indent+"  ")
		case map[string]map[string]interface{}:
			fmt.Fprintf(builder, "%s%s:\n", indent, k)
			nested := make(map[string]interface{}, len(v))
			for name, inner := range v {
				nested[name] = inner
			}
			writeStats(builder, nested, indent+"  ")
		default:
			fmt.Fprintf(builder, "%s%s: %v\n", indent, k, v)
		}
	}
}
