package httpclient

import (
	"fmt"
	"sort"
	"strings"
)

// headerCutset matches the characters stripped around header keys and values.
const headerCutset = " \t\r\n\x00\x0b"

// headerCollector accumulates response header lines into a map.
// Lines without a colon (the status line, the blank terminator) are skipped,
// as are lines whose key is empty after trimming. Later values win.
type headerCollector struct {
	headers map[string]string
}

func newHeaderCollector() *headerCollector {
	return &headerCollector{headers: make(map[string]string)}
}

func (c *headerCollector) line(raw string) int {
	key, value, ok := strings.Cut(raw, ":")
	if !ok {
		return len(raw)
	}
	key = strings.Trim(key, headerCutset)
	if key == "" {
		return len(raw)
	}
	c.headers[key] = strings.Trim(value, headerCutset)
	return len(raw)
}

// formatHeaders renders request headers as "Name: Value" lines in key order.
func formatHeaders(headers map[string]string) []string {
	if len(headers) == 0 {
		return nil
	}
	keys := make([]string, 0, len(headers))
	for k := range headers {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	lines := make([]string, 0, len(keys))
	for _, k := range keys {
		lines = append(lines, fmt.Sprintf("%s: %s", k, headers[k]))
	}
	return lines
}
