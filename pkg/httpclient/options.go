package httpclient

import (
	"net/http"
	"strings"
)

// ProtocolSet is a bitmask of URL schemes a handle may talk to.
type ProtocolSet uint8

const (
	ProtoHTTP ProtocolSet = 1 << iota
	ProtoHTTPS
)

// Allows reports whether scheme is part of the set. Matching is case-insensitive.
func (p ProtocolSet) Allows(scheme string) bool {
	switch strings.ToLower(scheme) {
	case "http":
		return p&ProtoHTTP != 0
	case "https":
		return p&ProtoHTTPS != 0
	default:
		return false
	}
}

func (p ProtocolSet) String() string {
	var names []string
	if p&ProtoHTTPS != 0 {
		names = append(names, "https")
	}
	if p&ProtoHTTP != 0 {
		names = append(names, "http")
	}
	if len(names) == 0 {
		return "none"
	}
	return strings.Join(names, "|")
}

// HeaderFunc receives every raw response header line, trailing CRLF included.
// It must return len(line); any other value aborts the transfer.
type HeaderFunc func(line string) int

// Options is the full configuration applied to a Handle before Perform.
type Options struct {
	URL             string
	Method          string
	Protocols       ProtocolSet
	FollowRedirects bool
	// Header holds outbound header lines formatted as "Name: Value".
	Header     []string
	HeaderFunc HeaderFunc
}

// baselineOptions is what a handle without native reset is restored to.
func baselineOptions() Options {
	return Options{Method: http.MethodGet}
}
