package domain

import "time"

// LiveStatus is the classification of a hostname after protocol fallback.
type LiveStatus string

const (
	StatusLive LiveStatus = "Live"
	StatusDown LiveStatus = "Down"
)

// NoTitle is recorded when a live response carries no <title> element.
const NoTitle = "No Title"

// ProbeResult is the outcome of probing one hostname.
//
// It is created once by the prober and never mutated afterwards; the sink,
// the metrics and the redis mirror all read the same value.
type ProbeResult struct {
	// Hostname is the bare host that was probed (no scheme, no port).
	Hostname string `json:"hostname"`

	// Status is Live when one protocol answered with a live status code.
	Status LiveStatus `json:"status"`

	// Title is the page title. Empty when Down.
	Title string `json:"title"`

	// StatusCode is nil when no protocol qualified.
	StatusCode *int `json:"status_code,omitempty"`

	// Scheme is the protocol that answered ("http" or "https"), empty when Down.
	Scheme string `json:"scheme,omitempty"`

	// Duration covers every attempt made for this host.
	Duration time.Duration `json:"duration_ns"`
}

// Live builds a result for a host that answered.
func Live(hostname, title string, statusCode int, scheme string) ProbeResult {
	code := statusCode
	return ProbeResult{
		Hostname:   hostname,
		Status:     StatusLive,
		Title:      title,
		StatusCode: &code,
		Scheme:     scheme,
	}
}

// Down builds a result for a host where every protocol failed.
func Down(hostname string) ProbeResult {
	return ProbeResult{
		Hostname: hostname,
		Status:   StatusDown,
	}
}

// IsLive reports whether the host answered.
func (r ProbeResult) IsLive() bool {
	return r.Status == StatusLive
}

// Code returns the status code and whether one was recorded.
func (r ProbeResult) Code() (int, bool) {
	if r.StatusCode == nil {
		return 0, false
	}
	return *r.StatusCode, true
}

// IsLiveStatusCode reports whether a response status qualifies a protocol
// attempt. Only 200, 301 and 404 qualify; 403, 5xx and the rest do not.
func IsLiveStatusCode(code int) bool {
	switch code {
	case 200, 301, 404:
		return true
	default:
		return false
	}
}
