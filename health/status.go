// Package health provides health status reporting for services and the system
package health

import (
	"regexp"
	"strings"
	"time"
)

// Pre-compiled regexes for error message sanitization (performance optimization)
var (
	httpURLRegex     = regexp.MustCompile(`https?://[^\s]+`)
	wsURLRegex       = regexp.MustCompile(`wss?://[^\s]+`)
	unixPathRegex    = regexp.MustCompile(`/[a-zA-Z0-9/_.-]+`)
	windowsPathRegex = regexp.MustCompile(`[A-Z]:\\[^:\s]+`)
	ipAddrRegex      = regexp.MustCompile(`\b\d{1,3}\.\d{1,3}\.\d{1,3}\.\d{1,3}\b`)
	portRegex        = regexp.MustCompile(`:\d{2,5}\b`)
	credentialRegex  = regexp.MustCompile(`(?i)(password|token|key|secret|credential)[^a-zA-Z]*[:=][^,\s}]+`)
)

// Status represents the health state of a service or the whole system
type Status struct {
	Service     string         `json:"service"`
	Healthy     bool           `json:"healthy"` // true if status is "healthy"
	Status      string         `json:"status"`  // "healthy", "unhealthy", "degraded"
	Message     string         `json:"message"`
	Timestamp   time.Time      `json:"timestamp"`
	Details     map[string]any `json:"details,omitempty"`
	SubStatuses []Status       `json:"sub_statuses,omitempty"`
}

// The three reportable states, ordered from best to worst. Aggregation
// picks the worst state present among the sub-statuses.
const (
	stateHealthy   = "healthy"
	stateDegraded  = "degraded"
	stateUnhealthy = "unhealthy"
)

func newStatus(service, state, message string) Status {
	return Status{
		Service:   service,
		Healthy:   state == stateHealthy,
		Status:    state,
		Message:   message,
		Timestamp: time.Now(),
	}
}

// NewHealthy reports service as fully operational
func NewHealthy(service, message string) Status {
	return newStatus(service, stateHealthy, message)
}

// NewUnhealthy reports service as failed
func NewUnhealthy(service, message string) Status {
	return newStatus(service, stateUnhealthy, message)
}

// NewDegraded reports service as operating below normal. Degraded
// counts as not healthy for the Healthy flag but ranks above unhealthy
// when aggregating.
func NewDegraded(service, message string) Status {
	return newStatus(service, stateDegraded, message)
}

// Aggregate rolls a set of per-service statuses into one system status.
// The worst sub-state wins: any unhealthy service makes the system
// unhealthy, otherwise any degraded service makes it degraded. The
// inputs are copied into SubStatuses on the result.
func Aggregate(service string, subStatuses []Status) Status {
	if len(subStatuses) == 0 {
		return NewHealthy(service, "no services reporting")
	}

	worst := stateHealthy
	for _, sub := range subStatuses {
		switch {
		case sub.IsUnhealthy():
			worst = stateUnhealthy
		case sub.IsDegraded() && worst == stateHealthy:
			worst = stateDegraded
		}
	}

	message := map[string]string{
		stateHealthy:   "all services healthy",
		stateDegraded:  "some services degraded",
		stateUnhealthy: "some services unhealthy",
	}[worst]

	agg := newStatus(service, worst, message)
	agg.SubStatuses = append([]Status(nil), subStatuses...)
	return agg
}

// IsHealthy returns true if the status is healthy
func (s Status) IsHealthy() bool {
	return s.Status == stateHealthy
}

// IsDegraded returns true if the status is degraded
func (s Status) IsDegraded() bool {
	return s.Status == stateDegraded
}

// IsUnhealthy returns true if the status is unhealthy
func (s Status) IsUnhealthy() bool {
	return s.Status == stateUnhealthy
}

// WithDetails returns a copy of the status with service-specific details attached
func (s Status) WithDetails(details map[string]any) Status {
	if len(details) == 0 {
		return s
	}
	merged := make(map[string]any, len(s.Details)+len(details))
	for k, v := range s.Details {
		merged[k] = v
	}
	for k, v := range details {
		merged[k] = v
	}
	s.Details = merged
	return s
}

// WithSubStatus adds a sub-status and returns a copy
func (s Status) WithSubStatus(subStatus Status) Status {
	// Create a new slice to avoid sharing the underlying array
	newSubStatuses := make([]Status, len(s.SubStatuses), len(s.SubStatuses)+1)
	copy(newSubStatuses, s.SubStatuses)
	s.SubStatuses = append(newSubStatuses, subStatus)
	return s
}

// Sanitized returns a copy of the status with its message scrubbed of
// potentially sensitive information. Health snapshots cross the IPC
// bridge to the player UI, so URLs, file paths, addresses, and anything
// credential-shaped must not leak through error messages.
//
// Sanitization patterns:
//   - URLs (http://, https://, ws://, wss://) → [URL]
//   - File paths (Unix: /path/to/file, Windows: C:\path\to\file) → [PATH]
//   - IP addresses (192.168.1.100) → [IP]
//   - Port numbers (:8080) → [PORT]
//   - Credentials (password=X, token=X, key=X, secret=X) → [REDACTED]
func (s Status) Sanitized() Status {
	s.Message = sanitizeMessage(s.Message)
	if len(s.SubStatuses) > 0 {
		subs := make([]Status, len(s.SubStatuses))
		for i, sub := range s.SubStatuses {
			subs[i] = sub.Sanitized()
		}
		s.SubStatuses = subs
	}
	return s
}

func sanitizeMessage(msg string) string {
	if msg == "" {
		return ""
	}

	sanitized := msg

	// Remove URLs first (before paths, as they contain paths)
	sanitized = httpURLRegex.ReplaceAllString(sanitized, "[URL]")
	sanitized = wsURLRegex.ReplaceAllString(sanitized, "[URL]")

	// Remove file paths (Unix and Windows)
	sanitized = unixPathRegex.ReplaceAllString(sanitized, "[PATH]")
	sanitized = windowsPathRegex.ReplaceAllString(sanitized, "[PATH]")

	// Remove IP addresses and port numbers
	sanitized = ipAddrRegex.ReplaceAllString(sanitized, "[IP]")
	sanitized = portRegex.ReplaceAllString(sanitized, "[PORT]")

	// Remove potential credentials - check against lowercase but replace in original case
	lower := strings.ToLower(sanitized)
	if strings.Contains(lower, "password") || strings.Contains(lower, "token") ||
		strings.Contains(lower, "key") || strings.Contains(lower, "secret") ||
		strings.Contains(lower, "credential") {
		sanitized = credentialRegex.ReplaceAllString(sanitized, "[REDACTED]")
	}

	return sanitized
}
