package diagnostic

import (
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/sagarc03/assetgate"
)

// EventType tags a diagnostic event.
type EventType string

const (
	EventBotAttack    EventType = "bot_attack_detected"
	EventStorageError EventType = "r2_operation_failed"
	EventSlowRequest  EventType = "slow_request_detected"
	EventLargeAsset   EventType = "large_asset_served"
)

const (
	unknown            = "unknown"
	maxUserAgentLength = 50
)

// RequestContext is the request snapshot attached to every event of a request.
type RequestContext struct {
	Path      string
	ClientIP  string
	UserAgent string
	Country   string
}

// NewRequestContext captures r. Client address and country are read from
// the named headers; missing values become "unknown".
func NewRequestContext(r *http.Request, clientIPHeader, countryHeader string) RequestContext {
	return RequestContext{
		Path:      r.URL.Path,
		ClientIP:  headerOrUnknown(r, clientIPHeader),
		UserAgent: truncate(headerOrUnknown(r, "User-Agent"), maxUserAgentLength),
		Country:   headerOrUnknown(r, countryHeader),
	}
}

func (rc RequestContext) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("path", rc.Path),
		slog.String("client_ip", rc.ClientIP),
		slog.String("user_agent", rc.UserAgent),
		slog.String("cf_country", rc.Country),
	)
}

// Event is one diagnostic record.
type Event struct {
	Type      EventType
	Timestamp time.Time
	// Elapsed is the time since the request started, or the measured total
	// duration for slow request events.
	Elapsed time.Duration
	Request RequestContext
	Payload Payload
}

// Payload is the event specific part of an Event.
type Payload interface {
	Attrs() []slog.Attr
}

// Security is the payload of EventBotAttack.
type Security struct {
	AttackType  string
	ThreatLevel string
	Action      string
}

func (p Security) Attrs() []slog.Attr {
	return []slog.Attr{
		slog.Group("security",
			slog.String("attack_type", p.AttackType),
			slog.String("threat_level", p.ThreatLevel),
			slog.String("action", p.Action),
		),
	}
}

// StorageFailure is the payload of EventStorageError.
type StorageFailure struct {
	Message string
	Kind    assetgate.ErrorKind
	Key     string
}

func (p StorageFailure) Attrs() []slog.Attr {
	return []slog.Attr{
		slog.Group("error",
			slog.String("message", p.Message),
			slog.String("type", string(p.Kind)),
		),
		slog.Group("asset", slog.String("key", p.Key)),
	}
}

// Timing is a named duration reported alongside a slow request.
type Timing struct {
	Name     string
	Duration time.Duration
}

// Performance is the payload of EventSlowRequest.
type Performance struct {
	Threshold time.Duration
	Duration  time.Duration
	Timings   []Timing
}

func (p Performance) Attrs() []slog.Attr {
	attrs := []any{
		slog.String("threshold_exceeded", formatMillis(p.Threshold)),
		slog.String("actual_duration", formatMillis(p.Duration)),
	}
	for _, t := range p.Timings {
		attrs = append(attrs, slog.Float64(t.Name, millis(t.Duration)))
	}
	return []slog.Attr{slog.Group("performance", attrs...)}
}

// LargeAsset is the payload of EventLargeAsset.
type LargeAsset struct {
	Key           string
	SizeBytes     int64
	FetchDuration time.Duration
}

// SizeMB returns the size in mebibytes rounded to two decimals.
func (p LargeAsset) SizeMB() float64 {
	return math.Round(float64(p.SizeBytes)/1024/1024*100) / 100
}

func (p LargeAsset) Attrs() []slog.Attr {
	return []slog.Attr{
		slog.Group("asset",
			slog.String("key", p.Key),
			slog.Int64("size_bytes", p.SizeBytes),
			slog.Float64("size_mb", p.SizeMB()),
			slog.Float64("r2_fetch_time_ms", millis(p.FetchDuration)),
		),
	}
}

func millis(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}

func formatMillis(d time.Duration) string {
	return strconv.FormatFloat(millis(d), 'f', -1, 64) + "ms"
}

func headerOrUnknown(r *http.Request, name string) string {
	if name == "" {
		return unknown
	}
	if v := r.Header.Get(name); v != "" {
		return v
	}
	return unknown
}

func truncate(s string, n int) string {
	runes := 0
	for i := range s {
		if runes == n {
			return s[:i]
		}
		runes++
	}
	return s
}
