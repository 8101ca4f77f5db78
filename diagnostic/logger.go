// Package diagnostic emits structured events for anomalous asset requests:
// blocked bot probes, storage failures, slow requests and large assets.
//
// A Logger is created per request and captures a RequestContext once, so
// every event of that request carries the same snapshot. Emission is best
// effort and never fails the request.
package diagnostic

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/sagarc03/assetgate"
)

const (
	DefaultSlowRequestThreshold = 100 * time.Millisecond
	DefaultLargeAssetThreshold  = 5_000_000

	ThreatLevelMedium = "medium"
	ActionBlocked     = "blocked"
)

// Thresholds gate the slow request and large asset events. Both are strict:
// a value equal to the threshold does not emit.
type Thresholds struct {
	SlowRequest time.Duration
	LargeAsset  int64
}

// DefaultThresholds returns 100ms and 5,000,000 bytes.
func DefaultThresholds() Thresholds {
	return Thresholds{
		SlowRequest: DefaultSlowRequestThreshold,
		LargeAsset:  DefaultLargeAssetThreshold,
	}
}

// Config is shared by all per-request loggers.
type Config struct {
	Sink       Sink
	Thresholds Thresholds
	// ClientIPHeader and CountryHeader name the request headers holding
	// the client address and country code.
	ClientIPHeader string
	CountryHeader  string
	// Now defaults to time.Now.
	Now func() time.Time
}

// Logger emits diagnostic events for a single request.
type Logger struct {
	sink       Sink
	thresholds Thresholds
	now        func() time.Time
	start      time.Time
	request    RequestContext
}

// New captures the request context and start time for r.
func New(r *http.Request, cfg Config) *Logger {
	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	thresholds := cfg.Thresholds
	if thresholds.SlowRequest <= 0 {
		thresholds.SlowRequest = DefaultSlowRequestThreshold
	}
	if thresholds.LargeAsset <= 0 {
		thresholds.LargeAsset = DefaultLargeAssetThreshold
	}

	return &Logger{
		sink:       cfg.Sink,
		thresholds: thresholds,
		now:        now,
		start:      now(),
		request:    NewRequestContext(r, cfg.ClientIPHeader, cfg.CountryHeader),
	}
}

// Request returns the snapshot taken when the logger was created.
func (l *Logger) Request() RequestContext {
	return l.request
}

// BotAttack records a blocked probe. It always emits.
func (l *Logger) BotAttack(ctx context.Context, attackType string) {
	l.emit(ctx, EventBotAttack, l.elapsed(), Security{
		AttackType:  attackType,
		ThreatLevel: ThreatLevelMedium,
		Action:      ActionBlocked,
	})
}

// StorageError records a failed storage lookup for key.
func (l *Logger) StorageError(ctx context.Context, key string, err error) {
	if err == nil {
		return
	}
	l.emit(ctx, EventStorageError, l.elapsed(), StorageFailure{
		Message: err.Error(),
		Kind:    assetgate.KindOf(err),
		Key:     key,
	})
}

// SlowRequest emits when total exceeds the slow request threshold.
func (l *Logger) SlowRequest(ctx context.Context, total time.Duration, timings ...Timing) {
	if total <= l.thresholds.SlowRequest {
		return
	}
	l.emit(ctx, EventSlowRequest, total, Performance{
		Threshold: l.thresholds.SlowRequest,
		Duration:  total,
		Timings:   timings,
	})
}

// LargeAsset emits when size exceeds the large asset threshold.
func (l *Logger) LargeAsset(ctx context.Context, key string, size int64, fetch time.Duration) {
	if size <= l.thresholds.LargeAsset {
		return
	}
	l.emit(ctx, EventLargeAsset, l.elapsed(), LargeAsset{
		Key:           key,
		SizeBytes:     size,
		FetchDuration: fetch,
	})
}

func (l *Logger) elapsed() time.Duration {
	return l.now().Sub(l.start)
}

func (l *Logger) emit(ctx context.Context, typ EventType, elapsed time.Duration, payload Payload) {
	if l.sink == nil {
		return
	}

	defer func() {
		if rec := recover(); rec != nil {
			slog.Warn("diagnostic sink panicked", "event", typ, "panic", rec)
		}
	}()

	l.sink.Emit(ctx, Event{
		Type:      typ,
		Timestamp: l.now(),
		Elapsed:   elapsed,
		Request:   l.request,
		Payload:   payload,
	})
}
