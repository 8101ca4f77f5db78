package assetgate

import (
	"context"
	"io"
	"net/http"
	"time"
)

// ObjectStore is the read-only view of the bucket served by assetgate.
// Implementations must be safe for concurrent use.
type ObjectStore interface {
	// Get retrieves the object stored under key.
	//
	// Returns:
	//   - *Object: the object, whose Body the caller must close
	//   - error: ErrNotFound if key does not exist, otherwise a storage
	//     failure (normally a *StorageError)
	Get(ctx context.Context, key string) (*Object, error)
}

// HTTPMetadata holds the standard HTTP headers stored alongside an object.
type HTTPMetadata struct {
	ContentType        string
	ContentLanguage    string
	ContentDisposition string
	ContentEncoding    string
	CacheControl       string
	Expires            time.Time
}

// Object is a single stored blob returned by an ObjectStore.
type Object struct {
	Key  string
	Body io.ReadCloser
	Size int64
	// ETag is the content hash of the object, without quotes.
	ETag         string
	LastModified time.Time
	Metadata     HTTPMetadata
}

// HTTPETag returns the ETag quoted for use in an HTTP header.
func (o *Object) HTTPETag() string {
	if o.ETag == "" {
		return ""
	}
	return `"` + o.ETag + `"`
}

// WriteHTTPMetadata copies the stored HTTP metadata into h.
// Empty fields are left untouched.
func (o *Object) WriteHTTPMetadata(h http.Header) {
	m := o.Metadata
	if m.ContentType != "" {
		h.Set("Content-Type", m.ContentType)
	}
	if m.ContentLanguage != "" {
		h.Set("Content-Language", m.ContentLanguage)
	}
	if m.ContentDisposition != "" {
		h.Set("Content-Disposition", m.ContentDisposition)
	}
	if m.ContentEncoding != "" {
		h.Set("Content-Encoding", m.ContentEncoding)
	}
	if m.CacheControl != "" {
		h.Set("Cache-Control", m.CacheControl)
	}
	if !m.Expires.IsZero() {
		h.Set("Expires", m.Expires.UTC().Format(http.TimeFormat))
	}
	if !o.LastModified.IsZero() {
		h.Set("Last-Modified", o.LastModified.UTC().Format(http.TimeFormat))
	}
}

// Verdict is the outcome of classifying a request path.
type Verdict int

const (
	// VerdictAllowed means the path may be fetched from storage.
	VerdictAllowed Verdict = iota
	// VerdictBlocked means the path looks like a scanner probe.
	VerdictBlocked
	// VerdictNotAllowedExtension means the path does not end in a served asset extension.
	VerdictNotAllowedExtension
)

func (v Verdict) String() string {
	switch v {
	case VerdictAllowed:
		return "allowed"
	case VerdictBlocked:
		return "blocked"
	case VerdictNotAllowedExtension:
		return "not_allowed_extension"
	default:
		return "unknown"
	}
}

// Classification is the result of Classify.
// Reason is set for blocked paths, Key for allowed ones.
type Classification struct {
	Verdict Verdict
	Reason  string
	Key     string
}
