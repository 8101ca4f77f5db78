// Package http serves assetgate assets over HTTP.
//
// Every GET or HEAD request runs the same pipeline:
//
//  1. Suspicious paths get 403 with a 7 day cache directive and a
//     bot_attack_detected event. Storage is never touched.
//  2. Paths without a served asset extension get 404 with a 30 minute
//     cache directive and no event.
//  3. Everything else is looked up in the ObjectStore under the path minus
//     its leading "/". A miss is 404 (5 minutes), a hit is 200 with the
//     object's metadata, its ETag and a one year immutable directive, and a
//     storage failure is 500 plus an r2_operation_failed event.
//
// Hits additionally run the slow request and large asset checks of the
// diagnostic package.
//
// # Usage
//
//	handler := http.NewHandler(&http.HandlerConfig{
//	    Diagnostics:  diagnostic.Config{Sink: diagnostic.NewJSONSink(os.Stdout)},
//	    AccessLogger: slog.Default(),
//	}, store)
//	server := &nethttp.Server{Addr: ":8787", Handler: handler.Router()}
//
// Response bodies are fixed short strings; storage error details are only
// reported through diagnostics.
package http
