// Package assetgate serves static assets out of an object storage bucket
// while turning away bot and scanner traffic.
//
// Every request path goes through two checks before any storage call is
// made:
//
//   - IsSuspicious rejects probes for hidden config files, admin panels,
//     PHP, SQL dumps and backups.
//   - IsAllowedAsset only lets image, media and web asset extensions through.
//
// Paths that pass both are turned into object keys with StorageKey and
// looked up through an ObjectStore.
//
// # Key Components
//
//   - ObjectStore: read-only blob lookup (see the filesystem and bucket packages)
//   - Object: blob body plus size, ETag and stored HTTP metadata
//   - StorageError: storage failure tagged with an ErrorKind
//
// # Example Usage
//
//	c := assetgate.Classify("/images/logo.png")
//	if c.Verdict == assetgate.VerdictAllowed {
//	    obj, err := store.Get(ctx, c.Key)
//	    ...
//	}
//
// See the http package for the request handler and the diagnostic package
// for anomaly events.
package assetgate
