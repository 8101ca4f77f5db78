package assetgate

import (
	"regexp"
	"strings"
)

// AttackMaliciousPath is the reason attached to paths rejected by IsSuspicious.
const AttackMaliciousPath = "malicious_path"

var (
	suspiciousPathRegex = regexp.MustCompile(`(?i)\.(env|git|htaccess)|wp-|admin|php|sql|config|backup`)

	allowedAssetRegex = regexp.MustCompile(`(?i)\.(jpg|jpeg|png|gif|webp|avif|svg|pdf|mp4|webm|mp3|css|js|woff|woff2|ttf|eot|ico)$`)
)

// IsSuspicious reports whether path looks like a scanner or exploit probe:
// hidden config files (.env, .git, .htaccess) or admin, php, sql, config,
// backup and wp- fragments anywhere in the path, case-insensitively.
func IsSuspicious(path string) bool {
	return suspiciousPathRegex.MatchString(path)
}

// IsAllowedAsset reports whether path ends in one of the served image,
// media or web asset extensions.
func IsAllowedAsset(path string) bool {
	return allowedAssetRegex.MatchString(path)
}

// StorageKey converts a request path into an object key by dropping the
// leading separator.
func StorageKey(path string) string {
	return strings.TrimPrefix(path, "/")
}

// Classify runs the suspicious-path check and then the extension check.
// Neither check touches storage.
func Classify(path string) Classification {
	if IsSuspicious(path) {
		return Classification{Verdict: VerdictBlocked, Reason: AttackMaliciousPath}
	}

	if !IsAllowedAsset(path) {
		return Classification{Verdict: VerdictNotAllowedExtension}
	}

	return Classification{Verdict: VerdictAllowed, Key: StorageKey(path)}
}
