package assetgate_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sagarc03/assetgate"
)

func TestIsSuspicious(t *testing.T) {
	tests := []struct {
		name string
		path string
		want bool
	}{
		{name: "dotenv", path: "/.env", want: true},
		{name: "dotenv uppercase", path: "/.ENV", want: true},
		{name: "nested dotenv", path: "/app/.env.production", want: true},
		{name: "git config", path: "/.git/HEAD", want: true},
		{name: "htaccess", path: "/uploads/.htaccess", want: true},
		{name: "wordpress login", path: "/wp-login.php", want: true},
		{name: "wordpress upload with image extension", path: "/wp-content/uploads/a.jpg", want: true},
		{name: "admin panel", path: "/Admin/index.html", want: true},
		{name: "php anywhere", path: "/index.PHP", want: true},
		{name: "sql dump", path: "/dump.sql", want: true},
		{name: "config in image name", path: "/img/config-icon.png", want: true},
		{name: "backup archive", path: "/backup.tar.gz", want: true},
		{name: "substring inside word", path: "/logos/mysql.png", want: true},

		{name: "plain image", path: "/photo.jpg", want: false},
		{name: "video", path: "/video.mp4", want: false},
		{name: "env without dot", path: "/environment.png", want: false},
		{name: "git without dot", path: "/github.svg", want: false},
		{name: "root", path: "/", want: false},
		{name: "empty", path: "", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, assetgate.IsSuspicious(tt.path))
		})
	}
}

func TestIsAllowedAsset(t *testing.T) {
	tests := []struct {
		name string
		path string
		want bool
	}{
		{name: "jpg", path: "/photo.jpg", want: true},
		{name: "jpeg uppercase", path: "/photo.JPEG", want: true},
		{name: "png nested", path: "/blur/2025/a.png", want: true},
		{name: "gif", path: "/a.gif", want: true},
		{name: "webp", path: "/a.webp", want: true},
		{name: "avif", path: "/a.avif", want: true},
		{name: "svg", path: "/a.svg", want: true},
		{name: "pdf", path: "/docs/a.pdf", want: true},
		{name: "mp4", path: "/video.mp4", want: true},
		{name: "webm", path: "/video.webm", want: true},
		{name: "mp3", path: "/audio.mp3", want: true},
		{name: "css", path: "/main.css", want: true},
		{name: "js", path: "/main.js", want: true},
		{name: "woff", path: "/f.woff", want: true},
		{name: "woff2", path: "/f.woff2", want: true},
		{name: "ttf", path: "/f.ttf", want: true},
		{name: "eot", path: "/f.eot", want: true},
		{name: "ico", path: "/favicon.ico", want: true},

		{name: "txt", path: "/data.txt", want: false},
		{name: "html", path: "/index.html", want: false},
		{name: "json is not js", path: "/app.json", want: false},
		{name: "extension not last", path: "/photo.jpg.exe", want: false},
		{name: "no extension", path: "/photo", want: false},
		{name: "trailing slash", path: "/photo.jpg/", want: false},
		{name: "bare extension word", path: "/jpg", want: false},
		{name: "root", path: "/", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, assetgate.IsAllowedAsset(tt.path))
		})
	}
}

func TestStorageKey(t *testing.T) {
	assert.Equal(t, "photo.jpg", assetgate.StorageKey("/photo.jpg"))
	assert.Equal(t, "a/b/c.png", assetgate.StorageKey("/a/b/c.png"))
	assert.Equal(t, "/double.png", assetgate.StorageKey("//double.png"))
	assert.Equal(t, "relative.png", assetgate.StorageKey("relative.png"))
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		path string
		want assetgate.Classification
	}{
		{
			name: "suspicious wins over allowed extension",
			path: "/wp-content/a.png",
			want: assetgate.Classification{Verdict: assetgate.VerdictBlocked, Reason: assetgate.AttackMaliciousPath},
		},
		{
			name: "dotenv",
			path: "/.env",
			want: assetgate.Classification{Verdict: assetgate.VerdictBlocked, Reason: assetgate.AttackMaliciousPath},
		},
		{
			name: "disallowed extension",
			path: "/data.txt",
			want: assetgate.Classification{Verdict: assetgate.VerdictNotAllowedExtension},
		},
		{
			name: "allowed",
			path: "/images/photo.jpg",
			want: assetgate.Classification{Verdict: assetgate.VerdictAllowed, Key: "images/photo.jpg"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, assetgate.Classify(tt.path))
		})
	}
}

func TestVerdict_String(t *testing.T) {
	assert.Equal(t, "allowed", assetgate.VerdictAllowed.String())
	assert.Equal(t, "blocked", assetgate.VerdictBlocked.String())
	assert.Equal(t, "not_allowed_extension", assetgate.VerdictNotAllowedExtension.String())
	assert.Equal(t, "unknown", assetgate.Verdict(42).String())
}
