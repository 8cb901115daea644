package logging

import (
	"time"

	"go.uber.org/zap"
)

// Field keys shared by every build log line, so output can be grepped and
// parsed by key.
const (
	KeyPath     = "path"
	KeyWidth    = "width"
	KeyCacheHit = "cache_hit"
	KeyMIME     = "mime"
	KeyElapsed  = "elapsed"
)

// Path tags an entry with a source or output path.
func Path(p string) zap.Field { return zap.String(KeyPath, p) }

// Width tags an entry with a variant width in pixels.
func Width(w uint32) zap.Field { return zap.Uint32(KeyWidth, w) }

// CacheHit records whether a variant came from the build-output cache.
func CacheHit(hit bool) zap.Field { return zap.Bool(KeyCacheHit, hit) }

func MIME(m string) zap.Field { return zap.String(KeyMIME, m) }

// Elapsed records a step's wall-clock duration.
func Elapsed(d time.Duration) zap.Field { return zap.Duration(KeyElapsed, d) }
