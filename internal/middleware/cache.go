package middleware

import (
	"bytes"
	"context"
	"crypto/sha1"
	"encoding/binary"
	"fmt"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/tranqv/restaurant-pos/internal/config"
)

// bodyRecorder tees the response body into a buffer while forwarding it
// to the client, up to limit bytes.  Responses that outgrow the limit
// are served normally but never cached.
type bodyRecorder struct {
	http.ResponseWriter
	status   int
	buf      bytes.Buffer
	written  int64
	limit    int64
	overflow bool
}

func (br *bodyRecorder) WriteHeader(code int) {
	br.status = code
	br.ResponseWriter.WriteHeader(code)
}

func (br *bodyRecorder) Write(b []byte) (int, error) {
	br.written += int64(len(b))
	if br.limit > 0 && br.written > br.limit {
		br.overflow = true
	} else {
		br.buf.Write(b)
	}
	return br.ResponseWriter.Write(b)
}

// menuCacheKey hashes the route (and optionally the query string) into
// a fixed-width key under the configured prefix.
func menuCacheKey(cfg config.CacheConfig, c echo.Context) string {
	tail := c.Path()
	if cfg.KeyStrategy != "route" {
		tail += "?" + c.Request().URL.RawQuery
	}
	sum := sha1.Sum([]byte(tail))
	return fmt.Sprintf("%s:%x", cfg.Prefix, sum[:])
}

// cachedResponse is the stored form of a cache entry.  The content type
// is kept alongside the body so replays carry the original header.
type cachedResponse struct {
	Status      int
	ContentType string
	Body        []byte
}

// encodeCached packs a cachedResponse as
// [4B status][4B ctLen][contentType][body].
func encodeCached(cr cachedResponse) []byte {
	out := make([]byte, 8+len(cr.ContentType)+len(cr.Body))
	binary.BigEndian.PutUint32(out[0:4], uint32(cr.Status))
	binary.BigEndian.PutUint32(out[4:8], uint32(len(cr.ContentType)))
	copy(out[8:], cr.ContentType)
	copy(out[8+len(cr.ContentType):], cr.Body)
	return out
}

func decodeCached(bs []byte) (cachedResponse, bool) {
	if len(bs) < 8 {
		return cachedResponse{}, false
	}
	ctLen := int(binary.BigEndian.Uint32(bs[4:8]))
	if 8+ctLen > len(bs) {
		return cachedResponse{}, false
	}
	return cachedResponse{
		Status:      int(binary.BigEndian.Uint32(bs[0:4])),
		ContentType: string(bs[8 : 8+ctLen]),
		Body:        bs[8+ctLen:],
	}, true
}

// ResponseCache caches successful GET responses in Redis.  Menus and
// table layouts change rarely but are polled constantly by every
// ordering client, so serving them from Redis keeps that read traffic
// off MySQL.  A nil Redis client disables the middleware entirely.
func ResponseCache(cfg config.CacheConfig, rdb *redis.Client) echo.MiddlewareFunc {
	if !cfg.Enabled || rdb == nil {
		return func(next echo.HandlerFunc) echo.HandlerFunc { return next }
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if !cfg.Methods[strings.ToUpper(c.Request().Method)] {
				return next(c)
			}
			ctx := c.Request().Context()
			key := menuCacheKey(cfg, c)

			if bs, err := rdb.Get(ctx, key).Bytes(); err == nil {
				if cr, ok := decodeCached(bs); ok {
					c.Response().Header().Set("X-Cache", "HIT")
					if cr.ContentType != "" {
						c.Response().Header().Set(echo.HeaderContentType, cr.ContentType)
					}
					c.Response().WriteHeader(cr.Status)
					_, _ = c.Response().Write(cr.Body)
					return nil
				}
			}

			br := &bodyRecorder{
				ResponseWriter: c.Response().Writer,
				status:         http.StatusOK,
				limit:          int64(cfg.MaxBodyBytes),
			}
			c.Response().Writer = br
			c.Response().Header().Set("X-Cache", "MISS")

			if err := next(c); err != nil {
				return err
			}

			if br.status == http.StatusOK && !br.overflow {
				payload := encodeCached(cachedResponse{
					Status:      br.status,
					ContentType: c.Response().Header().Get(echo.HeaderContentType),
					Body:        br.buf.Bytes(),
				})
				// Stored best-effort on a background context: the
				// request context may already be done by now.
				if err := rdb.SetEx(context.Background(), key, payload, cfg.TTL).Err(); err != nil {
					c.Logger().Warnf("cache: store %s failed: %v", key, err)
				}
			}
			return nil
		}
	}
}
