package middleware

import (
	"encoding/json"

	"github.com/gin-gonic/gin"

	"github.com/birthday-song/birthday-song-api/services"
)

// MetaKey is the context key under which request metadata is stored.
const MetaKey = "request_meta"

// UTMKey is the context key for raw UTM query parameters.
const UTMKey = "utm_data"

var utmParams = []string{"utm_source", "utm_medium", "utm_campaign", "utm_term", "utm_content"}

// RequestMeta captures client IP, user agent, referrer and UTM query
// parameters so handlers can attach them to audit events without touching
// the raw request.
func RequestMeta() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(MetaKey, services.RequestMeta{
			IP:        c.ClientIP(),
			UserAgent: c.Request.UserAgent(),
			Referrer:  c.Request.Referer(),
		})

		utm := make(map[string]string)
		for _, p := range utmParams {
			if v := c.Query(p); v != "" {
				utm[p] = v
			}
		}
		if len(utm) > 0 {
			c.Set(UTMKey, utm)
		}

		c.Next()
	}
}

// GetRequestMeta returns the metadata captured for this request. Safe to
// call from handlers registered without the middleware (returns zero meta).
func GetRequestMeta(c *gin.Context) services.RequestMeta {
	if v, ok := c.Get(MetaKey); ok {
		if meta, ok := v.(services.RequestMeta); ok {
			return meta
		}
	}
	return services.RequestMeta{}
}

// GetUTMData returns the captured UTM parameters as a JSON blob, or nil
// when the request carried none.
func GetUTMData(c *gin.Context) []byte {
	v, ok := c.Get(UTMKey)
	if !ok {
		return nil
	}
	utm, ok := v.(map[string]string)
	if !ok || len(utm) == 0 {
		return nil
	}
	raw, err := json.Marshal(utm)
	if err != nil {
		return nil
	}
	return raw
}
