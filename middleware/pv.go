package middleware

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/cppla/solquest/utils"
)

// PageViewRecorder counts successful GET requests per day and path in redis.
// It is a no-op when redis is not configured and never blocks the response.
func PageViewRecorder() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		rdb := utils.GetRedis()
		if rdb == nil {
			return
		}
		if c.Request.Method != "GET" {
			return
		}
		status := c.Writer.Status()
		if status < 200 || status >= 400 {
			return
		}
		path := c.Request.URL.Path
		if path == "/health" {
			return
		}

		key := "solquest:pv:" + time.Now().UTC().Format("2006-01-02") + ":" + path
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		if n, err := rdb.Incr(ctx, key).Result(); err == nil && n == 1 {
			rdb.Expire(ctx, key, 48*time.Hour)
		}
	}
}
