package middlewares

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/ulule/limiter/v3"
	mgin "github.com/ulule/limiter/v3/drivers/middleware/gin"
	"github.com/ulule/limiter/v3/drivers/store/memory"
	"github.com/yeremiapane/dinein-lifecycle/utils"
)

// NewRateLimiter limits requests per client IP. formatted follows the limiter
// notation, e.g. "50-S" or "10-M".
func NewRateLimiter(formatted string) (gin.HandlerFunc, error) {
	rate, err := limiter.NewRateFromFormatted(formatted)
	if err != nil {
		return nil, err
	}

	instance := limiter.New(memory.NewStore(), rate)
	return mgin.NewMiddleware(instance,
		mgin.WithLimitReachedHandler(func(c *gin.Context) {
			utils.AbortWithStatus(c, http.StatusTooManyRequests, "Terlalu banyak permintaan, silakan tunggu beberapa saat")
		}),
		mgin.WithErrorHandler(func(c *gin.Context, err error) {
			utils.ErrorLogger.Errorf("Rate limiter error: %v", err)
			c.Next()
		}),
	), nil
}
