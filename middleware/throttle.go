package middleware

import (
	"errors"
	"net/http"
	"strconv"

	authgate "github.com/jcastellr/authgate"
)

// Throttle limits requests per client IP and path using the given class.
// Allowed requests carry X-Rate-Limit-Remaining; rejected requests get 429
// with a Retry-After header.
func Throttle(engine *authgate.Engine, class authgate.ThrottleClass) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if engine == nil {
				http.Error(w, "too many requests", http.StatusTooManyRequests)
				return
			}

			key := clientIP(r) + ":" + r.URL.Path
			result, err := engine.Throttle(r.Context(), key, class)
			if err != nil {
				var limited *authgate.RateLimitedError
				if errors.As(err, &limited) {
					w.Header().Set("Retry-After", strconv.FormatInt(limited.RetryAfter, 10))
				}
				http.Error(w, "too many requests", http.StatusTooManyRequests)
				return
			}

			w.Header().Set("X-Rate-Limit-Remaining", strconv.Itoa(result.Remaining))
			next.ServeHTTP(w, r)
		})
	}
}
