package middleware

import (
	"crypto/rand"
	"encoding/hex"
	"net/http"

	"github.com/snapdir/snapdir/pkg/appcontext"
)

// WithRequestId tags every request with an id, taken from the incoming
// X-Request-Id header when present, and echoes it back on the response.
func WithRequestId(next http.Handler, nextRequestId func() string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestId := r.Header.Get("X-Request-Id")

		if requestId == "" {
			requestId = nextRequestId()
		}

		ctx := appcontext.WithRequestId(r.Context(), requestId)

		w.Header().Set("X-Request-Id", requestId)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func DefaultRequestIdProvider() string {
	var buf = make([]byte, 16)

	if _, err := rand.Read(buf); err != nil {
		return ""
	}

	return hex.EncodeToString(buf)
}
