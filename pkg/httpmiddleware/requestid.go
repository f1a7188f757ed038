package httpmiddleware

import (
	"net/http"

	"github.com/go-faster/sdk/zctx"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// HeaderRequestID carries the request identifier on requests and responses.
const HeaderRequestID = "X-Request-Id"

// RequestID assigns every request an identifier, echoing a client-provided
// one when present. The identifier is set on the response and attached to
// the request-scoped logger.
func RequestID() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := r.Header.Get(HeaderRequestID)
			if id == "" {
				id = uuid.NewString()
			}
			w.Header().Set(HeaderRequestID, id)

			ctx := zctx.With(r.Context(), zap.String("request_id", id))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
