package httpmw

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/cwrk-planet/chat-service/internal/domain"
	"github.com/cwrk-planet/chat-service/internal/errs"
)

type Authenticator interface {
	Authenticate(ctx context.Context, token string) (domain.Identity, error)
}

type ctxKey string

const ctxKeyIdentity ctxKey = "identity"

// Auth требует валидный Bearer токен. Identity кладётся в контекст,
// заголовкам вроде X-User-ID мы не доверяем.
func Auth(a Authenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, err := a.Authenticate(r.Context(), bearer(r))
			if err != nil {
				status := http.StatusUnauthorized
				if errs.KindOf(err) == errs.KindPersistence {
					status = http.StatusInternalServerError
				}
				Logger(r.Context()).Warn("auth rejected", "err", err)
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(status)
				_ = json.NewEncoder(w).Encode(map[string]string{"error": errs.Public(err)})
				return
			}

			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxKeyIdentity, id)))
		})
	}
}

func IdentityFromCtx(ctx context.Context) (domain.Identity, bool) {
	id, ok := ctx.Value(ctxKeyIdentity).(domain.Identity)
	return id, ok && id.ID != 0
}

func bearer(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if len(h) <= 7 || !strings.EqualFold(h[:7], "bearer ") {
		return ""
	}

	return strings.TrimSpace(h[7:])
}
