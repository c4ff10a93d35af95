package middleware

import (
	"crypto/rand"
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/gorilla/mux"
	"golang.org/x/crypto/argon2"

	"wgdash/internal/logs"
	"wgdash/internal/models"
)

// tokenHash — argon2id-хэш API-токена; сам токен в памяти не держим.
type tokenHash struct {
	salt []byte
	sum  []byte
}

func hashToken(token string, salt []byte) []byte {
	return argon2.IDKey([]byte(token), salt, 1, 16*1024, 1, 32)
}

func newTokenHash(token string) tokenHash {
	salt := make([]byte, 16)
	_, _ = rand.Read(salt)
	return tokenHash{salt: salt, sum: hashToken(token, salt)}
}

func (h tokenHash) verify(candidate string) bool {
	return subtle.ConstantTimeCompare(hashToken(candidate, h.salt), h.sum) == 1
}

// BearerAuth: Authorization: Bearer <token>. Пустой token — авторизация выключена.
func BearerAuth(token string) mux.MiddlewareFunc {
	if token == "" {
		return func(next http.Handler) http.Handler { return next }
	}
	h := newTokenHash(token)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			const p = "Bearer "
			auth := r.Header.Get("Authorization")
			if !strings.HasPrefix(auth, p) || !h.verify(strings.TrimPrefix(auth, p)) {
				logs.Logger.Warnf("unauthorized: reqid=%s uri=%s ip=%s", GetRequestID(r), r.RequestURI, r.RemoteAddr)
				models.WriteError(w, http.StatusUnauthorized, "unauthorized")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
