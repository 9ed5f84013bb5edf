package middleware

import "net/http"

// CacheControl sets the Cache-Control header to directives on GET and HEAD
// responses with a status below 400, and adds Vary entries for varyOn.
// Error responses are left uncacheable.
func CacheControl(directives string, varyOn ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodGet && r.Method != http.MethodHead {
				next.ServeHTTP(w, r)
				return
			}
			next.ServeHTTP(&cacheWriter{ResponseWriter: w, directives: directives, vary: varyOn}, r)
		})
	}
}

type cacheWriter struct {
	http.ResponseWriter
	directives  string
	vary        []string
	wroteHeader bool
}

func (cw *cacheWriter) WriteHeader(code int) {
	if !cw.wroteHeader {
		cw.wroteHeader = true
		if code < http.StatusBadRequest {
			h := cw.Header()
			h.Set("Cache-Control", cw.directives)
			for _, v := range cw.vary {
				h.Add("Vary", v)
			}
		}
	}
	cw.ResponseWriter.WriteHeader(code)
}

func (cw *cacheWriter) Write(b []byte) (int, error) {
	if !cw.wroteHeader {
		cw.WriteHeader(http.StatusOK)
	}
	return cw.ResponseWriter.Write(b)
}

func (cw *cacheWriter) Unwrap() http.ResponseWriter {
	return cw.ResponseWriter
}
