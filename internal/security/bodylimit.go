package security

import (
	"bytes"
	"io"
	"mime"
	"net/http"

	"github.com/noah-isme/backend-proposal/internal/common"
)

// BodyLimit caps request payloads on write methods and, with JSONOnly, refuses
// non-JSON bodies before they reach a decoder.
type BodyLimit struct {
	Max      int64
	JSONOnly bool
}

// Middleware answers 413 for oversized bodies and 415 for non-JSON ones.
func (b BodyLimit) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Body == nil || !carriesBody(r.Method) {
			next.ServeHTTP(w, r)
			return
		}
		if b.Max > 0 && r.ContentLength > b.Max {
			tooLarge(w)
			return
		}

		var buf []byte
		if b.Max > 0 {
			var err error
			buf, err = io.ReadAll(io.LimitReader(r.Body, b.Max+1))
			_ = r.Body.Close()
			if err != nil {
				common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "unreadable request body", nil)
				return
			}
			if int64(len(buf)) > b.Max {
				tooLarge(w)
				return
			}
			r.Body = io.NopCloser(bytes.NewReader(buf))
			r.ContentLength = int64(len(buf))
		}

		if b.JSONOnly && r.ContentLength != 0 && !isJSON(r.Header.Get("Content-Type")) {
			common.JSONError(w, http.StatusUnsupportedMediaType, "UNSUPPORTED_MEDIA_TYPE", "request body must be application/json", nil)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func carriesBody(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch:
		return true
	default:
		return false
	}
}

func isJSON(contentType string) bool {
	mt, _, err := mime.ParseMediaType(contentType)
	return err == nil && mt == "application/json"
}

func tooLarge(w http.ResponseWriter) {
	common.JSONError(w, http.StatusRequestEntityTooLarge, "PAYLOAD_TOO_LARGE", "request body exceeds the configured limit", nil)
}
