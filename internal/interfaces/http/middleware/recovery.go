package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/aratrikkk/UrjaBharat/pkg/logger"
)

// Recovery перехватывает panic в обработчике и отвечает 500
func Recovery(log *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				// Штатный способ оборвать ответ, не логируем
				if rec == http.ErrAbortHandler {
					panic(rec)
				}

				log.Error("Handler panic", fmt.Errorf("%v", rec),
					"path", r.URL.Path,
					"method", r.Method,
					"request_id", RequestID(r),
					"stack", string(debug.Stack()),
				)
				WriteError(w, http.StatusInternalServerError, "internal server error")
			}()

			next.ServeHTTP(w, r)
		})
	}
}
