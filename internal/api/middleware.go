package api

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/go-chi/chi/v5/middleware"

	domainerrors "github.com/todosync/todosync-server/internal/errors"
	"github.com/todosync/todosync-server/internal/http/response"
)

// EnvelopeTransformer wraps every huma response body in the standard
// envelope. Error bodies become {success:false, error:{code,message,details}}
// and everything else {success:true, data}.
func EnvelopeTransformer(_ huma.Context, status string, v any) (any, error) {
	switch body := v.(type) {
	case response.Envelope, *response.Envelope:
		return v, nil
	case *APIError:
		return response.Envelope{Error: &response.ErrorBody{
			Code:    body.Code,
			Message: body.Message,
			Details: body.Details,
		}}, nil
	case *domainerrors.Error:
		return response.Envelope{Error: &response.ErrorBody{
			Code:    string(body.Code),
			Message: body.Message,
			Details: body.Details,
		}}, nil
	case error:
		var domainErr *domainerrors.Error
		if errors.As(body, &domainErr) {
			return EnvelopeTransformer(nil, status, domainErr)
		}
		return response.Envelope{Error: &response.ErrorBody{
			Code:    string(domainerrors.CodeInternal),
			Message: "internal server error",
		}}, nil
	}

	return response.Envelope{Success: true, Data: v}, nil
}

// requestLogger logs one line per request through slog.
func requestLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()

			defer func() {
				status := ww.Status()
				level := slog.LevelDebug
				switch {
				case status >= http.StatusInternalServerError:
					level = slog.LevelError
				case status >= http.StatusBadRequest:
					level = slog.LevelWarn
				}
				logger.Log(r.Context(), level, "http request",
					"method", r.Method,
					"path", r.URL.Path,
					"status", status,
					"bytes", ww.BytesWritten(),
					"duration", time.Since(start),
					"request_id", middleware.GetReqID(r.Context()),
				)
			}()

			next.ServeHTTP(ww, r)
		})
	}
}
