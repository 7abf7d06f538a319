package middleware

import (
	"net/http"
	"time"

	"github.com/billgate/billgate/internal/api/models"
	"github.com/billgate/billgate/internal/flags"
	"github.com/billgate/billgate/internal/gate"
	"github.com/billgate/billgate/internal/requirements"
)

// FeatureGate creates middleware that checks incoming requests against the
// transport-layer feature gate. Requests matching a gated route template are
// denied with an RFC7807 response when the gating flag is disabled.
//
// The authenticated user ID, when present, becomes the evaluation subject so
// percentage rollouts bucket consistently per user. Metrics may be nil.
func FeatureGate(guard *gate.TransportGuard, metrics *GateMetrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ec := flags.EvalContext{Subject: GetUserID(r.Context())}

			start := time.Now()
			denied := guard.Handle(r.Context(), r.URL.Path, r.Method, ec)
			if metrics != nil {
				flag := ""
				if denied != nil {
					flag = denied.Flag
				}
				metrics.RecordDecision(string(requirements.LayerTransport), r.URL.Path, flag, denied == nil, time.Since(start))
			}

			if denied != nil {
				traceID := GetRequestID(r.Context())
				problem := models.NewForbidden(traceID, denied.Error(), denied.Flag, string(denied.Layer))
				problem.Instance = r.URL.Path
				problem.Write(w)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
