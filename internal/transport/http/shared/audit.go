package shared

import (
	"log/slog"
	"net/http"

	"perfreview/internal/domain/audit"
	"perfreview/internal/platform/requestctx"
)

// RecordAudit stamps entry with the request id and client address and
// records it. Failures are logged, never surfaced to the caller.
func RecordAudit(r *http.Request, recorder audit.Recorder, entry audit.Entry) {
	if recorder == nil {
		return
	}
	entry.RequestID = requestctx.GetRequestID(r.Context())
	entry.IP = ClientIP(r)
	if err := recorder.Record(r.Context(), entry); err != nil {
		slog.Warn("audit record failed", "action", entry.Action, "entityType", entry.EntityType, "entityId", entry.EntityID, "err", err)
	}
}
