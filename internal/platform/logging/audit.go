package logging

import (
	"context"

	"go.uber.org/zap"
)

// Audit results.
const (
	AuditSuccess = "success"
	AuditFailure = "failure"
	// AuditPartial marks a write sequence that stopped halfway and left the
	// account, document and bucket disagreeing with each other.
	AuditPartial = "partial"
)

// LogAuditEvent logs a structured audit event for security and compliance.
//
// Args:
//   - action: The action performed (e.g., "update", "replace_avatar", "end_session")
//   - userID: The user performing the action
//   - resourceType: The type of resource (e.g., "profile", "avatar", "session")
//   - resourceID: The ID of the resource
//   - result: One of AuditSuccess, AuditFailure, AuditPartial
//   - details: Optional additional details
func LogAuditEvent(
	ctx context.Context,
	action, userID, resourceType, resourceID, result string,
	details map[string]any,
) {
	LoggerFromContext(ctx).Info("Audit event",
		zap.String("audit.action", action),
		zap.String("audit.user_id", userID),
		zap.String("audit.resource_type", resourceType),
		zap.String("audit.resource_id", resourceID),
		zap.String("audit.result", result),
		zap.Any("audit.details", details),
	)
}

// LogPartialInconsistency records a write sequence that succeeded in one store
// and failed in the next. Nothing is rolled back; the next fetch shows whatever
// state the stores ended up in.
func LogPartialInconsistency(ctx context.Context, action, userID, step string, err error) {
	LogError(ctx, "partial update inconsistency", err,
		zap.String("action", action),
		zap.String("user_id", userID),
		zap.String("failed_step", step),
	)
	LogAuditEvent(ctx, action, userID, "profile", userID, AuditPartial,
		map[string]any{"failed_step": step})
}
