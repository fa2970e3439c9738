package bootstrap

import "context"

// AuditLog is a lifecycle event worth keeping outside the app log stream.
type AuditLog struct {
	Action  string
	Message string
	Meta    map[string]any
}

type AuditLogger interface {
	Log(ctx context.Context, entry AuditLog)
}
