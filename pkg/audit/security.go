// Package audit provides security audit logging for SIEM consumption.
// It logs security-relevant events in structured JSON format for easy parsing
// and integration with security information and event management systems.
package audit

import (
	"encoding/json"
	"time"

	"go.uber.org/zap"
)

// SecurityEventType categorizes security-relevant events for filtering and alerting.
type SecurityEventType string

const (
	// EventLoginFailure is logged when an authentication attempt fails.
	EventLoginFailure SecurityEventType = "login_failure"
	// EventRoleChange is logged when an admin changes an account's role.
	EventRoleChange SecurityEventType = "role_change"
	// EventAccessDenied is logged when an authenticated caller is refused an action.
	EventAccessDenied SecurityEventType = "access_denied"
)

// SecurityEvent represents an auditable security event with all relevant
// context for SIEM ingestion and analysis.
type SecurityEvent struct {
	Timestamp time.Time         `json:"timestamp"`
	EventType SecurityEventType `json:"event_type"`
	ActorID   int64             `json:"actor_id,omitempty"`
	TargetID  int64             `json:"target_id,omitempty"`
	Email     string            `json:"email,omitempty"`
	ClientIP  string            `json:"client_ip,omitempty"`
	Details   any               `json:"details,omitempty"`
	Severity  string            `json:"severity"` // info, warning, critical
}

// SecurityAuditor logs security events for SIEM consumption.
type SecurityAuditor struct {
	logger *zap.Logger
}

// NewSecurityAuditor creates a new security auditor. The logger gets a
// dedicated "security_audit" namespace so SIEM pipelines can filter on it.
func NewSecurityAuditor(logger *zap.Logger) *SecurityAuditor {
	return &SecurityAuditor{logger: logger.Named("security_audit")}
}

// LogLoginFailure records a failed authentication attempt. Logged at WARN
// level with "warning" severity; repeated failures for one email or IP are
// the SIEM's signal for credential stuffing.
//
// The email is the one the caller supplied, whether or not an account
// exists for it. Client IP comes from the HTTP request (r.RemoteAddr).
func (a *SecurityAuditor) LogLoginFailure(email, clientIP string) {
	event := SecurityEvent{
		Timestamp: time.Now().UTC(),
		EventType: EventLoginFailure,
		Email:     email,
		ClientIP:  clientIP,
		Severity:  "warning",
	}

	// Marshaling known types should never fail
	eventJSON, _ := json.Marshal(event)

	a.logger.Warn("Login failed",
		zap.String("event_json", string(eventJSON)),
		zap.String("email", email),
		zap.String("client_ip", clientIP),
		zap.String("severity", "warning"),
	)
}

// LogRoleChange records an admin changing another account's role. Logged
// at INFO level; role changes are legitimate but every one of them needs
// an audit trail.
func (a *SecurityAuditor) LogRoleChange(actorID, targetID int64, newRole, clientIP string) {
	event := SecurityEvent{
		Timestamp: time.Now().UTC(),
		EventType: EventRoleChange,
		ActorID:   actorID,
		TargetID:  targetID,
		ClientIP:  clientIP,
		Details: map[string]string{
			"new_role": newRole,
		},
		Severity: "info",
	}

	eventJSON, _ := json.Marshal(event)

	a.logger.Info("Role changed",
		zap.String("event_json", string(eventJSON)),
		zap.Int64("actor_id", actorID),
		zap.Int64("target_id", targetID),
		zap.String("new_role", newRole),
		zap.String("client_ip", clientIP),
		zap.String("severity", "info"),
	)
}

// LogAccessDenied records an authenticated caller being refused an action.
// Logged at WARN level; a burst of denials from one account suggests
// probing for authorization gaps.
func (a *SecurityAuditor) LogAccessDenied(actorID int64, action, clientIP string) {
	event := SecurityEvent{
		Timestamp: time.Now().UTC(),
		EventType: EventAccessDenied,
		ActorID:   actorID,
		ClientIP:  clientIP,
		Details: map[string]string{
			"action": action,
		},
		Severity: "warning",
	}

	eventJSON, _ := json.Marshal(event)

	a.logger.Warn("Access denied",
		zap.String("event_json", string(eventJSON)),
		zap.Int64("actor_id", actorID),
		zap.String("action", action),
		zap.String("client_ip", clientIP),
		zap.String("severity", "warning"),
	)
}
