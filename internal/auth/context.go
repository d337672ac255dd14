package auth

import "context"

type contextKey string

const (
	contextKeyParticipant contextKey = "auth.participant"
	contextKeyRole        contextKey = "auth.role"
	contextKeySubject     contextKey = "auth.subject"
)

// WithIdentity stores auth identity details in context.
func WithIdentity(ctx context.Context, participant string, role Role, subject string) context.Context {
	ctx = context.WithValue(ctx, contextKeyParticipant, participant)
	ctx = context.WithValue(ctx, contextKeyRole, role)
	ctx = context.WithValue(ctx, contextKeySubject, subject)
	return ctx
}

// ParticipantFromContext extracts the participant code from context.
func ParticipantFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if participant, ok := ctx.Value(contextKeyParticipant).(string); ok {
		return participant
	}
	return ""
}

// RoleFromContext extracts the role from context.
func RoleFromContext(ctx context.Context) Role {
	if ctx == nil {
		return ""
	}
	value := ctx.Value(contextKeyRole)
	if role, ok := value.(Role); ok {
		return role
	}
	if role, ok := value.(string); ok {
		if normalized, valid := NormalizeRole(role); valid {
			return normalized
		}
	}
	return ""
}

// SubjectFromContext extracts the subject from context.
func SubjectFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if subject, ok := ctx.Value(contextKeySubject).(string); ok {
		return subject
	}
	return ""
}
