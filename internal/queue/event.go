// Package queue defines the audit message payload and the background
// consumer that persists it.
package queue

import "time"

// Audit event kinds.
const (
	KindEntity = "entity"
	KindAuth   = "auth"
)

// AuditEvent is published after every successful entity mutation and every
// login attempt.  It carries enough context for the audit log without a
// round trip to the primary database.
type AuditEvent struct {
	Kind       string `json:"kind"`        // "entity" or "auth"
	Action     string `json:"action"`      // create, update, delete, hard_delete, login_success, login_failure
	Entity     string `json:"entity"`      // e.g. "Project"; "User" for auth events
	Key        string `json:"key"`         // entity name/id or the attempted login
	Actor      string `json:"actor"`       // username of the caller, empty for failed logins
	OccurredAt string `json:"occurred_at"` // RFC3339 UTC
}

// NewEntityEvent builds an entity mutation event stamped with the current time.
func NewEntityEvent(action, entity, key, actor string) AuditEvent {
	return AuditEvent{
		Kind:       KindEntity,
		Action:     action,
		Entity:     entity,
		Key:        key,
		Actor:      actor,
		OccurredAt: time.Now().UTC().Format(time.RFC3339),
	}
}

// NewAuthEvent builds a login event.  Key is the identifier the client
// submitted; actor is set only when authentication succeeded.
func NewAuthEvent(success bool, login, actor string) AuditEvent {
	action := "login_failure"
	if success {
		action = "login_success"
	}
	return AuditEvent{
		Kind:       KindAuth,
		Action:     action,
		Entity:     "User",
		Key:        login,
		Actor:      actor,
		OccurredAt: time.Now().UTC().Format(time.RFC3339),
	}
}
