package domain

import (
	"context"
	"sync"

	"github.com/samber/lo"
)

// Subject is what a permission check is evaluated against.
type Subject struct {
	UserID          string
	Role            RoleName
	PermissionCodes []string
}

// CheckPermission is true for SUPER_ADMIN whatever the code, true when the
// code is in the resolved set, and false for a nil subject.
func CheckPermission(subject *Subject, code string) bool {
	if subject == nil {
		return false
	}
	if subject.Role == RoleSuperAdmin {
		return true
	}
	return lo.Contains(subject.PermissionCodes, code)
}

// PermissionState tracks how much a session's permission set can be trusted.
type PermissionState string

const (
	PermissionStateUnresolved PermissionState = "UNRESOLVED"
	PermissionStateOptimistic PermissionState = "OPTIMISTIC"
	PermissionStateConfirmed  PermissionState = "CONFIRMED"
)

// SessionPermissions moves Unresolved -> Optimistic -> Confirmed. A cached
// snapshot can only seed an unresolved state; Confirm is the single point
// where the authoritative set replaces whatever was there.
type SessionPermissions struct {
	mu     sync.RWMutex
	userID string
	role   RoleName
	state  PermissionState
	codes  []string
}

func NewSessionPermissions(userID string, role RoleName) *SessionPermissions {
	return &SessionPermissions{
		userID: userID,
		role:   role,
		state:  PermissionStateUnresolved,
	}
}

// ApplySnapshot seeds the set from a cached copy. It returns false when the
// state was already past Unresolved.
func (s *SessionPermissions) ApplySnapshot(codes []string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != PermissionStateUnresolved {
		return false
	}
	s.codes = NormalizeCodes(codes)
	s.state = PermissionStateOptimistic
	return true
}

func (s *SessionPermissions) Confirm(codes []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.codes = NormalizeCodes(codes)
	s.state = PermissionStateConfirmed
}

func (s *SessionPermissions) State() PermissionState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

func (s *SessionPermissions) Role() RoleName {
	return s.role
}

func (s *SessionPermissions) Codes() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]string(nil), s.codes...)
}

func (s *SessionPermissions) Subject() *Subject {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return &Subject{
		UserID:          s.userID,
		Role:            s.role,
		PermissionCodes: append([]string(nil), s.codes...),
	}
}

func (s *SessionPermissions) Snapshot() *PermissionSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return &PermissionSnapshot{
		State:           s.state,
		Role:            s.role,
		PermissionCodes: append([]string{}, s.codes...),
	}
}

type PermissionSnapshot struct {
	State           PermissionState `json:"state"`
	Role            RoleName        `json:"role"`
	PermissionCodes []string        `json:"permission_codes"`
}

type GuardDecision int

const (
	GuardAllow GuardDecision = iota
	GuardRedirectLogin
	GuardLoading
	GuardRedirectHome
)

func (d GuardDecision) String() string {
	switch d {
	case GuardAllow:
		return "allow"
	case GuardRedirectLogin:
		return "redirect_login"
	case GuardLoading:
		return "loading"
	case GuardRedirectHome:
		return "redirect_home"
	}
	return "unknown"
}

// EvaluateGuard decides a protected route. A nil subject is an anonymous
// caller. Every required code must be held.
func EvaluateGuard(subject *Subject, state PermissionState, required ...string) GuardDecision {
	if subject == nil {
		return GuardRedirectLogin
	}
	if state == PermissionStateUnresolved || state == "" {
		return GuardLoading
	}
	for _, code := range required {
		if !CheckPermission(subject, code) {
			return GuardRedirectHome
		}
	}
	return GuardAllow
}

/**************************************
*  Authz usecase interfaces and types *
**************************************/
type AuthzUsecase interface {
	// Resolve never fails: on backend errors the best available state is
	// returned and the caller decides with EvaluateGuard.
	Resolve(ctx context.Context, sessionID string, user *UserProfile) *SessionPermissions
	Check(ctx context.Context, sessionID string, user *UserProfile, code string) bool
	Snapshot(ctx context.Context, sessionID string, user *UserProfile) *PermissionSnapshot
	InvalidateRole(ctx context.Context, role RoleName) error
	// InvalidateAll drops every cached snapshot, e.g. after a permission
	// was removed from all roles.
	InvalidateAll(ctx context.Context) error
}
