// Package policy holds every authorization decision of the tracker.
//
// Callers pass the identity explicitly; nothing here reads request state.
package policy

import (
	"errors"
	"fmt"

	"github.com/geocoder89/tasktracker/internal/domain/user"
)

var ErrForbidden = errors.New("forbidden")

// Identity is the authenticated principal behind a request. The zero value
// is the anonymous caller.
type Identity struct {
	UserID string    `json:"userId"`
	Email  string    `json:"email"`
	Role   user.Role `json:"role"`
}

func (i Identity) IsAuthenticated() bool {
	return i.UserID != ""
}

func (i Identity) IsManager() bool {
	return i.IsAuthenticated() && i.Role == user.RoleManager
}

type Action string

const (
	ActionListOwnTasks    Action = "tasks.list_own"
	ActionSubmitTask      Action = "tasks.submit"
	ActionEditTask        Action = "tasks.edit"
	ActionDeleteTask      Action = "tasks.delete"
	ActionViewDashboard   Action = "reports.dashboard"
	ActionExportTasks     Action = "reports.export"
	ActionManageEmployees Action = "employees.manage"
	ActionEditProfile     Action = "profile.edit"
)

type Reason string

const (
	ReasonUnauthenticated Reason = "unauthenticated"
	ReasonNotOwner        Reason = "not_owner"
	ReasonManagerOnly     Reason = "manager_only"
	ReasonUnknownRole     Reason = "unknown_role"
	ReasonUnknownAction   Reason = "unknown_action"
)

type Decision struct {
	Allowed bool
	Reason  Reason
}

func (d Decision) Err() error {
	if d.Allowed {
		return nil
	}
	return fmt.Errorf("%w: %s", ErrForbidden, d.Reason)
}

func allow() Decision             { return Decision{Allowed: true} }
func deny(reason Reason) Decision { return Decision{Reason: reason} }

// Authorize decides actions that do not target a specific task.
func Authorize(id Identity, action Action) Decision {
	if !id.IsAuthenticated() {
		return deny(ReasonUnauthenticated)
	}

	switch action {
	case ActionListOwnTasks, ActionSubmitTask, ActionEditProfile:
		return knownRole(id)
	case ActionViewDashboard, ActionExportTasks, ActionManageEmployees:
		return managerOnly(id)
	case ActionEditTask, ActionDeleteTask:
		// needs an owner; see AuthorizeTask
		return deny(ReasonNotOwner)
	default:
		return deny(ReasonUnknownAction)
	}
}

// AuthorizeTask decides actions on the task owned by ownerID.
func AuthorizeTask(id Identity, action Action, ownerID string) Decision {
	if !id.IsAuthenticated() {
		return deny(ReasonUnauthenticated)
	}

	switch action {
	case ActionEditTask, ActionDeleteTask:
		if d := knownRole(id); !d.Allowed {
			return d
		}
		if ownerID == "" || ownerID != id.UserID {
			return deny(ReasonNotOwner)
		}
		return allow()
	default:
		return Authorize(id, action)
	}
}

func knownRole(id Identity) Decision {
	switch id.Role {
	case user.RoleEmployee, user.RoleManager:
		return allow()
	default:
		return deny(ReasonUnknownRole)
	}
}

func managerOnly(id Identity) Decision {
	switch id.Role {
	case user.RoleManager:
		return allow()
	case user.RoleEmployee:
		return deny(ReasonManagerOnly)
	default:
		return deny(ReasonUnknownRole)
	}
}
