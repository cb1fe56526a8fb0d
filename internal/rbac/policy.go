// Package rbac decides who may do what to which resource.
//
// Every rule lives in the tables below; handlers and services only ask.
package rbac

import (
	"github.com/Baaaki/yamdb/internal/apperrors"
	"github.com/Baaaki/yamdb/internal/models"

	"github.com/google/uuid"
)

type Resource string

const (
	ResourceUser     Resource = "user"
	ResourceCategory Resource = "category"
	ResourceGenre    Resource = "genre"
	ResourceTitle    Resource = "title"
	ResourceReview   Resource = "review"
	ResourceComment  Resource = "comment"
)

type Action string

const (
	ActionList   Action = "list"
	ActionRead   Action = "read"
	ActionCreate Action = "create"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

type Decision bool

const (
	Deny  Decision = false
	Allow Decision = true
)

type audience int

const (
	anyone audience = iota
	authenticated
	owner
	moderator
	admin
)

var (
	public        = []audience{anyone}
	adminOnly     = []audience{admin}
	ownerOrAdmin  = []audience{owner, admin}
	ownerOrStaff  = []audience{owner, moderator, admin}
	signedIn      = []audience{authenticated}
	catalogPolicy = map[Action][]audience{
		ActionList:   public,
		ActionRead:   public,
		ActionCreate: adminOnly,
		ActionUpdate: adminOnly,
		ActionDelete: adminOnly,
	}
	contentPolicy = map[Action][]audience{
		ActionList:   public,
		ActionRead:   public,
		ActionCreate: signedIn,
		ActionUpdate: ownerOrStaff,
		ActionDelete: ownerOrStaff,
	}
)

var policy = map[Resource]map[Action][]audience{
	ResourceUser: {
		ActionList:   adminOnly,
		ActionRead:   ownerOrAdmin,
		ActionCreate: adminOnly,
		ActionUpdate: ownerOrAdmin,
		ActionDelete: adminOnly,
	},
	ResourceCategory: catalogPolicy,
	ResourceGenre:    catalogPolicy,
	ResourceTitle:    catalogPolicy,
	ResourceReview:   contentPolicy,
	ResourceComment:  contentPolicy,
}

// Authorize reports whether actor may perform action on resource.
// actor is nil for anonymous callers; owner is the owning user of the
// target record, or nil when the record has no owner or does not exist yet.
func Authorize(actor *models.User, resource Resource, action Action, owner *uuid.UUID) Decision {
	for _, a := range policy[resource][action] {
		if a.matches(actor, owner) {
			return Allow
		}
	}
	return Deny
}

func (a audience) matches(actor *models.User, ownerID *uuid.UUID) bool {
	switch a {
	case anyone:
		return true
	case authenticated:
		return actor != nil
	case owner:
		return actor != nil && ownerID != nil && *ownerID == actor.ID
	case moderator:
		return actor != nil && actor.IsModerator()
	case admin:
		return actor != nil && actor.IsAdmin()
	}
	return false
}

// Check turns a denial into an error: Unauthenticated for anonymous callers,
// Forbidden otherwise.
func Check(actor *models.User, resource Resource, action Action, owner *uuid.UUID) error {
	if Authorize(actor, resource, action, owner) == Allow {
		return nil
	}
	if actor == nil {
		return apperrors.Unauthenticated("")
	}
	return apperrors.Forbidden()
}
