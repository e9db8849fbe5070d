// Package authz maps (actor, action, resource) to an allow/deny decision
// through a single ordered rule table. The first rule matching the resource
// kind and action wins; pairs with no rule deny. Ownership checks that cannot
// be evaluated because a related record is not loaded also deny.
package authz

import (
	"petadopt/internal/models"
)

// Action is the operation the actor wants to perform on a resource.
type Action string

const (
	ActionCreate Action = "create"
	ActionRead   Action = "read"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

type resourceKind int

const (
	kindUnknown resourceKind = iota
	kindPet
	kindShelter
	kindAdoption
	kindUser
)

type rule struct {
	kind    resourceKind
	actions []Action
	allow   func(actor *models.User, res interface{}) bool
}

func (r rule) matches(kind resourceKind, action Action) bool {
	if r.kind != kind {
		return false
	}
	for _, a := range r.actions {
		if a == action {
			return true
		}
	}
	return false
}

// The decision table. Order matters: first match wins.
var rules = []rule{
	{kindPet, []Action{ActionCreate}, func(actor *models.User, _ interface{}) bool {
		return actor != nil && (actor.Role == models.RoleShelter || actor.Role == models.RoleClient)
	}},
	{kindPet, []Action{ActionRead}, allowAnyone},
	{kindPet, []Action{ActionUpdate, ActionDelete}, petOwnerOrAdmin},

	{kindShelter, []Action{ActionRead}, allowAnyone},
	{kindShelter, []Action{ActionCreate, ActionUpdate, ActionDelete}, adminOnly},

	{kindAdoption, []Action{ActionCreate}, func(actor *models.User, _ interface{}) bool {
		return actor != nil && actor.Role == models.RoleClient
	}},
	{kindAdoption, []Action{ActionRead, ActionUpdate, ActionDelete}, adoptionOwnerOrAdmin},

	{kindUser, []Action{ActionCreate}, allowAnyone},
	{kindUser, []Action{ActionRead}, selfOrAdmin},
	{kindUser, []Action{ActionUpdate, ActionDelete}, adminOnly},
}

// Authorize reports whether actor may perform action on res. A nil actor is
// anonymous.
func Authorize(actor *models.User, action Action, res interface{}) bool {
	kind := kindOf(res)
	for _, r := range rules {
		if r.matches(kind, action) {
			return r.allow(actor, res)
		}
	}
	return false
}

func kindOf(res interface{}) resourceKind {
	switch res.(type) {
	case *models.Pet:
		return kindPet
	case *models.Shelter:
		return kindShelter
	case *models.AdoptionRequest:
		return kindAdoption
	case *models.User:
		return kindUser
	}
	return kindUnknown
}

func allowAnyone(_ *models.User, _ interface{}) bool { return true }

func adminOnly(actor *models.User, _ interface{}) bool {
	return actor != nil && actor.Role == models.RoleAdmin
}

func selfOrAdmin(actor *models.User, res interface{}) bool {
	if actor == nil {
		return false
	}
	if actor.Role == models.RoleAdmin {
		return true
	}
	target, ok := res.(*models.User)
	return ok && target != nil && target.ID == actor.ID
}

func petOwnerOrAdmin(actor *models.User, res interface{}) bool {
	if actor == nil {
		return false
	}
	pet, ok := res.(*models.Pet)
	if !ok || pet == nil {
		return false
	}
	switch actor.Role {
	case models.RoleAdmin:
		return true
	case models.RoleShelter:
		// Denies when the shelter relation is not loaded.
		return pet.Shelter != nil && pet.Shelter.UserID == actor.ID
	case models.RoleClient:
		return pet.OwnerID != nil && *pet.OwnerID == actor.ID
	}
	return false
}

func adoptionOwnerOrAdmin(actor *models.User, res interface{}) bool {
	if actor == nil {
		return false
	}
	req, ok := res.(*models.AdoptionRequest)
	if !ok || req == nil {
		return false
	}
	if actor.Role == models.RoleAdmin {
		return true
	}
	if req.UserID == actor.ID {
		return true
	}
	if actor.Role == models.RoleShelter && req.Pet != nil && req.Pet.Shelter != nil {
		return req.Pet.Shelter.UserID == actor.ID
	}
	return false
}
