package permission

import (
	"errors"
	"strings"
)

// Role is the global role a participant holds across every expense.
type Role string

const (
	RoleOwner   Role = "owner"
	RoleCoOwner Role = "co_owner"
	RoleEditor  Role = "editor"
	RoleViewer  Role = "viewer"
)

// Level is the permission a share grant gives its grantee on one expense.
type Level string

const (
	LevelNone Level = ""
	LevelView Level = "view"
	LevelEdit Level = "edit"
)

var (
	ErrInvalidRole  = errors.New("invalid role")
	ErrInvalidLevel = errors.New("permission must be 'view' or 'edit'")
)

func ParseRole(s string) (Role, error) {
	switch r := Role(strings.ToLower(strings.TrimSpace(s))); r {
	case RoleOwner, RoleCoOwner, RoleEditor, RoleViewer:
		return r, nil
	default:
		return "", ErrInvalidRole
	}
}

// ParseLevel accepts only the levels a grant can carry; LevelNone is not
// a valid grant.
func ParseLevel(s string) (Level, error) {
	switch l := Level(strings.ToLower(strings.TrimSpace(s))); l {
	case LevelView, LevelEdit:
		return l, nil
	default:
		return LevelNone, ErrInvalidLevel
	}
}

// Stronger returns whichever of a and b grants more.
func Stronger(a, b Level) Level {
	if a == LevelEdit || b == LevelEdit {
		return LevelEdit
	}
	if a == LevelView || b == LevelView {
		return LevelView
	}
	return LevelNone
}

func (r Role) privileged() bool {
	return r == RoleOwner || r == RoleCoOwner
}

// Capabilities is what a caller may do with one expense.
type Capabilities struct {
	View   bool `json:"can_view"`
	Edit   bool `json:"can_edit"`
	Delete bool `json:"can_delete"`
	Share  bool `json:"can_share"`
}

// Input is everything the resolver looks at.
type Input struct {
	Role    Role
	IsOwner bool
	Grant   Level
}

// Resolver turns an Input into Capabilities. With FullVisibility set every
// role may view every expense; mutation rights are unaffected.
type Resolver struct {
	FullVisibility bool
}

func (r Resolver) Resolve(in Input) Capabilities {
	c := Resolve(in.Role, in.IsOwner, in.Grant)
	if r.FullVisibility {
		c.View = true
	}
	return c
}

// Resolve evaluates the capability table without the full visibility mandate.
// Co-owners get edit and delete everywhere but never share.
func Resolve(role Role, isOwner bool, grant Level) Capabilities {
	editorOwner := role == RoleEditor && isOwner
	return Capabilities{
		View:   role.privileged() || isOwner || grant != LevelNone,
		Edit:   role.privileged() || editorOwner || grant == LevelEdit,
		Delete: role.privileged() || editorOwner,
		Share:  role == RoleOwner || editorOwner,
	}
}
