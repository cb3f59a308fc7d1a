package authz

import (
	"strings"

	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
)

// Roles are the fixed variants an authenticated actor may carry. Role strings
// coming from the session layer are trimmed and upper-cased before matching;
// anything outside this set holds no permissions.
const (
	RoleEmployee  = "EMPLOYEE"
	RoleDeveloper = "DEVELOPER"
	RoleManager   = "MANAGER"
	RoleHR        = "HR"
)

const ResourceLeave = "leave"

const (
	ActionApply       = "apply"
	ActionCancel      = "cancel"
	ActionResolve     = "resolve"
	ActionReadOwn     = "read_own"
	ActionReadPending = "read_pending"
	ActionReadAny     = "read_any"
)

// Actor is the authenticated identity the session layer hands to the core.
type Actor struct {
	EmployeeID string
	Role       string
}

//go:generate mockgen -source=gate.go -destination=mock/gate_mock.go -package=mock
type Gate interface {
	Can(role, resource, action string) (bool, error)
}

type gate struct {
	enforcer *casbin.Enforcer
}

const modelText = `
[request_definition]
r = sub, obj, act

[policy_definition]
p = sub, obj, act

[policy_effect]
e = some(where (p.eft == allow))

[matchers]
m = r.sub == p.sub && r.obj == p.obj && r.act == p.act
`

// policies is the single declarative permission table. Every authorization
// decision in the system goes through it; no call site re-derives role logic.
var policies = [][]string{
	{RoleEmployee, ResourceLeave, ActionApply},
	{RoleDeveloper, ResourceLeave, ActionApply},
	{RoleEmployee, ResourceLeave, ActionCancel},
	{RoleDeveloper, ResourceLeave, ActionCancel},

	{RoleManager, ResourceLeave, ActionResolve},
	{RoleHR, ResourceLeave, ActionResolve},

	{RoleEmployee, ResourceLeave, ActionReadOwn},
	{RoleDeveloper, ResourceLeave, ActionReadOwn},
	{RoleManager, ResourceLeave, ActionReadOwn},
	{RoleHR, ResourceLeave, ActionReadOwn},

	{RoleManager, ResourceLeave, ActionReadPending},
	{RoleHR, ResourceLeave, ActionReadPending},

	{RoleManager, ResourceLeave, ActionReadAny},
	{RoleHR, ResourceLeave, ActionReadAny},
}

func NewGate() (Gate, error) {
	m, err := model.NewModelFromString(modelText)
	if err != nil {
		return nil, err
	}

	e, err := casbin.NewEnforcer(m)
	if err != nil {
		return nil, err
	}

	for _, p := range policies {
		if _, err := e.AddPolicy(p[0], p[1], p[2]); err != nil {
			return nil, err
		}
	}

	return &gate{enforcer: e}, nil
}

// NormalizeRole canonicalizes a role string for matching. It does not validate
// membership; an unknown role simply matches no policy.
func NormalizeRole(role string) string {
	return strings.ToUpper(strings.TrimSpace(role))
}

func (g *gate) Can(role, resource, action string) (bool, error) {
	return g.enforcer.Enforce(NormalizeRole(role), resource, action)
}

// IsResolver reports whether the role may decide other employees' requests.
func IsResolver(role string) bool {
	r := NormalizeRole(role)
	return r == RoleManager || r == RoleHR
}
