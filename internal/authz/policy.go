// Package authz decides which role may run which operation.
package authz

import (
	_ "embed"

	"github.com/BearBump/AttendTrack/internal/models"
	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
	"github.com/pkg/errors"
)

//go:embed model.conf
var modelConf string

// Operations guarded by the policy.
const (
	OpSessionStart    = "session.start"
	OpSessionStop     = "session.stop"
	OpPinpointAdd     = "pinpoint.add"
	OpSessionSnapshot = "session.snapshot"
	OpLocationPush    = "location.push"
	OpProfileRead     = "profile.read"

	OpLiveRead      = "live.read"
	OpHistoryRead   = "history.read"
	OpReportRead    = "report.read"
	OpReportQueue   = "report.queue"
	OpSessionsToday = "sessions.today"
	OpEmployeeAdmin = "employee.admin"
	OpLeadAdmin     = "lead.admin"
)

// roleUser is the implicit parent of every role.
const roleUser = "user"

var defaultPolicy = [][]string{
	{roleUser, OpSessionStop},
	{roleUser, OpPinpointAdd},
	{roleUser, OpSessionSnapshot},
	{roleUser, OpProfileRead},

	{models.RoleEmployee, OpSessionStart},
	{models.RoleEmployee, OpLocationPush},

	{models.RoleAdmin, OpLiveRead},
	{models.RoleAdmin, OpHistoryRead},
	{models.RoleAdmin, OpReportRead},
	{models.RoleAdmin, OpReportQueue},
	{models.RoleAdmin, OpSessionsToday},
	{models.RoleAdmin, OpEmployeeAdmin},
	{models.RoleAdmin, OpLeadAdmin},
}

type Policy struct {
	enforcer *casbin.SyncedEnforcer
}

func New() (*Policy, error) {
	m, err := model.NewModelFromString(modelConf)
	if err != nil {
		return nil, errors.Wrap(err, "load authz model")
	}
	e, err := casbin.NewSyncedEnforcer(m)
	if err != nil {
		return nil, errors.Wrap(err, "create enforcer")
	}

	for _, rule := range defaultPolicy {
		if _, err := e.AddPolicy(rule[0], rule[1]); err != nil {
			return nil, errors.Wrapf(err, "add policy %v", rule)
		}
	}
	for _, role := range []string{models.RoleEmployee, models.RoleAdmin} {
		if _, err := e.AddGroupingPolicy(role, roleUser); err != nil {
			return nil, errors.Wrapf(err, "add role %s", role)
		}
	}
	return &Policy{enforcer: e}, nil
}

// Allows reports whether role may run op. Unknown roles and ops are denied.
func (p *Policy) Allows(role, op string) bool {
	if role == "" || role == roleUser {
		return false
	}
	ok, err := p.enforcer.Enforce(role, op)
	return err == nil && ok
}
