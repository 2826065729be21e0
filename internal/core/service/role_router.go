package service

import (
	"strings"

	"github.com/microtask/taskhub/internal/core/domain"
)

const (
	RouteLogin      = "/login"
	RouteRegister   = "/register"
	RouteSelectRole = "/select-role"
	RouteDashboard  = "/dashboard"

	RouteWorkerHome     = "/dashboard/worker-home"
	RouteTaskList       = "/dashboard/task-list"
	RouteTaskDetail     = "/dashboard/task"
	RouteMySubmissions  = "/dashboard/my-submissions"
	RouteWithdrawals    = "/dashboard/withdrawals"
	RouteBuyerHome      = "/dashboard/buyer-home"
	RouteAddTask        = "/dashboard/add-task"
	RouteMyTasks        = "/dashboard/my-tasks"
	RouteReview         = "/dashboard/review"
	RoutePurchaseCoins  = "/dashboard/purchase-coins"
	RoutePaymentHistory = "/dashboard/payment-history"
	RouteAdminHome      = "/dashboard/admin-home"
	RouteManageUsers    = "/dashboard/manage-users"
	RouteManageTasks    = "/dashboard/manage-tasks"
	RouteManageReports  = "/dashboard/manage-reports"
	RouteWithdrawalReqs = "/dashboard/withdrawal-requests"
	RouteProfile        = "/dashboard/profile"
	RouteNotifications  = "/dashboard/notifications"
)

// DecisionKind is what a gated view should do.
type DecisionKind int

const (
	// Render the requested view.
	Render DecisionKind = iota
	// Redirect to Decision.Target.
	Redirect
	// Loading: the session is still Unknown; decide nothing yet.
	Loading
	// Forbidden: authenticated, but the role may not see this view.
	Forbidden
)

// Decision is the outcome of routing one request.
type Decision struct {
	Kind   DecisionKind
	Target string
}

// RoleRouter maps roles to landing routes and gates role-specific views.
type RoleRouter struct {
	landing map[domain.Role]string
	access  map[string][]domain.Role
}

// NewRoleRouter returns the marketplace route table.
func NewRoleRouter() *RoleRouter {
	worker := []domain.Role{domain.RoleWorker}
	buyer := []domain.Role{domain.RoleBuyer}
	admin := []domain.Role{domain.RoleAdmin}
	everyone := []domain.Role{domain.RoleWorker, domain.RoleBuyer, domain.RoleAdmin}

	return &RoleRouter{
		landing: map[domain.Role]string{
			domain.RoleWorker: RouteWorkerHome,
			domain.RoleBuyer:  RouteBuyerHome,
			domain.RoleAdmin:  RouteAdminHome,
		},
		access: map[string][]domain.Role{
			RouteWorkerHome:     worker,
			RouteTaskList:       worker,
			RouteTaskDetail:     worker,
			RouteMySubmissions:  worker,
			RouteWithdrawals:    worker,
			RouteBuyerHome:      buyer,
			RouteAddTask:        buyer,
			RouteMyTasks:        buyer,
			RouteReview:         buyer,
			RoutePurchaseCoins:  buyer,
			RoutePaymentHistory: buyer,
			RouteAdminHome:      admin,
			RouteManageUsers:    admin,
			RouteManageTasks:    admin,
			RouteManageReports:  admin,
			RouteWithdrawalReqs: admin,
			RouteProfile:        everyone,
			RouteNotifications:  everyone,
		},
	}
}

// DefaultRoute is the landing route for role. Unknown roles land on the
// worker home, the least privileged view.
func (r *RoleRouter) DefaultRoute(role domain.Role) string {
	if route, ok := r.landing[role]; ok {
		return route
	}
	return RouteWorkerHome
}

// CanAccess reports whether role may open route. Sub-paths such as
// /dashboard/task/:id inherit the rule of their parent.
func (r *RoleRouter) CanAccess(role domain.Role, route string) bool {
	roles, ok := r.lookup(route)
	if !ok {
		return false
	}
	for _, allowed := range roles {
		if allowed == role {
			return true
		}
	}
	return false
}

func (r *RoleRouter) lookup(route string) ([]domain.Role, bool) {
	route = strings.TrimSuffix(route, "/")
	for route != "" {
		if roles, ok := r.access[route]; ok {
			return roles, true
		}
		i := strings.LastIndex(route, "/")
		if i <= 0 {
			break
		}
		route = route[:i]
	}
	return nil, false
}

// Protected routes a request for a role-gated view.
func (r *RoleRouter) Protected(state domain.SessionState, sess *domain.Session, route string) Decision {
	switch state {
	case domain.SessionUnknown:
		return Decision{Kind: Loading}
	case domain.SessionAnonymous:
		return Decision{Kind: Redirect, Target: RouteLogin}
	}
	if sess == nil {
		return Decision{Kind: Redirect, Target: RouteLogin}
	}
	if sess.PendingRoleSelection {
		return Decision{Kind: Redirect, Target: RouteSelectRole}
	}
	if strings.TrimSuffix(route, "/") == RouteDashboard {
		return Decision{Kind: Redirect, Target: r.DefaultRoute(sess.Role)}
	}
	if !r.CanAccess(sess.Role, route) {
		return Decision{Kind: Forbidden}
	}
	return Decision{Kind: Render}
}

// Public routes a request for a public-only view such as login or register.
// An authenticated user never sees those forms.
func (r *RoleRouter) Public(state domain.SessionState, sess *domain.Session) Decision {
	switch state {
	case domain.SessionUnknown:
		return Decision{Kind: Loading}
	case domain.SessionAuthenticated:
		if sess != nil && sess.PendingRoleSelection {
			return Decision{Kind: Redirect, Target: RouteSelectRole}
		}
		if sess != nil {
			return Decision{Kind: Redirect, Target: r.DefaultRoute(sess.Role)}
		}
	}
	return Decision{Kind: Render}
}

// RoleSelection routes a request for the deferred role-selection view.
func (r *RoleRouter) RoleSelection(state domain.SessionState, sess *domain.Session) Decision {
	switch state {
	case domain.SessionUnknown:
		return Decision{Kind: Loading}
	case domain.SessionAnonymous:
		return Decision{Kind: Redirect, Target: RouteLogin}
	}
	if sess == nil || !sess.PendingRoleSelection {
		role := domain.RoleWorker
		if sess != nil {
			role = sess.Role
		}
		return Decision{Kind: Redirect, Target: r.DefaultRoute(role)}
	}
	return Decision{Kind: Render}
}
