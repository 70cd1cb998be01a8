package gymclient

import "fmt"

// Outcome is the route guard's verdict for one navigation attempt.
type Outcome uint8

const (
	// OutcomePending means rehydration has not finished; render a pending
	// indicator and re-evaluate, never protected content.
	OutcomePending Outcome = iota
	// OutcomeAllow admits the navigation.
	OutcomeAllow
	// OutcomeRedirect denies the navigation; Decision.Target carries the
	// route to go to instead.
	OutcomeRedirect
)

func (o Outcome) String() string {
	switch o {
	case OutcomePending:
		return "pending"
	case OutcomeAllow:
		return "allow"
	case OutcomeRedirect:
		return "redirect"
	}
	return fmt.Sprintf("outcome(%d)", uint8(o))
}

// Decision is the result of one [Guard.Evaluate] call.
type Decision struct {
	Outcome Outcome
	Target  string
}

// Guard is the entire client-side authorization policy: a decision table
// over the store's status and an optional role required by the route.
// There is no finer-grained permission model.
//
//	initializing    → pending (no flash of protected content)
//	unauthenticated → redirect to the login route
//	authenticated   → allow, unless the route requires a different role,
//	                  which redirects to the unauthorized route
//
// An exchange in flight (StatusAuthenticating) is treated as
// unauthenticated: nothing is established until the commit lands.
type Guard struct {
	store  *Store
	routes RouteConfig
}

// NewGuard builds a guard over the given store. Client embedders normally
// use [Client.Guard] instead.
func NewGuard(store *Store, routes RouteConfig) *Guard {
	return &Guard{store: store, routes: routes}
}

// Evaluate decides whether a view requiring requiredRole may be entered
// right now. Pass an empty role for views that only require a session.
// Evaluate is a pure read of the store; it never mutates state.
func (g *Guard) Evaluate(requiredRole Role) Decision {
	current := g.store.Current()

	switch current.Status {
	case StatusInitializing:
		return Decision{Outcome: OutcomePending}
	case StatusAuthenticated:
		// fall through to the role check below
	default:
		return Decision{Outcome: OutcomeRedirect, Target: g.routes.Login}
	}

	if requiredRole == "" || current.Identity.Role == requiredRole {
		return Decision{Outcome: OutcomeAllow}
	}
	return Decision{Outcome: OutcomeRedirect, Target: g.routes.Unauthorized}
}

// Allows reports whether a view requiring requiredRole may be entered
// right now, collapsing pending and redirect into a denial.
func (g *Guard) Allows(requiredRole Role) bool {
	return g.Evaluate(requiredRole).Outcome == OutcomeAllow
}
