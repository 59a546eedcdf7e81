package orders

import "context"

type Role string

const (
	RoleAdmin   Role = "ADMIN"
	RoleCashier Role = "CASHIER"
	RoleStaff   Role = "STAFF"
)

// Actor is the authenticated staff member behind a call. Identity is
// established upstream; the engine only checks that one is present.
type Actor struct {
	UserID string
	Role   Role
}

func (a Actor) Authenticated() bool { return a.UserID != "" }

func (a Actor) IsAdmin() bool { return a.Authenticated() && a.Role == RoleAdmin }

type actorContextKey struct{}

func WithActor(ctx context.Context, actor Actor) context.Context {
	return context.WithValue(ctx, actorContextKey{}, actor)
}

func ActorFromContext(ctx context.Context) (Actor, bool) {
	actor, ok := ctx.Value(actorContextKey{}).(Actor)
	return actor, ok && actor.Authenticated()
}
