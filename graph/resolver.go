package graph

import (
	"context"
	"errors"
	"math/rand"

	"github.com/rs/zerolog/log"
	"github.com/vektah/gqlparser/v2/gqlerror"

	"github.com/ridecircle/backend/chat"
	"github.com/ridecircle/backend/commuter"
	"github.com/ridecircle/backend/graph/model"
	"github.com/ridecircle/backend/location"
	"github.com/ridecircle/backend/matching"
	"github.com/ridecircle/backend/session"
)

// ProfileLoader reads one commuter by id, commuter.ErrNotFound when unknown.
type ProfileLoader func(ctx context.Context, id string) (commuter.Profile, error)

// Resolver holds the services shared with the REST handlers
type Resolver struct {
	Registry  *location.Registry
	Directory commuter.Directory
	Sessions  *session.Manager
	Responder *chat.Responder
	Load      ProfileLoader
}

// NewResolver creates a resolver. A nil load reads the directory directly.
func NewResolver(reg *location.Registry, dir commuter.Directory, sessions *session.Manager, responder *chat.Responder, load ProfileLoader) *Resolver {
	if load == nil {
		load = dir.Get
	}
	return &Resolver{
		Registry:  reg,
		Directory: dir,
		Sessions:  sessions,
		Responder: responder,
		Load:      load,
	}
}

func (r *Resolver) Query() QueryResolver       { return &queryResolver{r} }
func (r *Resolver) Mutation() MutationResolver { return &mutationResolver{r} }

type queryResolver struct{ *Resolver }
type mutationResolver struct{ *Resolver }

// Context keys for the caller's session (set by the HTTP layer)
type contextKey string

const sessionIDKey contextKey = "sessionID"

// WithSessionID marks ctx as belonging to an authenticated session.
func WithSessionID(ctx context.Context, sessionID string) context.Context {
	return context.WithValue(ctx, sessionIDKey, sessionID)
}

// SessionID returns the caller's session, if any.
func SessionID(ctx context.Context) (string, bool) {
	sid, ok := ctx.Value(sessionIDKey).(string)
	return sid, ok && sid != ""
}

// coded returns an error carrying the same code the REST API answers with.
func coded(code, message string) *gqlerror.Error {
	return &gqlerror.Error{
		Message:    message,
		Extensions: map[string]interface{}{"code": code},
	}
}

func internal(err error, code, msg string) *gqlerror.Error {
	log.Error().Err(err).Msg(msg)
	return coded(code, msg)
}

var errUnauthorized = coded("unauthorized", "authentication required")

func requireSession(ctx context.Context) (string, error) {
	sid, ok := SessionID(ctx)
	if !ok {
		return "", errUnauthorized
	}
	return sid, nil
}

// profile resolves id, answering not_found for unknown commuters.
func (r *Resolver) profile(ctx context.Context, id string) (commuter.Profile, error) {
	p, err := r.Load(ctx, id)
	if errors.Is(err, commuter.ErrNotFound) {
		return commuter.Profile{}, coded("not_found", "commuter not found")
	} else if err != nil {
		return commuter.Profile{}, internal(err, "db_error", "Error loading commuter")
	}
	return p, nil
}

// requester is the caller's saved profile, nil when there is none.
func (r *Resolver) requester(ctx context.Context) (*commuter.Profile, error) {
	sid, ok := SessionID(ctx)
	if !ok {
		return nil, nil
	}
	me, err := r.Sessions.Load(ctx, sid)
	if errors.Is(err, session.ErrNotFound) {
		return nil, nil
	} else if err != nil {
		return nil, internal(err, "session_error", "Error loading session profile")
	}
	return &me, nil
}

// Locations is the resolver for the locations field.
func (r *queryResolver) Locations(ctx context.Context) ([]location.Location, error) {
	return r.Registry.All(), nil
}

// Interests is the resolver for the interests field.
func (r *queryResolver) Interests(ctx context.Context) ([]string, error) {
	return commuter.Interests, nil
}

// Commuter is the resolver for the commuter field.
func (r *queryResolver) Commuter(ctx context.Context, id string) (*commuter.Profile, error) {
	p, err := r.Load(ctx, id)
	if errors.Is(err, commuter.ErrNotFound) {
		return nil, nil
	} else if err != nil {
		return nil, internal(err, "db_error", "Error loading commuter")
	}
	return &p, nil
}

// Me is the resolver for the me field.
func (r *queryResolver) Me(ctx context.Context) (*commuter.Profile, error) {
	if _, err := requireSession(ctx); err != nil {
		return nil, err
	}
	return r.requester(ctx)
}

// Matches is the resolver for the matches field.
func (r *queryResolver) Matches(ctx context.Context, from string, to string, filter *model.MatchFilter) (*model.MatchPage, error) {
	q := matching.Query{From: from, To: to}
	switch err := q.Validate(); {
	case errors.Is(err, matching.ErrMissingLocation):
		return nil, coded("missing_location", err.Error())
	case errors.Is(err, matching.ErrSameLocation):
		return nil, coded("same_location", err.Error())
	}
	criteria := filter.Criteria()

	requester, err := r.requester(ctx)
	if err != nil {
		return nil, err
	}
	population, err := r.Directory.All(ctx)
	if err != nil {
		return nil, internal(err, "db_error", "Error listing commuters")
	}

	page := matching.Search(q, criteria, population, requester, r.Registry)
	return &model.MatchPage{
		Results: page.Results,
		Total:   page.Total,
		Matched: len(page.Results),
		Share:   matching.EncodeSearch(q, criteria).Encode(),
	}, nil
}

// Starter is the resolver for the starter field.
func (r *queryResolver) Starter(ctx context.Context, id string, n *int) (string, error) {
	p, err := r.profile(ctx, id)
	if err != nil {
		return "", err
	}
	i := rand.Int()
	if n != nil {
		i = *n
	}
	return chat.Starter(p, i), nil
}

// SaveMe is the resolver for the saveMe field.
func (r *mutationResolver) SaveMe(ctx context.Context, input model.CommuterInput) (*commuter.Profile, error) {
	sid, err := requireSession(ctx)
	if err != nil {
		return nil, err
	}

	p := input.Profile()
	p.Normalize()
	if err := p.Validate(); err != nil {
		gerr := coded("validation_failed", err.Error())
		var verrs commuter.ValidationErrors
		if errors.As(err, &verrs) {
			gerr.Extensions["fields"] = map[string]string(verrs)
		}
		return nil, gerr
	}

	saved, err := r.Sessions.Save(ctx, sid, p)
	if err != nil {
		return nil, internal(err, "session_error", "Error saving profile")
	}
	return &saved, nil
}

// ClearMe is the resolver for the clearMe field.
func (r *mutationResolver) ClearMe(ctx context.Context) (bool, error) {
	sid, err := requireSession(ctx)
	if err != nil {
		return false, err
	}
	if err := r.Sessions.Clear(ctx, sid); err != nil {
		return false, internal(err, "session_error", "Error clearing session")
	}
	return true, nil
}

// Ask is the resolver for the ask field.
func (r *mutationResolver) Ask(ctx context.Context, id string, message string, history []*model.TurnInput) (*chat.Answer, error) {
	p, err := r.profile(ctx, id)
	if err != nil {
		return nil, err
	}
	ans := r.Responder.Respond(ctx, message, p, chat.Recent(model.Turns(history)))
	return &ans, nil
}
