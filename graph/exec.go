package graph

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/99designs/gqlgen/graphql"
	"github.com/vektah/gqlparser/v2"
	"github.com/vektah/gqlparser/v2/ast"
	"github.com/vektah/gqlparser/v2/gqlerror"

	"github.com/ridecircle/backend/chat"
	"github.com/ridecircle/backend/commuter"
	"github.com/ridecircle/backend/graph/model"
	"github.com/ridecircle/backend/location"
	"github.com/ridecircle/backend/matching"
)

//go:embed schema.graphqls
var sourceSchema string

var parsedSchema = gqlparser.MustLoadSchema(&ast.Source{Name: "schema.graphqls", Input: sourceSchema})

// SDL returns the schema source.
func SDL() string { return sourceSchema }

type ResolverRoot interface {
	Query() QueryResolver
	Mutation() MutationResolver
}

type QueryResolver interface {
	Locations(ctx context.Context) ([]location.Location, error)
	Interests(ctx context.Context) ([]string, error)
	Commuter(ctx context.Context, id string) (*commuter.Profile, error)
	Me(ctx context.Context) (*commuter.Profile, error)
	Matches(ctx context.Context, from string, to string, filter *model.MatchFilter) (*model.MatchPage, error)
	Starter(ctx context.Context, id string, n *int) (string, error)
}

type MutationResolver interface {
	SaveMe(ctx context.Context, input model.CommuterInput) (*commuter.Profile, error)
	ClearMe(ctx context.Context) (bool, error)
	Ask(ctx context.Context, id string, message string, history []*model.TurnInput) (*chat.Answer, error)
}

type Config struct {
	Resolvers ResolverRoot
}

// NewExecutableSchema creates an ExecutableSchema from the resolvers.
func NewExecutableSchema(cfg Config) graphql.ExecutableSchema {
	return &executableSchema{resolvers: cfg.Resolvers}
}

type executableSchema struct {
	resolvers ResolverRoot
}

func (e *executableSchema) Schema() *ast.Schema {
	return parsedSchema
}

// Complexity is not tracked; every field costs the default.
func (e *executableSchema) Complexity(ctx context.Context, typeName, field string, childComplexity int, rawArgs map[string]any) (int, bool) {
	return 0, false
}

func (e *executableSchema) Exec(ctx context.Context) graphql.ResponseHandler {
	opCtx := graphql.GetOperationContext(ctx)
	ec := &executionContext{OperationContext: opCtx, resolvers: e.resolvers}

	var rootType string
	switch opCtx.Operation.Operation {
	case ast.Query:
		rootType = "Query"
	case ast.Mutation:
		rootType = "Mutation"
	default:
		return graphql.OneShot(graphql.ErrorResponse(ctx, "unsupported GraphQL operation"))
	}

	data, ok := ec.root(ctx, rootType, opCtx.Operation.SelectionSet)
	resp := &graphql.Response{Errors: ec.errors}
	if ok {
		var buf bytes.Buffer
		data.MarshalGQL(&buf)
		resp.Data = buf.Bytes()
	}
	return graphql.OneShot(resp)
}

type executionContext struct {
	*graphql.OperationContext
	resolvers ResolverRoot
	errors    gqlerror.List
}

// root resolves the top-level fields: mutations in order, queries
// concurrently so their profile loads share a dataloader batch. ok is false
// when a non-null field failed, which nulls the whole response data.
func (ec *executionContext) root(ctx context.Context, typeName string, sel ast.SelectionSet) (graphql.Marshaler, bool) {
	fields := graphql.CollectFields(ec.OperationContext, sel, []string{typeName})
	values := make([]graphql.Marshaler, len(fields))
	errs := make([]error, len(fields))
	resolve := func(i int) {
		values[i], errs[i] = ec.resolveRoot(ctx, typeName, fields[i])
	}

	if typeName == "Mutation" {
		for i := range fields {
			resolve(i)
		}
	} else {
		var wg sync.WaitGroup
		for i := range fields {
			wg.Add(1)
			go func() {
				defer wg.Done()
				resolve(i)
			}()
		}
		wg.Wait()
	}

	out := graphql.NewFieldSet(fields)
	ok := true
	for i, f := range fields {
		if errs[i] != nil {
			ec.addError(f, errs[i])
			values[i] = graphql.Null
			if nonNull(typeName, f.Name) {
				ok = false
			}
		}
		out.Values[i] = values[i]
	}
	return out, ok
}

func (ec *executionContext) resolveRoot(ctx context.Context, typeName string, f graphql.CollectedField) (v graphql.Marshaler, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = ec.Recover(ctx, r)
		}
	}()

	if f.Name == "__typename" {
		return graphql.MarshalString(typeName), nil
	}
	if typeName == "Mutation" {
		return ec.resolveMutation(ctx, f)
	}
	return ec.resolveQuery(ctx, f)
}

func (ec *executionContext) resolveQuery(ctx context.Context, f graphql.CollectedField) (graphql.Marshaler, error) {
	q := ec.resolvers.Query()
	switch f.Name {
	case "locations":
		locs, err := q.Locations(ctx)
		if err != nil {
			return nil, err
		}
		arr := make(graphql.Array, len(locs))
		for i := range locs {
			arr[i] = ec.marshalLocation(f.Selections, locs[i])
		}
		return arr, nil

	case "interests":
		tags, err := q.Interests(ctx)
		if err != nil {
			return nil, err
		}
		return marshalStrings(tags), nil

	case "commuter":
		var args struct {
			ID string `json:"id"`
		}
		if err := ec.args(f, &args); err != nil {
			return nil, err
		}
		p, err := q.Commuter(ctx, args.ID)
		if err != nil {
			return nil, err
		}
		return ec.marshalCommuter(f.Selections, p), nil

	case "me":
		p, err := q.Me(ctx)
		if err != nil {
			return nil, err
		}
		return ec.marshalCommuter(f.Selections, p), nil

	case "matches":
		var args struct {
			From   string             `json:"from"`
			To     string             `json:"to"`
			Filter *model.MatchFilter `json:"filter"`
		}
		if err := ec.args(f, &args); err != nil {
			return nil, err
		}
		page, err := q.Matches(ctx, args.From, args.To, args.Filter)
		if err != nil {
			return nil, err
		}
		return ec.marshalMatchPage(f.Selections, page), nil

	case "starter":
		var args struct {
			ID string `json:"id"`
			N  *int   `json:"n"`
		}
		if err := ec.args(f, &args); err != nil {
			return nil, err
		}
		s, err := q.Starter(ctx, args.ID, args.N)
		if err != nil {
			return nil, err
		}
		return graphql.MarshalString(s), nil
	}
	return nil, fmt.Errorf("field %q is not available", f.Name)
}

func (ec *executionContext) resolveMutation(ctx context.Context, f graphql.CollectedField) (graphql.Marshaler, error) {
	m := ec.resolvers.Mutation()
	switch f.Name {
	case "saveMe":
		var args struct {
			Input model.CommuterInput `json:"input"`
		}
		if err := ec.args(f, &args); err != nil {
			return nil, err
		}
		p, err := m.SaveMe(ctx, args.Input)
		if err != nil {
			return nil, err
		}
		return ec.marshalCommuter(f.Selections, p), nil

	case "clearMe":
		done, err := m.ClearMe(ctx)
		if err != nil {
			return nil, err
		}
		return graphql.MarshalBoolean(done), nil

	case "ask":
		var args struct {
			ID      string             `json:"id"`
			Message string             `json:"message"`
			History []*model.TurnInput `json:"history"`
		}
		if err := ec.args(f, &args); err != nil {
			return nil, err
		}
		ans, err := m.Ask(ctx, args.ID, args.Message, args.History)
		if err != nil {
			return nil, err
		}
		return ec.marshalAnswer(f.Selections, ans), nil
	}
	return nil, fmt.Errorf("field %q is not available", f.Name)
}

// args decodes the field's coerced arguments into dst by their json tags.
func (ec *executionContext) args(f graphql.CollectedField, dst any) error {
	raw, err := json.Marshal(f.ArgumentMap(ec.Variables))
	if err != nil {
		return fmt.Errorf("encoding arguments of %s: %w", f.Name, err)
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("decoding arguments of %s: %w", f.Name, err)
	}
	return nil
}

func (ec *executionContext) addError(f graphql.CollectedField, err error) {
	e := &gqlerror.Error{Message: err.Error()}
	var gerr *gqlerror.Error
	if errors.As(err, &gerr) {
		cp := *gerr
		e = &cp
	}
	e.Path = ast.Path{ast.PathName(f.Alias)}
	if f.Position != nil {
		e.Locations = []gqlerror.Location{{Line: f.Position.Line, Column: f.Position.Column}}
	}
	ec.errors = append(ec.errors, e)
}

func nonNull(typeName, field string) bool {
	def := parsedSchema.Types[typeName].Fields.ForName(field)
	return def != nil && def.Type.NonNull
}

func marshalStrings(ss []string) graphql.Marshaler {
	arr := make(graphql.Array, len(ss))
	for i, s := range ss {
		arr[i] = graphql.MarshalString(s)
	}
	return arr
}

func (ec *executionContext) marshalCommuter(sel ast.SelectionSet, p *commuter.Profile) graphql.Marshaler {
	if p == nil {
		return graphql.Null
	}
	fields := graphql.CollectFields(ec.OperationContext, sel, []string{"Commuter"})
	out := graphql.NewFieldSet(fields)
	for i, f := range fields {
		switch f.Name {
		case "__typename":
			out.Values[i] = graphql.MarshalString("Commuter")
		case "id":
			out.Values[i] = graphql.MarshalID(p.ID)
		case "name":
			out.Values[i] = graphql.MarshalString(p.Name)
		case "age":
			out.Values[i] = graphql.MarshalInt(p.Age)
		case "gender":
			out.Values[i] = graphql.MarshalString(p.Gender)
		case "from":
			out.Values[i] = graphql.MarshalString(p.From)
		case "to":
			out.Values[i] = graphql.MarshalString(p.To)
		case "bio":
			out.Values[i] = graphql.MarshalString(p.Bio)
		case "interests":
			out.Values[i] = marshalStrings(p.Interests)
		case "verified":
			out.Values[i] = graphql.MarshalBoolean(p.Verified)
		case "profileImage":
			out.Values[i] = graphql.MarshalString(p.ProfileImage)
		case "commuteTime":
			out.Values[i] = graphql.MarshalString(p.CommuteTime)
		case "routeDistance":
			out.Values[i] = graphql.MarshalString(p.RouteDistance)
		case "preferredGender":
			out.Values[i] = graphql.MarshalString(p.PreferredGender)
		default:
			out.Values[i] = graphql.Null
		}
	}
	return out
}

func (ec *executionContext) marshalMatchPage(sel ast.SelectionSet, page *model.MatchPage) graphql.Marshaler {
	fields := graphql.CollectFields(ec.OperationContext, sel, []string{"MatchPage"})
	out := graphql.NewFieldSet(fields)
	for i, f := range fields {
		switch f.Name {
		case "__typename":
			out.Values[i] = graphql.MarshalString("MatchPage")
		case "results":
			arr := make(graphql.Array, len(page.Results))
			for j := range page.Results {
				arr[j] = ec.marshalMatchResult(f.Selections, &page.Results[j])
			}
			out.Values[i] = arr
		case "total":
			out.Values[i] = graphql.MarshalInt(page.Total)
		case "matched":
			out.Values[i] = graphql.MarshalInt(page.Matched)
		case "share":
			out.Values[i] = graphql.MarshalString(page.Share)
		default:
			out.Values[i] = graphql.Null
		}
	}
	return out
}

func (ec *executionContext) marshalMatchResult(sel ast.SelectionSet, r *matching.Result) graphql.Marshaler {
	fields := graphql.CollectFields(ec.OperationContext, sel, []string{"MatchResult"})
	out := graphql.NewFieldSet(fields)
	for i, f := range fields {
		switch f.Name {
		case "__typename":
			out.Values[i] = graphql.MarshalString("MatchResult")
		case "commuter":
			out.Values[i] = ec.marshalCommuter(f.Selections, &r.Profile)
		case "score":
			out.Values[i] = graphql.MarshalInt(r.Score)
		case "routeOverlap":
			out.Values[i] = graphql.MarshalString(r.RouteOverlap)
		case "commonInterests":
			out.Values[i] = marshalStrings(r.CommonInterests)
		case "pickupDistanceKm":
			out.Values[i] = graphql.MarshalFloat(r.PickupDistanceKm)
		default:
			out.Values[i] = graphql.Null
		}
	}
	return out
}

func (ec *executionContext) marshalLocation(sel ast.SelectionSet, l location.Location) graphql.Marshaler {
	fields := graphql.CollectFields(ec.OperationContext, sel, []string{"Location"})
	out := graphql.NewFieldSet(fields)
	for i, f := range fields {
		switch f.Name {
		case "__typename":
			out.Values[i] = graphql.MarshalString("Location")
		case "name":
			out.Values[i] = graphql.MarshalString(l.Name)
		case "lat":
			out.Values[i] = graphql.MarshalFloat(l.Lat)
		case "lng":
			out.Values[i] = graphql.MarshalFloat(l.Lng)
		default:
			out.Values[i] = graphql.Null
		}
	}
	return out
}

func (ec *executionContext) marshalAnswer(sel ast.SelectionSet, a *chat.Answer) graphql.Marshaler {
	fields := graphql.CollectFields(ec.OperationContext, sel, []string{"Answer"})
	out := graphql.NewFieldSet(fields)
	for i, f := range fields {
		switch f.Name {
		case "__typename":
			out.Values[i] = graphql.MarshalString("Answer")
		case "text":
			out.Values[i] = graphql.MarshalString(a.Text)
		case "source":
			out.Values[i] = graphql.MarshalString(a.Source)
		default:
			out.Values[i] = graphql.Null
		}
	}
	return out
}
