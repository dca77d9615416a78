package scope

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/mondoohq/console-core/pkg/gql"
	"github.com/mondoohq/console-core/pkg/viewer"
)

const organizationScopeQuery = `query GetOrganizationScope($mrn: String!, $actions: [String!]!) {
  organization(mrn: $mrn) {
    id
    mrn
    name
    description
    company
  }
  iamActions: testIamActions(resourceMrn: $mrn, actions: $actions)
}`

const spaceScopeQuery = `query GetSpaceScope($mrn: String!, $actions: [String!]!) {
  space(mrn: $mrn) {
    id
    mrn
    name
    description
    shared
    organization {
      id
      mrn
    }
  }
  iamActions: testIamActions(resourceMrn: $mrn, actions: $actions)
}`

// Type distinguishes the kinds of authorization scope.
type Type string

const (
	TypeOrganization Type = "organization"
	TypeSpace        Type = "space"
)

// Scope is one resolved authorization context: a resource's
// descriptive fields plus the IAM actions the viewer may perform on
// it.
type Scope struct {
	Type        Type
	ID          string
	MRN         string
	Name        string
	Description string
	IAMActions  []string
}

// OrganizationScope is a resolved organization context.
type OrganizationScope struct {
	Scope
	Organization viewer.Organization
}

// SpaceScope is a resolved space context. Organization is the owning
// tenant: the synthesized "Shared Spaces" pseudo-organization for
// shared spaces, the matching entry from the viewer's organization
// list otherwise, or nil when no entry matches.
type SpaceScope struct {
	Scope
	Space        viewer.Space
	Organization *viewer.Organization
}

// SharedSpacesOrg is the pseudo-organization attached to spaces shared
// with the viewer, which are not nested under a tenant they belong to.
func SharedSpacesOrg() viewer.Organization {
	return viewer.Organization{
		ID:           "shared-spaces",
		MRN:          OrganizationMRN("shared-spaces"),
		Name:         "Shared Spaces",
		Description:  "Spaces shared with you",
		Capabilities: []string{},
	}
}

// Route carries the raw path segments the resolver works from. At most
// one of each may be present.
type Route struct {
	OrganizationID string
	SpaceID        string
}

// Path renders the route for the client-trace request header.
func (r Route) Path() string {
	var b strings.Builder
	if r.OrganizationID != "" {
		b.WriteString("/organizations/")
		b.WriteString(r.OrganizationID)
	}
	if r.SpaceID != "" {
		b.WriteString("/spaces/")
		b.WriteString(r.SpaceID)
	}
	if b.Len() == 0 {
		return "/"
	}
	return b.String()
}

// Resolver resolves and caches the authorization context for the
// current route. It is safe for concurrent use.
type Resolver struct {
	client *gql.Client
	logger *logrus.Entry

	mu         sync.RWMutex
	loading    bool
	route      Route
	orgScope   *OrganizationScope
	spaceScope *SpaceScope
}

// NewResolver builds a resolver on the session's GraphQL client.
func NewResolver(client *gql.Client, logger *logrus.Entry) *Resolver {
	if logger == nil {
		logger = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Resolver{
		client: client,
		logger: logger.WithField("component", "scope"),
	}
}

// Resolve fetches the scopes for the given route, one query per
// present identifier, concurrently. v supplies the already loaded
// organization list for owner matching; no extra network fetch is made
// for it. Query failures propagate to the caller untouched.
func (r *Resolver) Resolve(ctx context.Context, route Route, v *viewer.Viewer) error {
	r.mu.Lock()
	r.loading = true
	r.route = route
	r.orgScope = nil
	r.spaceScope = nil
	r.mu.Unlock()

	defer func() {
		r.mu.Lock()
		r.loading = false
		r.mu.Unlock()
	}()

	var (
		orgScope   *OrganizationScope
		spaceScope *SpaceScope
	)

	g, ctx := errgroup.WithContext(ctx)
	if route.OrganizationID != "" {
		g.Go(func() error {
			scope, err := r.resolveOrganization(ctx, OrganizationMRN(route.OrganizationID))
			if err != nil {
				return err
			}
			orgScope = scope
			return nil
		})
	}
	if route.SpaceID != "" {
		g.Go(func() error {
			scope, err := r.resolveSpace(ctx, SpaceMRN(route.SpaceID), v)
			if err != nil {
				return err
			}
			spaceScope = scope
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	r.mu.Lock()
	r.orgScope = orgScope
	r.spaceScope = spaceScope
	r.mu.Unlock()
	return nil
}

func (r *Resolver) resolveOrganization(ctx context.Context, mrn string) (*OrganizationScope, error) {
	resp, err := r.client.Query(ctx, &gql.Request{
		Query:         organizationScopeQuery,
		OperationName: "GetOrganizationScope",
		Variables: map[string]interface{}{
			"mrn":     mrn,
			"actions": AllActions(),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("resolving organization scope: %w", err)
	}

	var org struct {
		ID          string `json:"id"`
		MRN         string `json:"mrn"`
		Name        string `json:"name"`
		Description string `json:"description"`
		Company     string `json:"company"`
	}
	if err := gql.DecodeField(resp, "organization", &org); err != nil {
		return nil, fmt.Errorf("resolving organization scope: %w", err)
	}
	if org.MRN == "" {
		// Unknown or inaccessible organization: absence, not an error.
		return nil, nil
	}
	actions := decodeActions(resp)

	return &OrganizationScope{
		Scope: Scope{
			Type:        TypeOrganization,
			ID:          org.ID,
			MRN:         org.MRN,
			Name:        org.Name,
			Description: org.Description,
			IAMActions:  actions,
		},
		Organization: viewer.Organization{
			ID:           org.ID,
			MRN:          org.MRN,
			Name:         org.Name,
			Company:      org.Company,
			Description:  org.Description,
			Capabilities: []string{},
		},
	}, nil
}

func (r *Resolver) resolveSpace(ctx context.Context, mrn string, v *viewer.Viewer) (*SpaceScope, error) {
	resp, err := r.client.Query(ctx, &gql.Request{
		Query:         spaceScopeQuery,
		OperationName: "GetSpaceScope",
		Variables: map[string]interface{}{
			"mrn":     mrn,
			"actions": AllActions(),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("resolving space scope: %w", err)
	}

	var space viewer.Space
	if err := gql.DecodeField(resp, "space", &space); err != nil {
		return nil, fmt.Errorf("resolving space scope: %w", err)
	}
	if space.MRN == "" {
		return nil, nil
	}
	actions := decodeActions(resp)

	var org *viewer.Organization
	switch {
	case space.Shared:
		shared := SharedSpacesOrg()
		org = &shared
	case space.Organization != nil:
		// Owner comes from the viewer's already loaded organization
		// list; unmatched stays nil rather than failing.
		org = viewer.FindOrgByMRN(v, space.Organization.MRN)
	}

	return &SpaceScope{
		Scope: Scope{
			Type:        TypeSpace,
			ID:          space.ID,
			MRN:         space.MRN,
			Name:        space.Name,
			Description: space.Description,
			IAMActions:  actions,
		},
		Space:        space,
		Organization: org,
	}, nil
}

func decodeActions(resp *gql.Response) []string {
	var actions []string
	if err := gql.DecodeField(resp, "iamActions", &actions); err != nil {
		return nil
	}
	return actions
}

// Route returns the raw path segments of the last Resolve call.
func (r *Resolver) Route() Route {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.route
}

// Loading reports whether a Resolve call is in flight. Callers must
// treat scope as provisionally absent, not denied, while loading.
func (r *Resolver) Loading() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.loading
}

// OrganizationScope returns the resolved organization scope, or nil.
func (r *Resolver) OrganizationScope() *OrganizationScope {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.orgScope
}

// SpaceScope returns the resolved space scope, or nil.
func (r *Resolver) SpaceScope() *SpaceScope {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.spaceScope
}

// ActiveScope returns the most specific scope present: space over
// organization, nil when neither path segment resolved or while a
// resolution is in flight.
func (r *Resolver) ActiveScope() *Scope {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.loading {
		return nil
	}
	if r.spaceScope != nil {
		scope := r.spaceScope.Scope
		return &scope
	}
	if r.orgScope != nil {
		scope := r.orgScope.Scope
		return &scope
	}
	return nil
}

// HasPermission reports whether action appears in the active scope's
// permitted-action set. It returns false, never an error, when no
// active scope exists.
func (r *Resolver) HasPermission(action string) bool {
	active := r.ActiveScope()
	if active == nil {
		return false
	}
	for _, a := range active.IAMActions {
		if a == action {
			return true
		}
	}
	return false
}

// HasAnyPermission is a short-circuiting OR over HasPermission.
func (r *Resolver) HasAnyPermission(actions ...string) bool {
	for _, action := range actions {
		if r.HasPermission(action) {
			return true
		}
	}
	return false
}
