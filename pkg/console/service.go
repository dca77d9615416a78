package console

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/mondoohq/console-core/pkg/gql"
	"github.com/mondoohq/console-core/pkg/viewer"
)

// Service runs the console's typed data operations over the session's
// GraphQL client.
type Service struct {
	client *gql.Client
	logger *logrus.Entry
}

// NewService builds a console service on the given session client.
func NewService(client *gql.Client, logger *logrus.Entry) *Service {
	if logger == nil {
		logger = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Service{
		client: client,
		logger: logger.WithField("component", "console"),
	}
}

// connection is the generic wire shape of a cursor-paginated listing.
type connection[T any] struct {
	Edges []struct {
		Cursor string `json:"cursor"`
		Node   T      `json:"node"`
	} `json:"edges"`
	PageInfo   PageInfo `json:"pageInfo"`
	TotalCount int      `json:"totalCount"`
}

func (c connection[T]) page() *Page[T] {
	nodes := make([]T, len(c.Edges))
	for i, edge := range c.Edges {
		nodes[i] = edge.Node
	}
	return &Page[T]{Nodes: nodes, PageInfo: c.PageInfo, TotalCount: c.TotalCount}
}

// list runs one paginated query and unwraps the named connection
// field.
func list[T any](ctx context.Context, s *Service, query, opName, field, spaceMRN string, opts ListOptions) (*Page[T], error) {
	resp, err := s.client.Query(ctx, &gql.Request{
		Query:         query,
		OperationName: opName,
		Variables:     opts.variables(spaceMRN),
	})
	if err != nil {
		return nil, err
	}
	if len(resp.Errors) > 0 && resp.Data == nil {
		return nil, resp.Errors
	}
	var conn connection[T]
	if err := gql.DecodeField(resp, field, &conn); err != nil {
		return nil, fmt.Errorf("decoding %s: %w", field, err)
	}
	return conn.page(), nil
}

// Vulnerabilities lists the CVEs affecting a space.
func (s *Service) Vulnerabilities(ctx context.Context, spaceMRN string, opts ListOptions) (*Page[Vulnerability], error) {
	return list[Vulnerability](ctx, s, vulnerabilitiesQuery, "GetVulnerabilities", "vulnerabilities", spaceMRN, opts)
}

// Vulnerability fetches the full record for one CVE.
func (s *Service) Vulnerability(ctx context.Context, mrn, spaceMRN string) (*VulnerabilityDetail, error) {
	resp, err := s.client.Query(ctx, &gql.Request{
		Query:         vulnerabilityDetailQuery,
		OperationName: "GetVulnerabilityDetail",
		Variables:     map[string]interface{}{"mrn": mrn, "spaceMrn": spaceMRN},
	})
	if err != nil {
		return nil, err
	}
	var detail VulnerabilityDetail
	if err := gql.DecodeField(resp, "vulnerability", &detail); err != nil {
		return nil, fmt.Errorf("decoding vulnerability: %w", err)
	}
	if detail.MRN == "" {
		if len(resp.Errors) > 0 {
			return nil, resp.Errors
		}
		return nil, fmt.Errorf("vulnerability %s not found", mrn)
	}
	return &detail, nil
}

// Advisories lists the vendor advisories affecting a space.
func (s *Service) Advisories(ctx context.Context, spaceMRN string, opts ListOptions) (*Page[Advisory], error) {
	return list[Advisory](ctx, s, advisoriesQuery, "GetAdvisories", "advisories", spaceMRN, opts)
}

// Checks lists the policy checks evaluated in a space.
func (s *Service) Checks(ctx context.Context, spaceMRN string, opts ListOptions) (*Page[Check], error) {
	return list[Check](ctx, s, checksQuery, "GetChecks", "checks", spaceMRN, opts)
}

// Assets lists the assets of a space.
func (s *Service) Assets(ctx context.Context, spaceMRN string, opts ListOptions) (*Page[Asset], error) {
	return list[Asset](ctx, s, assetsQuery, "GetAssets", "assets", spaceMRN, opts)
}

// SpaceDashboard fetches one space with its dashboard statistics.
func (s *Service) SpaceDashboard(ctx context.Context, spaceMRN string) (*SpaceDashboard, error) {
	resp, err := s.client.Query(ctx, &gql.Request{
		Query:         spaceDashboardQuery,
		OperationName: "GetSpaceDashboard",
		Variables:     map[string]interface{}{"spaceMrn": spaceMRN},
	})
	if err != nil {
		return nil, err
	}
	var dash SpaceDashboard
	if err := gql.DecodeField(resp, "space", &dash); err != nil {
		return nil, fmt.Errorf("decoding space dashboard: %w", err)
	}
	if dash.MRN == "" {
		if len(resp.Errors) > 0 {
			return nil, resp.Errors
		}
		return nil, fmt.Errorf("space %s not found", spaceMRN)
	}
	return &dash, nil
}

// LoadSpace fetches one space with its settings.
func (s *Service) LoadSpace(ctx context.Context, spaceMRN string) (*viewer.Space, error) {
	resp, err := s.client.Query(ctx, &gql.Request{
		Query:         loadSpaceQuery,
		OperationName: "LoadSpace",
		Variables:     map[string]interface{}{"spaceMrn": spaceMRN},
	})
	if err != nil {
		return nil, err
	}
	var space viewer.Space
	if err := gql.DecodeField(resp, "space", &space); err != nil {
		return nil, fmt.Errorf("decoding space: %w", err)
	}
	if space.MRN == "" {
		if len(resp.Errors) > 0 {
			return nil, resp.Errors
		}
		return nil, fmt.Errorf("space %s not found", spaceMRN)
	}
	return &space, nil
}

// UpdateSpaceSettings applies a partial settings update and returns
// the resulting settings.
func (s *Service) UpdateSpaceSettings(ctx context.Context, spaceMRN string, settings SpaceSettingsInput) (*viewer.SpaceSettings, error) {
	resp, err := s.client.Mutate(ctx, &gql.Request{
		Query:         updateSpaceSettingsMutation,
		OperationName: "UpdateSpaceSettings",
		Variables: map[string]interface{}{
			"spaceMrn": spaceMRN,
			"settings": settings,
		},
	})
	if err != nil {
		return nil, err
	}
	if len(resp.Errors) > 0 {
		return nil, resp.Errors
	}
	var payload struct {
		Space struct {
			Settings viewer.SpaceSettings `json:"settings"`
		} `json:"space"`
	}
	if err := gql.DecodeField(resp, "updateSpaceSettings", &payload); err != nil {
		return nil, fmt.Errorf("decoding settings update: %w", err)
	}
	return &payload.Space.Settings, nil
}

// Exceptions lists the exception groups declared on a scope. The scope
// may be a space or an organization MRN.
func (s *Service) Exceptions(ctx context.Context, scopeMRN string, opts ListOptions) (*Page[Exception], error) {
	resp, err := s.client.Query(ctx, &gql.Request{
		Query:         exceptionsQuery,
		OperationName: "ListExceptionGroups",
		Variables:     opts.scopedVariables("scopeMrn", scopeMRN),
	})
	if err != nil {
		return nil, err
	}
	if len(resp.Errors) > 0 && resp.Data == nil {
		return nil, resp.Errors
	}
	var conn connection[Exception]
	if err := gql.DecodeField(resp, "listExceptionGroups", &conn); err != nil {
		return nil, fmt.Errorf("decoding listExceptionGroups: %w", err)
	}
	return conn.page(), nil
}

// CreateException records a risk acceptance for one or more findings.
func (s *Service) CreateException(ctx context.Context, input CreateExceptionInput) (*Exception, error) {
	if input.Justification == "" {
		return nil, fmt.Errorf("justification is required")
	}
	resp, err := s.client.Mutate(ctx, &gql.Request{
		Query:         createExceptionMutation,
		OperationName: "CreateException",
		Variables:     map[string]interface{}{"input": input},
	})
	if err != nil {
		return nil, err
	}
	if len(resp.Errors) > 0 {
		return nil, resp.Errors
	}
	var payload struct {
		Exception Exception `json:"exception"`
	}
	if err := gql.DecodeField(resp, "createException", &payload); err != nil {
		return nil, fmt.Errorf("decoding exception: %w", err)
	}
	return &payload.Exception, nil
}

// DeleteException removes a risk acceptance.
func (s *Service) DeleteException(ctx context.Context, id string) error {
	resp, err := s.client.Mutate(ctx, &gql.Request{
		Query:         deleteExceptionMutation,
		OperationName: "DeleteException",
		Variables:     map[string]interface{}{"id": id},
	})
	if err != nil {
		return err
	}
	if len(resp.Errors) > 0 {
		return resp.Errors
	}
	return nil
}

// Pages drains a listing page by page, invoking fn for every page
// until hasNextPage is false or fn returns an error. The cursor in
// opts selects the starting page.
func Pages[T any](ctx context.Context, opts ListOptions, fetch func(context.Context, ListOptions) (*Page[T], error), fn func(*Page[T]) error) error {
	for {
		page, err := fetch(ctx, opts)
		if err != nil {
			return err
		}
		if err := fn(page); err != nil {
			return err
		}
		if !page.PageInfo.HasNextPage {
			return nil
		}
		opts.After = page.PageInfo.EndCursor
	}
}
