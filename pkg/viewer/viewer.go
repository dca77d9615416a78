package viewer

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/mondoohq/console-core/pkg/gql"
)

const loadViewerQuery = `query LoadViewer {
  viewer {
    mrn
    email
    name
    createdAt
    state
    organizations {
      id
      mrn
      name
      company
      description
      capabilities
      spacesCount
      subscriptionInfo {
        basePlan {
          id
          name
        }
      }
    }
    firstSpace {
      id
      mrn
      name
      description
      priorityFindings
      organization {
        id
        mrn
        name
        description
      }
      settings {
        eolAssetsConfiguration {
          enable
          monthsInAdvance
        }
        platformVulnerabilityConfiguration {
          enable
        }
        casesConfiguration {
          enable
          autoCreate
        }
        garbageCollectAssetsConfiguration {
          enable
          afterDays
        }
      }
    }
  }
  viewerSettings {
    key
    value
  }
}`

const setViewerSettingMutation = `mutation SetViewerSetting($key: String!, $value: String!) {
  changeViewerSetting(key: $key, value: $value)
}`

// Service loads and updates the viewer profile over the session's
// GraphQL client.
type Service struct {
	client *gql.Client
	logger *logrus.Entry

	// static, when set, replaces the network profile entirely.
	static *Viewer
}

// NewService builds a viewer service on the given session client.
func NewService(client *gql.Client, logger *logrus.Entry) *Service {
	if logger == nil {
		logger = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Service{
		client: client,
		logger: logger.WithField("component", "viewer"),
	}
}

// NewDevService builds a service that serves the fixed development
// profile without touching the network. Setting updates are dropped.
func NewDevService(logger *logrus.Entry) *Service {
	if logger == nil {
		logger = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Service{
		logger: logger.WithField("component", "viewer"),
		static: DevViewer(),
	}
}

// Load fetches the viewer profile and settings. The call blocks until
// the profile resolves; callers are expected to gate their startup on
// it.
func (s *Service) Load(ctx context.Context) (*Viewer, Settings, error) {
	if s.static != nil {
		return s.static, Settings{}, nil
	}

	resp, err := s.client.Query(ctx, &gql.Request{
		Query:         loadViewerQuery,
		OperationName: "LoadViewer",
	})
	if err != nil {
		return nil, Settings{}, fmt.Errorf("loading viewer: %w", err)
	}

	var v Viewer
	if err := gql.DecodeField(resp, "viewer", &v); err != nil {
		return nil, Settings{}, fmt.Errorf("loading viewer: %w", err)
	}
	if v.MRN == "" {
		if len(resp.Errors) > 0 {
			return nil, Settings{}, resp.Errors
		}
		return nil, Settings{}, fmt.Errorf("loading viewer: empty profile")
	}

	var raw []RawSetting
	if err := gql.DecodeField(resp, "viewerSettings", &raw); err != nil {
		// Settings are an enhancement, not a precondition.
		s.logger.WithError(err).Debug("viewer settings unavailable")
	}
	return &v, ParseSettings(raw), nil
}

// FindOrg returns the viewer's organization with the given ID, or nil.
func FindOrg(v *Viewer, orgID string) *Organization {
	if v == nil {
		return nil
	}
	for i := range v.Organizations {
		if v.Organizations[i].ID == orgID {
			return &v.Organizations[i]
		}
	}
	return nil
}

// FindOrgByMRN returns the viewer's organization with the given
// resource name, or nil.
func FindOrgByMRN(v *Viewer, mrn string) *Organization {
	if v == nil {
		return nil
	}
	for i := range v.Organizations {
		if v.Organizations[i].MRN == mrn {
			return &v.Organizations[i]
		}
	}
	return nil
}

// UpdateSetting persists one per-user setting.
func (s *Service) UpdateSetting(ctx context.Context, key, value string) error {
	if s.static != nil {
		return nil
	}

	resp, err := s.client.Mutate(ctx, &gql.Request{
		Query:         setViewerSettingMutation,
		OperationName: "SetViewerSetting",
		Variables:     map[string]interface{}{"key": key, "value": value},
	})
	if err != nil {
		return fmt.Errorf("updating viewer setting %q: %w", key, err)
	}
	if len(resp.Errors) > 0 {
		return fmt.Errorf("updating viewer setting %q: %w", key, resp.Errors)
	}
	return nil
}

// DevViewer is the fixed profile served when the development auth
// provider is selected.
func DevViewer() *Viewer {
	return &Viewer{
		MRN:   "//mondoo.app/users/dev-user",
		Name:  "Dev User",
		Email: "dev@example.com",
		Organizations: []Organization{
			{
				ID:           "org-1",
				MRN:          "//mondoo.app/organizations/org-1",
				Name:         "Demo Organization",
				Description:  "A demo organization for development",
				Capabilities: []string{},
				SpacesCount:  3,
				SubscriptionInfo: &SubscriptionInfo{
					BasePlan: BasePlan{ID: "enterprise", Name: "Enterprise"},
				},
			},
		},
		FirstSpace: &Space{
			ID:               "space-1",
			MRN:              "//mondoo.app/spaces/space-1",
			Name:             "Production",
			Description:      "Production environment",
			PriorityFindings: 42,
			Organization: &OrganizationRef{
				ID:   "org-1",
				MRN:  "//mondoo.app/organizations/org-1",
				Name: "Demo Organization",
			},
		},
	}
}
