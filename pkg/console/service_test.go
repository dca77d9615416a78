package console

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mondoohq/console-core/pkg/gql"
)

func edge(node map[string]interface{}) interface{} {
	return map[string]interface{}{"cursor": "c", "node": node}
}

func conn(hasNext bool, endCursor string, total int, edges ...interface{}) map[string]interface{} {
	return map[string]interface{}{
		"edges": edges,
		"pageInfo": map[string]interface{}{
			"hasNextPage": hasNext,
			"endCursor":   endCursor,
		},
		"totalCount": total,
	}
}

// newConsoleService serves canned responses keyed by operation name.
// The handler receives the decoded request for assertions.
func newConsoleService(t *testing.T, handle func(gql.Request) map[string]interface{}) *Service {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req gql.Request
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		w.Header().Set("Content-Type", "application/json")
		require.NoError(t, json.NewEncoder(w).Encode(map[string]interface{}{"data": handle(req)}))
	}))
	t.Cleanup(srv.Close)

	client, err := gql.NewClient(gql.Options{
		Endpoint:    srv.URL,
		TokenSource: func(ctx context.Context) (string, error) { return "tok", nil },
	})
	require.NoError(t, err)
	return NewService(client, nil)
}

func TestVulnerabilitiesList(t *testing.T) {
	svc := newConsoleService(t, func(req gql.Request) map[string]interface{} {
		require.Equal(t, "GetVulnerabilities", req.OperationName)
		assert.Equal(t, "//spaces/prod", req.Variables["spaceMrn"])
		assert.Equal(t, float64(10), req.Variables["first"])
		return map[string]interface{}{
			"vulnerabilities": conn(false, "", 1, edge(map[string]interface{}{
				"id":       "cve-1",
				"mrn":      "//findings/cve-2024-1",
				"cveId":    "CVE-2024-0001",
				"title":    "Something bad",
				"severity": "CRITICAL",
				"exception": map[string]interface{}{
					"id":            "ex-1",
					"justification": "accepted risk",
				},
			})),
		}
	})

	page, err := svc.Vulnerabilities(context.Background(), "//spaces/prod", ListOptions{First: 10})
	require.NoError(t, err)
	require.Len(t, page.Nodes, 1)
	assert.Equal(t, "CVE-2024-0001", page.Nodes[0].CVEID)
	assert.Equal(t, SeverityCritical, page.Nodes[0].Severity)
	require.NotNil(t, page.Nodes[0].Exception)
	assert.Equal(t, "accepted risk", page.Nodes[0].Exception.Justification)
	assert.Equal(t, 1, page.TotalCount)
	assert.False(t, page.PageInfo.HasNextPage)
}

func TestAdvisoriesAndChecks(t *testing.T) {
	svc := newConsoleService(t, func(req gql.Request) map[string]interface{} {
		switch req.OperationName {
		case "GetAdvisories":
			return map[string]interface{}{
				"advisories": conn(false, "", 1, edge(map[string]interface{}{
					"mrn":        "//advisories/a1",
					"advisoryId": "RHSA-2024:1",
					"cves": []interface{}{
						map[string]interface{}{"id": "c1", "cveId": "CVE-2024-0001"},
					},
				})),
			}
		case "GetChecks":
			return map[string]interface{}{
				"checks": conn(false, "", 1, edge(map[string]interface{}{
					"mrn":    "//checks/c1",
					"title":  "Ensure SSH root login disabled",
					"policy": map[string]interface{}{"name": "linux-baseline", "mrn": "//policies/p1"},
				})),
			}
		default:
			t.Errorf("unexpected operation %q", req.OperationName)
			return nil
		}
	})

	advisories, err := svc.Advisories(context.Background(), "//spaces/prod", ListOptions{})
	require.NoError(t, err)
	require.Len(t, advisories.Nodes, 1)
	assert.Equal(t, "RHSA-2024:1", advisories.Nodes[0].AdvisoryID)
	require.Len(t, advisories.Nodes[0].CVEs, 1)

	checks, err := svc.Checks(context.Background(), "//spaces/prod", ListOptions{})
	require.NoError(t, err)
	require.Len(t, checks.Nodes, 1)
	assert.Equal(t, "linux-baseline", checks.Nodes[0].Policy.Name)
}

func TestPagesDrainsCursor(t *testing.T) {
	svc := newConsoleService(t, func(req gql.Request) map[string]interface{} {
		if after, ok := req.Variables["after"].(string); ok && after == "p1" {
			return map[string]interface{}{
				"assets": conn(false, "p2", 3, edge(map[string]interface{}{"mrn": "//assets/c"})),
			}
		}
		return map[string]interface{}{
			"assets": conn(true, "p1", 3,
				edge(map[string]interface{}{"mrn": "//assets/a"}),
				edge(map[string]interface{}{"mrn": "//assets/b"})),
		}
	})

	var mrns []string
	err := Pages(context.Background(), ListOptions{First: 2},
		func(ctx context.Context, opts ListOptions) (*Page[Asset], error) {
			return svc.Assets(ctx, "//spaces/prod", opts)
		},
		func(page *Page[Asset]) error {
			for _, a := range page.Nodes {
				mrns = append(mrns, a.MRN)
			}
			return nil
		})
	require.NoError(t, err)
	assert.Equal(t, []string{"//assets/a", "//assets/b", "//assets/c"}, mrns)
}

func TestVulnerabilityDetail(t *testing.T) {
	svc := newConsoleService(t, func(req gql.Request) map[string]interface{} {
		return map[string]interface{}{
			"vulnerability": map[string]interface{}{
				"mrn":        "//findings/cve-2024-1",
				"cveId":      "CVE-2024-0001",
				"cvssVector": "CVSS:3.1/AV:N",
				"references": []interface{}{
					map[string]interface{}{"url": "https://example.com", "title": "writeup"},
				},
				"affectedPackages": []interface{}{
					map[string]interface{}{"name": "openssl", "version": "1.0", "fixedVersion": "1.1"},
				},
			},
		}
	})

	detail, err := svc.Vulnerability(context.Background(), "//findings/cve-2024-1", "//spaces/prod")
	require.NoError(t, err)
	assert.Equal(t, "CVSS:3.1/AV:N", detail.CVSSVector)
	require.Len(t, detail.AffectedPackages, 1)
	assert.Equal(t, "openssl", detail.AffectedPackages[0].Name)
}

func TestVulnerabilityDetailNotFound(t *testing.T) {
	svc := newConsoleService(t, func(req gql.Request) map[string]interface{} {
		return map[string]interface{}{"vulnerability": nil}
	})

	_, err := svc.Vulnerability(context.Background(), "//findings/nope", "//spaces/prod")
	require.Error(t, err)
}

func TestCreateException(t *testing.T) {
	svc := newConsoleService(t, func(req gql.Request) map[string]interface{} {
		require.Equal(t, "CreateException", req.OperationName)
		return map[string]interface{}{
			"createException": map[string]interface{}{
				"exception": map[string]interface{}{
					"id":            "ex-1",
					"justification": "accepted risk",
					"createdAt":     "2026-08-30T00:00:00Z",
				},
			},
		}
	})

	ex, err := svc.CreateException(context.Background(), CreateExceptionInput{
		ScopeMRN:      "//spaces/prod",
		FindingMRNs:   []string{"//findings/cve-2024-1"},
		Justification: "accepted risk",
	})
	require.NoError(t, err)
	assert.Equal(t, "ex-1", ex.ID)
}

func TestCreateExceptionRequiresJustification(t *testing.T) {
	svc := newConsoleService(t, func(req gql.Request) map[string]interface{} {
		t.Error("no request expected")
		return nil
	})

	_, err := svc.CreateException(context.Background(), CreateExceptionInput{
		ScopeMRN: "//spaces/prod",
	})
	require.Error(t, err)
}

func TestDeleteException(t *testing.T) {
	svc := newConsoleService(t, func(req gql.Request) map[string]interface{} {
		require.Equal(t, "DeleteException", req.OperationName)
		assert.Equal(t, "ex-1", req.Variables["id"])
		return map[string]interface{}{"deleteException": true}
	})

	require.NoError(t, svc.DeleteException(context.Background(), "ex-1"))
}

func TestUpdateSpaceSettings(t *testing.T) {
	svc := newConsoleService(t, func(req gql.Request) map[string]interface{} {
		require.Equal(t, "UpdateSpaceSettings", req.OperationName)
		return map[string]interface{}{
			"updateSpaceSettings": map[string]interface{}{
				"space": map[string]interface{}{
					"mrn": "//spaces/prod",
					"settings": map[string]interface{}{
						"casesConfiguration": map[string]interface{}{
							"enable":     true,
							"autoCreate": true,
						},
					},
				},
			},
		}
	})

	var input SpaceSettingsInput
	input.Cases = &struct {
		Enable     bool `json:"enable"`
		AutoCreate bool `json:"autoCreate,omitempty"`
	}{Enable: true, AutoCreate: true}

	settings, err := svc.UpdateSpaceSettings(context.Background(), "//spaces/prod", input)
	require.NoError(t, err)
	require.NotNil(t, settings.Cases)
	assert.True(t, settings.Cases.Enable)
	assert.True(t, settings.Cases.AutoCreate)
}

func TestLoadSpace(t *testing.T) {
	svc := newConsoleService(t, func(req gql.Request) map[string]interface{} {
		require.Equal(t, "LoadSpace", req.OperationName)
		return map[string]interface{}{
			"space": map[string]interface{}{
				"id":   "prod",
				"mrn":  "//spaces/prod",
				"name": "Production",
				"settings": map[string]interface{}{
					"eolAssetsConfiguration": map[string]interface{}{
						"enable":          true,
						"monthsInAdvance": float64(3),
					},
				},
			},
		}
	})

	space, err := svc.LoadSpace(context.Background(), "//spaces/prod")
	require.NoError(t, err)
	assert.Equal(t, "Production", space.Name)
	require.NotNil(t, space.Settings)
	require.NotNil(t, space.Settings.EOLAssets)
	assert.Equal(t, 3, space.Settings.EOLAssets.MonthsInAdvance)
}

func TestExceptionsList(t *testing.T) {
	svc := newConsoleService(t, func(req gql.Request) map[string]interface{} {
		require.Equal(t, "ListExceptionGroups", req.OperationName)
		assert.Equal(t, "//spaces/prod", req.Variables["scopeMrn"])
		assert.NotContains(t, req.Variables, "spaceMrn")
		return map[string]interface{}{
			"listExceptionGroups": conn(false, "", 2,
				edge(map[string]interface{}{
					"id":            "ex-1",
					"justification": "accepted risk",
					"createdAt":     "2026-08-01T00:00:00Z",
					"createdBy":     map[string]interface{}{"name": "Alice", "email": "alice@example.com"},
				}),
				edge(map[string]interface{}{
					"id":            "ex-2",
					"justification": "false positive",
					"expiresAt":     "2026-12-31T00:00:00Z",
				}),
			),
		}
	})

	page, err := svc.Exceptions(context.Background(), "//spaces/prod", ListOptions{First: 10})
	require.NoError(t, err)
	require.Len(t, page.Nodes, 2)
	assert.Equal(t, "accepted risk", page.Nodes[0].Justification)
	require.NotNil(t, page.Nodes[0].CreatedBy)
	assert.Equal(t, "alice@example.com", page.Nodes[0].CreatedBy.Email)
	assert.Equal(t, "2026-12-31T00:00:00Z", page.Nodes[1].ExpiresAt)
	assert.Equal(t, 2, page.TotalCount)
}
