package console

import "github.com/mondoohq/console-core/pkg/viewer"

// Severity mirrors the API's severity enum.
type Severity string

const (
	SeverityCritical Severity = "CRITICAL"
	SeverityHigh     Severity = "HIGH"
	SeverityMedium   Severity = "MEDIUM"
	SeverityLow      Severity = "LOW"
	SeverityNone     Severity = "NONE"
)

// PageInfo is the cursor pagination marker of a listing.
type PageInfo struct {
	HasNextPage bool   `json:"hasNextPage"`
	EndCursor   string `json:"endCursor"`
}

// ListOptions are the common cursor arguments of a listing call.
type ListOptions struct {
	First   int
	After   string
	Filter  map[string]interface{}
	OrderBy map[string]interface{}
}

func (o ListOptions) variables(spaceMRN string) map[string]interface{} {
	return o.scopedVariables("spaceMrn", spaceMRN)
}

// scopedVariables builds query variables keyed by the scope argument
// the listing field expects.
func (o ListOptions) scopedVariables(arg, mrn string) map[string]interface{} {
	vars := map[string]interface{}{arg: mrn}
	if o.First > 0 {
		vars["first"] = o.First
	}
	if o.After != "" {
		vars["after"] = o.After
	}
	if o.Filter != nil {
		vars["filter"] = o.Filter
	}
	if o.OrderBy != nil {
		vars["orderBy"] = o.OrderBy
	}
	return vars
}

// ExceptionRef is the summary exception attached to a finding.
type ExceptionRef struct {
	ID            string `json:"id"`
	Justification string `json:"justification"`
}

// Vulnerability is one CVE listing entry.
type Vulnerability struct {
	ID             string        `json:"id"`
	MRN            string        `json:"mrn"`
	CVEID          string        `json:"cveId"`
	Title          string        `json:"title"`
	Description    string        `json:"description"`
	Severity       Severity      `json:"severity"`
	CVSSScore      float64       `json:"cvssScore"`
	PublishedAt    string        `json:"publishedAt"`
	ModifiedAt     string        `json:"modifiedAt"`
	AffectedAssets int           `json:"affectedAssets"`
	FixedBy        string        `json:"fixedBy"`
	State          string        `json:"state"`
	Exception      *ExceptionRef `json:"exception,omitempty"`
}

// Reference is an external link attached to a vulnerability.
type Reference struct {
	URL   string `json:"url"`
	Title string `json:"title"`
}

// AffectedPackage names a package version range hit by a
// vulnerability.
type AffectedPackage struct {
	Name         string `json:"name"`
	Version      string `json:"version"`
	FixedVersion string `json:"fixedVersion"`
}

// VulnerabilityDetail is the full record for one CVE.
type VulnerabilityDetail struct {
	Vulnerability
	CVSSVector       string            `json:"cvssVector"`
	References       []Reference       `json:"references"`
	AffectedPackages []AffectedPackage `json:"affectedPackages"`
	ExceptionDetail  *Exception        `json:"exceptionDetail,omitempty"`
}

// CVERef is the lightweight CVE reference carried on an advisory.
type CVERef struct {
	ID    string `json:"id"`
	CVEID string `json:"cveId"`
}

// Advisory is one vendor advisory listing entry.
type Advisory struct {
	ID             string   `json:"id"`
	MRN            string   `json:"mrn"`
	AdvisoryID     string   `json:"advisoryId"`
	Title          string   `json:"title"`
	Description    string   `json:"description"`
	Severity       Severity `json:"severity"`
	PublishedAt    string   `json:"publishedAt"`
	ModifiedAt     string   `json:"modifiedAt"`
	AffectedAssets int      `json:"affectedAssets"`
	State          string   `json:"state"`
	CVEs           []CVERef `json:"cves"`
}

// PolicyRef names the policy a check belongs to.
type PolicyRef struct {
	Name string `json:"name"`
	MRN  string `json:"mrn"`
}

// Check is one policy check listing entry.
type Check struct {
	ID             string    `json:"id"`
	MRN            string    `json:"mrn"`
	Title          string    `json:"title"`
	Description    string    `json:"description"`
	Severity       Severity  `json:"severity"`
	Impact         int       `json:"impact"`
	State          string    `json:"state"`
	AffectedAssets int       `json:"affectedAssets"`
	PassingAssets  int       `json:"passingAssets"`
	Policy         PolicyRef `json:"policy"`
}

// Platform describes an asset's platform.
type Platform struct {
	Name  string `json:"name"`
	Title string `json:"title"`
}

// Score is a derived asset score. It is never cached by identity.
type Score struct {
	Value float64 `json:"value"`
	Grade string  `json:"grade"`
}

// Asset is one asset listing entry.
type Asset struct {
	ID        string   `json:"id"`
	MRN       string   `json:"mrn"`
	Name      string   `json:"name"`
	Platform  Platform `json:"platform"`
	State     string   `json:"state"`
	Score     Score    `json:"score"`
	UpdatedAt string   `json:"updatedAt"`
}

// CreatedBy names the principal that created an exception.
type CreatedBy struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Exception is a risk-acceptance record for a finding.
type Exception struct {
	ID            string     `json:"id"`
	Justification string     `json:"justification"`
	CreatedAt     string     `json:"createdAt"`
	ExpiresAt     string     `json:"expiresAt,omitempty"`
	CreatedBy     *CreatedBy `json:"createdBy,omitempty"`
}

// CreateExceptionInput is the payload for creating an exception.
type CreateExceptionInput struct {
	ScopeMRN      string   `json:"scopeMrn"`
	FindingMRNs   []string `json:"findingMrns"`
	Justification string   `json:"justification"`
	ExpiresAt     string   `json:"expiresAt,omitempty"`
}

// Page is one page of a listing.
type Page[T any] struct {
	Nodes      []T
	PageInfo   PageInfo
	TotalCount int
}

// SpaceSettingsInput is the payload for updating space settings. Nil
// sections are left untouched.
type SpaceSettingsInput struct {
	EOLAssets *struct {
		Enable          bool `json:"enable"`
		MonthsInAdvance int  `json:"monthsInAdvance,omitempty"`
	} `json:"eolAssetsConfiguration,omitempty"`
	PlatformVulnerability *struct {
		Enable bool `json:"enable"`
	} `json:"platformVulnerabilityConfiguration,omitempty"`
	Cases *struct {
		Enable     bool `json:"enable"`
		AutoCreate bool `json:"autoCreate,omitempty"`
	} `json:"casesConfiguration,omitempty"`
	GarbageCollectAssets *struct {
		Enable    bool `json:"enable"`
		AfterDays int  `json:"afterDays,omitempty"`
	} `json:"garbageCollectAssetsConfiguration,omitempty"`
}

// SpaceStats are the dashboard statistics of one space.
type SpaceStats struct {
	RiskScore       float64 `json:"riskScore"`
	AssetCount      int     `json:"assetCount"`
	FindingsCount   int     `json:"findingsCount"`
	ComplianceScore float64 `json:"complianceScore"`
}

// SpaceDashboard is a space with its dashboard statistics.
type SpaceDashboard struct {
	viewer.Space
	Stats SpaceStats `json:"stats"`
}
