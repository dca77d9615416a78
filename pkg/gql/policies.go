package gql

// PaginationStyle selects how a paginated field's pages relate in the
// cache.
type PaginationStyle int

const (
	// RelayPagination merges successive pages into one growing edge
	// list per cache-key partition. The cursor arguments (first, after,
	// last, before) are excluded from the partition key.
	RelayPagination PaginationStyle = iota + 1

	// NexusPagination disables structural sharing: the cursor arguments
	// participate in the partition key, so every page occupies its own
	// partition and pages never merge.
	NexusPagination
)

// TypePolicy controls how entities of one typename are identified in
// the normalized cache.
type TypePolicy struct {
	// KeyFields are the fields whose values form the cache identity.
	// Nil falls back to the canonical resource name ("mrn") when the
	// object carries one.
	KeyFields []string

	// NoKey disables identity caching for derived, non-canonical shapes
	// (aggregate scores, generic scores). Such objects stay embedded in
	// their parent and never collapse across responses.
	NoKey bool
}

// FieldPolicy controls partitioning and merging for one paginated
// field.
type FieldPolicy struct {
	Style PaginationStyle

	// KeyArgs are the filter/order/scope argument names that partition
	// the field. Two requests differing only in cursor arguments share
	// a partition under RelayPagination; two requests differing in a
	// key argument never do.
	KeyArgs []string
}

// Policies is the full cache policy table: per-typename identity rules
// and per-field pagination rules. The root query type is addressed as
// "Query".
type Policies struct {
	Types  map[string]TypePolicy
	Fields map[string]map[string]FieldPolicy
}

func relay(keyArgs ...string) FieldPolicy {
	return FieldPolicy{Style: RelayPagination, KeyArgs: keyArgs}
}

func nexus(keyArgs ...string) FieldPolicy {
	return FieldPolicy{Style: NexusPagination, KeyArgs: keyArgs}
}

// ConsolePolicies returns the console's cache policy table.
//
// Identity rules: entities are keyed by mrn alone, except the finding
// types that recur once per affected asset and are keyed by the
// compound (mrn, asset) pair so per-asset records never collapse into
// one entry.
func ConsolePolicies() *Policies {
	return &Policies{
		Types: map[string]TypePolicy{
			"Cve":       {KeyFields: []string{"id"}},
			"DataQuery": {KeyFields: []string{"id", "mrn"}},
			"Case":      {KeyFields: []string{"mrn"}},

			// Finding types with composite keys.
			"VulnerabilityScore": {KeyFields: []string{"mrn", "asset"}},
			"CheckScore":         {KeyFields: []string{"mrn", "asset"}},
			"CheckFinding":       {KeyFields: []string{"mrn", "asset"}},
			"AdvisoryFinding":    {KeyFields: []string{"mrn", "asset"}},
			"CveFinding":         {KeyFields: []string{"mrn", "asset"}},
			"GenericFinding":     {KeyFields: []string{"mrn", "asset"}},
			"PackageFinding":     {KeyFields: []string{"id", "asset"}},

			// Derived shapes, never normalized.
			"AggregateScore": {NoKey: true},
			"Score":          {NoKey: true},
			"MvdSource":      {NoKey: true},

			"ComplianceControl": {KeyFields: []string{"mrn"}},
			"ServiceAccount":    {KeyFields: []string{"mrn"}},
			"RegistrationToken": {KeyFields: []string{"mrn"}},
			"Integration":       {KeyFields: []string{"mrn", "name"}},
			"Space":             {KeyFields: []string{"mrn"}},
			"Workspace":         {KeyFields: []string{"mrn"}},
			"Organization":      {KeyFields: []string{"mrn"}},
			"User":              {KeyFields: []string{"mrn"}},
			"ProductInfo":       {KeyFields: []string{"id", "name"}},
			"Asset":             {KeyFields: []string{"mrn"}},
			"MqueryRemediation": {KeyFields: []string{"id", "desc"}},
			"Agent":             {KeyFields: []string{"mrn"}},
			"Invitation":        {KeyFields: []string{"mrn"}},
			"Policy":            {KeyFields: []string{"mrn"}},
			"PolicyReport":      {KeyFields: []string{"mrn"}},
			"WIFAuthBinding":    {KeyFields: []string{"mrn"}},
		},
		Fields: map[string]map[string]FieldPolicy{
			"Query": {
				"activePolicies": relay("input", "scopeMrn", "orderBy", "query"),

				"advisories":    relay("orderBy", "query", "platform"),
				"cves":          relay("orderBy", "query", "state"),
				"listDocuments": relay("scopeMRN"),

				"auditlog": relay("resourceMrn", "orderBy", "actionFilter",
					"identityFilter", "timestampFilter"),

				"assets": relay("scopeMrn", "queryTerms", "platformKind",
					"platformName", "rating", "reboot", "labels", "groups",
					"assetTypes", "scoreRange", "workflowMrn"),
				"assetSearch": relay("input", "orderBy"),

				"aggregateScores": nexus("entityMrn", "filter", "orderBy"),

				"content": relay("input", "assignedOnly", "catalogType",
					"categories", "contentMrns", "includePrivate",
					"includePublic", "orderBy", "platforms", "query",
					"scopeMrn"),

				"dataQueries": relay("entityMrn", "orderBy", "filter"),

				"serviceAccounts":    relay("spaceMrn", "queryTerms"),
				"agents":             relay("spaceMrn", "queryTerms", "version", "state"),
				"registrationTokens": relay("spaceMrn"),

				"mqueryAssetScores":   relay("input"),
				"vulnerabilityScores": relay("orderBy", "filter", "entityMrn"),
				"checkScores":         relay("orderBy", "filter", "entityMrn"),

				"search": relay("scope", "query", "orderBy", "type", "filters"),

				"findings":            nexus("orderBy", "filter", "scopeMrn"),
				"cases":               nexus("input"),
				"listExceptionGroups": nexus("input", "scopeMrn", "types", "includeChildScopes", "filter", "orderBy", "mrn"),

				"remediationForScope": relay("vulnId", "scopeMrn", "ecosystem", "packages"),

				"sharedSpaces": relay(),
			},
			"Cve": {
				"advisoryAggregateScores": relay("id", "scopeMrn"),
			},
			"Case": {
				"affectedAssets": relay("mrn"),
				"mitigated":      relay("mrn"),
			},
			"ComplianceControl": {
				"checks":      relay(),
				"dataQueries": relay(),
			},
			"Organization": {
				"spacesList": relay("mrn", "name"),
			},
			"CicdProjectJobs": {
				"jobs": relay(),
			},
			"Report": {
				"cves":       relay("assetMrn"),
				"packages":   relay("assetMrn"),
				"advisories": relay("assetMrn"),
			},
		},
	}
}
