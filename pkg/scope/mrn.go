package scope

import "strings"

// authority is the canonical resource-name authority for console
// resources.
const authority = "captain.api.mondoo.app"

// OrganizationMRN builds the canonical resource name for an
// organization ID.
func OrganizationMRN(orgID string) string {
	return "//" + authority + "/organizations/" + orgID
}

// SpaceMRN builds the canonical resource name for a space ID.
func SpaceMRN(spaceID string) string {
	return "//" + authority + "/spaces/" + spaceID
}

// IDFromMRN returns the final path segment of a resource name, which
// is the raw ID the name was built from. An empty mrn yields "".
func IDFromMRN(mrn string) string {
	if mrn == "" {
		return ""
	}
	idx := strings.LastIndex(mrn, "/")
	if idx < 0 {
		return mrn
	}
	return mrn[idx+1:]
}
