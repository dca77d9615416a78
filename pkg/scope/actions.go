package scope

// The fixed master list of IAM action identifiers the console checks
// against a scope. Every scope query asks the API which of these the
// viewer may perform on the resource.
const (
	ActionOrgEdit        = "mondoo.organization.edit"
	ActionOrgDelete      = "mondoo.organization.delete"
	ActionOrgMembersView = "mondoo.organization.members.view"
	ActionOrgMembersEdit = "mondoo.organization.members.edit"
	ActionOrgBillingView = "mondoo.organization.billing.view"
	ActionOrgBillingEdit = "mondoo.organization.billing.edit"

	ActionSpaceEdit                = "mondoo.space.edit"
	ActionSpaceDelete              = "mondoo.space.delete"
	ActionSpaceAgentsView          = "mondoo.space.agents.view"
	ActionSpaceAgentsSetConfig     = "mondoo.space.agents.setconfig"
	ActionSpaceIntegrationsView    = "mondoo.space.integrations.view"
	ActionSpaceIntegrationsEdit    = "mondoo.space.integrations.edit"
	ActionSpaceAssetsView          = "mondoo.space.assets.view"
	ActionSpaceAssetsEdit          = "mondoo.space.assets.edit"
	ActionSpacePoliciesView        = "mondoo.space.policies.view"
	ActionSpacePoliciesEdit        = "mondoo.space.policies.edit"
	ActionSpaceVulnerabilitiesView = "mondoo.space.vulnerabilities.view"
	ActionSpaceAdvisoriesView      = "mondoo.space.advisories.view"
	ActionSpaceChecksView          = "mondoo.space.checks.view"
	ActionSpaceFrameworksView      = "mondoo.space.frameworks.view"
	ActionSpaceReportsView         = "mondoo.space.reports.view"
	ActionSpaceReportsEdit         = "mondoo.space.reports.edit"
	ActionSpaceCasesView           = "mondoo.space.cases.view"
	ActionSpaceCasesEdit           = "mondoo.space.cases.edit"
	ActionSpaceExceptionsView      = "mondoo.space.exceptions.view"
	ActionSpaceExceptionsEdit      = "mondoo.space.exceptions.edit"
)

// AllActions returns the complete master list, in declaration order.
func AllActions() []string {
	return []string{
		ActionOrgEdit,
		ActionOrgDelete,
		ActionOrgMembersView,
		ActionOrgMembersEdit,
		ActionOrgBillingView,
		ActionOrgBillingEdit,

		ActionSpaceEdit,
		ActionSpaceDelete,
		ActionSpaceAgentsView,
		ActionSpaceAgentsSetConfig,
		ActionSpaceIntegrationsView,
		ActionSpaceIntegrationsEdit,
		ActionSpaceAssetsView,
		ActionSpaceAssetsEdit,
		ActionSpacePoliciesView,
		ActionSpacePoliciesEdit,
		ActionSpaceVulnerabilitiesView,
		ActionSpaceAdvisoriesView,
		ActionSpaceChecksView,
		ActionSpaceFrameworksView,
		ActionSpaceReportsView,
		ActionSpaceReportsEdit,
		ActionSpaceCasesView,
		ActionSpaceCasesEdit,
		ActionSpaceExceptionsView,
		ActionSpaceExceptionsEdit,
	}
}
