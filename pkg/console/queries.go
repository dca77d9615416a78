package console

const vulnerabilitiesQuery = `query GetVulnerabilities(
  $spaceMrn: String!
  $first: Int
  $after: String
  $filter: VulnerabilityFilter
  $orderBy: VulnerabilityOrder
) {
  vulnerabilities(
    spaceMrn: $spaceMrn
    first: $first
    after: $after
    filter: $filter
    orderBy: $orderBy
  ) {
    edges {
      cursor
      node {
        id
        mrn
        cveId
        title
        description
        severity
        cvssScore
        publishedAt
        modifiedAt
        affectedAssets
        fixedBy
        state
        exception {
          id
          justification
        }
      }
    }
    pageInfo {
      hasNextPage
      endCursor
    }
    totalCount
  }
}`

const vulnerabilityDetailQuery = `query GetVulnerabilityDetail($mrn: String!, $spaceMrn: String!) {
  vulnerability(mrn: $mrn, spaceMrn: $spaceMrn) {
    id
    mrn
    cveId
    title
    description
    severity
    cvssScore
    cvssVector
    publishedAt
    modifiedAt
    affectedAssets
    fixedBy
    state
    references {
      url
      title
    }
    affectedPackages {
      name
      version
      fixedVersion
    }
    exception {
      id
      justification
      createdAt
      expiresAt
      createdBy {
        name
        email
      }
    }
  }
}`

const advisoriesQuery = `query GetAdvisories(
  $spaceMrn: String!
  $first: Int
  $after: String
  $filter: AdvisoryFilter
  $orderBy: AdvisoryOrder
) {
  advisories(
    spaceMrn: $spaceMrn
    first: $first
    after: $after
    filter: $filter
    orderBy: $orderBy
  ) {
    edges {
      cursor
      node {
        id
        mrn
        advisoryId
        title
        description
        severity
        publishedAt
        modifiedAt
        affectedAssets
        state
        cves {
          id
          cveId
        }
      }
    }
    pageInfo {
      hasNextPage
      endCursor
    }
    totalCount
  }
}`

const checksQuery = `query GetChecks(
  $spaceMrn: String!
  $first: Int
  $after: String
  $filter: CheckFilter
  $orderBy: CheckOrder
) {
  checks(
    spaceMrn: $spaceMrn
    first: $first
    after: $after
    filter: $filter
    orderBy: $orderBy
  ) {
    edges {
      cursor
      node {
        id
        mrn
        title
        description
        severity
        impact
        state
        affectedAssets
        passingAssets
        policy {
          name
          mrn
        }
      }
    }
    pageInfo {
      hasNextPage
      endCursor
    }
    totalCount
  }
}`

const assetsQuery = `query GetAssets(
  $spaceMrn: String!
  $first: Int
  $after: String
  $filter: AssetFilter
  $orderBy: AssetOrder
) {
  assets(
    spaceMrn: $spaceMrn
    first: $first
    after: $after
    filter: $filter
    orderBy: $orderBy
  ) {
    edges {
      cursor
      node {
        id
        mrn
        name
        platform {
          name
          title
        }
        state
        score {
          value
          grade
        }
        updatedAt
      }
    }
    pageInfo {
      hasNextPage
      endCursor
    }
    totalCount
  }
}`

const spaceDashboardQuery = `query GetSpaceDashboard($spaceMrn: String!) {
  space(mrn: $spaceMrn) {
    id
    mrn
    name
    priorityFindings
    stats {
      riskScore
      assetCount
      findingsCount
      complianceScore
    }
  }
}`

const loadSpaceQuery = `query LoadSpace($spaceMrn: String!) {
  space(mrn: $spaceMrn) {
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
}`

const updateSpaceSettingsMutation = `mutation UpdateSpaceSettings($spaceMrn: String!, $settings: SpaceSettingsInput!) {
  updateSpaceSettings(spaceMrn: $spaceMrn, settings: $settings) {
    space {
      mrn
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
}`

const exceptionsQuery = `query ListExceptionGroups(
  $scopeMrn: String!
  $first: Int
  $after: String
  $filter: ExceptionGroupFilter
  $orderBy: ExceptionGroupOrder
) {
  listExceptionGroups(
    scopeMrn: $scopeMrn
    first: $first
    after: $after
    filter: $filter
    orderBy: $orderBy
  ) {
    edges {
      cursor
      node {
        id
        justification
        createdAt
        expiresAt
        createdBy {
          name
          email
        }
      }
    }
    pageInfo {
      hasNextPage
      endCursor
    }
    totalCount
  }
}`

const createExceptionMutation = `mutation CreateException($input: CreateExceptionInput!) {
  createException(input: $input) {
    exception {
      id
      justification
      createdAt
      expiresAt
    }
  }
}`

const deleteExceptionMutation = `mutation DeleteException($id: ID!) {
  deleteException(id: $id)
}`
