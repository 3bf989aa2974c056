package indexer

// Query documents. Field selections stay minimal: anything not listed here is
// an extension field we must not depend on.

const queryOrgByName = `
query OrgByName($name: String!) {
  organization(name: $name) { id }
}`

const queryOrgFullData = `
query OrgFullData($id: ID!) {
  organization(id: $id) {
    id
    name
    metadata { description logoHash links adminHatId }
    metadataHash
    deployedAt
    topHatId
    roleIds
    contracts {
      hybridVoting directDemocracyVoting taskManager educationHub treasury participationToken
    }
    users {
      address balance membershipStatus hatIds
      tasksCompleted votesCast modulesCompleted firstSeen lastActive
    }
    educationHub {
      modules { id name infoHash payout completions }
    }
  }
}`

const queryVotingData = `
query VotingData($id: ID!) {
  hybridVoting(orgId: $id) {
    quorum
    classes { strategy slicePct quadratic minBalance asset hatIds }
    proposals {
      id title descriptionHash start end numOptions status winningOption valid
      optionVotes restrictedHatIds
      executionBatches { calls { target value calldata } }
      votes { voter optionIndices weights classPowers }
    }
  }
  directDemocracyVoting(orgId: $id) {
    quorumPercentage
    proposals {
      id title descriptionHash start end numOptions status winningOption valid
      optionVotes restrictedHatIds
      votes { voter optionIndices weights }
    }
  }
}`

const queryProjectsData = `
query ProjectsData($id: ID!) {
  taskManager(orgId: $id) {
    creatorHatIds
    projects {
      id title metadataHash budgetCap managers deleted
      rolePermissions
      tasks {
        id status assignee payout bountyToken bountyAmount
        metadataHash submissionHash
        title description difficulty estimatedHours
        requiresApplication
        applications { applicant approved }
      }
    }
  }
}`

const queryUserData = `
query UserData($id: ID!, $address: String!) {
  user(id: $id) {
    address balance membershipStatus hatIds
    tasksCompleted votesCast modulesCompleted firstSeen lastActive
  }
  account(address: $address) { address username }
}`

const queryOrgStructureData = `
query OrgStructureData($id: ID!) {
  roles(orgId: $id) {
    hatId name level parentHatId wearers
    vouchConfig { enabled quorum membershipHatId }
    permissions { canCreateTasks canClaimTasks canReviewTasks canAssignTasks }
  }
  users(orgId: $id) { address membershipStatus hatIds }
  memberCount(orgId: $id)
  roleCount(orgId: $id)
  eligibilityModuleId(orgId: $id)
}`

const queryTreasuryData = `
query TreasuryData($id: ID!) {
  executorContract(orgId: $id)
  paymentManager(orgId: $id) {
    distributions {
      id token totalAmount totalClaimed merkleRoot status
      claims { claimant amount timestamp }
    }
    payments { id token to amount timestamp }
  }
}`

const queryVouchesForOrg = `
query VouchesForOrg($module: ID!) {
  vouches(eligibilityModule: $module) {
    voucher candidate hatId revoked timestamp
  }
}`

const queryTokenRequests = `
query TokenRequests($token: String!, $requester: String) {
  requests(token: $token, requester: $requester) {
    id requester token amount status timestamp
  }
}`

const queryApproverHats = `
query ApproverHats($token: String!) {
  hatPermissions(token: $token) { hatId token canApprove }
}`
