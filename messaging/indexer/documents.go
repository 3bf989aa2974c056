package indexer

import (
	"github.com/spf13/cast"

	"orgmachine/orgmachine"
)

// The indexer is not consistent about scalar encodings: timestamps and counts
// arrive as numbers from some deployments and strings from others, and any
// subfield may be null while the indexer catches up. FlexInt64 absorbs all of
// that; balances stay as decimal strings because they can exceed int64.
type FlexInt64 int64

func (f *FlexInt64) UnmarshalJSON(b []byte) error {
	var v interface{}
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	*f = FlexInt64(cast.ToInt64(v))
	return nil
}

func (f FlexInt64) Int64() int64 {
	return int64(f)
}

type OrgRef struct {
	ID orgmachine.OrgID `json:"id"`
}

type OrgMetadata struct {
	Description string                 `json:"description"`
	LogoHandle  orgmachine.BlobHandle  `json:"logoHash"`
	Links       map[string]string      `json:"links"`
	AdminHat    orgmachine.HatID       `json:"adminHatId"`
	Extra       map[string]interface{} `json:"-"`
}

type RoleDocument struct {
	HatID       orgmachine.HatID `json:"hatId"`
	Name        string           `json:"name"`
	Level       FlexInt64        `json:"level"`
	ParentID    orgmachine.HatID `json:"parentHatId"`
	Wearers     []orgmachine.Address `json:"wearers"`
	VouchConfig *VouchConfigDocument `json:"vouchConfig"`
	Permissions *PermissionMaskDoc   `json:"permissions"`
}

type VouchConfigDocument struct {
	Enabled       bool             `json:"enabled"`
	Quorum        FlexInt64        `json:"quorum"`
	MembershipHat orgmachine.HatID `json:"membershipHatId"`
}

type PermissionMaskDoc struct {
	CanCreate bool `json:"canCreateTasks"`
	CanClaim  bool `json:"canClaimTasks"`
	CanReview bool `json:"canReviewTasks"`
	CanAssign bool `json:"canAssignTasks"`
}

type UserDocument struct {
	Address          orgmachine.Address `json:"address"`
	Balance          string             `json:"balance"`
	MembershipStatus string             `json:"membershipStatus"`
	Held             []orgmachine.HatID `json:"hatIds"`
	TasksCompleted   FlexInt64          `json:"tasksCompleted"`
	VotesCast        FlexInt64          `json:"votesCast"`
	ModulesCompleted FlexInt64          `json:"modulesCompleted"`
	FirstSeen        FlexInt64          `json:"firstSeen"`
	LastActive       FlexInt64          `json:"lastActive"`
}

type AccountDocument struct {
	Address  orgmachine.Address `json:"address"`
	Username string             `json:"username"`
}

type OrgDocument struct {
	ID           orgmachine.OrgID      `json:"id"`
	Name         string                `json:"name"`
	Metadata     *OrgMetadata          `json:"metadata"`
	MetadataHash orgmachine.BlobHandle `json:"metadataHash"`
	DeployedAt   FlexInt64             `json:"deployedAt"`
	TopHat       orgmachine.HatID      `json:"topHatId"`
	Roles        []orgmachine.HatID    `json:"roleIds"`
	Contracts    ContractRefs          `json:"contracts"`
	Users        []UserDocument        `json:"users"`
	Education    *EducationHubDocument `json:"educationHub"`
}

type ContractRefs struct {
	HybridVoting    orgmachine.Address `json:"hybridVoting"`
	DirectDemocracy orgmachine.Address `json:"directDemocracyVoting"`
	TaskManager     orgmachine.Address `json:"taskManager"`
	EducationHub    orgmachine.Address `json:"educationHub"`
	Treasury        orgmachine.Address `json:"treasury"`
	Token           orgmachine.Address `json:"participationToken"`
}

type EducationHubDocument struct {
	Modules []EducationModuleDocument `json:"modules"`
}

type EducationModuleDocument struct {
	ID          string                `json:"id"`
	Title       string                `json:"name"`
	InfoHandle  orgmachine.BlobHandle `json:"infoHash"`
	Payout      string                `json:"payout"`
	Completions FlexInt64             `json:"completions"`
}

type ClassDocument struct {
	Strategy   string             `json:"strategy"`
	SlicePct   FlexInt64          `json:"slicePct"`
	Quadratic  bool               `json:"quadratic"`
	MinBalance string             `json:"minBalance"`
	Asset      orgmachine.Address `json:"asset"`
	HatIDs     []orgmachine.HatID `json:"hatIds"`
}

type ProposalDocument struct {
	ID              FlexInt64             `json:"id"`
	Title           string                `json:"title"`
	DescriptionHash orgmachine.BlobHandle `json:"descriptionHash"`
	Start           FlexInt64             `json:"start"`
	End             FlexInt64             `json:"end"`
	NumOptions      FlexInt64             `json:"numOptions"`
	Status          string                `json:"status"`
	WinningOption   *FlexInt64            `json:"winningOption"`
	Valid           bool                  `json:"valid"`
	OptionVotes     []string              `json:"optionVotes"`
	RestrictedHats  []orgmachine.HatID    `json:"restrictedHatIds"`
	Batches         []ExecutionBatch      `json:"executionBatches"`
	Votes           []VoteDocument        `json:"votes"`
}

type ExecutionBatch struct {
	Calls []ExecutionCall `json:"calls"`
}

type ExecutionCall struct {
	Target   orgmachine.Address `json:"target"`
	Value    string             `json:"value"`
	Calldata string             `json:"calldata"`
}

type VoteDocument struct {
	Voter     orgmachine.Address `json:"voter"`
	Options   []FlexInt64        `json:"optionIndices"`
	Weights   []FlexInt64        `json:"weights"`
	RawPowers []string           `json:"classPowers"`
}

type VotingDocument struct {
	Hybrid          *HybridVotingDocument `json:"hybridVoting"`
	DirectDemocracy *DirectVotingDocument `json:"directDemocracyVoting"`
}

type HybridVotingDocument struct {
	Quorum    FlexInt64          `json:"quorum"`
	Classes   []ClassDocument    `json:"classes"`
	Proposals []ProposalDocument `json:"proposals"`
}

type DirectVotingDocument struct {
	QuorumPct FlexInt64          `json:"quorumPercentage"`
	Proposals []ProposalDocument `json:"proposals"`
}

type ApplicationDocument struct {
	Applicant orgmachine.Address `json:"applicant"`
	Approved  bool               `json:"approved"`
}

type TaskDocument struct {
	ID                   string                `json:"id"`
	Status               string                `json:"status"`
	Assignee             orgmachine.Address    `json:"assignee"`
	Payout               string                `json:"payout"`
	BountyToken          orgmachine.Address    `json:"bountyToken"`
	BountyAmount         string                `json:"bountyAmount"`
	MetadataHandle       orgmachine.BlobHandle `json:"metadataHash"`
	SubmissionHandle     orgmachine.BlobHandle `json:"submissionHash"`
	Title                string                `json:"title"`
	Description          string                `json:"description"`
	Difficulty           string                `json:"difficulty"`
	EstHours             string                `json:"estimatedHours"`
	RequiresApplication  bool                  `json:"requiresApplication"`
	Applications         []ApplicationDocument `json:"applications"`
}

type ProjectDocument struct {
	ID             string                               `json:"id"`
	Title          string                               `json:"title"`
	MetadataHandle orgmachine.BlobHandle                `json:"metadataHash"`
	BudgetCap      string                               `json:"budgetCap"`
	Managers       []orgmachine.Address                 `json:"managers"`
	Permissions    map[orgmachine.HatID]PermissionMaskDoc `json:"rolePermissions"`
	Deleted        bool                                 `json:"deleted"`
	Tasks          []TaskDocument                       `json:"tasks"`
}

type ProjectsDocument struct {
	TaskManager struct {
		CreatorHats []orgmachine.HatID `json:"creatorHatIds"`
		Projects    []ProjectDocument  `json:"projects"`
	} `json:"taskManager"`
}

type UserDataDocument struct {
	User    *UserDocument    `json:"user"`
	Account *AccountDocument `json:"account"`
}

type StructureDocument struct {
	Roles       []RoleDocument `json:"roles"`
	Users       []UserDocument `json:"users"`
	MemberCount FlexInt64      `json:"memberCount"`
	RoleCount   FlexInt64      `json:"roleCount"`
	Eligibility string         `json:"eligibilityModuleId"`
}

type ClaimDocument struct {
	Claimant orgmachine.Address `json:"claimant"`
	Amount   string             `json:"amount"`
	At       FlexInt64          `json:"timestamp"`
}

type DistributionDocument struct {
	ID           string             `json:"id"`
	Token        orgmachine.Address `json:"token"`
	Total        string             `json:"totalAmount"`
	TotalClaimed string             `json:"totalClaimed"`
	MerkleRoot   string             `json:"merkleRoot"`
	Status       string             `json:"status"`
	Claims       []ClaimDocument    `json:"claims"`
}

type PaymentDocument struct {
	ID     string             `json:"id"`
	Token  orgmachine.Address `json:"token"`
	To     orgmachine.Address `json:"to"`
	Amount string             `json:"amount"`
	At     FlexInt64          `json:"timestamp"`
}

type TreasuryDocument struct {
	ExecutorContract orgmachine.Address `json:"executorContract"`
	PaymentManager   *struct {
		Distributions []DistributionDocument `json:"distributions"`
		Payments      []PaymentDocument      `json:"payments"`
	} `json:"paymentManager"`
}

type VouchDocument struct {
	Voucher   orgmachine.Address `json:"voucher"`
	Candidate orgmachine.Address `json:"candidate"`
	HatID     orgmachine.HatID   `json:"hatId"`
	Revoked   bool               `json:"revoked"`
	At        FlexInt64          `json:"timestamp"`
}

type VouchesDocument struct {
	Vouches []VouchDocument `json:"vouches"`
}

type TokenRequestDocument struct {
	ID        string             `json:"id"`
	Requester orgmachine.Address `json:"requester"`
	Token     orgmachine.Address `json:"token"`
	Amount    string             `json:"amount"`
	Status    string             `json:"status"`
	At        FlexInt64          `json:"timestamp"`
}

type TokenRequestsDocument struct {
	Requests []TokenRequestDocument `json:"requests"`
}

type HatPermissionDocument struct {
	HatID      orgmachine.HatID   `json:"hatId"`
	Token      orgmachine.Address `json:"token"`
	CanApprove bool               `json:"canApprove"`
}

type ApproverHatsDocument struct {
	HatPermissions []HatPermissionDocument `json:"hatPermissions"`
}
