package publish

import "github.com/beatbookings/publish-api/internal/domain"

// DefaultPlannerFreeQuota is how many events may go live on the platform
// before planners have to pay to publish.
const DefaultPlannerFreeQuota = 1

// Eligibility is the publish decision for a creator role.
type Eligibility struct {
	Allowed         bool `json:"allowed"`
	RequiresPayment bool `json:"requires_payment"`
}

// Policy decides free-publish eligibility from a live published count.
type Policy struct {
	PlannerFreeQuota int
}

// Evaluate applies the default policy: artists always publish free, planners
// only while nothing has been published platform-wide.
func Evaluate(role string, platformPublished int) Eligibility {
	return Policy{PlannerFreeQuota: DefaultPlannerFreeQuota}.Evaluate(role, platformPublished)
}

func (p Policy) Evaluate(role string, platformPublished int) Eligibility {
	switch role {
	case domain.RoleArtist:
		return Eligibility{Allowed: true}
	case domain.RolePlanner:
		if platformPublished < p.plannerQuota() {
			return Eligibility{Allowed: true}
		}
		return Eligibility{RequiresPayment: true}
	default:
		return Eligibility{}
	}
}

// platformQuota is the cap passed to the conditional publish write.
// Zero means uncapped.
func (p Policy) platformQuota(role string) int {
	if role == domain.RolePlanner {
		return p.plannerQuota()
	}
	return 0
}

func (p Policy) plannerQuota() int {
	if p.PlannerFreeQuota <= 0 {
		return DefaultPlannerFreeQuota
	}
	return p.PlannerFreeQuota
}
