package publish

import (
	"testing"

	"github.com/beatbookings/publish-api/internal/domain"
	"github.com/stretchr/testify/assert"
)

func TestEvaluate(t *testing.T) {
	tests := []struct {
		name  string
		role  string
		count int
		want  Eligibility
	}{
		{"artist on empty platform", domain.RoleArtist, 0, Eligibility{Allowed: true}},
		{"artist on busy platform", domain.RoleArtist, 3, Eligibility{Allowed: true}},
		{"planner first publish is free", domain.RolePlanner, 0, Eligibility{Allowed: true}},
		{"planner after first publish pays", domain.RolePlanner, 1, Eligibility{RequiresPayment: true}},
		{"planner on busy platform pays", domain.RolePlanner, 40, Eligibility{RequiresPayment: true}},
		{"unknown role", "admin", 0, Eligibility{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Evaluate(tt.role, tt.count))
		})
	}
}

func TestPolicy_CustomPlannerQuota(t *testing.T) {
	p := Policy{PlannerFreeQuota: 3}
	assert.True(t, p.Evaluate(domain.RolePlanner, 2).Allowed)
	assert.True(t, p.Evaluate(domain.RolePlanner, 3).RequiresPayment)
	assert.Equal(t, 3, p.platformQuota(domain.RolePlanner))
	assert.Equal(t, 0, p.platformQuota(domain.RoleArtist))
}
