package journey

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/taskey/taskey-api/internal/models"
)

func completeHelper(status models.VerificationStatus) models.HelperProfile {
	return models.HelperProfile{
		VerificationStatus: status,
		ProfileCompletion:  models.ProfileCompletion{Percent: 100},
		Stats:              models.HelperStats{ReliabilityLevel: models.ReliabilityGreen},
	}
}

func TestDerive_StageOrdering(t *testing.T) {
	th := DefaultThresholds()

	tests := []struct {
		name   string
		helper func() models.HelperProfile
		want   Stage
	}{
		{
			name: "incomplete profile wins over suspension",
			helper: func() models.HelperProfile {
				h := completeHelper(models.VerificationSuspended)
				h.ProfileCompletion = models.ProfileCompletion{Percent: 60, Missing: []string{models.ProfilePartPhoto}}
				return h
			},
			want: StageProfileIncomplete,
		},
		{
			name:   "pending verification",
			helper: func() models.HelperProfile { return completeHelper(models.VerificationPending) },
			want:   StagePendingVerification,
		},
		{
			name:   "approved with nothing done yet",
			helper: func() models.HelperProfile { return completeHelper(models.VerificationApproved) },
			want:   StageVerifiedReady,
		},
		{
			name: "approved and available",
			helper: func() models.HelperProfile {
				h := completeHelper(models.VerificationApproved)
				h.IsAvailable = true
				return h
			},
			want: StageActive,
		},
		{
			name: "approved with a few jobs",
			helper: func() models.HelperProfile {
				h := completeHelper(models.VerificationApproved)
				h.Stats.JobsCompleted = 2
				return h
			},
			want: StageActive,
		},
		{
			name: "growing needs green reliability",
			helper: func() models.HelperProfile {
				h := completeHelper(models.VerificationApproved)
				h.Stats.JobsCompleted = 5
				h.Stats.ReliabilityLevel = models.ReliabilityYellow
				return h
			},
			want: StageActive,
		},
		{
			name: "growing",
			helper: func() models.HelperProfile {
				h := completeHelper(models.VerificationApproved)
				h.Stats.JobsCompleted = 5
				return h
			},
			want: StageGrowing,
		},
		{
			name:   "suspended with complete profile",
			helper: func() models.HelperProfile { return completeHelper(models.VerificationSuspended) },
			want:   StageSuspended,
		},
		{
			name:   "unknown verification status",
			helper: func() models.HelperProfile { return completeHelper("") },
			want:   StageRegistered,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Derive(tt.helper(), th).Stage)
		})
	}
}

func TestDerive_GrowingThresholdIsConfigurable(t *testing.T) {
	h := completeHelper(models.VerificationApproved)
	h.Stats.JobsCompleted = 3

	assert.Equal(t, StageActive, Derive(h, DefaultThresholds()).Stage)
	assert.Equal(t, StageGrowing, Derive(h, Thresholds{GrowingMinJobs: 3}).Stage)
}

func TestDerive_Capabilities(t *testing.T) {
	approved := Derive(completeHelper(models.VerificationApproved), DefaultThresholds()).Capabilities
	assert.Equal(t, Capabilities{true, true, true, true}, approved)

	pending := Derive(completeHelper(models.VerificationPending), DefaultThresholds()).Capabilities
	assert.Equal(t, Capabilities{CanBrowseTasks: true, CanUpdateTaskStatus: true}, pending)

	suspended := Derive(completeHelper(models.VerificationSuspended), DefaultThresholds()).Capabilities
	assert.Equal(t, Capabilities{}, suspended)
}

func TestCompletionRate(t *testing.T) {
	assert.Equal(t, 1.0, CompletionRate(0, 0))
	assert.Equal(t, 0.75, CompletionRate(3, 1))
	assert.Equal(t, 0.0, CompletionRate(0, 4))

	j := Derive(completeHelper(models.VerificationApproved), DefaultThresholds())
	assert.Equal(t, 0, j.Stats.TotalAttempted)
	assert.Equal(t, 1.0, j.Stats.CompletionRate)
}

func TestDerive_NextActions(t *testing.T) {
	h := completeHelper(models.VerificationApproved)
	h.ProfileCompletion = models.ProfileCompletion{
		Percent: 50,
		Missing: []string{models.ProfilePartPhoto, models.ProfilePartAboutMe},
	}

	actions := Derive(h, DefaultThresholds()).NextActions
	keys := make([]string, 0, len(actions))
	for _, a := range actions {
		keys = append(keys, a.Key)
	}
	assert.Equal(t, []string{"add_profile_photo", "write_about_me"}, keys)

	active := completeHelper(models.VerificationApproved)
	active.IsAvailable = true
	active.Stats.ReliabilityLevel = models.ReliabilityRed
	assert.Len(t, Derive(active, DefaultThresholds()).NextActions, 2)
}
