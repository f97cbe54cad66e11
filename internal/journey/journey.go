// Package journey derives a helper's lifecycle stage, capabilities and
// recommended next actions from the canonical helper profile. Nothing here is
// persisted; callers derive a fresh Journey on every read.
package journey

import (
	"github.com/taskey/taskey-api/internal/constants"
	"github.com/taskey/taskey-api/internal/models"
)

type Stage string

const (
	StageProfileIncomplete   Stage = "PROFILE_INCOMPLETE"
	StagePendingVerification Stage = "PENDING_VERIFICATION"
	StageVerifiedReady       Stage = "VERIFIED_READY"
	StageActive              Stage = "ACTIVE"
	StageGrowing             Stage = "GROWING"
	StageSuspended           Stage = "SUSPENDED"
	StageRegistered          Stage = "REGISTERED"
)

// Capabilities gate client actions. They are advisory, except where a service
// explicitly checks one.
type Capabilities struct {
	CanBrowseTasks        bool `json:"can_browse_tasks"`
	CanUpdateTaskStatus   bool `json:"can_update_task_status"`
	CanSendOffers         bool `json:"can_send_offers"`
	CanReceiveAssignments bool `json:"can_receive_assignments"`
}

type NextAction struct {
	Key         string `json:"key"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

type Stats struct {
	JobsCompleted    int                     `json:"jobs_completed"`
	JobsCancelled    int                     `json:"jobs_cancelled"`
	TotalAttempted   int                     `json:"total_attempted"`
	CompletionRate   float64                 `json:"completion_rate"`
	RatingAvg        float64                 `json:"rating_avg"`
	ReliabilityLevel models.ReliabilityLevel `json:"reliability_level"`
}

type Journey struct {
	Stage        Stage        `json:"lifecycle_stage"`
	Capabilities Capabilities `json:"capabilities"`
	NextActions  []NextAction `json:"next_actions"`
	Stats        Stats        `json:"stats"`
}

// Thresholds holds the tunable inputs of stage derivation.
type Thresholds struct {
	GrowingMinJobs int
}

func DefaultThresholds() Thresholds {
	return Thresholds{GrowingMinJobs: constants.DefaultGrowingMinJobs}
}

// Derive computes the journey for h.
func Derive(h models.HelperProfile, th Thresholds) Journey {
	stage := deriveStage(h, th)
	return Journey{
		Stage:        stage,
		Capabilities: deriveCapabilities(h.VerificationStatus),
		NextActions:  nextActions(stage, h),
		Stats:        rollup(h.Stats),
	}
}

// deriveStage evaluates the rules in order; the first match wins. Suspension
// is checked after incompleteness and pending verification, so a suspended
// helper with an incomplete profile reports PROFILE_INCOMPLETE.
func deriveStage(h models.HelperProfile, th Thresholds) Stage {
	switch {
	case h.ProfileCompletion.Percent < 100:
		return StageProfileIncomplete
	case h.VerificationStatus == models.VerificationPending:
		return StagePendingVerification
	case h.VerificationStatus == models.VerificationApproved:
		if h.Stats.JobsCompleted >= th.GrowingMinJobs && h.Stats.ReliabilityLevel == models.ReliabilityGreen {
			return StageGrowing
		}
		if h.Stats.JobsCompleted > 0 || h.IsAvailable {
			return StageActive
		}
		return StageVerifiedReady
	case h.VerificationStatus == models.VerificationSuspended:
		return StageSuspended
	}
	return StageRegistered
}

func deriveCapabilities(status models.VerificationStatus) Capabilities {
	approved := status == models.VerificationApproved
	notSuspended := status != models.VerificationSuspended
	return Capabilities{
		CanBrowseTasks:        notSuspended,
		CanUpdateTaskStatus:   notSuspended,
		CanSendOffers:         approved,
		CanReceiveAssignments: approved,
	}
}

// CompletionRate is completed/attempted, and 1.0 for a helper with no
// attempted jobs.
func CompletionRate(completed, cancelled int) float64 {
	total := completed + cancelled
	if total == 0 {
		return 1.0
	}
	return float64(completed) / float64(total)
}

func rollup(s models.HelperStats) Stats {
	return Stats{
		JobsCompleted:    s.JobsCompleted,
		JobsCancelled:    s.JobsCancelled,
		TotalAttempted:   s.JobsCompleted + s.JobsCancelled,
		CompletionRate:   CompletionRate(s.JobsCompleted, s.JobsCancelled),
		RatingAvg:        s.RatingAvg,
		ReliabilityLevel: s.ReliabilityLevel,
	}
}
