package journey

import "github.com/taskey/taskey-api/internal/models"

var missingPartActions = map[string]NextAction{
	models.ProfilePartPhoto: {
		Key:         "add_profile_photo",
		Title:       "Add a profile photo",
		Description: "Customers are more likely to accept offers from helpers with a photo.",
	},
	models.ProfilePartCategories: {
		Key:         "choose_service_categories",
		Title:       "Choose your service categories",
		Description: "Pick the kinds of tasks you want to be matched with.",
	},
	models.ProfilePartAreas: {
		Key:         "choose_service_areas",
		Title:       "Choose your service areas",
		Description: "Tell customers where you can work.",
	},
	models.ProfilePartAboutMe: {
		Key:         "write_about_me",
		Title:       "Write a short bio",
		Description: "Describe your experience and the tools you bring.",
	},
}

var (
	actionAwaitVerification = NextAction{
		Key:         "await_verification",
		Title:       "Verification in progress",
		Description: "Our team is reviewing your documents.",
	}
	actionVerifyPhone = NextAction{
		Key:         "verify_phone",
		Title:       "Verify your phone number",
		Description: "A verified phone speeds up approval.",
	}
	actionGoAvailable = NextAction{
		Key:         "go_available",
		Title:       "Turn on availability",
		Description: "Let customers know you are ready to take tasks.",
	}
	actionBrowseTasks = NextAction{
		Key:         "browse_tasks",
		Title:       "Browse open tasks",
		Description: "Send offers on tasks in your categories and areas.",
	}
	actionImproveReliability = NextAction{
		Key:         "improve_reliability",
		Title:       "Improve your reliability",
		Description: "Arrive within the check-in window and avoid cancellations.",
	}
	actionExpandAreas = NextAction{
		Key:         "expand_service_areas",
		Title:       "Expand your reach",
		Description: "Add service areas or categories to get more offers accepted.",
	}
	actionContactSupport = NextAction{
		Key:         "contact_support",
		Title:       "Contact support",
		Description: "Your account is suspended. Reach out to support to resolve it.",
	}
	actionCompleteOnboarding = NextAction{
		Key:         "complete_onboarding",
		Title:       "Finish onboarding",
		Description: "Complete your helper profile to get started.",
	}
)

func nextActions(stage Stage, h models.HelperProfile) []NextAction {
	switch stage {
	case StageProfileIncomplete:
		actions := make([]NextAction, 0, len(h.ProfileCompletion.Missing))
		for _, part := range h.ProfileCompletion.Missing {
			if action, ok := missingPartActions[part]; ok {
				actions = append(actions, action)
			}
		}
		return actions
	case StagePendingVerification:
		return []NextAction{actionAwaitVerification, actionVerifyPhone}
	case StageVerifiedReady:
		return []NextAction{actionGoAvailable, actionBrowseTasks}
	case StageActive:
		actions := []NextAction{actionBrowseTasks}
		if h.Stats.ReliabilityLevel != models.ReliabilityGreen {
			actions = append(actions, actionImproveReliability)
		}
		return actions
	case StageGrowing:
		return []NextAction{actionExpandAreas}
	case StageSuspended:
		return []NextAction{actionContactSupport}
	}
	return []NextAction{actionCompleteOnboarding}
}
