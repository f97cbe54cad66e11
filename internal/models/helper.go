package models

import "time"

type VerificationStatus string

const (
	VerificationPending   VerificationStatus = "PENDING"
	VerificationApproved  VerificationStatus = "APPROVED"
	VerificationSuspended VerificationStatus = "SUSPENDED"
)

type ReliabilityLevel string

const (
	ReliabilityGreen  ReliabilityLevel = "GREEN"
	ReliabilityYellow ReliabilityLevel = "YELLOW"
	ReliabilityRed    ReliabilityLevel = "RED"
)

// Profile parts counted by ProfileCompletion.
const (
	ProfilePartPhoto      = "profilePhoto"
	ProfilePartCategories = "serviceCategories"
	ProfilePartAreas      = "serviceAreas"
	ProfilePartAboutMe    = "aboutMe"
)

type ProfileCompletion struct {
	Percent int      `gorm:"not null;default:0" json:"percent"`
	Missing []string `gorm:"serializer:json" json:"missing"`
}

type HelperStats struct {
	JobsCompleted    int              `gorm:"not null;default:0" json:"jobs_completed"`
	JobsCancelled    int              `gorm:"not null;default:0" json:"jobs_cancelled"`
	RatingAvg        float64          `gorm:"not null;default:0" json:"rating_avg"`
	ReliabilityLevel ReliabilityLevel `gorm:"type:varchar(10);not null;default:'GREEN'" json:"reliability_level"`
}

// HelperProfile is a service-provider profile. Stats and verification are
// owned by processes outside this service; handlers only read them.
type HelperProfile struct {
	UserID             uint64             `gorm:"primarykey;autoIncrement:false" json:"user_id"`
	FullName           string             `gorm:"type:varchar(255)" json:"full_name"`
	Phone              string             `gorm:"type:varchar(32)" json:"phone,omitempty"`
	Email              string             `gorm:"type:varchar(255)" json:"email,omitempty"`
	ProfilePhotoURL    string             `gorm:"type:varchar(512)" json:"profile_photo_url,omitempty"`
	ServiceCategories  []string           `gorm:"serializer:json" json:"service_categories"`
	ServiceAreas       []string           `gorm:"serializer:json" json:"service_areas"`
	AboutMe            string             `gorm:"type:text" json:"about_me"`
	IsAvailable        bool               `gorm:"not null;default:false" json:"is_available"`
	VerificationStatus VerificationStatus `gorm:"type:varchar(20);not null;default:'PENDING';index" json:"verification_status"`
	ProfileCompletion  ProfileCompletion  `gorm:"embedded;embeddedPrefix:profile_" json:"profile_completion"`
	Stats              HelperStats        `gorm:"embedded;embeddedPrefix:stats_" json:"stats"`
	CreatedAt          time.Time          `json:"created_at"`
	UpdatedAt          time.Time          `json:"updated_at"`
}

// RefreshProfileCompletion recomputes the completion percentage from the
// profile fields, 25% per filled part.
func (h *HelperProfile) RefreshProfileCompletion() {
	parts := []struct {
		name   string
		filled bool
	}{
		{ProfilePartPhoto, h.ProfilePhotoURL != ""},
		{ProfilePartCategories, len(h.ServiceCategories) > 0},
		{ProfilePartAreas, len(h.ServiceAreas) > 0},
		{ProfilePartAboutMe, h.AboutMe != ""},
	}

	missing := make([]string, 0, len(parts))
	for _, p := range parts {
		if !p.filled {
			missing = append(missing, p.name)
		}
	}

	h.ProfileCompletion = ProfileCompletion{
		Percent: (len(parts) - len(missing)) * 100 / len(parts),
		Missing: missing,
	}
}

// Serves reports whether the helper lists the category and area.
func (h *HelperProfile) Serves(category, area string) bool {
	return containsFold(h.ServiceCategories, category) && (area == "" || containsFold(h.ServiceAreas, area))
}
