package domain

import "time"

// Profile is the candidate-facing part of an account, filled during onboarding.
type Profile struct {
	UserID          string    `json:"user_id"`
	FirstName       string    `json:"first_name"`
	LastName        string    `json:"last_name"`
	Headline        string    `json:"headline"`
	Location        string    `json:"location"`
	Bio             string    `json:"bio"`
	YearsExperience *int      `json:"years_experience"`
	LinkedInURL     string    `json:"linkedin_url"`
	ResumeID        *string   `json:"resume_id"`
	DesiredRoles    []string  `json:"desired_roles"`
	DesiredLocs     []string  `json:"desired_locations"`
	JobTypes        []string  `json:"job_types"`
	RemotePref      string    `json:"remote_preference"`
	SalaryMin       *int      `json:"salary_min"`
	SalaryMax       *int      `json:"salary_max"`
	SalaryCurrency  string    `json:"salary_currency"`
	CreatedAt       time.Time `json:"created"`
	UpdatedAt       time.Time `json:"updated"`
}

const (
	RemoteOnsite = "onsite"
	RemoteHybrid = "hybrid"
	RemoteRemote = "remote"
	RemoteAny    = "any"
)

type UpdateProfileRequest struct {
	FirstName       *string  `json:"first_name" validate:"omitempty,min=1,max=80"`
	LastName        *string  `json:"last_name" validate:"omitempty,min=1,max=80"`
	Headline        *string  `json:"headline" validate:"omitempty,max=140"`
	Location        *string  `json:"location" validate:"omitempty,max=120"`
	Bio             *string  `json:"bio" validate:"omitempty,max=2000"`
	YearsExperience *int     `json:"years_experience" validate:"omitempty,gte=0,lte=60"`
	LinkedInURL     *string  `json:"linkedin_url" validate:"omitempty,url"`
	DesiredRoles    []string `json:"desired_roles" validate:"omitempty,max=10,dive,min=1,max=80"`
	DesiredLocs     []string `json:"desired_locations" validate:"omitempty,max=10,dive,min=1,max=80"`
	JobTypes        []string `json:"job_types" validate:"omitempty,max=5,dive,oneof=full_time part_time contract internship"`
	RemotePref      *string  `json:"remote_preference" validate:"omitempty,oneof=onsite hybrid remote any"`
	SalaryMin       *int     `json:"salary_min" validate:"omitempty,gte=0"`
	SalaryMax       *int     `json:"salary_max" validate:"omitempty,gte=0"`
	SalaryCurrency  *string  `json:"salary_currency" validate:"omitempty,len=3"`
	Locale          *string  `json:"locale" validate:"omitempty,oneof=en zh"`
}

// Onboarding steps, in the order the front end walks through them.
const (
	StepPersonal    = "personal"
	StepResume      = "resume"
	StepPreferences = "preferences"
)

var OnboardingSteps = []string{StepPersonal, StepResume, StepPreferences}

type PersonalStepRequest struct {
	FirstName string `json:"first_name" validate:"required,min=1,max=80"`
	LastName  string `json:"last_name" validate:"required,min=1,max=80"`
	Location  string `json:"location" validate:"omitempty,max=120"`
	Headline  string `json:"headline" validate:"omitempty,max=140"`
}

type ResumeStepRequest struct {
	ResumeID string `json:"resume_id" validate:"required,uuid"`
}

type PreferencesStepRequest struct {
	DesiredRoles   []string `json:"desired_roles" validate:"required,min=1,max=10,dive,min=1,max=80"`
	DesiredLocs    []string `json:"desired_locations" validate:"omitempty,max=10,dive,min=1,max=80"`
	JobTypes       []string `json:"job_types" validate:"omitempty,max=5,dive,oneof=full_time part_time contract internship"`
	RemotePref     string   `json:"remote_preference" validate:"omitempty,oneof=onsite hybrid remote any"`
	SalaryMin      *int     `json:"salary_min" validate:"omitempty,gte=0"`
	SalaryMax      *int     `json:"salary_max" validate:"omitempty,gte=0"`
	SalaryCurrency string   `json:"salary_currency" validate:"omitempty,len=3"`
}

// OnboardingStatus reports which steps a candidate still has to finish.
type OnboardingStatus struct {
	Completed   bool       `json:"completed"`
	OnboardedAt *time.Time `json:"onboarded_at,omitempty"`
	Done        []string   `json:"done"`
	Missing     []string   `json:"missing"`
}
