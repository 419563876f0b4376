package domain

import "time"

const (
	JobStatusOpen   = "open"
	JobStatusClosed = "closed"
)

type Job struct {
	JobID          string    `json:"id"`
	Title          string    `json:"title"`
	Company        string    `json:"company"`
	Location       string    `json:"location"`
	Description    string    `json:"description"`
	EmploymentType string    `json:"employment_type"`
	Remote         string    `json:"remote"`
	SalaryMin      *int      `json:"salary_min"`
	SalaryMax      *int      `json:"salary_max"`
	SalaryCurrency string    `json:"salary_currency"`
	Language       Locale    `json:"language"`
	ApplyURL       string    `json:"apply_url,omitempty"`
	Status         string    `json:"status"`
	PostedAt       time.Time `json:"posted_at"`
	CreatedAt      time.Time `json:"created"`
	UpdatedAt      time.Time `json:"updated"`
}

// JobFilter narrows a job listing. Zero fields are ignored.
type JobFilter struct {
	Query          string
	Location       string
	EmploymentType string
	Remote         string
	Language       string
	IncludeClosed  bool
}

type CreateJobRequest struct {
	Title          string `json:"title" validate:"required,max=160"`
	Company        string `json:"company" validate:"required,max=120"`
	Location       string `json:"location" validate:"omitempty,max=120"`
	Description    string `json:"description" validate:"required"`
	EmploymentType string `json:"employment_type" validate:"required,oneof=full_time part_time contract internship"`
	Remote         string `json:"remote" validate:"required,oneof=onsite hybrid remote"`
	SalaryMin      *int   `json:"salary_min" validate:"omitempty,gte=0"`
	SalaryMax      *int   `json:"salary_max" validate:"omitempty,gte=0"`
	SalaryCurrency string `json:"salary_currency" validate:"omitempty,len=3"`
	Language       string `json:"language" validate:"required,oneof=en zh"`
	ApplyURL       string `json:"apply_url" validate:"omitempty,url"`
}
