// Package models defines the core data structures exchanged with the
// job-board service: identities, job postings and job applications.
package models

import (
	"errors"
	"fmt"
	"strings"
)

// Role identifies what an account is allowed to do.
type Role string

const (
	// JobSeeker accounts browse jobs and submit applications.
	JobSeeker Role = "jobseeker"
	// Employer accounts post job openings.
	Employer Role = "employer"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	return r == JobSeeker || r == Employer
}

// Identity represents an account as stored by the remote service.
type Identity struct {
	// ID is the unique identifier assigned by the service.
	ID string `json:"id"`
	// Email is the sign-in address, stored lowercase.
	Email string `json:"email"`
	// Name is the account holder's full name.
	Name string `json:"name"`
	// PhoneNumber is the contact number given at registration.
	PhoneNumber string `json:"phoneNumber"`
	// PasswordHash is the bcrypt hash of the account password. The remote
	// collection calls the field "password"; only the hash ever travels.
	PasswordHash string `json:"password,omitempty"`
	// Skills is free text describing the account holder's skills.
	Skills string `json:"skills"`
	// WorkExperience is free text describing prior roles.
	WorkExperience string `json:"workExperience"`
	// Education is free text describing the account holder's education.
	Education string `json:"education"`
	// Role gates employer-only capabilities such as posting jobs.
	Role Role `json:"role"`
}

// Validate checks the fields a service response must carry.
func (u Identity) Validate() error {
	if u.ID == "" {
		return errors.New("identity: missing id")
	}
	if !strings.Contains(u.Email, "@") {
		return fmt.Errorf("identity %s: invalid email %q", u.ID, u.Email)
	}
	if !u.Role.Valid() {
		return fmt.Errorf("identity %s: unknown role %q", u.ID, u.Role)
	}
	return nil
}

// Sanitized returns a copy of the identity with the password hash cleared.
// This is the form kept in memory and mirrored to local storage.
func (u Identity) Sanitized() Identity {
	u.PasswordHash = ""
	return u
}

// JobPosting represents a job opening in the jobs collection.
type JobPosting struct {
	ID                         string   `json:"id"`
	JobTitle                   string   `json:"jobTitle"`
	JobDescription             string   `json:"jobDescription"`
	CompanyName                string   `json:"companyName"`
	Location                   string   `json:"location"`
	KeySkills                  []string `json:"keySkills"`
	JobType                    string   `json:"jobType"`
	PostedTime                 string   `json:"postedTime"`
	CompanyInfo                string   `json:"companyInfo"`
	HiringTrendsForWomen       string   `json:"hiringTrendsForWomen"`
	CompanyCultureTowardsWomen string   `json:"companyCultureTowardsWomen"`
	BenefitsForWomen           string   `json:"benefitsForWomen"`
	JobPay                     string   `json:"jobPay"`
	WorkMode                   string   `json:"workMode"`
	JobOpenings                int      `json:"jobOpenings"`
	EmploymentType             string   `json:"employmentType"`
	// PostedBy is the Identity.ID of the employer that created the posting.
	PostedBy string `json:"postedBy"`
}

// Validate checks the fields required to create a posting.
func (j JobPosting) Validate() error {
	if j.JobTitle == "" {
		return errors.New("job posting: missing jobTitle")
	}
	if j.CompanyName == "" {
		return errors.New("job posting: missing companyName")
	}
	if j.PostedBy == "" {
		return errors.New("job posting: missing postedBy")
	}
	return nil
}

// Applicant is a single submission inside a job application aggregate.
type Applicant struct {
	UserID         string `json:"userId"`
	ResumeURI      string `json:"resumeUri"`
	CoverLetterURI string `json:"coverLetterUri"`
}

// JobApplication aggregates every submission for one job. The remote
// collection keys aggregates by JobID and appends to Applicants.
type JobApplication struct {
	ID         string      `json:"id"`
	JobID      string      `json:"jobId"`
	Applicants []Applicant `json:"applicants"`
}

// HasApplicant reports whether the aggregate contains a submission
// from the given account.
func (a JobApplication) HasApplicant(userID string) bool {
	for _, ap := range a.Applicants {
		if ap.UserID == userID {
			return true
		}
	}
	return false
}
