package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/sucheta/jobport/internal/client/api"
	"github.com/sucheta/jobport/internal/client/auth"
	"github.com/sucheta/jobport/internal/client/session"
	"github.com/sucheta/jobport/internal/client/storage"
	"github.com/sucheta/jobport/internal/config"
	"github.com/sucheta/jobport/internal/logger"
	"github.com/sucheta/jobport/internal/models"
)

var (
	version   string
	buildDate string
)

// requestTimeout bounds every remote call issued from the shell.
const requestTimeout = 10 * time.Second

// app bundles the collaborators the shell commands work with.
type app struct {
	api     *api.Client
	auth    *auth.Authenticator
	session *session.Store
	in      *bufio.Scanner
}

// prompt prints label and reads one trimmed line from the user.
func (a *app) prompt(label string) string {
	fmt.Print(label)
	if !a.in.Scan() {
		return ""
	}
	return strings.TrimSpace(a.in.Text())
}

func withTimeout() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), requestTimeout)
}

// repl runs the interactive shell loop.
func (a *app) repl() {
	for {
		fmt.Print("jobport> ")
		if !a.in.Scan() {
			break
		}
		line := strings.TrimSpace(a.in.Text())
		args := strings.Fields(line)
		if len(args) == 0 {
			continue
		}
		switch args[0] {
		case "help":
			fmt.Println("Available commands: help, register, login, logout, whoami, jobs [query], apply <jobID>, applied, profile, edit, post, exit")
		case "register":
			a.register()
		case "login":
			a.login()
		case "logout":
			if err := a.session.Logout(); err != nil {
				fmt.Println("logout:", err)
			} else {
				fmt.Println("Signed out")
			}
		case "whoami":
			a.whoami()
		case "jobs":
			a.listJobs(strings.Join(args[1:], " "))
		case "apply":
			if len(args) < 2 {
				fmt.Println("Usage: apply <jobID>")
				continue
			}
			a.apply(args[1])
		case "applied":
			a.listApplied()
		case "profile":
			a.profile()
		case "edit":
			a.editProfile()
		case "post":
			a.postJob()
		case "version":
			fmt.Printf("JobPort Client\nVersion: %s\nBuild Date: %s\n", version, buildDate)
		case "exit":
			fmt.Println("Bye")
			return
		default:
			fmt.Println("Unknown command. Type 'help' for a list of commands.")
		}
	}
}

func (a *app) register() {
	p := auth.SignUpParams{
		Name:        a.prompt("Full name: "),
		Email:       a.prompt("Email: "),
		Password:    a.prompt("Password: "),
		PhoneNumber: a.prompt("Phone number: "),
		Role:        models.Role(a.prompt("Role (jobseeker/employer): ")),
	}

	ctx, cancel := withTimeout()
	defer cancel()
	if _, err := a.auth.SignUp(ctx, p); err != nil {
		fmt.Println("registration failed:", err)
		return
	}
	fmt.Println("Account created. Use 'login' to sign in.")
}

func (a *app) login() {
	email := a.prompt("Email: ")
	password := a.prompt("Password: ")

	ctx, cancel := withTimeout()
	defer cancel()
	identity, err := a.auth.SignIn(ctx, email, password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			fmt.Println("Invalid credentials. Please try again.")
		} else {
			fmt.Println("sign-in failed:", err)
		}
		return
	}
	if err := a.session.Login(identity); err != nil {
		fmt.Println("warning: session not fully saved:", err)
	}
	fmt.Printf("Welcome back, %s!\n", identity.Name)
}

func (a *app) whoami() {
	identity, ok := a.session.CurrentIdentity()
	if !ok {
		fmt.Println("Not signed in")
		return
	}
	role := "employer"
	if a.session.IsJobSeeker() {
		role = "jobseeker"
	}
	fmt.Printf("%s <%s> (%s)\n", identity.Name, identity.Email, role)
}

func (a *app) listJobs(query string) {
	ctx, cancel := withTimeout()
	defer cancel()
	jobs, err := a.api.Jobs(ctx)
	if err != nil {
		fmt.Println("could not fetch jobs:", err)
		return
	}

	query = strings.ToLower(query)
	shown := 0
	for _, j := range jobs {
		if query != "" && !matchesQuery(j, query) {
			continue
		}
		applied := ""
		if a.session.HasAppliedToJob(j.ID) {
			applied = " [applied]"
		}
		fmt.Printf("%s  %s — %s, %s (%s)%s\n", j.ID, j.JobTitle, j.CompanyName, j.Location, j.JobPay, applied)
		shown++
	}
	if shown == 0 {
		fmt.Println("No jobs found")
	}
}

// matchesQuery mirrors the search bar: substring match over title,
// company, location and skills.
func matchesQuery(j models.JobPosting, query string) bool {
	haystack := strings.ToLower(strings.Join(append([]string{
		j.JobTitle, j.CompanyName, j.Location, j.JobType, j.WorkMode,
	}, j.KeySkills...), " "))
	return strings.Contains(haystack, query)
}

// apply submits an application for jobID: upload references are collected,
// the aggregate on the service is created or extended, and only then is
// the local applied-jobs set updated.
func (a *app) apply(jobID string) {
	identity, ok := a.session.CurrentIdentity()
	if !ok {
		fmt.Println("Please login to apply for jobs.")
		return
	}
	if !a.session.IsJobSeeker() {
		fmt.Println("Only jobseeker accounts can apply.")
		return
	}
	if a.session.HasAppliedToJob(jobID) {
		fmt.Println("You have already applied to this job.")
		return
	}

	resumeURI := a.prompt("Resume URI: ")
	coverLetterURI := a.prompt("Cover letter URI: ")
	if resumeURI == "" || coverLetterURI == "" {
		fmt.Println("Please provide both resume and cover letter.")
		return
	}

	ctx, cancel := withTimeout()
	defer cancel()

	applicant := models.Applicant{
		UserID:         identity.ID,
		ResumeURI:      resumeURI,
		CoverLetterURI: coverLetterURI,
	}

	aggregate, err := a.api.ApplicationForJob(ctx, jobID)
	switch {
	case errors.Is(err, api.ErrNotFound):
		aggregate = models.JobApplication{JobID: jobID, Applicants: []models.Applicant{applicant}}
		_, err = a.api.CreateApplication(ctx, aggregate)
	case err == nil:
		aggregate.Applicants = append(aggregate.Applicants, applicant)
		_, err = a.api.UpdateApplication(ctx, aggregate)
	}
	if err != nil {
		fmt.Println("failed to submit application:", err)
		return
	}

	if err := a.session.ApplyToJob(jobID); err != nil {
		fmt.Println("warning: application submitted but not tracked locally:", err)
		return
	}
	fmt.Println("Application submitted successfully!")
}

// listApplied reconciles the applied-jobs set with the service and prints
// the matching postings.
func (a *app) listApplied() {
	identity, ok := a.session.CurrentIdentity()
	if !ok {
		fmt.Println("Please login to see your applications.")
		return
	}

	ctx, cancel := withTimeout()
	defer cancel()
	if err := a.session.FetchAppliedJobs(ctx, identity.ID); err != nil {
		fmt.Println("warning: using locally tracked applications:", err)
	}

	ids := a.session.AppliedJobIDs()
	if len(ids) == 0 {
		fmt.Println("No applications yet")
		return
	}

	jobs, err := a.api.Jobs(ctx)
	if err != nil {
		fmt.Println("could not fetch jobs:", err)
		return
	}
	for _, j := range jobs {
		if a.session.HasAppliedToJob(j.ID) {
			fmt.Printf("%s  %s — %s, %s\n", j.ID, j.JobTitle, j.CompanyName, j.Location)
		}
	}
}

// profile refreshes the identity from the service and prints it.
func (a *app) profile() {
	identity, ok := a.session.CurrentIdentity()
	if !ok {
		fmt.Println("Please login to view your profile.")
		return
	}

	ctx, cancel := withTimeout()
	defer cancel()
	if fresh, err := a.api.UserByEmail(ctx, identity.Email); err == nil {
		if err := a.session.SetUser(fresh); err == nil {
			identity = fresh.Sanitized()
		}
	}

	fmt.Printf("Name:            %s\n", identity.Name)
	fmt.Printf("Email:           %s\n", identity.Email)
	fmt.Printf("Phone:           %s\n", identity.PhoneNumber)
	fmt.Printf("Role:            %s\n", identity.Role)
	fmt.Printf("Skills:          %s\n", identity.Skills)
	fmt.Printf("Work experience: %s\n", identity.WorkExperience)
	fmt.Printf("Education:       %s\n", identity.Education)
}

// editProfile updates the free-text profile fields. Empty input keeps the
// current value. The stored record is fetched first so the replace does
// not drop fields the session never holds, like the password hash.
func (a *app) editProfile() {
	current, ok := a.session.CurrentIdentity()
	if !ok {
		fmt.Println("Please login to edit your profile.")
		return
	}

	ctx, cancel := withTimeout()
	defer cancel()
	identity, err := a.api.UserByEmail(ctx, current.Email)
	if err != nil {
		fmt.Println("could not load profile:", err)
		return
	}

	if v := a.prompt(fmt.Sprintf("Name [%s]: ", identity.Name)); v != "" {
		identity.Name = v
	}
	if v := a.prompt(fmt.Sprintf("Phone [%s]: ", identity.PhoneNumber)); v != "" {
		identity.PhoneNumber = v
	}
	if v := a.prompt(fmt.Sprintf("Skills [%s]: ", identity.Skills)); v != "" {
		identity.Skills = v
	}
	if v := a.prompt(fmt.Sprintf("Work experience [%s]: ", identity.WorkExperience)); v != "" {
		identity.WorkExperience = v
	}
	if v := a.prompt(fmt.Sprintf("Education [%s]: ", identity.Education)); v != "" {
		identity.Education = v
	}

	updated, err := a.api.UpdateUser(ctx, identity)
	if err != nil {
		fmt.Println("failed to update profile:", err)
		return
	}
	if err := a.session.SetUser(updated); err != nil {
		fmt.Println("warning: profile updated but session not refreshed:", err)
		return
	}
	fmt.Println("Profile updated!")
}

// postJob collects the posting form and creates the job. Employer only.
func (a *app) postJob() {
	if !a.session.IsAuthenticated() {
		fmt.Println("Please login to post jobs.")
		return
	}

	posting := models.JobPosting{
		JobTitle:       a.prompt("Job title: "),
		CompanyName:    a.prompt("Company name: "),
		JobDescription: a.prompt("Description: "),
		Location:       a.prompt("Location: "),
		JobPay:         a.prompt("Pay: "),
		WorkMode:       a.prompt("Work mode (onsite/hybrid/remote): "),
		EmploymentType: a.prompt("Employment type: "),
		PostedTime:     time.Now().UTC().Format(time.RFC3339),
	}
	if skills := a.prompt("Key skills (comma separated): "); skills != "" {
		for _, s := range strings.Split(skills, ",") {
			posting.KeySkills = append(posting.KeySkills, strings.TrimSpace(s))
		}
	}

	ctx, cancel := withTimeout()
	defer cancel()
	created, err := a.session.PostJob(ctx, posting)
	if err != nil {
		fmt.Println("failed to post job:", err)
		return
	}

	if a.session.JobPosted() {
		fmt.Printf("Job posted with id %s\n", created.ID)
		a.session.ResetJobPosted()
	}
}

// main wires storage, the API client, the authenticator and the session
// store, restores any persisted session and starts the shell.
func main() {
	options := config.Parse()

	zl := logger.New()
	if err := zl.Init("warn"); err != nil {
		log.Fatal(err)
	}
	defer func() { _ = zl.Log.Sync() }()

	kv, err := storage.Open(options.StoragePath)
	if err != nil {
		log.Fatal(err)
	}

	client := api.New(options.ServerAddress, nil)
	a := &app{
		api:     client,
		auth:    auth.New(client),
		session: session.New(kv, client, zl.Log),
		in:      bufio.NewScanner(os.Stdin),
	}

	if err := a.session.LoadUser(); err != nil {
		fmt.Println("warning: could not restore session:", err)
	}
	if identity, ok := a.session.CurrentIdentity(); ok {
		fmt.Printf("Signed in as %s\n", identity.Email)
	}

	a.repl()
}
