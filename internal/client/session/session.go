// Package session implements the client-side session and job-application
// tracking store: the single authority for the current identity, its role
// flag, the set of jobs applied to, and the transient job-posted flag.
// State is mirrored to a persistent key-value store so it survives
// restarts; the in-memory copy stays authoritative for the process even
// when a mirror write fails.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/sucheta/jobport/internal/models"
)

// Keys reserved in the persistent key-value store. Only this package
// writes them.
const (
	keyUser        = "user"
	keyIsJobSeeker = "isJobSeeker"
	keyAppliedJobs = "appliedJobs"
)

var (
	// ErrNotAuthenticated signals that an operation requiring a signed-in
	// identity was called while anonymous. Callers redirect to sign-in.
	ErrNotAuthenticated = errors.New("session: requires login")
	// ErrEmptyJobID signals an apply call without a job identifier.
	ErrEmptyJobID = errors.New("session: empty job id")
	// ErrEmployerOnly signals a job-posting attempt by a jobseeker account.
	ErrEmployerOnly = errors.New("session: posting jobs requires an employer account")
)

// KeyValue is the persistent key-value store the session mirrors into.
type KeyValue interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte) error
	Delete(key string) error
}

// JobService is the slice of the remote service the session calls:
// creating postings and scanning application aggregates.
type JobService interface {
	CreateJob(ctx context.Context, j models.JobPosting) (models.JobPosting, error)
	Applications(ctx context.Context) ([]models.JobApplication, error)
}

// Store is the session and application-tracking store. Construct one per
// process with New and share it; all mutation goes through its methods.
type Store struct {
	kv   KeyValue
	jobs JobService
	log  *zap.Logger

	mu            sync.Mutex
	authenticated bool
	identity      models.Identity
	isJobSeeker   bool
	appliedOrder  []string
	applied       map[string]struct{}
	jobPosted     bool
}

// New returns an empty, anonymous Store. Call LoadUser to restore any
// persisted session.
func New(kv KeyValue, jobs JobService, log *zap.Logger) *Store {
	if log == nil {
		log = zap.NewNop()
	}
	return &Store{
		kv:      kv,
		jobs:    jobs,
		log:     log,
		applied: make(map[string]struct{}),
	}
}

// Login makes identity the current identity and derives the role flag.
// The credential check happens before this call, in the authenticator.
// The in-memory update always takes effect; a failing mirror write is
// returned so the caller knows the session may not survive a restart.
func (s *Store) Login(identity models.Identity) error {
	if err := identity.Validate(); err != nil {
		return fmt.Errorf("session: login: %w", err)
	}
	id := identity.Sanitized()

	s.mu.Lock()
	defer s.mu.Unlock()

	s.authenticated = true
	s.identity = id
	s.isJobSeeker = id.Role == models.JobSeeker

	err := errors.Join(s.persistIdentity(), s.persistRoleFlag())
	if err != nil {
		s.log.Warn("session not fully persisted", zap.String("user", id.ID), zap.Error(err))
		return err
	}
	s.log.Info("signed in", zap.String("user", id.ID), zap.String("role", string(id.Role)))
	return nil
}

// Logout resets the store to the anonymous state and deletes the
// persisted mirror. Calling it while already anonymous is a no-op success.
func (s *Store) Logout() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.authenticated = false
	s.identity = models.Identity{}
	s.isJobSeeker = false
	s.appliedOrder = nil
	s.applied = make(map[string]struct{})
	s.jobPosted = false

	return errors.Join(
		s.kv.Delete(keyUser),
		s.kv.Delete(keyIsJobSeeker),
		s.kv.Delete(keyAppliedJobs),
	)
}

// LoadUser restores the session from the persistent store. It is the sole
// recovery path after a restart and is safe to call repeatedly. Corrupt
// persisted data is treated as absent: the store stays anonymous.
func (s *Store) LoadUser() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, ok := s.kv.Get(keyUser)
	if !ok {
		return nil
	}

	var id models.Identity
	if err := json.Unmarshal(raw, &id); err != nil || id.Validate() != nil {
		s.log.Warn("discarding unreadable persisted identity")
		return nil
	}

	s.authenticated = true
	s.identity = id.Sanitized()

	s.isJobSeeker = id.Role == models.JobSeeker
	if raw, ok := s.kv.Get(keyIsJobSeeker); ok {
		var flag bool
		if err := json.Unmarshal(raw, &flag); err == nil {
			s.isJobSeeker = flag
		}
	}

	s.appliedOrder = nil
	s.applied = make(map[string]struct{})
	if raw, ok := s.kv.Get(keyAppliedJobs); ok {
		var ids []string
		if err := json.Unmarshal(raw, &ids); err == nil {
			for _, jobID := range ids {
				s.addAppliedLocked(jobID)
			}
		}
	}
	return nil
}

// ApplyToJob records that the current identity has applied to jobID, in
// memory and in the mirror. The remote submission itself is the caller's
// responsibility and must have succeeded before this call. Applying twice
// to the same job is a no-op success.
func (s *Store) ApplyToJob(jobID string) error {
	if jobID == "" {
		return ErrEmptyJobID
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.authenticated {
		return ErrNotAuthenticated
	}
	if _, ok := s.applied[jobID]; ok {
		return nil
	}
	s.addAppliedLocked(jobID)
	return s.persistApplied()
}

// HasAppliedToJob reports whether jobID is in the applied-jobs set.
func (s *Store) HasAppliedToJob(jobID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.applied[jobID]
	return ok
}

// FetchAppliedJobs reconciles the applied-jobs set with server truth: it
// scans every application aggregate, keeps the jobs with a submission from
// userID, and replaces the set wholesale. On a remote failure the prior
// set is left untouched and the error is returned for the caller to treat
// as non-fatal.
//
// The service cannot filter on the nested applicant id server-side, hence
// the full-collection scan.
func (s *Store) FetchAppliedJobs(ctx context.Context, userID string) error {
	s.mu.Lock()
	if !s.authenticated {
		s.mu.Unlock()
		return ErrNotAuthenticated
	}
	s.mu.Unlock()

	apps, err := s.jobs.Applications(ctx)
	if err != nil {
		return fmt.Errorf("session: fetch applied jobs: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.authenticated {
		// Logged out while the request was in flight; do not resurrect state.
		return ErrNotAuthenticated
	}

	s.appliedOrder = nil
	s.applied = make(map[string]struct{})
	for _, app := range apps {
		if app.JobID != "" && app.HasApplicant(userID) {
			s.addAppliedLocked(app.JobID)
		}
	}
	s.log.Info("applied jobs reconciled", zap.Int("count", len(s.appliedOrder)))
	return s.persistApplied()
}

// SetUser replaces the current identity after a profile edit. The
// authentication state, role flag and applied-jobs set are untouched.
func (s *Store) SetUser(identity models.Identity) error {
	if err := identity.Validate(); err != nil {
		return fmt.Errorf("session: set user: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.authenticated {
		return ErrNotAuthenticated
	}
	s.identity = identity.Sanitized()
	return s.persistIdentity()
}

// SetIsJobSeeker overrides the role-derived flag and persists it.
func (s *Store) SetIsJobSeeker(v bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.isJobSeeker = v
	return s.persistRoleFlag()
}

// PostJob creates a job posting through the remote service. Only an
// authenticated employer may post. On success the transient job-posted
// flag is raised and the stored record (with its assigned id) returned;
// on failure the flag stays down and the store is unchanged.
func (s *Store) PostJob(ctx context.Context, j models.JobPosting) (models.JobPosting, error) {
	s.mu.Lock()
	if !s.authenticated {
		s.mu.Unlock()
		return models.JobPosting{}, ErrNotAuthenticated
	}
	if s.isJobSeeker {
		s.mu.Unlock()
		return models.JobPosting{}, ErrEmployerOnly
	}
	if j.PostedBy == "" {
		j.PostedBy = s.identity.ID
	}
	s.mu.Unlock()

	if err := j.Validate(); err != nil {
		return models.JobPosting{}, fmt.Errorf("session: post job: %w", err)
	}

	created, err := s.jobs.CreateJob(ctx, j)
	if err != nil {
		return models.JobPosting{}, fmt.Errorf("session: post job: %w", err)
	}

	s.mu.Lock()
	s.jobPosted = true
	s.mu.Unlock()
	s.log.Info("job posted", zap.String("job", created.ID))
	return created, nil
}

// JobPosted reports whether a posting succeeded since the last reset.
func (s *Store) JobPosted() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.jobPosted
}

// ResetJobPosted lowers the job-posted flag. The UI consumes the flag once
// to avoid showing the success notice twice.
func (s *Store) ResetJobPosted() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobPosted = false
}

// IsAuthenticated reports whether an identity is signed in.
func (s *Store) IsAuthenticated() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.authenticated
}

// CurrentIdentity returns a copy of the signed-in identity, if any.
func (s *Store) CurrentIdentity() (models.Identity, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.identity, s.authenticated
}

// IsJobSeeker reports the cached role flag. Only meaningful while
// authenticated.
func (s *Store) IsJobSeeker() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.isJobSeeker
}

// AppliedJobIDs returns a copy of the applied-jobs set in insertion order.
func (s *Store) AppliedJobIDs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.appliedOrder))
	copy(out, s.appliedOrder)
	return out
}

// addAppliedLocked inserts jobID into the set, ignoring duplicates.
// Callers hold mu.
func (s *Store) addAppliedLocked(jobID string) {
	if _, ok := s.applied[jobID]; ok {
		return
	}
	s.applied[jobID] = struct{}{}
	s.appliedOrder = append(s.appliedOrder, jobID)
}

func (s *Store) persistIdentity() error {
	b, err := json.Marshal(s.identity)
	if err != nil {
		return fmt.Errorf("session: encode identity: %w", err)
	}
	return s.kv.Set(keyUser, b)
}

func (s *Store) persistRoleFlag() error {
	b, _ := json.Marshal(s.isJobSeeker)
	return s.kv.Set(keyIsJobSeeker, b)
}

func (s *Store) persistApplied() error {
	ids := s.appliedOrder
	if ids == nil {
		ids = []string{}
	}
	b, err := json.Marshal(ids)
	if err != nil {
		return fmt.Errorf("session: encode applied jobs: %w", err)
	}
	return s.kv.Set(keyAppliedJobs, b)
}
