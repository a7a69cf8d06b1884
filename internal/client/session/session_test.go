package session

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sucheta/jobport/internal/models"
)

// fakeKV is an in-memory KeyValue with an optional injected write error.
type fakeKV struct {
	values map[string][]byte
	setErr error
}

func newFakeKV() *fakeKV {
	return &fakeKV{values: make(map[string][]byte)}
}

func (f *fakeKV) Get(key string) ([]byte, bool) {
	v, ok := f.values[key]
	return v, ok
}

func (f *fakeKV) Set(key string, value []byte) error {
	if f.setErr != nil {
		return f.setErr
	}
	f.values[key] = value
	return nil
}

func (f *fakeKV) Delete(key string) error {
	delete(f.values, key)
	return nil
}

// fakeJobs implements JobService and counts calls so tests can assert the
// unauthenticated guard performs no remote work.
type fakeJobs struct {
	apps      []models.JobApplication
	appsErr   error
	created   models.JobPosting
	createErr error
	calls     int
}

func (f *fakeJobs) CreateJob(ctx context.Context, j models.JobPosting) (models.JobPosting, error) {
	f.calls++
	if f.createErr != nil {
		return models.JobPosting{}, f.createErr
	}
	created := j
	created.ID = f.created.ID
	return created, nil
}

func (f *fakeJobs) Applications(ctx context.Context) ([]models.JobApplication, error) {
	f.calls++
	return f.apps, f.appsErr
}

func seeker() models.Identity {
	return models.Identity{
		ID:    "U1",
		Email: "dia@example.com",
		Name:  "Dia",
		Role:  models.JobSeeker,
	}
}

func employer() models.Identity {
	return models.Identity{
		ID:    "E1",
		Email: "hr@acme.com",
		Name:  "Acme HR",
		Role:  models.Employer,
	}
}

func TestLoginLoadUserRoundTrip(t *testing.T) {
	kv := newFakeKV()
	s := New(kv, &fakeJobs{}, nil)

	u := seeker()
	u.Skills = "Go, SQL"
	require.NoError(t, s.Login(u))

	// Fresh process over the same persisted store.
	restored := New(kv, &fakeJobs{}, nil)
	require.NoError(t, restored.LoadUser())

	assert.True(t, restored.IsAuthenticated())
	got, ok := restored.CurrentIdentity()
	require.True(t, ok)
	assert.Equal(t, u.Sanitized(), got)
	assert.True(t, restored.IsJobSeeker())
}

func TestLogoutThenLoadUserIsAnonymous(t *testing.T) {
	kv := newFakeKV()
	s := New(kv, &fakeJobs{}, nil)
	require.NoError(t, s.Login(seeker()))
	require.NoError(t, s.Logout())

	restored := New(kv, &fakeJobs{}, nil)
	require.NoError(t, restored.LoadUser())

	assert.False(t, restored.IsAuthenticated())
	_, ok := restored.CurrentIdentity()
	assert.False(t, ok)
}

func TestLogoutIdempotent(t *testing.T) {
	s := New(newFakeKV(), &fakeJobs{}, nil)
	require.NoError(t, s.Logout())
	require.NoError(t, s.Logout())
}

func TestRoleDerivation(t *testing.T) {
	tests := []struct {
		name string
		user models.Identity
		want bool
	}{
		{"jobseeker", seeker(), true},
		{"employer", employer(), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := New(newFakeKV(), &fakeJobs{}, nil)
			require.NoError(t, s.Login(tt.user))
			assert.Equal(t, tt.want, s.IsJobSeeker())
		})
	}
}

func TestApplyToJob(t *testing.T) {
	kv := newFakeKV()
	s := New(kv, &fakeJobs{}, nil)
	require.NoError(t, s.Login(seeker()))

	require.NoError(t, s.ApplyToJob("J1"))
	assert.True(t, s.HasAppliedToJob("J1"))
	assert.False(t, s.HasAppliedToJob("J2"))

	// Applying twice is a no-op, not a duplicate entry.
	require.NoError(t, s.ApplyToJob("J1"))
	assert.Equal(t, []string{"J1"}, s.AppliedJobIDs())

	// Survives a restart via the persisted mirror.
	restored := New(kv, &fakeJobs{}, nil)
	require.NoError(t, restored.LoadUser())
	assert.Equal(t, []string{"J1"}, restored.AppliedJobIDs())
}

func TestApplyToJobEmptyID(t *testing.T) {
	s := New(newFakeKV(), &fakeJobs{}, nil)
	require.NoError(t, s.Login(seeker()))
	assert.ErrorIs(t, s.ApplyToJob(""), ErrEmptyJobID)
}

func TestFetchAppliedJobsReplaces(t *testing.T) {
	jobs := &fakeJobs{apps: []models.JobApplication{
		{ID: "a1", JobID: "J5", Applicants: []models.Applicant{{UserID: "U1"}}},
	}}
	s := New(newFakeKV(), jobs, nil)
	require.NoError(t, s.Login(seeker()))

	// Locally tracked application the server knows nothing about.
	require.NoError(t, s.ApplyToJob("J1"))

	require.NoError(t, s.FetchAppliedJobs(context.Background(), "U1"))
	assert.False(t, s.HasAppliedToJob("J1"), "fetch must replace, not merge")
	assert.True(t, s.HasAppliedToJob("J5"))
	assert.Equal(t, []string{"J5"}, s.AppliedJobIDs())

	// A user with no submissions ends up with an empty set.
	require.NoError(t, s.FetchAppliedJobs(context.Background(), "U2"))
	assert.Empty(t, s.AppliedJobIDs())
}

func TestFetchAppliedJobsErrorLeavesStateUnchanged(t *testing.T) {
	jobs := &fakeJobs{appsErr: errors.New("network down")}
	s := New(newFakeKV(), jobs, nil)
	require.NoError(t, s.Login(seeker()))
	require.NoError(t, s.ApplyToJob("J1"))

	err := s.FetchAppliedJobs(context.Background(), "U1")
	require.Error(t, err)
	assert.True(t, s.HasAppliedToJob("J1"))
}

func TestLogoutClearsAppliedJobs(t *testing.T) {
	kv := newFakeKV()
	s := New(kv, &fakeJobs{}, nil)
	require.NoError(t, s.Login(seeker()))
	require.NoError(t, s.ApplyToJob("J1"))
	require.NoError(t, s.ApplyToJob("J2"))

	require.NoError(t, s.Logout())

	restored := New(kv, &fakeJobs{}, nil)
	require.NoError(t, restored.LoadUser())
	assert.Empty(t, restored.AppliedJobIDs())
}

func TestUnauthenticatedGuard(t *testing.T) {
	jobs := &fakeJobs{}
	s := New(newFakeKV(), jobs, nil)

	assert.ErrorIs(t, s.ApplyToJob("J1"), ErrNotAuthenticated)
	assert.ErrorIs(t, s.FetchAppliedJobs(context.Background(), "U1"), ErrNotAuthenticated)
	assert.ErrorIs(t, s.SetUser(seeker()), ErrNotAuthenticated)

	_, err := s.PostJob(context.Background(), models.JobPosting{JobTitle: "x", CompanyName: "y"})
	assert.ErrorIs(t, err, ErrNotAuthenticated)

	assert.Zero(t, jobs.calls, "no remote call may happen while anonymous")
}

func TestPostJob(t *testing.T) {
	jobs := &fakeJobs{created: models.JobPosting{ID: "J9"}}
	s := New(newFakeKV(), jobs, nil)
	require.NoError(t, s.Login(employer()))

	created, err := s.PostJob(context.Background(), models.JobPosting{
		JobTitle:    "Backend Engineer",
		CompanyName: "Acme",
	})
	require.NoError(t, err)
	assert.Equal(t, "J9", created.ID)
	assert.Equal(t, "E1", created.PostedBy, "poster stamped from the session")

	assert.True(t, s.JobPosted())
	s.ResetJobPosted()
	assert.False(t, s.JobPosted())
}

func TestPostJobFailureLeavesFlagDown(t *testing.T) {
	jobs := &fakeJobs{createErr: errors.New("boom")}
	s := New(newFakeKV(), jobs, nil)
	require.NoError(t, s.Login(employer()))

	_, err := s.PostJob(context.Background(), models.JobPosting{
		JobTitle:    "Backend Engineer",
		CompanyName: "Acme",
	})
	require.Error(t, err)
	assert.False(t, s.JobPosted())
}

func TestPostJobRefusedForJobSeeker(t *testing.T) {
	jobs := &fakeJobs{}
	s := New(newFakeKV(), jobs, nil)
	require.NoError(t, s.Login(seeker()))

	_, err := s.PostJob(context.Background(), models.JobPosting{
		JobTitle:    "Backend Engineer",
		CompanyName: "Acme",
	})
	assert.ErrorIs(t, err, ErrEmployerOnly)
	assert.Zero(t, jobs.calls)
}

func TestSetUserKeepsFlagsAndApplications(t *testing.T) {
	s := New(newFakeKV(), &fakeJobs{}, nil)
	require.NoError(t, s.Login(seeker()))
	require.NoError(t, s.ApplyToJob("J1"))

	edited := seeker()
	edited.Skills = "Go, Kubernetes"
	require.NoError(t, s.SetUser(edited))

	got, ok := s.CurrentIdentity()
	require.True(t, ok)
	assert.Equal(t, "Go, Kubernetes", got.Skills)
	assert.True(t, s.IsJobSeeker())
	assert.Equal(t, []string{"J1"}, s.AppliedJobIDs())
}

func TestSetIsJobSeekerOverride(t *testing.T) {
	kv := newFakeKV()
	s := New(kv, &fakeJobs{}, nil)
	require.NoError(t, s.Login(employer()))
	require.NoError(t, s.SetIsJobSeeker(true))
	assert.True(t, s.IsJobSeeker())

	// The override, not the role, wins on restore.
	restored := New(kv, &fakeJobs{}, nil)
	require.NoError(t, restored.LoadUser())
	assert.True(t, restored.IsJobSeeker())
}

func TestPersistenceFailureKeepsMemoryAuthoritative(t *testing.T) {
	kv := newFakeKV()
	kv.setErr = errors.New("disk full")
	s := New(kv, &fakeJobs{}, nil)

	err := s.Login(seeker())
	require.Error(t, err, "failed mirror write must be reported")
	assert.True(t, s.IsAuthenticated(), "in-memory state stays authoritative")
}

func TestLoadUserCorruptDataFailsSafe(t *testing.T) {
	kv := newFakeKV()
	kv.values[keyUser] = []byte(`{"id":`)
	s := New(kv, &fakeJobs{}, nil)

	require.NoError(t, s.LoadUser())
	assert.False(t, s.IsAuthenticated())
}

func TestLoadUserIdempotent(t *testing.T) {
	kv := newFakeKV()
	s := New(kv, &fakeJobs{}, nil)
	require.NoError(t, s.Login(seeker()))
	require.NoError(t, s.ApplyToJob("J1"))

	restored := New(kv, &fakeJobs{}, nil)
	require.NoError(t, restored.LoadUser())
	require.NoError(t, restored.LoadUser())

	assert.True(t, restored.IsAuthenticated())
	assert.Equal(t, []string{"J1"}, restored.AppliedJobIDs())
}
