package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/complaint-desk/internal/models"
	"github.com/noah-isme/complaint-desk/internal/notify"
	"github.com/noah-isme/complaint-desk/internal/repository"
	"github.com/noah-isme/complaint-desk/pkg/jobs"
)

type sentEvent struct {
	event     notify.Event
	complaint models.Complaint
}

type recordingNotifier struct {
	mu     sync.Mutex
	events []sentEvent
	err    error
}

func (n *recordingNotifier) Notify(_ context.Context, event notify.Event, complaint models.Complaint) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.err != nil {
		return n.err
	}
	n.events = append(n.events, sentEvent{event: event, complaint: complaint})
	return nil
}

func (n *recordingNotifier) sent() []sentEvent {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]sentEvent(nil), n.events...)
}

type failingStore struct {
	err error
}

func (s failingStore) Get(context.Context, string, interface{}) (bool, error) { return false, s.err }
func (s failingStore) Set(context.Context, string, interface{}) error         { return s.err }
func (s failingStore) Delete(context.Context, string) error                   { return s.err }

type fixture struct {
	store      repository.RecordStore
	accounts   *repository.AccountRepository
	complaints *repository.ComplaintRepository
	sessions   *repository.SessionRepository
	notifier   *recordingNotifier
	metrics    *MetricsService
	auth       *AuthService
	desk       *ComplaintService
	clock      time.Time
}

func newFixture(t *testing.T) *fixture {
	return newFixtureWithStore(t, repository.NewMemoryStore())
}

func newFixtureWithStore(t *testing.T, store repository.RecordStore) *fixture {
	t.Helper()

	queue := jobs.NewQueue("test-writer", jobs.QueueConfig{})
	queue.Start(context.Background())
	t.Cleanup(queue.Stop)

	f := &fixture{
		store:      store,
		accounts:   repository.NewAccountRepository(store),
		complaints: repository.NewComplaintRepository(store),
		sessions:   repository.NewSessionRepository(store),
		notifier:   &recordingNotifier{},
		metrics:    NewMetricsService(),
		clock:      time.Date(2025, 1, 6, 9, 0, 0, 0, time.UTC),
	}
	f.auth = NewAuthService(AuthServiceParams{
		Accounts: f.accounts,
		Sessions: f.sessions,
		Writer:   queue,
		Metrics:  f.metrics,
		Config: AuthConfig{
			TokenSecret:         "test-secret",
			TokenExpiry:         time.Hour,
			Issuer:              "complaint-desk-test",
			AdminAccessCodeHash: testAccessCodeHash(t, "SECE_ADMIN_2025"),
		},
	})
	f.desk = NewComplaintService(ComplaintServiceParams{
		Complaints: f.complaints,
		Writer:     queue,
		Notifier:   f.notifier,
		Metrics:    f.metrics,
	})
	f.desk.now = func() time.Time {
		f.clock = f.clock.Add(time.Minute)
		return f.clock
	}
	return f
}

func (f *fixture) register(t *testing.T, req models.RegisterRequest) models.Account {
	t.Helper()
	session, err := f.auth.Register(context.Background(), req)
	require.NoError(t, err)
	return session.Account
}

func (f *fixture) student(t *testing.T, name, email, studentID string) models.Account {
	return f.register(t, models.RegisterRequest{Name: name, Email: email, StudentID: studentID})
}

func (f *fixture) superAdmin(t *testing.T) models.Account {
	t.Helper()
	require.NoError(t, f.auth.Bootstrap(context.Background()))
	session, err := f.auth.Login(context.Background(), models.LoginRequest{Email: "superadmin@college.edu"})
	require.NoError(t, err)
	return session.Account
}

var errStoreDown = errors.New("store unavailable")

func testAccessCodeHash(t *testing.T, code string) string {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(code), bcrypt.MinCost)
	require.NoError(t, err)
	return string(hash)
}
