package services

import (
	"testing"
	"time"

	"github.com/google/uuid"

	"elderlink/internal/models"
	"elderlink/internal/testutil"
	"elderlink/internal/utils"
)

// fixture wires every service to in-memory stores sharing one clock.
type fixture struct {
	now time.Time

	users         *testutil.UserStore
	sessions      *testutil.SessionStore
	redis         *testutil.Redis
	doctors       *testutil.DoctorStore
	elders        *testutil.ElderStore
	assignments   *testutil.AssignmentStore
	appointments  *testutil.AppointmentStore
	inventory     *testutil.InventoryStore
	prescriptions *testutil.PrescriptionStore
	notifications *testutil.NotificationStore
	emergencies   *testutil.EmergencyStore
	subscriptions *testutil.SubscriptionStore

	pusher   *testutil.Pusher
	mailer   *testutil.Mailer
	meetings *testutil.Meetings
	billing  *testutil.Billing

	notifier *NotificationService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	users := testutil.NewUserStore()
	assignments := testutil.NewAssignmentStore()
	elders := testutil.NewElderStore(assignments)
	inventory := testutil.NewInventoryStore()
	notifications := testutil.NewNotificationStore()
	pusher := &testutil.Pusher{}

	return &fixture{
		now:           time.Now().UTC().Truncate(time.Second),
		users:         users,
		sessions:      testutil.NewSessionStore(),
		redis:         testutil.NewRedis(),
		doctors:       testutil.NewDoctorStore(users),
		elders:        elders,
		assignments:   assignments,
		appointments:  testutil.NewAppointmentStore(),
		inventory:     inventory,
		prescriptions: testutil.NewPrescriptionStore(elders, inventory),
		notifications: notifications,
		emergencies:   testutil.NewEmergencyStore(assignments),
		subscriptions: testutil.NewSubscriptionStore(),
		pusher:        pusher,
		mailer:        &testutil.Mailer{},
		meetings:      &testutil.Meetings{},
		billing:       &testutil.Billing{},
		notifier:      NewNotificationService(notifications, pusher),
	}
}

func (f *fixture) clock() time.Time { return f.now }

func (f *fixture) user(role models.Role) (*models.User, Actor) {
	u := f.users.Seed(string(role)+" user", string(role)+"-"+uuid.NewString()[:8]+"@example.com", role)
	return u, Actor{ID: u.ID, Role: role}
}

func (f *fixture) elder(family Actor) *models.Elder {
	return f.elders.Seed(family.ID, "Margaret Doe", time.Date(1940, 5, 17, 0, 0, 0, 0, time.UTC))
}

func (f *fixture) authService() *AuthService {
	s := NewAuthService(f.users, f.sessions, f.redis, utils.NewTokenIssuer("access-secret", "refresh-secret"))
	s.now = f.clock
	return s
}

func (f *fixture) subscriptionService() *SubscriptionService {
	s := NewSubscriptionService(f.subscriptions, f.users, f.billing, f.notifier)
	s.now = f.clock
	return s
}

func (f *fixture) elderService(subscriptionRequired bool) *ElderService {
	s := NewElderService(f.elders, f.assignments, f.subscriptionService(), subscriptionRequired)
	s.now = f.clock
	return s
}

func (f *fixture) appointmentService(subscriptionRequired bool) *AppointmentService {
	s := NewAppointmentService(AppointmentDeps{
		Appointments:         f.appointments,
		Elders:               f.elders,
		Assignments:          f.assignments,
		Users:                f.users,
		Notifier:             f.notifier,
		Meetings:             f.meetings,
		Mailer:               f.mailer,
		Entitlements:         f.subscriptionService(),
		SubscriptionRequired: subscriptionRequired,
	})
	s.now = f.clock
	return s
}

func (f *fixture) prescriptionService() *PrescriptionService {
	s := NewPrescriptionService(PrescriptionDeps{
		Prescriptions: f.prescriptions,
		Elders:        f.elders,
		Assignments:   f.assignments,
		Appointments:  f.appointments,
		Inventory:     f.inventory,
		Notifier:      f.notifier,
	})
	s.now = f.clock
	return s
}

func (f *fixture) inventoryService() *InventoryService {
	s := NewInventoryService(f.inventory, f.notifier)
	s.now = f.clock
	return s
}

func (f *fixture) emergencyService() *EmergencyService {
	s := NewEmergencyService(EmergencyDeps{
		Emergencies: f.emergencies,
		Elders:      f.elders,
		Assignments: f.assignments,
		Users:       f.users,
		Notifier:    f.notifier,
		Mailer:      f.mailer,
	})
	s.now = f.clock
	return s
}
