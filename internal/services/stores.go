package services

import (
	"context"
	"time"

	"github.com/google/uuid"

	"elderlink/internal/billing"
	"elderlink/internal/models"
	"elderlink/internal/repositories"
	"elderlink/internal/zoom"
)

// The interfaces below are satisfied by the repositories package and by the
// in-memory fakes in internal/testutil.

type UserStore interface {
	Create(ctx context.Context, user *models.User) error
	CreateWithRole(ctx context.Context, user *models.User, choose repositories.RoleChooser) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	List(ctx context.Context, filter repositories.UserFilter) ([]models.User, int64, error)
	Update(ctx context.Context, user *models.User) error
	UpdateLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error
	SoftDelete(ctx context.Context, id uuid.UUID) error
	CountActiveByRole(ctx context.Context, role models.Role) (int64, error)
	ListIDsByRole(ctx context.Context, role models.Role) ([]uuid.UUID, error)
}

type SessionStore interface {
	Create(ctx context.Context, session *models.Session) error
	FindByToken(ctx context.Context, token string) (*models.Session, error)
	Revoke(ctx context.Context, token string) error
	RevokeAllForUser(ctx context.Context, userID uuid.UUID) error
	DeleteExpired(ctx context.Context, cutoff time.Time) (int64, error)
}

type TokenBlacklist interface {
	Blacklist(ctx context.Context, jti string, ttl time.Duration) error
	IsBlacklisted(ctx context.Context, jti string) (bool, error)
}

type Cache interface {
	CacheGet(ctx context.Context, key string) ([]byte, bool, error)
	CacheSet(ctx context.Context, key string, value []byte, ttl time.Duration) error
	CacheDelete(ctx context.Context, key string) error
}

type DoctorStore interface {
	List(ctx context.Context, specialization string) ([]models.Doctor, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Doctor, error)
	UpsertProfile(ctx context.Context, profile *models.DoctorProfile) error
}

type ElderStore interface {
	Create(ctx context.Context, elder *models.Elder) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Elder, error)
	List(ctx context.Context, filter repositories.ElderFilter) ([]models.Elder, int64, error)
	CountByFamily(ctx context.Context, familyID uuid.UUID) (int, error)
	Update(ctx context.Context, elder *models.Elder) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type AssignmentStore interface {
	Create(ctx context.Context, a *models.Assignment) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Assignment, error)
	List(ctx context.Context, filter repositories.AssignmentFilter) ([]models.Assignment, error)
	IsActive(ctx context.Context, familyID, doctorID uuid.UUID) (bool, error)
	ActiveDoctorIDs(ctx context.Context, familyID uuid.UUID) ([]uuid.UUID, error)
	End(ctx context.Context, id uuid.UUID, at time.Time) error
}

type AppointmentStore interface {
	Create(ctx context.Context, a *models.Appointment) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Appointment, error)
	List(ctx context.Context, filter repositories.AppointmentFilter) ([]models.Appointment, int64, error)
	Transition(ctx context.Context, a *models.Appointment, from models.AppointmentStatus) error
	CountConsultations(ctx context.Context, familyID uuid.UUID, from, to time.Time) (int, error)
	DueForReminder(ctx context.Context, now time.Time, window time.Duration) ([]models.Appointment, error)
	MarkReminderSent(ctx context.Context, id uuid.UUID) (bool, error)
}

type PrescriptionStore interface {
	Create(ctx context.Context, p *models.Prescription) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Prescription, error)
	List(ctx context.Context, filter repositories.PrescriptionFilter) ([]models.Prescription, int64, error)
	Transition(ctx context.Context, p *models.Prescription, from models.PrescriptionStatus) error
	Dispatch(ctx context.Context, id, pharmacistID uuid.UUID, at time.Time, plan repositories.DispatchPlanner) ([]models.StockAllocation, error)
	HandledByMonth(ctx context.Context, pharmacistID uuid.UUID, since time.Time) (map[string]int64, error)
	TopMedicines(ctx context.Context, pharmacistID uuid.UUID, limit int) ([]models.MedicineUsage, error)
}

type InventoryStore interface {
	Create(ctx context.Context, item *models.InventoryItem) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.InventoryItem, error)
	List(ctx context.Context, filter repositories.InventoryFilter) ([]models.InventoryItem, int64, error)
	ListByPharmacist(ctx context.Context, pharmacistID uuid.UUID) ([]models.InventoryItem, error)
	PharmacistIDs(ctx context.Context) ([]uuid.UUID, error)
	Update(ctx context.Context, item *models.InventoryItem) error
	Adjust(ctx context.Context, id uuid.UUID, delta int, actorID uuid.UUID, reason string) (*models.InventoryItem, error)
	Movements(ctx context.Context, itemID uuid.UUID, limit, offset int) ([]models.StockMovement, int64, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type NotificationStore interface {
	Create(ctx context.Context, n *models.Notification) error
	List(ctx context.Context, userID uuid.UUID, unreadOnly bool, limit, offset int) ([]models.Notification, int64, error)
	CountUnread(ctx context.Context, userID uuid.UUID) (int64, error)
	MarkRead(ctx context.Context, id, userID uuid.UUID) (bool, error)
	MarkAllRead(ctx context.Context, userID uuid.UUID) (int64, error)
	Delete(ctx context.Context, id, userID uuid.UUID) (bool, error)
}

type EmergencyStore interface {
	Create(ctx context.Context, a *models.EmergencyAlert) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.EmergencyAlert, error)
	List(ctx context.Context, filter repositories.EmergencyFilter) ([]models.EmergencyAlert, int64, error)
	Transition(ctx context.Context, a *models.EmergencyAlert, from models.EmergencyStatus) error
}

type SubscriptionStore interface {
	Create(ctx context.Context, s *models.Subscription) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Subscription, error)
	FindCurrentByUser(ctx context.Context, userID uuid.UUID) (*models.Subscription, error)
	FindByCheckoutSession(ctx context.Context, sessionID string) (*models.Subscription, error)
	FindByStripeSubscription(ctx context.Context, stripeID string) (*models.Subscription, error)
	List(ctx context.Context, status string, limit, offset int) ([]models.Subscription, int64, error)
	Update(ctx context.Context, s *models.Subscription) error
	ExpireEnded(ctx context.Context, cutoff time.Time) ([]models.Subscription, error)
}

type StatsStore interface {
	UsersByRole(ctx context.Context) (map[string]int64, error)
	AppointmentsByStatus(ctx context.Context) (map[string]int64, error)
	PrescriptionsByStatus(ctx context.Context) (map[string]int64, error)
	NewUsersByMonth(ctx context.Context, since time.Time) (map[string]int64, error)
	TotalElders(ctx context.Context) (int64, error)
	ActiveEmergencies(ctx context.Context) (int64, error)
	ActiveSubscriptions(ctx context.Context) (int64, error)
	RevenueSince(ctx context.Context, since time.Time) (int64, error)
	TotalStockValue(ctx context.Context, pharmacistID uuid.UUID) (int64, error)
}

// Pusher delivers a live event to every open socket of a user.
type Pusher interface {
	SendToUser(userID uuid.UUID, event string, payload any)
}

type Mailer interface {
	Send(to []string, subject, body string) error
}

// MeetingScheduler creates and removes video meetings for confirmed appointments.
type MeetingScheduler interface {
	CreateMeeting(ctx context.Context, req zoom.MeetingRequest) (*zoom.Meeting, error)
	DeleteMeeting(ctx context.Context, meetingID string) error
}

type BillingGateway interface {
	CreateCheckout(ctx context.Context, req billing.CheckoutRequest) (*billing.CheckoutSession, error)
	CancelAtPeriodEnd(ctx context.Context, stripeSubscriptionID string) error
	SubscriptionPeriod(ctx context.Context, stripeSubscriptionID string) (start, end time.Time, err error)
	ParseEvent(payload []byte, signature string) (*billing.Event, error)
}

// Entitlements resolves the plan a family currently has access to.
type Entitlements interface {
	ActivePlan(ctx context.Context, userID uuid.UUID) (*models.Plan, error)
}
