package testutil

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"elderlink/internal/models"
	"elderlink/internal/repositories"
)

// AppointmentStore is an in-memory AppointmentStore with the same overlap rule as Postgres.
type AppointmentStore struct {
	mu           sync.Mutex
	appointments map[uuid.UUID]models.Appointment
}

func NewAppointmentStore() *AppointmentStore {
	return &AppointmentStore{appointments: map[uuid.UUID]models.Appointment{}}
}

func (s *AppointmentStore) Create(_ context.Context, a *models.Appointment) error {
	a.Prepare()
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, other := range s.appointments {
		if other.DoctorID == a.DoctorID && other.Blocking() && other.Overlaps(a.ScheduledAt, a.DurationMinutes) {
			return repositories.ErrSlotTaken
		}
	}
	a.CreatedAt = time.Now()
	a.UpdatedAt = a.CreatedAt
	s.appointments[a.ID] = *a
	return nil
}

func (s *AppointmentStore) FindByID(_ context.Context, id uuid.UUID) (*models.Appointment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.appointments[id]
	if !ok {
		return nil, nil
	}
	return &a, nil
}

func (s *AppointmentStore) List(_ context.Context, f repositories.AppointmentFilter) ([]models.Appointment, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []models.Appointment{}
	for _, a := range s.appointments {
		if (f.FamilyID != nil && a.FamilyID != *f.FamilyID) ||
			(f.DoctorID != nil && a.DoctorID != *f.DoctorID) ||
			(f.Status != "" && string(a.Status) != f.Status) {
			continue
		}
		if f.Upcoming && (!a.Blocking() || !a.EndsAt().After(f.Now)) {
			continue
		}
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool {
		if f.Upcoming {
			return out[i].ScheduledAt.Before(out[j].ScheduledAt)
		}
		return out[i].ScheduledAt.After(out[j].ScheduledAt)
	})
	return page(out, f.Limit, f.Offset), int64(len(out)), nil
}

func (s *AppointmentStore) Transition(_ context.Context, a *models.Appointment, from models.AppointmentStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.appointments[a.ID]
	if !ok || cur.Status != from {
		return repositories.ErrStaleState
	}
	a.UpdatedAt = time.Now()
	s.appointments[a.ID] = *a
	return nil
}

func (s *AppointmentStore) CountConsultations(_ context.Context, familyID uuid.UUID, from, to time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, a := range s.appointments {
		if a.FamilyID != familyID || a.ScheduledAt.Before(from) || !a.ScheduledAt.Before(to) {
			continue
		}
		switch a.Status {
		case models.AppointmentPending, models.AppointmentConfirmed, models.AppointmentCompleted:
			n++
		}
	}
	return n, nil
}

func (s *AppointmentStore) DueForReminder(_ context.Context, now time.Time, window time.Duration) ([]models.Appointment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Appointment
	for _, a := range s.appointments {
		if a.Status == models.AppointmentConfirmed && !a.ReminderSent &&
			a.ScheduledAt.After(now) && !a.ScheduledAt.After(now.Add(window)) {
			out = append(out, a)
		}
	}
	return out, nil
}

func (s *AppointmentStore) MarkReminderSent(_ context.Context, id uuid.UUID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.appointments[id]
	if !ok || a.ReminderSent {
		return false, nil
	}
	a.ReminderSent = true
	s.appointments[id] = a
	return true, nil
}

// InventoryStore is an in-memory InventoryStore.
type InventoryStore struct {
	mu        sync.Mutex
	items     map[uuid.UUID]models.InventoryItem
	movements []models.StockMovement
}

func NewInventoryStore() *InventoryStore {
	return &InventoryStore{items: map[uuid.UUID]models.InventoryItem{}}
}

// Seed adds a batch expiring after the given number of days.
func (s *InventoryStore) Seed(pharmacistID uuid.UUID, name string, qty, reorder, expiresInDays int) *models.InventoryItem {
	item := &models.InventoryItem{
		PharmacistID:   pharmacistID,
		MedicineName:   name,
		Quantity:       qty,
		ReorderLevel:   reorder,
		UnitPriceCents: 100,
		ExpiryDate:     time.Now().AddDate(0, 0, expiresInDays),
	}
	_ = s.Create(context.Background(), item)
	return item
}

func (s *InventoryStore) Create(_ context.Context, item *models.InventoryItem) error {
	item.Prepare()
	item.CreatedAt = time.Now()
	item.UpdatedAt = item.CreatedAt
	s.mu.Lock()
	s.items[item.ID] = *item
	s.mu.Unlock()
	return nil
}

func (s *InventoryStore) FindByID(_ context.Context, id uuid.UUID) (*models.InventoryItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	item, ok := s.items[id]
	if !ok {
		return nil, nil
	}
	return &item, nil
}

func (s *InventoryStore) List(_ context.Context, f repositories.InventoryFilter) ([]models.InventoryItem, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []models.InventoryItem{}
	search := strings.ToLower(strings.TrimSpace(f.Search))
	for _, item := range s.items {
		if f.PharmacistID != nil && item.PharmacistID != *f.PharmacistID {
			continue
		}
		if search != "" && !strings.Contains(strings.ToLower(item.MedicineName), search) {
			continue
		}
		if f.LowStock && !item.IsLowStock() {
			continue
		}
		out = append(out, item)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].MedicineName < out[j].MedicineName })
	return page(out, f.Limit, f.Offset), int64(len(out)), nil
}

func (s *InventoryStore) ListByPharmacist(_ context.Context, pharmacistID uuid.UUID) ([]models.InventoryItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.byPharmacist(pharmacistID), nil
}

func (s *InventoryStore) byPharmacist(pharmacistID uuid.UUID) []models.InventoryItem {
	out := []models.InventoryItem{}
	for _, item := range s.items {
		if item.PharmacistID == pharmacistID {
			out = append(out, item)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ExpiryDate.Before(out[j].ExpiryDate) })
	return out
}

func (s *InventoryStore) PharmacistIDs(_ context.Context) ([]uuid.UUID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	seen := map[uuid.UUID]bool{}
	var ids []uuid.UUID
	for _, item := range s.items {
		if !seen[item.PharmacistID] {
			seen[item.PharmacistID] = true
			ids = append(ids, item.PharmacistID)
		}
	}
	return ids, nil
}

func (s *InventoryStore) Update(_ context.Context, item *models.InventoryItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.items[item.ID]; !ok {
		return repositories.ErrStaleState
	}
	item.UpdatedAt = time.Now()
	s.items[item.ID] = *item
	return nil
}

func (s *InventoryStore) Adjust(_ context.Context, id uuid.UUID, delta int, actorID uuid.UUID, reason string) (*models.InventoryItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	item, ok := s.items[id]
	if !ok || item.Quantity+delta < 0 {
		return nil, repositories.ErrInsufficientStock
	}
	item.Quantity += delta
	item.UpdatedAt = time.Now()
	s.items[id] = item
	m := models.StockMovement{
		InventoryItemID: id,
		ActorID:         actorID,
		Delta:           delta,
		Kind:            models.MovementAdjustment,
		CreatedAt:       item.UpdatedAt,
	}
	if reason != "" {
		m.Reason = &reason
	}
	s.record(m)
	return &item, nil
}

func (s *InventoryStore) record(m models.StockMovement) {
	m.ID = uuid.New()
	s.movements = append(s.movements, m)
}

// Movements returns a batch's movements, newest first.
func (s *InventoryStore) Movements(_ context.Context, itemID uuid.UUID, limit, offset int) ([]models.StockMovement, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []models.StockMovement{}
	for i := len(s.movements) - 1; i >= 0; i-- {
		if s.movements[i].InventoryItemID == itemID {
			out = append(out, s.movements[i])
		}
	}
	return page(out, limit, offset), int64(len(out)), nil
}

func (s *InventoryStore) Delete(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	delete(s.items, id)
	s.mu.Unlock()
	return nil
}

// PrescriptionStore is an in-memory PrescriptionStore. Elders fills the joined
// elder fields and Inventory backs Dispatch.
type PrescriptionStore struct {
	mu            sync.Mutex
	prescriptions map[uuid.UUID]models.Prescription
	Elders        *ElderStore
	Inventory     *InventoryStore
}

func NewPrescriptionStore(elders *ElderStore, inventory *InventoryStore) *PrescriptionStore {
	return &PrescriptionStore{prescriptions: map[uuid.UUID]models.Prescription{}, Elders: elders, Inventory: inventory}
}

func (s *PrescriptionStore) Create(_ context.Context, p *models.Prescription) error {
	p.Prepare()
	p.IssuedAt = time.Now()
	p.UpdatedAt = p.IssuedAt
	s.mu.Lock()
	s.prescriptions[p.ID] = *p
	s.mu.Unlock()
	return nil
}

func (s *PrescriptionStore) join(p models.Prescription) models.Prescription {
	if s.Elders != nil {
		if e, _ := s.Elders.FindByID(context.Background(), p.ElderID); e != nil {
			p.ElderName = e.FullName
			p.FamilyID = e.FamilyID
		}
	}
	p.Items = append([]models.PrescriptionItem(nil), p.Items...)
	return p
}

func (s *PrescriptionStore) FindByID(_ context.Context, id uuid.UUID) (*models.Prescription, error) {
	s.mu.Lock()
	p, ok := s.prescriptions[id]
	s.mu.Unlock()
	if !ok {
		return nil, nil
	}
	p = s.join(p)
	return &p, nil
}

func (s *PrescriptionStore) List(_ context.Context, f repositories.PrescriptionFilter) ([]models.Prescription, int64, error) {
	s.mu.Lock()
	all := make([]models.Prescription, 0, len(s.prescriptions))
	for _, p := range s.prescriptions {
		all = append(all, p)
	}
	s.mu.Unlock()

	out := []models.Prescription{}
	for _, p := range all {
		p = s.join(p)
		if (f.DoctorID != nil && p.DoctorID != *f.DoctorID) ||
			(f.FamilyID != nil && p.FamilyID != *f.FamilyID) ||
			(f.Status != "" && string(p.Status) != f.Status) {
			continue
		}
		if f.PharmacistID != nil && p.Status != models.PrescriptionPending &&
			(p.PharmacistID == nil || *p.PharmacistID != *f.PharmacistID) {
			continue
		}
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].IssuedAt.After(out[j].IssuedAt) })
	return page(out, f.Limit, f.Offset), int64(len(out)), nil
}

func (s *PrescriptionStore) Transition(_ context.Context, p *models.Prescription, from models.PrescriptionStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.prescriptions[p.ID]
	if !ok || cur.Status != from {
		return repositories.ErrStaleState
	}
	cur.Status = p.Status
	cur.PharmacistID = p.PharmacistID
	cur.DispatchedAt = p.DispatchedAt
	cur.DeliveredAt = p.DeliveredAt
	cur.UpdatedAt = time.Now()
	s.prescriptions[p.ID] = cur
	return nil
}

func (s *PrescriptionStore) Dispatch(
	_ context.Context,
	id, pharmacistID uuid.UUID,
	at time.Time,
	plan repositories.DispatchPlanner,
) ([]models.StockAllocation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.prescriptions[id]
	if !ok || p.Status != models.PrescriptionProcessing || p.PharmacistID == nil || *p.PharmacistID != pharmacistID {
		return nil, repositories.ErrStaleState
	}

	s.Inventory.mu.Lock()
	defer s.Inventory.mu.Unlock()
	var stock []models.InventoryItem
	for _, item := range s.Inventory.byPharmacist(pharmacistID) {
		if item.Quantity > 0 {
			stock = append(stock, item)
		}
	}

	allocations, err := plan(p.Items, stock)
	if err != nil {
		return nil, err
	}
	for _, a := range allocations {
		item := s.Inventory.items[a.InventoryItemID]
		if item.Quantity < a.Quantity {
			return nil, repositories.ErrInsufficientStock
		}
	}
	for _, a := range allocations {
		item := s.Inventory.items[a.InventoryItemID]
		item.Quantity -= a.Quantity
		s.Inventory.items[a.InventoryItemID] = item
		s.Inventory.record(models.StockMovement{
			InventoryItemID: a.InventoryItemID,
			ActorID:         pharmacistID,
			Delta:           -a.Quantity,
			Kind:            models.MovementDispatch,
			PrescriptionID:  &id,
			CreatedAt:       at,
		})
	}

	p.Status = models.PrescriptionDispatched
	p.DispatchedAt = &at
	s.prescriptions[id] = p
	return allocations, nil
}

func (s *PrescriptionStore) HandledByMonth(_ context.Context, pharmacistID uuid.UUID, since time.Time) (map[string]int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := map[string]int64{}
	for _, p := range s.prescriptions {
		if p.PharmacistID == nil || *p.PharmacistID != pharmacistID || p.IssuedAt.Before(since) {
			continue
		}
		out[p.IssuedAt.UTC().Format("2006-01")]++
	}
	return out, nil
}

func (s *PrescriptionStore) TopMedicines(_ context.Context, pharmacistID uuid.UUID, limit int) ([]models.MedicineUsage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	totals := map[string]int64{}
	for _, p := range s.prescriptions {
		if p.PharmacistID == nil || *p.PharmacistID != pharmacistID ||
			(p.Status != models.PrescriptionDispatched && p.Status != models.PrescriptionDelivered) {
			continue
		}
		for _, item := range p.Items {
			totals[strings.ToLower(strings.TrimSpace(item.MedicineName))] += int64(item.Quantity)
		}
	}
	out := make([]models.MedicineUsage, 0, len(totals))
	for name, qty := range totals {
		out = append(out, models.MedicineUsage{MedicineName: name, Quantity: qty})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Quantity > out[j].Quantity })
	return page(out, limit, 0), nil
}

// NotificationStore is an in-memory NotificationStore.
type NotificationStore struct {
	mu            sync.Mutex
	notifications []models.Notification
}

func NewNotificationStore() *NotificationStore {
	return &NotificationStore{}
}

func (s *NotificationStore) Create(_ context.Context, n *models.Notification) error {
	n.Prepare()
	n.CreatedAt = time.Now()
	s.mu.Lock()
	s.notifications = append(s.notifications, *n)
	s.mu.Unlock()
	return nil
}

// For returns every notification stored for the user, oldest first.
func (s *NotificationStore) For(userID uuid.UUID) []models.Notification {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Notification
	for _, n := range s.notifications {
		if n.UserID == userID {
			out = append(out, n)
		}
	}
	return out
}

func (s *NotificationStore) List(_ context.Context, userID uuid.UUID, unreadOnly bool, limit, offset int) ([]models.Notification, int64, error) {
	var out []models.Notification
	for _, n := range s.For(userID) {
		if !unreadOnly || !n.IsRead {
			out = append([]models.Notification{n}, out...)
		}
	}
	return page(out, limit, offset), int64(len(out)), nil
}

func (s *NotificationStore) CountUnread(ctx context.Context, userID uuid.UUID) (int64, error) {
	_, n, err := s.List(ctx, userID, true, 0, 0)
	return n, err
}

func (s *NotificationStore) MarkRead(_ context.Context, id, userID uuid.UUID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.notifications {
		if s.notifications[i].ID == id && s.notifications[i].UserID == userID {
			now := time.Now()
			s.notifications[i].IsRead = true
			s.notifications[i].ReadAt = &now
			return true, nil
		}
	}
	return false, nil
}

func (s *NotificationStore) MarkAllRead(_ context.Context, userID uuid.UUID) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for i := range s.notifications {
		if s.notifications[i].UserID == userID && !s.notifications[i].IsRead {
			s.notifications[i].IsRead = true
			n++
		}
	}
	return n, nil
}

func (s *NotificationStore) Delete(_ context.Context, id, userID uuid.UUID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, n := range s.notifications {
		if n.ID == id && n.UserID == userID {
			s.notifications = append(s.notifications[:i], s.notifications[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

// EmergencyStore is an in-memory EmergencyStore.
type EmergencyStore struct {
	mu          sync.Mutex
	alerts      map[uuid.UUID]models.EmergencyAlert
	Assignments *AssignmentStore
}

func NewEmergencyStore(assignments *AssignmentStore) *EmergencyStore {
	return &EmergencyStore{alerts: map[uuid.UUID]models.EmergencyAlert{}, Assignments: assignments}
}

func (s *EmergencyStore) Create(_ context.Context, a *models.EmergencyAlert) error {
	a.Prepare()
	a.CreatedAt = time.Now()
	s.mu.Lock()
	s.alerts[a.ID] = *a
	s.mu.Unlock()
	return nil
}

func (s *EmergencyStore) FindByID(_ context.Context, id uuid.UUID) (*models.EmergencyAlert, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.alerts[id]
	if !ok {
		return nil, nil
	}
	return &a, nil
}

func (s *EmergencyStore) List(ctx context.Context, f repositories.EmergencyFilter) ([]models.EmergencyAlert, int64, error) {
	s.mu.Lock()
	all := make([]models.EmergencyAlert, 0, len(s.alerts))
	for _, a := range s.alerts {
		all = append(all, a)
	}
	s.mu.Unlock()

	out := []models.EmergencyAlert{}
	for _, a := range all {
		if (f.FamilyID != nil && a.FamilyID != *f.FamilyID) || (f.Status != "" && string(a.Status) != f.Status) {
			continue
		}
		if f.DoctorID != nil {
			if ok, _ := s.Assignments.IsActive(ctx, a.FamilyID, *f.DoctorID); !ok {
				continue
			}
		}
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return page(out, f.Limit, f.Offset), int64(len(out)), nil
}

func (s *EmergencyStore) Transition(_ context.Context, a *models.EmergencyAlert, from models.EmergencyStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.alerts[a.ID]
	if !ok || cur.Status != from {
		return repositories.ErrStaleState
	}
	s.alerts[a.ID] = *a
	return nil
}

// SubscriptionStore is an in-memory SubscriptionStore.
type SubscriptionStore struct {
	mu   sync.Mutex
	subs map[uuid.UUID]models.Subscription
}

func NewSubscriptionStore() *SubscriptionStore {
	return &SubscriptionStore{subs: map[uuid.UUID]models.Subscription{}}
}

// Activate stores an active subscription on plan ending after d.
func (s *SubscriptionStore) Activate(userID uuid.UUID, plan models.PlanCode, d time.Duration) *models.Subscription {
	start := time.Now()
	end := start.Add(d)
	sub := &models.Subscription{
		UserID:             userID,
		Plan:               plan,
		Status:             models.SubscriptionActive,
		Currency:           "usd",
		CurrentPeriodStart: &start,
		CurrentPeriodEnd:   &end,
	}
	_ = s.Create(context.Background(), sub)
	return sub
}

func (s *SubscriptionStore) Create(_ context.Context, sub *models.Subscription) error {
	sub.Prepare()
	sub.CreatedAt = time.Now()
	sub.UpdatedAt = sub.CreatedAt
	s.mu.Lock()
	s.subs[sub.ID] = *sub
	s.mu.Unlock()
	return nil
}

func (s *SubscriptionStore) find(match func(models.Subscription) bool) *models.Subscription {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, sub := range s.subs {
		if match(sub) {
			return &sub
		}
	}
	return nil
}

func (s *SubscriptionStore) FindByID(_ context.Context, id uuid.UUID) (*models.Subscription, error) {
	return s.find(func(sub models.Subscription) bool { return sub.ID == id }), nil
}

func (s *SubscriptionStore) FindCurrentByUser(_ context.Context, userID uuid.UUID) (*models.Subscription, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var best *models.Subscription
	for _, sub := range s.subs {
		if sub.UserID != userID {
			continue
		}
		switch {
		case best == nil:
			best = &sub
		case (best.Status == models.SubscriptionPending) != (sub.Status == models.SubscriptionPending):
			if best.Status == models.SubscriptionPending {
				best = &sub
			}
		case sub.CreatedAt.After(best.CreatedAt):
			best = &sub
		}
	}
	return best, nil
}

func (s *SubscriptionStore) FindByCheckoutSession(_ context.Context, sessionID string) (*models.Subscription, error) {
	return s.find(func(sub models.Subscription) bool {
		return sub.StripeCheckoutSessionID != nil && *sub.StripeCheckoutSessionID == sessionID
	}), nil
}

func (s *SubscriptionStore) FindByStripeSubscription(_ context.Context, stripeID string) (*models.Subscription, error) {
	return s.find(func(sub models.Subscription) bool {
		return sub.StripeSubscriptionID != nil && *sub.StripeSubscriptionID == stripeID
	}), nil
}

func (s *SubscriptionStore) List(_ context.Context, status string, limit, offset int) ([]models.Subscription, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []models.Subscription{}
	for _, sub := range s.subs {
		if status == "" || string(sub.Status) == status {
			out = append(out, sub)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return page(out, limit, offset), int64(len(out)), nil
}

func (s *SubscriptionStore) Update(_ context.Context, sub *models.Subscription) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.subs[sub.ID]; !ok {
		return repositories.ErrStaleState
	}
	sub.UpdatedAt = time.Now()
	s.subs[sub.ID] = *sub
	return nil
}

func (s *SubscriptionStore) ExpireEnded(_ context.Context, cutoff time.Time) ([]models.Subscription, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Subscription
	for id, sub := range s.subs {
		switch sub.Status {
		case models.SubscriptionActive, models.SubscriptionPastDue, models.SubscriptionCancelled:
		default:
			continue
		}
		if sub.CurrentPeriodEnd == nil || !sub.CurrentPeriodEnd.Before(cutoff) {
			continue
		}
		sub.Status = models.SubscriptionExpired
		s.subs[id] = sub
		out = append(out, sub)
	}
	return out, nil
}

// StatsStore returns fixed aggregates.
type StatsStore struct {
	Users         map[string]int64
	Appointments  map[string]int64
	Prescriptions map[string]int64
	NewUsers      map[string]int64
	Elders        int64
	Emergencies   int64
	Subscriptions int64
	Revenue       int64
	StockValue    int64
	Calls         int
}

func (s *StatsStore) UsersByRole(context.Context) (map[string]int64, error) {
	s.Calls++
	return s.Users, nil
}

func (s *StatsStore) AppointmentsByStatus(context.Context) (map[string]int64, error) {
	return s.Appointments, nil
}

func (s *StatsStore) PrescriptionsByStatus(context.Context) (map[string]int64, error) {
	return s.Prescriptions, nil
}

func (s *StatsStore) NewUsersByMonth(context.Context, time.Time) (map[string]int64, error) {
	return s.NewUsers, nil
}

func (s *StatsStore) TotalElders(context.Context) (int64, error)         { return s.Elders, nil }
func (s *StatsStore) ActiveEmergencies(context.Context) (int64, error)   { return s.Emergencies, nil }
func (s *StatsStore) ActiveSubscriptions(context.Context) (int64, error) { return s.Subscriptions, nil }

func (s *StatsStore) RevenueSince(context.Context, time.Time) (int64, error) {
	return s.Revenue, nil
}

func (s *StatsStore) TotalStockValue(context.Context, uuid.UUID) (int64, error) {
	return s.StockValue, nil
}

