package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"elderlink/internal/models"
	"elderlink/internal/repositories"
	"elderlink/internal/utils"
)

type PrescriptionService struct {
	prescriptions PrescriptionStore
	elders        ElderStore
	assignments   AssignmentStore
	appointments  AppointmentStore
	inventory     InventoryStore
	notifier      *NotificationService
	now           func() time.Time
}

type PrescriptionDeps struct {
	Prescriptions PrescriptionStore
	Elders        ElderStore
	Assignments   AssignmentStore
	Appointments  AppointmentStore
	Inventory     InventoryStore
	Notifier      *NotificationService
}

func NewPrescriptionService(d PrescriptionDeps) *PrescriptionService {
	return &PrescriptionService{
		prescriptions: d.Prescriptions,
		elders:        d.Elders,
		assignments:   d.Assignments,
		appointments:  d.Appointments,
		inventory:     d.Inventory,
		notifier:      d.Notifier,
		now:           time.Now,
	}
}

type PrescriptionItemInput struct {
	MedicineName string
	Dosage       string
	Frequency    string
	DurationDays int
	Quantity     int
}

type PrescriptionInput struct {
	ElderID       uuid.UUID
	AppointmentID *uuid.UUID
	Diagnosis     string
	Notes         string
	Items         []PrescriptionItemInput
}

// DispatchResult reports the batches drawn from for a dispatched prescription.
type DispatchResult struct {
	Prescription *models.Prescription     `json:"prescription"`
	Allocations  []models.StockAllocation `json:"allocations"`
}

func (s *PrescriptionService) Create(ctx context.Context, actor Actor, in PrescriptionInput) (*models.Prescription, error) {
	if !actor.Is(models.RoleDoctor) {
		return nil, fmt.Errorf("only doctors issue prescriptions: %w", ErrForbidden)
	}
	if strings.TrimSpace(in.Diagnosis) == "" {
		return nil, fmt.Errorf("diagnosis is required: %w", ErrValidation)
	}
	if len(in.Items) == 0 {
		return nil, fmt.Errorf("at least one item is required: %w", ErrValidation)
	}

	elder, err := s.elders.FindByID(ctx, in.ElderID)
	if err != nil {
		return nil, err
	}
	if elder == nil {
		return nil, fmt.Errorf("elder %s: %w", in.ElderID, ErrNotFound)
	}
	assigned, err := s.assignments.IsActive(ctx, elder.FamilyID, actor.ID)
	if err != nil {
		return nil, err
	}
	if !assigned {
		return nil, fmt.Errorf("elder %s: %w", in.ElderID, ErrNotFound)
	}

	if in.AppointmentID != nil {
		appt, err := s.appointments.FindByID(ctx, *in.AppointmentID)
		if err != nil {
			return nil, err
		}
		if appt == nil || appt.DoctorID != actor.ID || appt.ElderID != elder.ID {
			return nil, fmt.Errorf("appointment does not belong to this doctor and elder: %w", ErrValidation)
		}
	}

	p := &models.Prescription{
		ElderID:       elder.ID,
		DoctorID:      actor.ID,
		AppointmentID: in.AppointmentID,
		Diagnosis:     strings.TrimSpace(in.Diagnosis),
		Notes:         utils.StringPtr(in.Notes),
		Items:         make([]models.PrescriptionItem, 0, len(in.Items)),
	}
	for _, item := range in.Items {
		if strings.TrimSpace(item.MedicineName) == "" || item.Quantity <= 0 || item.DurationDays < 0 {
			return nil, fmt.Errorf("each item needs a medicine name and a positive quantity: %w", ErrValidation)
		}
		p.Items = append(p.Items, models.PrescriptionItem{
			MedicineName: item.MedicineName,
			Dosage:       strings.TrimSpace(item.Dosage),
			Frequency:    strings.TrimSpace(item.Frequency),
			DurationDays: item.DurationDays,
			Quantity:     item.Quantity,
		})
	}

	if err := s.prescriptions.Create(ctx, p); err != nil {
		return nil, err
	}
	p.ElderName = elder.FullName
	p.FamilyID = elder.FamilyID

	s.notifier.NotifyMany(ctx, []uuid.UUID{elder.FamilyID}, models.NotificationPrescription,
		"New prescription", fmt.Sprintf("A new prescription was issued for %s.", elder.FullName),
		map[string]any{"prescription_id": p.ID})
	return p, nil
}

func (s *PrescriptionService) List(ctx context.Context, actor Actor, status string, page utils.Pagination) ([]models.Prescription, int64, error) {
	if status != "" && !models.PrescriptionStatus(status).Valid() {
		return nil, 0, fmt.Errorf("unknown status %q: %w", status, ErrValidation)
	}
	filter := repositories.PrescriptionFilter{Status: status, Limit: page.Limit, Offset: page.Offset()}
	switch actor.Role {
	case models.RoleDoctor:
		filter.DoctorID = &actor.ID
	case models.RoleFamily:
		filter.FamilyID = &actor.ID
	case models.RolePharmacist:
		filter.PharmacistID = &actor.ID
	case models.RoleAdmin:
	default:
		return nil, 0, ErrForbidden
	}
	return s.prescriptions.List(ctx, filter)
}

func (s *PrescriptionService) Get(ctx context.Context, actor Actor, id uuid.UUID) (*models.Prescription, error) {
	p, err := s.prescriptions.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if p == nil || !canSeePrescription(actor, p) {
		return nil, fmt.Errorf("prescription %s: %w", id, ErrNotFound)
	}
	return p, nil
}

func canSeePrescription(actor Actor, p *models.Prescription) bool {
	switch actor.Role {
	case models.RoleAdmin:
		return true
	case models.RoleDoctor:
		return p.DoctorID == actor.ID
	case models.RoleFamily:
		return p.FamilyID == actor.ID
	case models.RolePharmacist:
		return p.Status == models.PrescriptionPending || (p.PharmacistID != nil && *p.PharmacistID == actor.ID)
	}
	return false
}

// InventoryCheck reports whether the pharmacist's current stock covers the prescription.
func (s *PrescriptionService) InventoryCheck(ctx context.Context, actor Actor, id uuid.UUID) (*StockCheck, error) {
	if !actor.Is(models.RolePharmacist) {
		return nil, ErrForbidden
	}
	p, err := s.Get(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	stock, err := s.inventory.ListByPharmacist(ctx, actor.ID)
	if err != nil {
		return nil, err
	}
	check := CheckStock(p.Items, stock, s.now())
	return &check, nil
}

// Process claims a pending prescription for the acting pharmacist.
func (s *PrescriptionService) Process(ctx context.Context, actor Actor, id uuid.UUID) (*models.Prescription, error) {
	if !actor.Is(models.RolePharmacist) {
		return nil, ErrForbidden
	}
	p, err := s.Get(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	p.PharmacistID = &actor.ID
	if err := s.transition(ctx, p, models.PrescriptionProcessing); err != nil {
		return nil, err
	}

	s.notifier.NotifyMany(ctx, []uuid.UUID{p.FamilyID}, models.NotificationPrescription,
		"Prescription in preparation", fmt.Sprintf("The pharmacy is preparing the prescription for %s.", p.ElderName),
		map[string]any{"prescription_id": p.ID, "status": p.Status})
	return p, nil
}

// Dispatch deducts stock and marks the prescription dispatched in one transaction.
func (s *PrescriptionService) Dispatch(ctx context.Context, actor Actor, id uuid.UUID) (*DispatchResult, error) {
	if !actor.Is(models.RolePharmacist) {
		return nil, ErrForbidden
	}
	p, err := s.Get(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if p.Status != models.PrescriptionProcessing {
		return nil, fmt.Errorf("cannot dispatch a %s prescription: %w", p.Status, ErrInvalidTransition)
	}

	now := s.now()
	planner := func(items []models.PrescriptionItem, stock []models.InventoryItem) ([]models.StockAllocation, error) {
		return PlanDispatch(items, stock, now)
	}
	allocations, err := s.prescriptions.Dispatch(ctx, p.ID, actor.ID, now, planner)
	if err != nil {
		switch {
		case errors.Is(err, repositories.ErrStaleState):
			return nil, fmt.Errorf("prescription changed concurrently: %w", ErrInvalidTransition)
		case errors.Is(err, repositories.ErrInsufficientStock):
			return nil, fmt.Errorf("stock changed during dispatch: %w", ErrInsufficientStock)
		}
		return nil, err
	}
	p.Status = models.PrescriptionDispatched
	p.DispatchedAt = &now
	p.UpdatedAt = now

	log.WithFields(log.Fields{"prescription_id": p.ID, "pharmacist_id": actor.ID, "batches": len(allocations)}).
		Info("Prescription dispatched")

	s.notifier.NotifyMany(ctx, []uuid.UUID{p.FamilyID}, models.NotificationDispatch,
		"Medicines dispatched", fmt.Sprintf("The medicines for %s are on their way.", p.ElderName),
		map[string]any{"prescription_id": p.ID, "dispatched_at": now})
	s.notifyLowStock(ctx, actor.ID, allocations)
	return &DispatchResult{Prescription: p, Allocations: allocations}, nil
}

func (s *PrescriptionService) notifyLowStock(ctx context.Context, pharmacistID uuid.UUID, allocations []models.StockAllocation) {
	seen := map[uuid.UUID]bool{}
	for _, alloc := range allocations {
		if seen[alloc.InventoryItemID] {
			continue
		}
		seen[alloc.InventoryItemID] = true
		item, err := s.inventory.FindByID(ctx, alloc.InventoryItemID)
		if err != nil || item == nil || !item.IsLowStock() {
			continue
		}
		s.notifier.NotifyMany(ctx, []uuid.UUID{pharmacistID}, models.NotificationInventory,
			"Low stock", fmt.Sprintf("%s is down to %d %s.", item.MedicineName, item.Quantity, item.Unit),
			map[string]any{"inventory_item_id": item.ID})
	}
}

// Deliver records delivery, either by the dispatching pharmacist or the family confirming receipt.
func (s *PrescriptionService) Deliver(ctx context.Context, actor Actor, id uuid.UUID) (*models.Prescription, error) {
	p, err := s.Get(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	switch {
	case actor.Is(models.RoleFamily):
	case actor.Is(models.RolePharmacist) && p.PharmacistID != nil && *p.PharmacistID == actor.ID:
	default:
		return nil, fmt.Errorf("only the family or dispatching pharmacist can confirm delivery: %w", ErrForbidden)
	}

	now := s.now()
	p.DeliveredAt = &now
	if err := s.transition(ctx, p, models.PrescriptionDelivered); err != nil {
		return nil, err
	}

	recipients := []uuid.UUID{p.FamilyID}
	if p.PharmacistID != nil {
		recipients = append(recipients, *p.PharmacistID)
	}
	s.notifier.NotifyMany(ctx, recipients, models.NotificationPrescription,
		"Prescription delivered", fmt.Sprintf("The prescription for %s was delivered.", p.ElderName),
		map[string]any{"prescription_id": p.ID, "status": p.Status})
	return p, nil
}

// Cancel withdraws a prescription that has not been dispatched. Only the issuing doctor may cancel.
func (s *PrescriptionService) Cancel(ctx context.Context, actor Actor, id uuid.UUID) (*models.Prescription, error) {
	if !actor.Is(models.RoleDoctor) {
		return nil, ErrForbidden
	}
	p, err := s.Get(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if err := s.transition(ctx, p, models.PrescriptionCancelled); err != nil {
		return nil, err
	}

	recipients := []uuid.UUID{p.FamilyID}
	if p.PharmacistID != nil {
		recipients = append(recipients, *p.PharmacistID)
	}
	s.notifier.NotifyMany(ctx, recipients, models.NotificationPrescription,
		"Prescription cancelled", fmt.Sprintf("The prescription for %s was cancelled by Dr. %s.", p.ElderName, p.DoctorName),
		map[string]any{"prescription_id": p.ID, "status": p.Status})
	return p, nil
}

func (s *PrescriptionService) transition(ctx context.Context, p *models.Prescription, next models.PrescriptionStatus) error {
	from := p.Status
	if !from.CanTransitionTo(next) {
		return fmt.Errorf("cannot move prescription from %s to %s: %w", from, next, ErrInvalidTransition)
	}
	p.Status = next
	if err := s.prescriptions.Transition(ctx, p, from); err != nil {
		p.Status = from
		if errors.Is(err, repositories.ErrStaleState) {
			return fmt.Errorf("prescription changed concurrently: %w", ErrInvalidTransition)
		}
		return err
	}
	return nil
}
