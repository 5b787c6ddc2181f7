package jobs

import (
	"context"
)

type Reminders interface {
	SendReminders(ctx context.Context) (int, error)
}

type Subscriptions interface {
	ExpireSubscriptions(ctx context.Context) (int, error)
}

type Digests interface {
	SendDigests(ctx context.Context) (int, error)
}

type Sessions interface {
	PurgeSessions(ctx context.Context) (int64, error)
}

// Services holds the maintenance entry points the default schedule drives.
type Services struct {
	Reminders     Reminders
	Subscriptions Subscriptions
	Digests       Digests
	Sessions      Sessions
}

const (
	ReminderSpec = "*/5 * * * *"
	ExpirySpec   = "0 * * * *"
	DigestSpec   = "0 8 * * *"
	PurgeSpec    = "30 3 * * *"
)

// Register adds the standard schedule to s.
func Register(s *Scheduler, svc Services) error {
	entries := []struct {
		name string
		spec string
		fn   Func
	}{
		{"appointment-reminders", ReminderSpec, counted(svc.Reminders.SendReminders)},
		{"subscription-expiry", ExpirySpec, counted(svc.Subscriptions.ExpireSubscriptions)},
		{"low-stock-digest", DigestSpec, counted(svc.Digests.SendDigests)},
		{"session-purge", PurgeSpec, svc.Sessions.PurgeSessions},
	}
	for _, e := range entries {
		if err := s.Add(e.name, e.spec, e.fn); err != nil {
			return err
		}
	}
	return nil
}

func counted(fn func(context.Context) (int, error)) Func {
	return func(ctx context.Context) (int64, error) {
		n, err := fn(ctx)
		return int64(n), err
	}
}
