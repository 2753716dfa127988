package app

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/hbpc002/log-lottery/internal/domain"
)

// Submissions accepts sign-ups and pushes accepted ones onto the broadcast topic.
type Submissions struct {
	registry  domain.PhoneRegistry
	publisher domain.Publisher
}

func NewSubmissions(registry domain.PhoneRegistry, publisher domain.Publisher) *Submissions {
	return &Submissions{registry: registry, publisher: publisher}
}

// Submit validates name and phone, registers the phone and broadcasts the event.
// The first failing check wins. Nothing is published unless the registry insert succeeded.
func (s *Submissions) Submit(ctx context.Context, name, phone string) (domain.SubmissionEvent, error) {
	name = strings.TrimSpace(name)
	phone = strings.TrimSpace(phone)

	if name == "" {
		return domain.SubmissionEvent{}, domain.ErrInvalidName
	}
	if !validPhone(phone) {
		return domain.SubmissionEvent{}, domain.ErrInvalidPhone
	}
	if !s.registry.TryRegister(phone) {
		return domain.SubmissionEvent{}, domain.ErrDuplicatePhone
	}

	event := domain.NewSubmissionEvent(name, phone)
	payload, err := json.Marshal(event)
	if err != nil {
		return domain.SubmissionEvent{}, fmt.Errorf("marshal submission event: %w", err)
	}

	listeners := s.publisher.Publish(payload)
	slog.InfoContext(ctx, "Submission accepted and broadcast", "name", name, "phone", phone, "listeners", listeners)

	return event, nil
}

// Stats is a point-in-time view of the sign-up wall.
type Stats struct {
	Registered int `json:"registered"`
	Listeners  int `json:"listeners"`
}

func (s *Submissions) Stats() Stats {
	return Stats{
		Registered: s.registry.Len(),
		Listeners:  s.publisher.SubscriberCount(),
	}
}

func validPhone(phone string) bool {
	if len(phone) != domain.PhoneLength {
		return false
	}
	for i := range len(phone) {
		if phone[i] < '0' || phone[i] > '9' {
			return false
		}
	}
	return true
}
