package domain

// EventTypeNewPerson tags every accepted submission on the broadcast topic.
const EventTypeNewPerson = "new_person"

// PhoneLength is the number of ASCII digits a valid phone number has.
const PhoneLength = 11

// SubmissionEvent is the broadcast payload for one accepted submission.
// It is built, published once and discarded; it is never stored.
type SubmissionEvent struct {
	Type  string `json:"type"`
	Name  string `json:"name"`
	Phone string `json:"phone"`
}

func NewSubmissionEvent(name, phone string) SubmissionEvent {
	return SubmissionEvent{Type: EventTypeNewPerson, Name: name, Phone: phone}
}
