package domain

// PhoneRegistry remembers which phone numbers have been accepted.
type PhoneRegistry interface {
	// TryRegister inserts phone if absent and reports whether this call inserted it.
	// Concurrent calls for the same phone must yield exactly one true.
	TryRegister(phone string) bool
	Len() int
}
