package session

// Store is the single access point for the durable session state. Every
// collaborator (token transport, onboarding checks, the UI) goes through
// this contract so the backing storage can be swapped, and tests can use
// the fake in sessionfakes.
type Store interface {
	// Get returns the current session. A missing session is not an error:
	// it comes back as the zero Session.
	Get() (Session, error)

	// Set replaces the stored session.
	Set(Session) error

	// Clear removes all session state. Clearing an empty store is a no-op.
	Clear() error
}
