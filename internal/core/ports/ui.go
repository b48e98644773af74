package ports

import "context"

// Notifier surfaces non-blocking user-visible notifications (toasts).
type Notifier interface {
	Success(message string)
	Error(message string)
}

// Confirmer asks the user to confirm a destructive action. A false return
// aborts the operation silently.
type Confirmer interface {
	Confirm(ctx context.Context, message string) bool
}

// Navigator hands control to the routing layer. The console only ever needs
// it after a session becomes invalid.
type Navigator interface {
	RedirectToLogin()
}
