package browser

import "context"

// Session is one isolated, disposable browsing context. The driver creates a
// fresh session per request and releases it unconditionally on exit; sessions
// are never pooled or reused, so a stale login can't leak across requests.
type Session interface {
	// Navigate loads a URL and waits for network activity to settle. The
	// tracker renders client-side after the initial load, so proceeding
	// before settle would race the page.
	Navigate(ctx context.Context, url string) error
	// WaitVisible blocks until the selector matches a visible element.
	WaitVisible(ctx context.Context, selector string) error
	// Fill replaces the value of the matched input with the given text.
	Fill(ctx context.Context, selector, value string) error
	// Click clicks the first element matching the selector.
	Click(ctx context.Context, selector string) error
	// Check ensures the matched checkbox is checked.
	Check(ctx context.Context, selector string) error
	// WaitSettled waits for in-flight network activity to go quiet.
	WaitSettled(ctx context.Context) error
	// Close releases the browsing context. Safe to call exactly once.
	Close() error
}

// SessionFactory acquires a new Session. The chromedp-backed factory is the
// production implementation; tests substitute fakes.
type SessionFactory func(ctx context.Context) (Session, error)
