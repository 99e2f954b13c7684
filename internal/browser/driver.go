package browser

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/PadmDeveloper/RedmineBrowser/internal/automation"
)

// Selectors for the tracker's login and issue edit forms. The driver depends
// on this specific HTML structure; it is not a general web-automation layer.
const (
	selUsername     = "#username"
	selPassword     = "#password"
	selLoginSubmit  = "#login-submit"
	selEditLink     = "a.icon-edit"
	selNotesField   = "#issue_notes"
	selPrivateNotes = "#issue_private_notes"
	selSubmitButton = `input[type="submit"][value="Submit"]`
)

// Timeouts bounds the driver's blocking waits.
type Timeouts struct {
	// Navigation covers page loads and post-submit network settles.
	Navigation time.Duration
	// Selector covers waits for individual form elements.
	Selector time.Duration
}

// Config configures a Driver.
type Config struct {
	BaseURL     string
	Username    string
	Password    string
	Headless    bool
	SettleQuiet time.Duration
	Timeouts    Timeouts
}

// Driver submits notes to tracker issues through a browser session. One
// driver instance serves any number of requests, but every request gets a
// fresh session that is torn down unconditionally when the request ends.
type Driver struct {
	cfg        Config
	newSession SessionFactory
}

// NewDriver creates a chromedp-backed driver.
func NewDriver(cfg Config) *Driver {
	cfg = withDefaults(cfg)
	return &Driver{
		cfg:        cfg,
		newSession: NewChromeFactory(cfg.Headless, cfg.SettleQuiet),
	}
}

// NewDriverWithFactory creates a driver with a custom session factory.
func NewDriverWithFactory(cfg Config, factory SessionFactory) *Driver {
	return &Driver{cfg: withDefaults(cfg), newSession: factory}
}

func withDefaults(cfg Config) Config {
	if cfg.SettleQuiet <= 0 {
		cfg.SettleQuiet = 500 * time.Millisecond
	}
	if cfg.Timeouts.Navigation <= 0 {
		cfg.Timeouts.Navigation = 30 * time.Second
	}
	if cfg.Timeouts.Selector <= 0 {
		cfg.Timeouts.Selector = 15 * time.Second
	}
	return cfg
}

// SubmitNotes logs into the tracker and attaches each note to the issue as a
// private comment, re-entering the edit form for every note. A failure aborts
// the remaining notes; notes already submitted stay on the tracker.
func (d *Driver) SubmitNotes(ctx context.Context, issueID string, notes []string) (*automation.Result, error) {
	sess, err := d.newSession(ctx)
	if err != nil {
		return nil, &Error{Kind: KindLaunchFailed, Err: err}
	}
	defer func() {
		if closeErr := sess.Close(); closeErr != nil {
			log.Printf("Failed to close browser session: %v", closeErr)
		}
	}()

	issueURL := fmt.Sprintf("%s/issues/%s", strings.TrimRight(d.cfg.BaseURL, "/"), issueID)

	if err := d.navigate(ctx, sess, issueURL); err != nil {
		return nil, err
	}

	if err := d.login(ctx, sess, issueURL); err != nil {
		return nil, err
	}

	submitted := 0
	for _, note := range notes {
		if err := d.submitNote(ctx, sess, note); err != nil {
			return nil, &Error{Kind: KindSubmitFailed, Submitted: submitted, Err: err}
		}
		submitted++
	}

	return &automation.Result{
		Success:        true,
		Message:        fmt.Sprintf("Successfully added %d note(s) to issue %s", submitted, issueID),
		ProcessedCount: submitted,
	}, nil
}

func (d *Driver) navigate(ctx context.Context, sess Session, url string) error {
	navCtx, cancel := context.WithTimeout(ctx, d.cfg.Timeouts.Navigation)
	defer cancel()

	if err := sess.Navigate(navCtx, url); err != nil {
		return &Error{Kind: KindNavigationTimeout, Err: err}
	}
	return nil
}

// login waits for the username input, fills credentials and submits. A login
// form that never appears is fatal rather than skipped: the URL shape may
// have changed, and silently skipping login on a session that requires it
// would corrupt the submission loop.
func (d *Driver) login(ctx context.Context, sess Session, issueURL string) error {
	if err := d.withSelectorTimeout(ctx, func(c context.Context) error {
		return sess.WaitVisible(c, selUsername)
	}); err != nil {
		return &Error{Kind: KindLoginFormNotFound, Err: err}
	}

	err := d.withSelectorTimeout(ctx, func(c context.Context) error {
		if err := sess.Fill(c, selUsername, d.cfg.Username); err != nil {
			return err
		}
		if err := sess.Fill(c, selPassword, d.cfg.Password); err != nil {
			return err
		}
		return sess.Click(c, selLoginSubmit)
	})
	if err != nil {
		return &Error{Kind: KindLoginFormNotFound, Err: fmt.Errorf("login form interaction failed: %w", err)}
	}

	if err := d.settle(ctx, sess); err != nil {
		return err
	}

	// Login redirects are not trusted to land back on the issue page.
	return d.navigate(ctx, sess, issueURL)
}

func (d *Driver) submitNote(ctx context.Context, sess Session, note string) error {
	// The previous iteration's edit affordance is gone after a submit reloads
	// the page, so each note starts from a fresh edit click.
	if err := d.withSelectorTimeout(ctx, func(c context.Context) error {
		return sess.Click(c, selEditLink)
	}); err != nil {
		return fmt.Errorf("failed to open edit form: %w", err)
	}

	if err := d.withSelectorTimeout(ctx, func(c context.Context) error {
		return sess.WaitVisible(c, selNotesField)
	}); err != nil {
		return fmt.Errorf("note input never appeared: %w", err)
	}

	err := d.withSelectorTimeout(ctx, func(c context.Context) error {
		// Note text goes in verbatim; any bracket numbering was already
		// stripped by the parser.
		if err := sess.Fill(c, selNotesField, note); err != nil {
			return err
		}
		if err := sess.Check(c, selPrivateNotes); err != nil {
			return err
		}
		return sess.Click(c, selSubmitButton)
	})
	if err != nil {
		return fmt.Errorf("failed to submit note: %w", err)
	}

	settleCtx, cancel := context.WithTimeout(ctx, d.cfg.Timeouts.Navigation)
	defer cancel()
	if err := sess.WaitSettled(settleCtx); err != nil {
		return fmt.Errorf("page never settled after submit: %w", err)
	}
	return nil
}

func (d *Driver) settle(ctx context.Context, sess Session) error {
	settleCtx, cancel := context.WithTimeout(ctx, d.cfg.Timeouts.Navigation)
	defer cancel()

	if err := sess.WaitSettled(settleCtx); err != nil {
		return &Error{Kind: KindNavigationTimeout, Err: err}
	}
	return nil
}

func (d *Driver) withSelectorTimeout(ctx context.Context, fn func(context.Context) error) error {
	stepCtx, cancel := context.WithTimeout(ctx, d.cfg.Timeouts.Selector)
	defer cancel()
	return fn(stepCtx)
}
