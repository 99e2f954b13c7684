package browser

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
)

// chromeSession drives a headless Chrome via chromedp. Network settle is
// tracked by counting in-flight requests from CDP network events; the page is
// considered settled once nothing is in flight and the event stream has been
// quiet for the configured window.
type chromeSession struct {
	ctx         context.Context
	allocCancel context.CancelFunc

	settleQuiet time.Duration

	mu        sync.Mutex
	inflight  map[network.RequestID]struct{}
	lastEvent time.Time
}

// NewChromeFactory returns a SessionFactory launching a fresh isolated Chrome
// instance per session.
func NewChromeFactory(headless bool, settleQuiet time.Duration) SessionFactory {
	return func(ctx context.Context) (Session, error) {
		opts := append(chromedp.DefaultExecAllocatorOptions[:],
			chromedp.Flag("headless", headless),
			chromedp.NoSandbox,
			chromedp.Flag("disable-setuid-sandbox", true),
		)

		allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, opts...)
		taskCtx, taskCancel := chromedp.NewContext(allocCtx)

		s := &chromeSession{
			ctx:         taskCtx,
			allocCancel: allocCancel,
			settleQuiet: settleQuiet,
			inflight:    make(map[network.RequestID]struct{}),
			lastEvent:   time.Now(),
		}

		chromedp.ListenTarget(taskCtx, s.onNetworkEvent)

		// First Run starts the browser; failing here means no usable session.
		if err := chromedp.Run(taskCtx, network.Enable()); err != nil {
			taskCancel()
			allocCancel()
			return nil, fmt.Errorf("failed to launch browser: %w", err)
		}

		return s, nil
	}
}

func (s *chromeSession) onNetworkEvent(ev interface{}) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch e := ev.(type) {
	case *network.EventRequestWillBeSent:
		s.inflight[e.RequestID] = struct{}{}
	case *network.EventLoadingFinished:
		delete(s.inflight, e.RequestID)
	case *network.EventLoadingFailed:
		delete(s.inflight, e.RequestID)
	default:
		return
	}
	s.lastEvent = time.Now()
}

// run executes chromedp actions against the session, honoring the caller's
// deadline. chromedp requires its own context for target resolution, so the
// deadline is re-derived onto it.
func (s *chromeSession) run(ctx context.Context, actions ...chromedp.Action) error {
	runCtx := s.ctx
	if deadline, ok := ctx.Deadline(); ok {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithDeadline(s.ctx, deadline)
		defer cancel()
	}
	return chromedp.Run(runCtx, actions...)
}

func (s *chromeSession) Navigate(ctx context.Context, url string) error {
	if err := s.run(ctx, chromedp.Navigate(url)); err != nil {
		return err
	}
	return s.WaitSettled(ctx)
}

func (s *chromeSession) WaitVisible(ctx context.Context, selector string) error {
	return s.run(ctx, chromedp.WaitVisible(selector, chromedp.ByQuery))
}

func (s *chromeSession) Fill(ctx context.Context, selector, value string) error {
	return s.run(ctx,
		chromedp.WaitVisible(selector, chromedp.ByQuery),
		chromedp.SetValue(selector, value, chromedp.ByQuery),
	)
}

func (s *chromeSession) Click(ctx context.Context, selector string) error {
	return s.run(ctx, chromedp.Click(selector, chromedp.ByQuery))
}

func (s *chromeSession) Check(ctx context.Context, selector string) error {
	expr := fmt.Sprintf(
		`(() => { const el = document.querySelector(%q); if (el && !el.checked) el.click(); return el != null; })()`,
		selector,
	)

	var found bool
	err := s.run(ctx,
		chromedp.WaitVisible(selector, chromedp.ByQuery),
		chromedp.Evaluate(expr, &found),
	)
	if err != nil {
		return err
	}
	if !found {
		return fmt.Errorf("checkbox %s not found", selector)
	}
	return nil
}

func (s *chromeSession) WaitSettled(ctx context.Context) error {
	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-s.ctx.Done():
			return s.ctx.Err()
		case <-ticker.C:
			s.mu.Lock()
			settled := len(s.inflight) == 0 && time.Since(s.lastEvent) >= s.settleQuiet
			s.mu.Unlock()
			if settled {
				return nil
			}
		}
	}
}

func (s *chromeSession) Close() error {
	// Graceful browser shutdown, then release the allocator.
	err := chromedp.Cancel(s.ctx)
	s.allocCancel()
	return err
}
