// Package browser wraps a single chromedp-driven browser session in an
// explicit resource object. The session has exactly one owner at a time
// and every operation on it is sequenced by that owner.
package browser

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/chromedp/chromedp"
)

var ErrNotStarted = errors.New("browser session not started")

type Options struct {
	Headless bool
	// per-action upper bound, defaults to 15s
	ActionTimeout time.Duration
	WindowWidth   int
	WindowHeight  int
}

type Session struct {
	opts Options

	allocCtx    context.Context
	allocCancel context.CancelFunc
	ctx         context.Context
	cancel      context.CancelFunc
}

func NewSession(opts Options) *Session {
	if opts.ActionTimeout <= 0 {
		opts.ActionTimeout = time.Second * 15
	}
	if opts.WindowWidth <= 0 {
		opts.WindowWidth = 1400
	}
	if opts.WindowHeight <= 0 {
		opts.WindowHeight = 900
	}
	return &Session{opts: opts}
}

// Start launches the browser process. The session's lifetime is owned
// by Close, not by the caller's context.
func (s *Session) Start() error {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", s.opts.Headless),
		chromedp.Flag("no-first-run", true),
		chromedp.Flag("no-default-browser-check", true),
		chromedp.Flag("disable-sync", true),
		chromedp.Flag("mute-audio", true),
		chromedp.WindowSize(s.opts.WindowWidth, s.opts.WindowHeight),
	)
	s.allocCtx, s.allocCancel = chromedp.NewExecAllocator(context.Background(), opts...)
	s.ctx, s.cancel = chromedp.NewContext(s.allocCtx,
		chromedp.WithLogf(func(string, ...interface{}) {}),
	)

	// an empty Run forces the browser to actually spawn
	if err := chromedp.Run(s.ctx); err != nil {
		s.Close()
		return err
	}
	return nil
}

func (s *Session) run(timeout time.Duration, actions ...chromedp.Action) error {
	if s.ctx == nil {
		return ErrNotStarted
	}
	ctx, cancel := context.WithTimeout(s.ctx, timeout)
	defer cancel()
	return chromedp.Run(ctx, actions...)
}

func (s *Session) Navigate(url string) error {
	return s.run(s.opts.ActionTimeout,
		chromedp.Navigate(url),
		chromedp.WaitReady("body", chromedp.ByQuery),
	)
}

func (s *Session) Click(sel string) error {
	return s.run(s.opts.ActionTimeout, chromedp.Click(sel, chromedp.ByQuery))
}

func (s *Session) SetValue(sel, value string) error {
	return s.run(s.opts.ActionTimeout, chromedp.SetValue(sel, value, chromedp.ByQuery))
}

// WaitVisible blocks until the element is visible or the given bound
// elapses.
func (s *Session) WaitVisible(sel string, timeout time.Duration) error {
	return s.run(timeout, chromedp.WaitVisible(sel, chromedp.ByQuery))
}

// Exists reports whether the selector currently matches, without
// waiting for it to appear.
func (s *Session) Exists(sel string) (bool, error) {
	var found bool
	err := s.run(s.opts.ActionTimeout, chromedp.Evaluate(
		fmt.Sprintf("document.querySelector(%q) !== null", sel),
		&found,
	))
	return found, err
}

// ClickIfPresent clicks the element if it is currently on the page and
// reports whether it was.
func (s *Session) ClickIfPresent(sel string) (bool, error) {
	found, err := s.Exists(sel)
	if err != nil || !found {
		return false, err
	}
	return true, s.Click(sel)
}

func (s *Session) InnerHTML(sel string) (string, error) {
	var out string
	err := s.run(s.opts.ActionTimeout, chromedp.InnerHTML(sel, &out, chromedp.ByQuery))
	return out, err
}

// ScreenshotElement captures a PNG of the element matching sel.
func (s *Session) ScreenshotElement(sel string) ([]byte, error) {
	var buf []byte
	err := s.run(s.opts.ActionTimeout,
		chromedp.Screenshot(sel, &buf, chromedp.NodeVisible, chromedp.ByQuery),
	)
	return buf, err
}

// Alive probes the browser with a cheap location read.
func (s *Session) Alive() bool {
	if s.ctx == nil {
		return false
	}
	select {
	case <-s.ctx.Done():
		return false
	default:
	}
	var url string
	return s.run(time.Second*3, chromedp.Location(&url)) == nil
}

// Close releases the browser unconditionally. Safe to call from any
// state, including repeatedly; never returns an error.
func (s *Session) Close() {
	if s.ctx != nil {
		ctx, cancel := context.WithTimeout(s.ctx, time.Second*5)
		_ = chromedp.Cancel(ctx)
		cancel()
	}
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	if s.allocCancel != nil {
		s.allocCancel()
		s.allocCancel = nil
	}
	s.ctx = nil
	s.allocCtx = nil
}
