package webview

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"github.com/google/uuid"
	"github.com/vesaa/calqshell/internal/bridge"
	"go.uber.org/zap"
)

// BrowserOptions configure the Chrome instance backing tabs.
type BrowserOptions struct {
	Headless  bool
	ExecPath  string
	RemoteURL string
	Identity  Identity
	Timeout   time.Duration
}

// Browser owns a Chrome process and the tabs opened in it.
type Browser struct {
	opts   BrowserOptions
	reg    *bridge.Registry
	onLoad func(bridge.Handle)
	log    *zap.Logger

	allocCtx    context.Context
	allocCancel context.CancelFunc
	ctx         context.Context
	cancel      context.CancelFunc

	mu   sync.Mutex
	tabs map[string]*Tab
}

// NewBrowser starts Chrome, or attaches to RemoteURL when set.
func NewBrowser(parent context.Context, opts BrowserOptions, reg *bridge.Registry, onLoad func(bridge.Handle), log *zap.Logger) (*Browser, error) {
	if log == nil {
		log = zap.NewNop()
	}
	if onLoad == nil {
		onLoad = func(bridge.Handle) {}
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}

	var allocCtx context.Context
	var allocCancel context.CancelFunc
	if opts.RemoteURL != "" {
		allocCtx, allocCancel = chromedp.NewRemoteAllocator(parent, opts.RemoteURL)
	} else {
		allocOpts := append(chromedp.DefaultExecAllocatorOptions[:],
			chromedp.UserAgent(opts.Identity.UserAgent()),
			chromedp.NoFirstRun,
			chromedp.NoDefaultBrowserCheck,
			chromedp.Flag("headless", opts.Headless),
		)
		if opts.ExecPath != "" {
			allocOpts = append(allocOpts, chromedp.ExecPath(opts.ExecPath))
		}
		allocCtx, allocCancel = chromedp.NewExecAllocator(parent, allocOpts...)
	}

	ctx, cancel := chromedp.NewContext(allocCtx)
	if err := chromedp.Run(ctx); err != nil {
		cancel()
		allocCancel()
		return nil, fmt.Errorf("starting browser: %w", err)
	}

	return &Browser{
		opts:        opts,
		reg:         reg,
		onLoad:      onLoad,
		log:         log.Named("browser"),
		allocCtx:    allocCtx,
		allocCancel: allocCancel,
		ctx:         ctx,
		cancel:      cancel,
		tabs:        make(map[string]*Tab),
	}, nil
}

// Open navigates a new tab to url with the identification headers and
// registers it once the first navigation succeeds.
func (b *Browser) Open(url string) (*Tab, error) {
	ctx, cancel := chromedp.NewContext(b.ctx)
	t := &Tab{id: uuid.NewString(), url: url, ctx: ctx, cancel: cancel, timeout: b.opts.Timeout}

	chromedp.ListenTarget(ctx, func(ev any) {
		if _, ok := ev.(*page.EventLoadEventFired); ok {
			go b.onLoad(t)
		}
	})

	headers := network.Headers{}
	for k, v := range b.opts.Identity.Headers() {
		if k == "User-Agent" {
			continue
		}
		headers[k] = v
	}
	if err := chromedp.Run(ctx,
		network.Enable(),
		network.SetExtraHTTPHeaders(headers),
		chromedp.Navigate(url),
	); err != nil {
		cancel()
		return nil, fmt.Errorf("opening %s: %w", url, err)
	}

	if err := b.reg.Register(t); err != nil {
		cancel()
		return nil, fmt.Errorf("registering %s: %w", url, err)
	}
	b.mu.Lock()
	b.tabs[t.id] = t
	b.mu.Unlock()
	b.log.Info("tab mounted", zap.String("handle", t.id), zap.String("url", url))
	return t, nil
}

// CloseTab unregisters and closes one tab.
func (b *Browser) CloseTab(t *Tab) {
	b.reg.Unregister(t)
	b.mu.Lock()
	delete(b.tabs, t.id)
	b.mu.Unlock()
	t.cancel()
	b.log.Info("tab unmounted", zap.String("handle", t.id))
}

// Close unregisters every tab and shuts the browser down.
func (b *Browser) Close() {
	b.mu.Lock()
	tabs := make([]*Tab, 0, len(b.tabs))
	for _, t := range b.tabs {
		tabs = append(tabs, t)
	}
	b.mu.Unlock()
	for _, t := range tabs {
		b.CloseTab(t)
	}
	b.cancel()
	b.allocCancel()
}

// Tab is one Chrome target showing a hosted document.
type Tab struct {
	id      string
	url     string
	ctx     context.Context
	cancel  context.CancelFunc
	timeout time.Duration
}

func (t *Tab) ID() string { return t.id }

func (t *Tab) Describe() bridge.Info {
	return bridge.Info{ID: t.id, Kind: "tab", URL: t.url}
}

// InjectScript evaluates code in the page.
func (t *Tab) InjectScript(code string) error {
	return t.run(chromedp.Evaluate(code, nil))
}

// Reload reloads the page, re-sending the extra headers.
func (t *Tab) Reload() error {
	return t.run(chromedp.Reload())
}

func (t *Tab) run(actions ...chromedp.Action) error {
	if err := t.ctx.Err(); err != nil {
		return fmt.Errorf("tab closed: %w", err)
	}
	ctx, cancel := context.WithTimeout(t.ctx, t.timeout)
	defer cancel()
	return chromedp.Run(ctx, actions...)
}
