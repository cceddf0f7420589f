// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package browser drives a Chrome page with go-rod. A Session implements
// the extractor's Viewport and the removal Target over the bookmarks page.
package browser

import (
	"context"
	"fmt"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/rs/zerolog"

	"github.com/pdiddy/bookmark-vault/internal/extract"
	"github.com/pdiddy/bookmark-vault/internal/removal"
	"github.com/pdiddy/bookmark-vault/pkg/types"
)

const (
	defaultBookmarksURL = "https://x.com/i/bookmarks"
	navigationTimeout   = 30 * time.Second
)

// Options configures how a Session obtains its browser.
type Options struct {
	// BrowserURL is the DevTools URL of a running Chrome. When empty a
	// browser is launched.
	BrowserURL string
	// UserDataDir keeps the launched browser's profile (and login) between
	// runs.
	UserDataDir  string
	BookmarksURL string
	Headless     bool
}

// OptionsFromConfig maps run configuration onto browser options.
func OptionsFromConfig(cfg types.RunConfig, headless bool) Options {
	return Options{
		BrowserURL:   cfg.BrowserURL,
		UserDataDir:  cfg.UserDataDir,
		BookmarksURL: cfg.BookmarksURL,
		Headless:     headless,
	}
}

// Session is one browser page opened on the bookmarks view.
type Session struct {
	browser  *rod.Browser
	page     *rod.Page
	launcher *launcher.Launcher
	log      zerolog.Logger
}

var (
	_ extract.Viewport = (*Session)(nil)
	_ removal.Target   = (*Session)(nil)
)

// Open connects to (or launches) Chrome and navigates to the bookmarks page.
func Open(ctx context.Context, opts Options, log zerolog.Logger) (*Session, error) {
	log = log.With().Str("component", "browser").Logger()
	s := &Session{log: log}

	controlURL := opts.BrowserURL
	if controlURL == "" {
		s.launcher = launcher.New().Headless(opts.Headless)
		if opts.UserDataDir != "" {
			s.launcher = s.launcher.UserDataDir(opts.UserDataDir)
		}
		u, err := s.launcher.Launch()
		if err != nil {
			return nil, &types.TransportError{Target: "chrome", Err: fmt.Errorf("launching: %w", err)}
		}
		controlURL = u
		log.Info().Bool("headless", opts.Headless).Str("profile", opts.UserDataDir).Msg("launched chrome")
	}

	s.browser = rod.New().ControlURL(controlURL).Context(ctx)
	if err := s.browser.Connect(); err != nil {
		s.Close()
		return nil, &types.TransportError{Target: controlURL, Err: fmt.Errorf("connecting: %w", err)}
	}

	target := opts.BookmarksURL
	if target == "" {
		target = defaultBookmarksURL
	}
	page, err := s.browser.Page(proto.TargetCreateTarget{URL: target})
	if err != nil {
		s.Close()
		return nil, &types.TransportError{Target: target, Err: fmt.Errorf("opening page: %w", err)}
	}
	s.page = page

	if err := page.Timeout(navigationTimeout).WaitLoad(); err != nil {
		s.Close()
		return nil, &types.TransportError{Target: target, Err: fmt.Errorf("loading page: %w", err)}
	}
	// The timeline renders after load; wait for the first post.
	if _, err := page.Timeout(navigationTimeout).Element(extract.SelPost); err != nil {
		log.Warn().Err(err).Msg("no posts rendered, is the profile logged in?")
	}
	log.Info().Str("url", target).Msg("bookmarks page ready")
	return s, nil
}

// Close releases the page and browser. A launched browser is shut down; a
// browser reached through BrowserURL is left running.
func (s *Session) Close() error {
	var err error
	if s.page != nil {
		err = s.page.Close()
	}
	if s.launcher != nil {
		if s.browser != nil {
			_ = s.browser.Close()
		}
		s.launcher.Cleanup()
	}
	return err
}

// VisiblePosts returns the outer HTML of each rendered post.
func (s *Session) VisiblePosts(ctx context.Context) ([]string, error) {
	els, err := s.page.Context(ctx).Elements(extract.SelPost)
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(els))
	for _, el := range els {
		html, err := el.HTML()
		if err != nil {
			// Virtualized timelines detach nodes while we read them.
			s.log.Debug().Err(err).Msg("post detached before read")
			continue
		}
		out = append(out, html)
	}
	return out, nil
}

// ScrollToBottom scrolls the window to the end of the document.
func (s *Session) ScrollToBottom(ctx context.Context) error {
	_, err := s.page.Context(ctx).Eval(`() => window.scrollTo(0, document.body.scrollHeight)`)
	return err
}

// PageHeight returns document.body.scrollHeight.
func (s *Session) PageHeight(ctx context.Context) (int, error) {
	res, err := s.page.Context(ctx).Eval(`() => document.body.scrollHeight`)
	if err != nil {
		return 0, err
	}
	return res.Value.Int(), nil
}

// ownPostFns defines the helpers shared by the lookups below. A post's
// identity is the permalink wrapping its first <time> outside a quoted
// card, the same rule the extractor applies, so a quoting post is never
// mistaken for the post it quotes.
const ownPostFns = `
	const outsideQuote = (post, el) => {
		const q = el.closest(quotedSel);
		return !q || !post.contains(q);
	};
	const ownID = (post) => {
		for (const t of post.querySelectorAll('time')) {
			if (!outsideQuote(post, t)) continue;
			const a = t.closest('a');
			const m = a && (a.getAttribute('href') || '').match(/\/status\/(\d+)/);
			return m ? m[1] : null;
		}
		return null;
	};
	const ownControl = (post) => {
		for (const c of post.querySelectorAll(ctrlSel)) {
			if (outsideQuote(post, c)) return c;
		}
		return null;
	};
	const findPost = () => {
		for (const post of document.querySelectorAll(postSel)) {
			if (ownID(post) === id) return post;
		}
		return null;
	};`

// locateJS reports 0 (gone), 1 (no control), or 2 (ready) for the post with
// the given id. The lookup runs fresh each call.
const locateJS = `(id, postSel, ctrlSel, quotedSel) => {` + ownPostFns + `
	const post = findPost();
	if (!post) return 0;
	return ownControl(post) ? 2 : 1;
}`

// controlJS returns the remove control of the post with the given id.
const controlJS = `(id, postSel, ctrlSel, quotedSel) => {` + ownPostFns + `
	const post = findPost();
	return post ? ownControl(post) : null;
}`

// Locate reports whether the post and its remove control are present.
func (s *Session) Locate(ctx context.Context, id string) (removal.Presence, error) {
	res, err := s.page.Context(ctx).Eval(locateJS, id, extract.SelPost, extract.SelRemoveControl, extract.SelQuoted)
	if err != nil {
		return removal.Gone, err
	}
	switch res.Value.Int() {
	case 2:
		return removal.Ready, nil
	case 1:
		return removal.NoControl, nil
	default:
		return removal.Gone, nil
	}
}

// Activate clicks the remove control of the post.
func (s *Session) Activate(ctx context.Context, id string) error {
	el, err := s.page.Context(ctx).Sleeper(rod.NotFoundSleeper).
		ElementByJS(rod.Eval(controlJS, id, extract.SelPost, extract.SelRemoveControl, extract.SelQuoted))
	if err != nil {
		return fmt.Errorf("finding remove control: %w", err)
	}
	if err := el.ScrollIntoView(); err != nil {
		return fmt.Errorf("scrolling to remove control: %w", err)
	}
	return el.Click(proto.InputMouseButtonLeft, 1)
}
