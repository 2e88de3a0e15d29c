package sources

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/oauth2"
)

const (
	authorizeURL = "https://www.reddit.com/api/v1/authorize"
	tokenURL     = "https://www.reddit.com/api/v1/access_token"
)

// SessionOptions configures a reddit OAuth2 session. ClientSecret stays
// empty for installed apps. OpenURL receives the authorization URL when
// Grant runs; the default just logs it so the user can open it manually.
type SessionOptions struct {
	ClientID     string
	ClientSecret string
	RedirectPort int
	UserAgent    string
	Permanent    bool
	HTTPClient   *http.Client
	OpenURL      func(url string)
}

// Session drives the OAuth2 authorization-code flow against reddit and
// issues bearer-authenticated requests once granted. Callbacks registered
// with OnAuthenticated fire every time a grant completes, so a re-grant
// fires them again.
type Session struct {
	cfg       *oauth2.Config
	base      *http.Client
	userAgent string
	permanent bool
	openURL   func(url string)

	mu     sync.Mutex
	source oauth2.TokenSource
	authed []func()
	server *http.Server
	addr   net.Addr
}

func NewSession(opts SessionOptions) *Session {
	base := opts.HTTPClient
	if base == nil {
		base = &http.Client{Timeout: 10 * time.Second}
	}
	openURL := opts.OpenURL
	if openURL == nil {
		openURL = func(url string) {
			slog.Info("open this URL in a browser to authorize", "url", url)
		}
	}

	return &Session{
		cfg: &oauth2.Config{
			ClientID:     opts.ClientID,
			ClientSecret: opts.ClientSecret,
			RedirectURL:  fmt.Sprintf("http://127.0.0.1:%d/", opts.RedirectPort),
			Scopes:       []string{"identity", "read"},
			Endpoint: oauth2.Endpoint{
				AuthURL:   authorizeURL,
				TokenURL:  tokenURL,
				AuthStyle: oauth2.AuthStyleInHeader,
			},
		},
		base:      base,
		userAgent: opts.UserAgent,
		permanent: opts.Permanent,
		openURL:   openURL,
	}
}

// OnAuthenticated registers fn to run after every successful grant.
// Callbacks run on the goroutine serving the redirect.
func (s *Session) OnAuthenticated(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.authed = append(s.authed, fn)
}

// Authenticated reports whether a grant has completed.
func (s *Session) Authenticated() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.source != nil
}

// Grant starts the authorization-code flow: it begins listening on the
// loopback redirect address, then hands the authorization URL to the
// OpenURL hook. It returns once the listener is up; the grant itself
// completes asynchronously when reddit redirects back.
func (s *Session) Grant(ctx context.Context) error {
	state := uuid.NewString()

	listener, err := net.Listen("tcp", hostPort(s.cfg.RedirectURL))
	if err != nil {
		return fmt.Errorf("grant: listen on redirect address: %w", err)
	}

	mux := http.NewServeMux()
	server := &http.Server{Handler: mux}
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		s.handleRedirect(ctx, w, r, state)
	})

	s.mu.Lock()
	if s.server != nil {
		s.mu.Unlock()
		listener.Close()
		return errors.New("grant: flow already in progress")
	}
	s.server = server
	s.addr = listener.Addr()
	s.mu.Unlock()

	go func() {
		if err := server.Serve(listener); err != nil && err != http.ErrServerClosed {
			slog.Error("redirect listener failed", "error", err)
		}
	}()

	opts := []oauth2.AuthCodeOption{}
	if s.permanent {
		opts = append(opts, oauth2.SetAuthURLParam("duration", "permanent"))
	}
	s.openURL(s.cfg.AuthCodeURL(state, opts...))

	return nil
}

func (s *Session) handleRedirect(ctx context.Context, w http.ResponseWriter, r *http.Request, state string) {
	if r.URL.Query().Get("state") != state {
		http.Error(w, "state mismatch", http.StatusBadRequest)
		return
	}
	if errCode := r.URL.Query().Get("error"); errCode != "" {
		slog.Error("authorization denied", "error", errCode)
		http.Error(w, "authorization denied", http.StatusBadRequest)
		return
	}
	code := r.URL.Query().Get("code")
	if code == "" {
		http.Error(w, "missing code", http.StatusBadRequest)
		return
	}

	exchangeCtx := context.WithValue(ctx, oauth2.HTTPClient, s.base)
	token, err := s.cfg.Exchange(exchangeCtx, code)
	if err != nil {
		slog.Error("token exchange failed", "error", err)
		http.Error(w, "token exchange failed", http.StatusBadGateway)
		return
	}

	s.mu.Lock()
	s.source = s.cfg.TokenSource(exchangeCtx, token)
	callbacks := make([]func(), len(s.authed))
	copy(callbacks, s.authed)
	server := s.server
	s.server = nil
	s.mu.Unlock()

	fmt.Fprintln(w, "Authorized. You can close this window.")
	slog.Info("reddit session authenticated")

	if server != nil {
		go server.Shutdown(context.Background())
	}
	for _, fn := range callbacks {
		fn()
	}
}

// Get issues an asynchronous bearer-authenticated GET. An unauthenticated
// session yields an already-failed reply.
func (s *Session) Get(url string) *Reply {
	s.mu.Lock()
	source := s.source
	s.mu.Unlock()

	if source == nil {
		return failedReply(errors.New("session is not authenticated"))
	}

	reply := newReply()
	go func() {
		token, err := source.Token()
		if err != nil {
			reply.finish(nil, fmt.Errorf("refresh token: %w", err))
			return
		}

		req, err := http.NewRequest(http.MethodGet, url, nil)
		if err != nil {
			reply.finish(nil, err)
			return
		}
		token.SetAuthHeader(req)
		if s.userAgent != "" {
			req.Header.Set("User-Agent", s.userAgent)
		}

		body, err := roundTrip(s.base, req)
		reply.finish(body, err)
	}()

	return reply
}

func hostPort(redirectURL string) string {
	// RedirectURL is always http://127.0.0.1:<port>/ built by NewSession.
	trimmed := redirectURL[len("http://") : len(redirectURL)-1]
	return trimmed
}
