package web

import (
	"bytes"
	"context"
	"io/fs"
	"net/http"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/filesystem"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/template/html"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/skip2/go-qrcode"

	embedded "github.com/goserg/arena"
	authservice "github.com/goserg/arena/auth/service"
	"github.com/goserg/arena/auth/users"
	"github.com/goserg/arena/internal/access"
	"github.com/goserg/arena/internal/audio"
	"github.com/goserg/arena/internal/config"
	"github.com/goserg/arena/internal/live"
	"github.com/goserg/arena/internal/service"
	"github.com/goserg/arena/internal/web/sse"
	"github.com/goserg/arena/internal/web/webpath"
)

const (
	clientKey   = "client"
	sessionIdle = 24 * time.Hour
	sweepPeriod = 10 * time.Minute
)

// Standings is the live view the pages are rendered from.
type Standings interface {
	View() (live.View, bool)
	Err() error
	AddRenderer(r live.Renderer)
}

type Server struct {
	cfg       config.Server
	operator  string
	title     string
	auth      *authservice.Service
	players   *service.PlayerService
	standings Standings

	app     *fiber.App
	engine  *html.Engine
	hub     *sse.Hub
	clients *registry
	sink    audio.Sink
	qr      []byte
	log     *logrus.Entry
	now     func() time.Time

	mu         sync.Mutex
	onMatch    []func(service.MatchRecorded)
	onRegister []func(service.Registered)
}

func New(
	l *logrus.Logger,
	cfg config.Server,
	operatorEmail string,
	authService *authservice.Service,
	ps *service.PlayerService,
	standings Standings,
) (*Server, error) {
	server := &Server{
		cfg:       cfg,
		operator:  operatorEmail,
		title:     live.DefaultTitle,
		auth:      authService,
		players:   ps,
		standings: standings,
		hub:       sse.NewHub(l),
		sink:      audio.NewLogSink(l),
		log: l.WithFields(map[string]interface{}{
			"from": "web",
		}),
		now: time.Now,
	}
	server.clients = newRegistry(server.newClient)

	if cfg.PublicURL != "" {
		png, err := qrcode.Encode(cfg.PublicURL, qrcode.Medium, 256)
		if err != nil {
			return nil, err
		}
		server.qr = png
	}

	viewsFS, err := fs.Sub(embedded.Views, "views")
	if err != nil {
		return nil, err
	}
	engine := html.NewFileSystem(http.FS(viewsFS), ".html")
	engine.Reload(cfg.Debug)
	engine.Debug(cfg.Debug)
	engine.AddFunc("DeletePath", webpath.Delete)
	engine.AddFunc("FlashFor", flashFor)
	server.engine = engine

	publicFS, err := fs.Sub(embedded.Public, "public")
	if err != nil {
		return nil, err
	}

	app := fiber.New(fiber.Config{
		Views:                 engine,
		DisableStartupMessage: !cfg.Debug,
	})
	app.Use(recover.New())
	app.Use(webpath.Public, filesystem.New(filesystem.Config{
		Root: http.FS(publicFS),
	}))
	app.Get(webpath.QR, server.handleQR)

	app.Use(server.withClient)
	app.Get(webpath.Home, server.handleLanding)
	app.Get(webpath.Arena, server.handleArena)
	app.Get(webpath.Events, server.handleEvents)
	app.Post(webpath.Players, server.handleRegister)
	app.Post(webpath.Matches, server.handleMatch)
	app.Post(webpath.Selection, server.handleSelection)
	app.Post(webpath.DeletePlayer, server.handleDeleteInitiate)
	app.Post(webpath.DeleteConfirm, server.handleDeleteConfirm)
	app.Post(webpath.DeleteCancel, server.handleDeleteCancel)
	app.Post(webpath.Signin, server.handleSignIn)
	app.Post(webpath.Signout, server.handleSignOut)
	server.app = app

	standings.AddRenderer(server)
	return server, nil
}

// OnMatch registers a listener for every recorded match.
func (s *Server) OnMatch(fn func(service.MatchRecorded)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onMatch = append(s.onMatch, fn)
}

func (s *Server) notifyMatch(out service.MatchRecorded) {
	s.mu.Lock()
	listeners := append(([]func(service.MatchRecorded))(nil), s.onMatch...)
	s.mu.Unlock()
	for _, fn := range listeners {
		go fn(out)
	}
}

// OnRegister registers a listener for every player registered through the web.
func (s *Server) OnRegister(fn func(service.Registered)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onRegister = append(s.onRegister, fn)
}

func (s *Server) notifyRegister(out service.Registered) {
	s.mu.Lock()
	listeners := append(([]func(service.Registered))(nil), s.onRegister...)
	s.mu.Unlock()
	for _, fn := range listeners {
		go fn(out)
	}
}

// Run serves until ctx is done.
func (s *Server) Run(ctx context.Context) error {
	go s.sweep(ctx)
	go func() {
		<-ctx.Done()
		s.hub.Close()
		if err := s.app.Shutdown(); err != nil {
			s.log.WithError(err).Error("shutdown")
		}
	}()
	addr := s.cfg.Address()
	s.log.WithField("addr", addr).Info("listening")
	if s.cfg.TLSCert != "" {
		return s.app.ListenTLS(addr, s.cfg.TLSCert, s.cfg.TLSKey)
	}
	return s.app.Listen(addr)
}

func (s *Server) sweep(ctx context.Context) {
	ticker := time.NewTicker(sweepPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := s.clients.sweep(s.now(), sessionIdle, s.hub.Sessions()); n > 0 {
				s.log.WithFields(map[string]interface{}{
					"removed": n,
					"left":    s.clients.size(),
				}).Debug("idle sessions dropped")
			}
		}
	}
}

func (s *Server) newClient(id uuid.UUID) *client {
	c := &client{
		id:        id,
		gate:      access.New(s.operator),
		session:   s.auth.NewSession(),
		highlight: make(map[string]time.Time),
		lastSeen:  s.now(),
	}
	c.removal = s.players.NewRemoval(c.gate)
	c.cues = audio.NewDispatcher(audio.Multi{s.sink, hubSink{hub: s.hub, session: id}})
	c.session.OnChange(func(u *users.User) {
		s.onSessionChange(c, u)
	})
	return c
}

func (s *Server) onSessionChange(c *client, u *users.User) {
	t := c.gate.OnSessionChange(u)
	c.cues.Session(t)
	if t == access.Initial {
		return
	}
	if t == access.SignedOut {
		c.removal.Cancel()
	}
	s.log.WithFields(map[string]interface{}{
		"session":    c.id,
		"transition": t,
		"privileged": c.gate.Privileged(),
	}).Info("session changed")
	s.pushClient(c)
}

// hubSink delivers cues to the browsers of one session.
type hubSink struct {
	hub     *sse.Hub
	session uuid.UUID
}

func (h hubSink) Play(c audio.Cue) {
	h.hub.Send(h.session, "cue", string(c))
}

// Render implements live.Renderer.
func (s *Server) Render(v live.View) {
	s.hub.Broadcast("swap", s.renderPartial("partials/stats", newData("").With("View", v)))
	s.hub.Broadcast("swap", s.renderPartial("partials/ticker", newData("").With("View", v)))
	for _, id := range s.hub.Sessions() {
		if c, ok := s.clients.lookup(id); ok {
			s.pushView(c)
		}
	}
}

// RenderFailure implements live.Renderer.
func (s *Server) RenderFailure(err error) {
	s.log.WithError(err).Error("standings unavailable")
	for _, id := range s.hub.Sessions() {
		if c, ok := s.clients.lookup(id); ok {
			s.pushView(c)
		}
	}
}

// pushClient sends everything that depends on the session of c.
func (s *Server) pushClient(c *client) {
	d := s.clientData(c, "")
	s.hub.Send(c.id, "swap", s.renderPartial("partials/session", d))
	s.hub.Send(c.id, "swap", s.renderPartial("partials/admin", d))
	s.hub.Send(c.id, "swap", s.renderPartial("partials/standings", d))
}

// pushView sends the standings and selectors as c sees them.
func (s *Server) pushView(c *client) {
	d := s.clientData(c, "")
	s.hub.Send(c.id, "swap", s.renderPartial("partials/standings", d))
	s.hub.Send(c.id, "swap", s.renderPartial("partials/admin", d))
}

func (s *Server) clientData(c *client, title string) data {
	d := newData(title)
	if u, ok := c.gate.Identity(); ok {
		d = d.WithUser(u, c.gate.Privileged())
	}
	view, synced := s.standings.View()
	failed := s.standings.Err() != nil
	a, b := "", ""
	if synced {
		a, b = c.selection.Reconcile(view)
	}
	d = d.With("View", view).
		With("Synced", synced).
		With("Failed", failed).
		With("SelectedA", a).
		With("SelectedB", b).
		With("Highlight", c.highlighted(s.now())).
		With("PublicURL", s.cfg.PublicURL).
		With("HasQR", len(s.qr) > 0).
		With("AppTitle", s.title).
		With("Pending", "")
	if p, ok := c.removal.Pending(); ok {
		d = d.With("Pending", p.Prompt())
	}
	return d
}

func (s *Server) renderPartial(name string, d data) string {
	var buf bytes.Buffer
	if err := s.engine.Render(&buf, name, d); err != nil {
		s.log.WithError(err).WithField("template", name).Error("render partial")
		return ""
	}
	return buf.String()
}

// highlight marks rows for HighlightFor and clears them again afterwards.
func (s *Server) highlight(c *client, ids ...string) {
	c.setHighlight(s.now().Add(HighlightFor), ids...)
	time.AfterFunc(HighlightFor, func() {
		s.pushView(c)
	})
}
