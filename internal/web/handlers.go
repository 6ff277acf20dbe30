package web

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	authservice "github.com/goserg/arena/auth/service"
	"github.com/goserg/arena/internal/domain"
	"github.com/goserg/arena/internal/web/sse"
	"github.com/goserg/arena/internal/web/webpath"
)

const (
	formRegister = "register"
	formMatch    = "match"
	formDelete   = "delete"
	formSignIn   = "signin"
)

const (
	registerFailed = "⚠ Registration failed. Check your connection."
	matchFailed    = "⚠ Failed to save match. Check permissions."
	deleteFailed   = "⚠ Failed to delete player. Check permissions."
	signOutFailed  = "⚠ Failed to log out. Check your connection."
)

// result is the answer to a form post: JSON for scripts, a flash and a
// redirect otherwise.
type result struct {
	status  int
	OK      bool   `json:"ok"`
	Form    string `json:"form,omitempty"`
	Message string `json:"message,omitempty"`
	Toast   string `json:"toast,omitempty"`
	Prompt  string `json:"prompt,omitempty"`
}

func success(form, message, toast string) result {
	return result{status: fiber.StatusOK, OK: true, Form: form, Message: message, Toast: toast}
}

// failure reports validation errors next to the form, a missing privilege as
// a toast and store failures with remote.
func failure(form string, err error, remote string) result {
	r := result{Form: form}
	switch domain.KindOf(err) {
	case domain.KindValidation:
		r.status = fiber.StatusUnprocessableEntity
		if errors.Is(err, domain.ErrNoPendingRemoval) {
			r.status = fiber.StatusConflict
		}
		r.Message = err.Error()
	case domain.KindPermission:
		r.status = fiber.StatusForbidden
		r.Toast = err.Error()
	default:
		r.status = fiber.StatusBadGateway
		r.Message = remote
	}
	return r
}

func clientOf(ctx *fiber.Ctx) *client {
	c, _ := ctx.Locals(clientKey).(*client)
	return c
}

// withClient binds the request to the browser session named by the token
// cookie, starting a new session when the cookie is missing or invalid.
func (s *Server) withClient(ctx *fiber.Ctx) error {
	id, err := s.auth.ParseToken(ctx.Cookies(authservice.CookieName))
	if err != nil {
		id = uuid.New()
		cookie, err := s.auth.GenerateJWTCookie(id, "")
		if err != nil {
			return err
		}
		ctx.Cookie(cookie)
	}
	c := s.clients.get(id)
	c.touch(s.now())
	ctx.Locals(clientKey, c)
	return ctx.Next()
}

func (s *Server) respond(ctx *fiber.Ctx, c *client, back string, r result) error {
	if ctx.Accepts(fiber.MIMETextHTML, fiber.MIMEApplicationJSON) == fiber.MIMEApplicationJSON {
		return ctx.Status(r.status).JSON(r)
	}
	c.setFlash(flash{Form: r.Form, Message: r.Message, OK: r.OK, Toast: r.Toast})
	return ctx.Redirect(back, fiber.StatusSeeOther)
}

func (s *Server) handleLanding(ctx *fiber.Ctx) error {
	c := clientOf(ctx)
	return ctx.Render("index", s.clientData(c, s.title), "layouts/main")
}

func (s *Server) handleArena(ctx *fiber.Ctx) error {
	c := clientOf(ctx)
	d := s.clientData(c, s.title)
	if f, ok := c.takeFlash(); ok {
		d = d.With("Flash", f)
	}
	return ctx.Render("arena", d, "layouts/main")
}

func (s *Server) handleEvents(ctx *fiber.Ctx) error {
	c := clientOf(ctx)
	stream := s.hub.Register(c.id)
	if stream == nil {
		return fiber.ErrServiceUnavailable
	}
	s.pushClient(c)
	sse.Stream(ctx, s.hub, stream)
	return nil
}

func (s *Server) handleQR(ctx *fiber.Ctx) error {
	if len(s.qr) == 0 {
		return fiber.ErrNotFound
	}
	ctx.Type("png")
	return ctx.Send(s.qr)
}

func (s *Server) handleRegister(ctx *fiber.Ctx) error {
	c := clientOf(ctx)
	out, err := s.players.Register(ctx.UserContext(), ctx.FormValue("name"))
	c.cues.Registered(out, err)
	if err != nil {
		return s.respond(ctx, c, webpath.Arena, failure(formRegister, err, registerFailed))
	}
	s.notifyRegister(out)
	return s.respond(ctx, c, webpath.Arena, success(formRegister, out.Message(), out.Toast()))
}

func (s *Server) handleSelection(ctx *fiber.Ctx) error {
	c := clientOf(ctx)
	c.selection.Set(ctx.FormValue("player_a"), ctx.FormValue("player_b"))
	return ctx.SendStatus(fiber.StatusNoContent)
}

func (s *Server) handleMatch(ctx *fiber.Ctx) error {
	c := clientOf(ctx)
	in := parseMatchRequest(ctx)
	c.selection.Set(in.PlayerA, in.PlayerB)
	out, err := s.players.SubmitMatch(ctx.UserContext(), c.gate, in)
	c.cues.MatchSubmitted(out, err)
	if err != nil {
		return s.respond(ctx, c, webpath.Arena, failure(formMatch, err, matchFailed))
	}
	c.selection.Reset()
	s.highlight(c, out.PlayerA.ID, out.PlayerB.ID)
	s.notifyMatch(out)
	return s.respond(ctx, c, webpath.Arena, success(formMatch, out.Summary(), out.Toast()))
}

func (s *Server) handleDeleteInitiate(ctx *fiber.Ctx) error {
	c := clientOf(ctx)
	id := ctx.Params("id")
	name := "Player"
	if view, ok := s.standings.View(); ok {
		if row, ok := view.Row(id); ok {
			name = row.Player.Name
		}
	}
	p, err := c.removal.Initiate(id, name)
	c.cues.RemovalInitiated(err)
	if err != nil {
		return s.respond(ctx, c, webpath.Arena, failure(formDelete, err, deleteFailed))
	}
	r := success(formDelete, "", "")
	r.Prompt = p.Prompt()
	return s.respond(ctx, c, webpath.Arena, r)
}

func (s *Server) handleDeleteConfirm(ctx *fiber.Ctx) error {
	c := clientOf(ctx)
	out, err := c.removal.Confirm(ctx.UserContext())
	c.cues.Removed(out, err)
	if err != nil {
		r := failure(formDelete, err, "")
		if domain.KindOf(err) == domain.KindRemote {
			r.Message, r.Toast = "", deleteFailed
		}
		return s.respond(ctx, c, webpath.Arena, r)
	}
	return s.respond(ctx, c, webpath.Arena, success(formDelete, "", out.Toast()))
}

func (s *Server) handleDeleteCancel(ctx *fiber.Ctx) error {
	c := clientOf(ctx)
	c.removal.Cancel()
	c.cues.RemovalCancelled()
	return s.respond(ctx, c, webpath.Arena, success(formDelete, "", ""))
}

func (s *Server) handleSignIn(ctx *fiber.Ctx) error {
	c := clientOf(ctx)
	req, ok := parseSignInRequest(ctx)
	if !ok {
		return s.respond(ctx, c, webpath.Arena, result{
			status:  fiber.StatusUnprocessableEntity,
			Form:    formSignIn,
			Message: missingCredentials,
		})
	}
	err := c.session.SignIn(ctx.UserContext(), req.email, req.password)
	if err != nil {
		s.log.WithError(err).WithField("code", authservice.CodeOf(err)).Warn("sign-in refused")
		return s.respond(ctx, c, webpath.Arena, result{
			status:  fiber.StatusUnauthorized,
			Form:    formSignIn,
			Message: "⚠ " + authservice.Message(err),
		})
	}
	u, _ := c.session.User()
	return s.respond(ctx, c, webpath.Arena, success(formSignIn, "", "✔ Logged in as "+u.Email))
}

func (s *Server) handleSignOut(ctx *fiber.Ctx) error {
	c := clientOf(ctx)
	c.cues.SignOutRequested()
	if err := c.session.SignOut(ctx.UserContext()); err != nil {
		s.log.WithError(err).Error("sign-out")
		return s.respond(ctx, c, webpath.Arena, result{status: fiber.StatusBadGateway, Form: formSignIn, Toast: signOutFailed})
	}
	return s.respond(ctx, c, webpath.Arena, success(formSignIn, "", "👋 Logged out successfully."))
}
