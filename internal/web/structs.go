package web

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/goserg/arena/internal/service"
)

const missingCredentials = "⚠ Please enter both email and password."

type signInRequest struct {
	email    string
	password string
}

func parseSignInRequest(ctx *fiber.Ctx) (signInRequest, bool) {
	req := signInRequest{
		email:    strings.TrimSpace(ctx.FormValue("email")),
		password: ctx.FormValue("password"),
	}
	return req, req.email != "" && req.password != ""
}

func parseMatchRequest(ctx *fiber.Ctx) service.MatchInput {
	goalsA, okA := service.ParseGoals(ctx.FormValue("goals_a"))
	goalsB, okB := service.ParseGoals(ctx.FormValue("goals_b"))
	return service.MatchInput{
		PlayerA:        ctx.FormValue("player_a"),
		PlayerB:        ctx.FormValue("player_b"),
		GoalsA:         goalsA,
		GoalsB:         goalsB,
		MalformedGoals: !okA || !okB,
	}
}
