package model

import (
	"fmt"
	"strings"
	"time"
)

// EventType is a notification topic a chat can subscribe to. The values are
// stored in user_events.
type EventType string

const (
	NewMatch  EventType = "new_match"
	NewPlayer EventType = "new_player"
)

// Events lists every topic in the order /sub describes them.
var Events = []EventType{NewMatch, NewPlayer}

var topics = map[string]EventType{
	"matches": NewMatch,
	"players": NewPlayer,
}

// Topic is the word users type after /sub and /unsub.
func (e EventType) Topic() string {
	for word, event := range topics {
		if event == e {
			return word
		}
	}
	return string(e)
}

// ParseTopics maps a /sub argument to topics. An empty argument means all of them.
func ParseTopics(arg string) ([]EventType, error) {
	arg = strings.ToLower(strings.TrimSpace(arg))
	if arg == "" || arg == "all" {
		return Events, nil
	}
	event, ok := topics[arg]
	if !ok {
		return nil, fmt.Errorf("unknown topic %q, use matches or players", arg)
	}
	return []EventType{event}, nil
}

// UserRole is stored in user_roles. Admins come from the bot config,
// moderators are promoted by an admin with /role.
type UserRole int

const (
	RoleAdmin UserRole = iota + 1
	RoleModerator
	RoleUser
)

var roleNames = map[UserRole]string{
	RoleAdmin:     "admin",
	RoleModerator: "moderator",
	RoleUser:      "user",
}

func (r UserRole) String() string {
	if name, ok := roleNames[r]; ok {
		return name
	}
	return fmt.Sprintf("role(%d)", int(r))
}

// ParseRole reads a role an admin may hand out with /role.
func ParseRole(s string) (UserRole, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "moderator":
		return RoleModerator, nil
	case "user":
		return RoleUser, nil
	}
	return 0, fmt.Errorf("unknown role %q, use moderator or user", s)
}

// User is a telegram chat that talked to the bot.
type User struct {
	ID        int
	FirstName string
	Username  string
	CreatedAt time.Time
	UpdatedAt time.Time

	Role UserRole

	Subscriptions []EventType
}

func (u User) DisplayName() string {
	if u.Username != "" {
		return "@" + u.Username
	}
	if u.FirstName != "" {
		return u.FirstName
	}
	return fmt.Sprintf("user %d", u.ID)
}

func (u User) SubscribedTo(e EventType) bool {
	for _, s := range u.Subscriptions {
		if s == e {
			return true
		}
	}
	return false
}
