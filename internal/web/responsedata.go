package web

import (
	"github.com/goserg/arena/auth/users"
	"github.com/goserg/arena/internal/web/webpath"
)

type data struct {
	Title      string
	Path       map[string]string
	User       users.User
	SignedIn   bool
	Privileged bool
	Data       map[string]any
}

func newData(title string) data {
	return data{
		Title: title,
		Path:  webpath.Path(),
		Data:  make(map[string]any),
	}
}

func (m data) WithUser(user users.User, privileged bool) data {
	m.User = user
	m.SignedIn = true
	m.Privileged = privileged
	return m
}

func (m data) With(key string, value any) data {
	if m.Data == nil {
		m.Data = make(map[string]any)
	}
	m.Data[key] = value
	return m
}
