package webpath

import "strings"

const (
	Home          = "/"
	Arena         = "/arena"
	Events        = "/events"
	QR            = "/qr.png"
	Public        = "/public"
	Players       = "/players"
	DeletePlayer  = Players + "/:id/delete"
	Matches       = "/matches"
	Selection     = "/selection"
	DeleteConfirm = "/delete/confirm"
	DeleteCancel  = "/delete/cancel"
	Signin        = "/signin"
	Signout       = "/signout"
)

func Path() map[string]string {
	return map[string]string{
		"Home":          Home,
		"Arena":         Arena,
		"Events":        Events,
		"QR":            QR,
		"Public":        Public,
		"Players":       Players,
		"Matches":       Matches,
		"Selection":     Selection,
		"DeleteConfirm": DeleteConfirm,
		"DeleteCancel":  DeleteCancel,
		"SignIn":        Signin,
		"SignOut":       Signout,
	}
}

// Delete is the path that starts the removal of one player.
func Delete(id string) string {
	return strings.Replace(DeletePlayer, ":id", id, 1)
}
