package service

import "time"

type Config struct {
	SqliteFile        string        `toml:"sqlite_file"`
	OperatorEmail     string        `toml:"operator_email"`
	OperatorPassword  string        `toml:"operator_password"`
	Token             string        `toml:"token"`
	Expiration        string        `toml:"expiration"`
	PasswordPepper    string        `toml:"password_pepper"`
	HideUserExistence bool          `toml:"hide_user_existence"`
	MaxAttempts       int           `toml:"max_attempts"`
	AttemptWindow     time.Duration `toml:"attempt_window"`
}
