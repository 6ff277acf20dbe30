package service

import (
	"errors"
	"fmt"
)

// Code identifies why a sign-in was refused.
type Code string

const (
	CodeUserNotFound      Code = "user-not-found"
	CodeWrongPassword     Code = "wrong-password"
	CodeInvalidEmail      Code = "invalid-email"
	CodeTooManyRequests   Code = "too-many-requests"
	CodeInvalidCredential Code = "invalid-credential"
	CodeUnknown           Code = "unknown"
)

var messages = map[Code]string{
	CodeUserNotFound:      "No account found with this email.",
	CodeWrongPassword:     "Incorrect password. Try again.",
	CodeInvalidEmail:      "Invalid email format.",
	CodeTooManyRequests:   "Too many attempts. Please try later.",
	CodeInvalidCredential: "Invalid credentials. Check email and password.",
}

const defaultMessage = "Authentication failed. Please check your credentials."

type AuthError struct {
	Code Code
	Err  error
}

func (e *AuthError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("auth/%s: %v", e.Code, e.Err)
	}
	return "auth/" + string(e.Code)
}

func (e *AuthError) Unwrap() error {
	return e.Err
}

// Message is the text shown to the user.
func (e *AuthError) Message() string {
	if m, ok := messages[e.Code]; ok {
		return m
	}
	return defaultMessage
}

// Message maps any sign-in error to user-facing text.
func Message(err error) string {
	var authErr *AuthError
	if errors.As(err, &authErr) {
		return authErr.Message()
	}
	return defaultMessage
}

// CodeOf returns the code of err, CodeUnknown for foreign errors.
func CodeOf(err error) Code {
	var authErr *AuthError
	if errors.As(err, &authErr) {
		return authErr.Code
	}
	return CodeUnknown
}

func newAuthError(code Code, err error) *AuthError {
	return &AuthError{Code: code, Err: err}
}
