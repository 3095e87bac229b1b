package service

import (
	"errors"
	"fmt"

	"photon/internal/repository"
	"photon/internal/websocket"
)

var (
	ErrNotFound           = errors.New("not found")
	ErrForbidden          = errors.New("forbidden")
	ErrConflict           = errors.New("conflict")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidToken       = errors.New("invalid token")
	ErrValidation         = errors.New("validation failed")
)

// notFound turns a repository miss into ErrNotFound and wraps anything else.
func notFound(err error, what string) error {
	if errors.Is(err, repository.ErrNotFound) {
		return fmt.Errorf("%w: %s", ErrNotFound, what)
	}
	return fmt.Errorf("failed to load %s: %w", what, err)
}

// Publisher pushes events to a user's live connections.
type Publisher interface {
	Publish(userID, excludeDeviceID string, msgType websocket.MessageType, payload interface{})
}

type nopPublisher struct{}

func (nopPublisher) Publish(string, string, websocket.MessageType, interface{}) {}

func publisherOrNop(p Publisher) Publisher {
	if p == nil {
		return nopPublisher{}
	}
	return p
}
