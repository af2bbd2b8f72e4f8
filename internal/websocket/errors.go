package websocket

import "errors"

var (
	ErrClientQueueFull = errors.New("client message queue is full")
	ErrClientClosed    = errors.New("client connection closed")
	ErrHubStopped      = errors.New("hub stopped")
)
