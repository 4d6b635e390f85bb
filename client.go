package zeroconf

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/asynczeroconf/go-zeroconf/native"
)

// Client talks to the DNS-SD daemon. All publish, browse and resolve
// operations start from a Client; a single Client may run any number of
// concurrent operations.
type Client struct {
	api native.API
	log *log.Entry
}

// NewClient wraps an already opened daemon connection.
func NewClient(logEntry *log.Entry, api native.API) *Client {
	return &Client{api: api, log: logEntry}
}

// Open connects to the system DNS-SD daemon.
func Open(logEntry *log.Entry) (*Client, error) {
	api, err := native.Open()
	if err != nil {
		return nil, fmt.Errorf("failed opening daemon connection: %w", err)
	}
	return NewClient(logEntry, api), nil
}

// Publish registers a service with the daemon and runs it on a background
// goroutine. The service stays visible on the network until the returned
// ServiceRef is closed; the RegisterFuture reports the daemon's
// confirmation or error.
func (c *Client) Publish(s *Service) (*ServiceRef, *RegisterFuture, error) {
	ref, task, fut, err := c.PublishTask(s)
	if err != nil {
		return nil, nil, err
	}
	go task()
	return ref, fut, nil
}

// Browse starts discovering services of the builder's type. Results arrive
// on the returned Browser until it is closed.
func (c *Client) Browse(serviceType string) *BrowseBuilder {
	return &BrowseBuilder{c: c, serviceType: serviceType}
}

// Resolve looks up the host, port and TXT record of a service discovered by
// a browse operation. It runs the operation to completion and tears it down
// before returning.
func (c *Client) Resolve(ctx context.Context, s *Service) (*Service, error) {
	return NewResolver(c).Resolve(ctx, s)
}
