// Package discovery announces the decoded-record feed over mDNS/DNS-SD
// so clients on the local network can find it without a configured
// host and port.
package discovery

import (
	"context"
	"fmt"

	"github.com/brutella/dnssd"
)

// ServiceType is the DNS-SD service type advertised for the feed
// server.
const ServiceType = "_rmradar._tcp"

// Announcer advertises the feed service and answers mDNS queries for
// it until its context is canceled.
type Announcer struct {
	responder dnssd.Responder
}

// Announce registers a service named name on port and starts
// responding to mDNS queries for it in the background. The responder
// runs until ctx is canceled.
func Announce(ctx context.Context, name string, port int) (*Announcer, error) {
	cfg := dnssd.Config{
		Name: name,
		Type: ServiceType,
		Port: port,
	}

	sv, err := dnssd.NewService(cfg)
	if err != nil {
		return nil, fmt.Errorf("discovery: creating service: %w", err)
	}

	rp, err := dnssd.NewResponder()
	if err != nil {
		return nil, fmt.Errorf("discovery: creating responder: %w", err)
	}

	if _, err := rp.Add(sv); err != nil {
		return nil, fmt.Errorf("discovery: adding service: %w", err)
	}

	a := &Announcer{responder: rp}

	go func() {
		_ = rp.Respond(ctx)
	}()

	return a, nil
}
