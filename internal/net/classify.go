package net

import (
	"context"
	"errors"
	"net"
	"os"

	"pingwatch/internal/incident"
)

// Classify maps a transport error to an outcome type. A nil error is a success.
//
// Timeouts are detected from the error chain only (net.Error.Timeout,
// os.ErrDeadlineExceeded, context.DeadlineExceeded), never from the message
// text. They are checked first so that a dial timeout counts as a timeout.
func Classify(err error) incident.Type {
	if err == nil {
		return incident.Success
	}

	if isTimeout(err) {
		return incident.Timeout
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return incident.ConnectionError
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) && opErr.Op == "dial" {
		return incident.ConnectionError
	}

	return incident.OtherError
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || os.IsTimeout(err) {
		return true
	}

	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
