package probe

import (
	"context"
	"errors"
	"net"
	"net/url"
	"strings"
	"time"
)

var dnsTimeout = 3 * time.Second

// Diagnose classifies how a hostname resolves. It is a log-only aid run when
// an HTTP target goes down, to tell "the name is gone" apart from "the server
// is not answering"; it never changes a verdict.
//
// Classes: "RESOLVES" | "NXDOMAIN" | "NO_A_RECORD" | "SERVFAIL_or_TIMEOUT" | "INVALID_NAME"
func Diagnose(host string) string {
	host = strings.TrimSpace(host)
	if host == "" || strings.Contains(host, "://") {
		return "INVALID_NAME"
	}

	ctx, cancel := context.WithTimeout(context.Background(), dnsTimeout)
	defer cancel()
	r := &net.Resolver{} // OS resolver

	ips, err := r.LookupIP(ctx, "ip", host)
	if err == nil && len(ips) > 0 {
		return "RESOLVES"
	}

	class := "SERVFAIL_or_TIMEOUT"
	if err != nil {
		var de *net.DNSError
		if errors.As(err, &de) && de.IsNotFound {
			class = "NXDOMAIN"
		}
	}

	// A zone with NS records but no address records is a different failure
	// than a missing zone.
	if ns, err := r.LookupNS(ctx, host); err == nil && len(ns) > 0 {
		return "NO_A_RECORD"
	}
	return class
}

// ExtractHost pulls the hostname out of a URL string, falling back to the
// raw input for bare hosts.
func ExtractHost(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Hostname() == "" {
		return raw
	}
	return u.Hostname()
}
