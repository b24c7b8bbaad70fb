package dns

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"time"
)

// publicDNS are servers to be queried if a local lookup fails
var publicDNS = []string{
	"1.1.1.1",              // Cloudflare
	"1.0.0.1",              // Cloudflare
	"2606:4700:4700::1111", // Cloudflare
	"8.8.8.8",              // Google
	"8.8.4.4",              // Google
	"2001:4860:4860::8888", // Google
	"9.9.9.9",              // Quad9
	"149.112.112.112",      // Quad9
	"208.67.222.222",       // Cisco OpenDNS
	"208.67.220.220",       // Cisco OpenDNS
}

// LookupFunc resolves a host name to a single IP address.
type LookupFunc func(host string) (string, error)

// Lookup resolves a hostname to an IP address.
// It first attempts to use the system's default resolver.
// If that fails, it falls back to using public DNS providers directly.
func Lookup(host string) (string, error) {
	ip, err := localLookupIP(host)
	if err == nil && ip != "" {
		return ip, nil
	}
	return remoteLookupWithRace(host)
}

// ResolveICEURL rewrites the host of a stun: or turn: URL to an IP address
// using lookup. IP hosts, turns: URLs (TLS needs the name) and URLs that
// fail to resolve are returned unchanged.
func ResolveICEURL(rawURL string, lookup LookupFunc) string {
	scheme, rest, ok := strings.Cut(rawURL, ":")
	if !ok || (scheme != "stun" && scheme != "turn") {
		return rawURL
	}

	hostPort, query, hasQuery := strings.Cut(rest, "?")
	host, port, err := net.SplitHostPort(hostPort)
	if err != nil {
		host, port = strings.Trim(hostPort, "[]"), ""
	}
	if host == "" || net.ParseIP(host) != nil {
		return rawURL
	}

	ip, err := lookup(host)
	if err != nil || ip == "" {
		return rawURL
	}

	resolved := ip
	if port != "" {
		resolved = net.JoinHostPort(ip, port)
	} else if strings.Contains(ip, ":") {
		resolved = "[" + ip + "]"
	}

	out := scheme + ":" + resolved
	if hasQuery {
		out += "?" + query
	}
	return out
}

// ResolveICEURLs applies ResolveICEURL to every URL.
func ResolveICEURLs(urls []string, lookup LookupFunc) []string {
	if urls == nil {
		return nil
	}
	out := make([]string, len(urls))
	for i, u := range urls {
		out[i] = ResolveICEURL(u, lookup)
	}
	return out
}

// localLookupIP returns a host's IP address using the local DNS configuration.
func localLookupIP(host string) (string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 1*time.Second)
	defer cancel()

	r := &net.Resolver{}
	ips, err := r.LookupHost(ctx, host)
	if err != nil {
		return "", err
	}
	return pickIP(ips)
}

// remoteLookupWithRace returns a host's IP address by racing multiple public DNS servers.
func remoteLookupWithRace(host string) (string, error) {
	type result struct {
		ip  string
		err error
	}

	results := make(chan result, len(publicDNS))
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	for _, dnsServer := range publicDNS {
		go func(server string) {
			ip, err := remoteLookupIP(ctx, host, server)
			results <- result{ip: ip, err: err}
		}(dnsServer)
	}

	failureCount := 0
	for range publicDNS {
		select {
		case res := <-results:
			if res.err == nil && res.ip != "" {
				return res.ip, nil
			}
			failureCount++
		case <-ctx.Done():
			return "", fmt.Errorf("DNS lookup timed out during public DNS race")
		}
	}

	return "", fmt.Errorf("failed to resolve %s: all %d public DNS servers failed", host, failureCount)
}

// remoteLookupIP queries a specific DNS server for the host.
func remoteLookupIP(ctx context.Context, host, dnsServer string) (string, error) {
	r := &net.Resolver{
		PreferGo: true,
		Dial: func(ctx context.Context, network, _ string) (net.Conn, error) {
			d := new(net.Dialer)
			return d.DialContext(ctx, network, net.JoinHostPort(dnsServer, "53"))
		},
	}

	ips, err := r.LookupHost(ctx, host)
	if err != nil {
		return "", err
	}
	return pickIP(ips)
}

// pickIP prefers IPv4.
func pickIP(ips []string) (string, error) {
	if len(ips) == 0 {
		return "", errors.New("no IP addresses found")
	}
	for _, ip := range ips {
		if net.ParseIP(ip).To4() != nil {
			return ip, nil
		}
	}
	return ips[0], nil
}
