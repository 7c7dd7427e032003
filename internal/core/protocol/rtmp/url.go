// If you are AI: This file parses rtmp:// URLs into the connect target of a client.

package rtmp

import (
	"fmt"
	"net"
	"net/url"
	"strings"
)
// defaultRTMPPort is used when the URL has no port.
const defaultRTMPPort = "1935"

// Target is a parsed rtmp:// URL.
type Target struct {
	Host   string
	App    string
	Stream string
	TcURL  string
}

// ParseURL parses rtmp://host[:port]/app/stream. Query strings stay on the stream name.
func ParseURL(raw string) (*Target, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid remote URL: %w", err)
	}
	if u.Scheme != "rtmp" {
		return nil, fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
	host := u.Host
	if u.Port() == "" {
		host = net.JoinHostPort(u.Hostname(), defaultRTMPPort)
	}
	app, stream, ok := strings.Cut(strings.TrimPrefix(u.Path, "/"), "/")
	if !ok || app == "" || stream == "" {
		return nil, fmt.Errorf("URL %q must name an app and a stream", raw)
	}
	if u.RawQuery != "" {
		stream += "?" + u.RawQuery
	}
	return &Target{
		Host:   host,
		App:    app,
		Stream: stream,
		TcURL:  "rtmp://" + u.Host + "/" + app,
	}, nil
}
