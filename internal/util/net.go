package util

import (
	"net"
	"net/url"
	"sort"
	"strconv"
)

func previewURL(scheme, host string, port int, basePath string) string {
	u := &url.URL{Scheme: scheme, Host: net.JoinHostPort(host, strconv.Itoa(port)), Path: basePath}
	if u.Path == "" {
		u.Path = "/"
	}
	return u.String()
}

// PreviewURLs returns the URLs the preview server is reachable on: loopback
// first, then the bind address or, for wildcard binds, every IPv4 address of
// the active interfaces.
func PreviewURLs(bind string, port int, https bool, basePath string) []string {
	scheme := "http"
	if https {
		scheme = "https"
	}
	seen := map[string]struct{}{}
	var local, lan []string
	add := func(dst *[]string, host string) {
		u := previewURL(scheme, host, port, basePath)
		if _, ok := seen[u]; ok {
			return
		}
		seen[u] = struct{}{}
		*dst = append(*dst, u)
	}

	add(&local, "127.0.0.1")
	add(&local, "localhost")
	if bind != "" && bind != "0.0.0.0" && bind != "::" {
		if ip := net.ParseIP(bind); ip == nil || !ip.IsLoopback() {
			add(&lan, bind)
		}
		return append(local, lan...)
	}

	ifaces, err := net.Interfaces()
	if err != nil {
		return local
	}
	for _, iface := range ifaces {
		if iface.Flags&net.FlagUp == 0 || iface.Flags&net.FlagLoopback != 0 {
			continue
		}
		addrs, err := iface.Addrs()
		if err != nil {
			continue
		}
		for _, a := range addrs {
			ip, _, err := net.ParseCIDR(a.String())
			if err != nil || ip.IsLoopback() {
				continue
			}
			if v4 := ip.To4(); v4 != nil {
				add(&lan, v4.String())
			}
		}
	}
	sort.Strings(lan)
	return append(local, lan...)
}

// ShareableURL picks the URL worth showing as a QR code: the first non-local
// one, else the first.
func ShareableURL(urls []string) string {
	for _, raw := range urls {
		u, err := url.Parse(raw)
		if err != nil {
			continue
		}
		if h := u.Hostname(); h != "localhost" && h != "127.0.0.1" {
			return raw
		}
	}
	if len(urls) == 0 {
		return ""
	}
	return urls[0]
}
