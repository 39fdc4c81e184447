package middleware

import (
	"net/http"
	"net/http/httptest"
	"net/netip"
	"testing"
)

func TestRealIP(t *testing.T) {
	proxies := []netip.Prefix{netip.MustParsePrefix("10.0.0.0/8")}
	cases := []struct {
		name    string
		trusted []netip.Prefix
		remote  string
		fwd     []string
		want    string
	}{
		{name: "no proxies configured", remote: "198.51.100.9:5000", fwd: []string{"203.0.113.5"}, want: "198.51.100.9:5000"},
		{name: "untrusted peer", trusted: proxies, remote: "198.51.100.9:5000", fwd: []string{"203.0.113.5"}, want: "198.51.100.9:5000"},
		{name: "trusted peer", trusted: proxies, remote: "10.0.0.2:5000", fwd: []string{"203.0.113.5"}, want: "203.0.113.5"},
		{name: "spoofed leftmost hop", trusted: proxies, remote: "10.0.0.2:5000", fwd: []string{"1.2.3.4, 203.0.113.5, 10.0.0.7"}, want: "203.0.113.5"},
		{name: "repeated headers", trusted: proxies, remote: "10.0.0.2:5000", fwd: []string{"1.2.3.4", "203.0.113.5"}, want: "203.0.113.5"},
		{name: "garbage hop", trusted: proxies, remote: "10.0.0.2:5000", fwd: []string{"not-an-ip"}, want: "10.0.0.2:5000"},
		{name: "no header", trusted: proxies, remote: "10.0.0.2:5000", want: "10.0.0.2:5000"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var got string
			h := RealIP(tc.trusted)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				got = r.RemoteAddr
			}))
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tc.remote
			for _, v := range tc.fwd {
				req.Header.Add("X-Forwarded-For", v)
			}
			h.ServeHTTP(httptest.NewRecorder(), req)
			if got != tc.want {
				t.Fatalf("expected %q, got %q", tc.want, got)
			}
		})
	}
}
