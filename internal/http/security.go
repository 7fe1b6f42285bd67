package http

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"strings"
)

type contextKey string

// ownerKey carries the owner id resolved from a verified token. It is
// the sole scoping key for every downstream store access; handlers never
// accept an owner id from payload or query parameters.
const ownerKey contextKey = "owner_id"

// requireAuth is the authorization gate: it verifies the bearer token on
// every ledger request and binds the resolved owner id to the request
// context. Absent, malformed, tampered, and expired tokens all yield the
// same 401.
func (s *Server) requireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if header == "" || !strings.HasPrefix(header, "Bearer ") {
			respondError(w, http.StatusUnauthorized, "not authorized")
			return
		}

		raw := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
		ownerID, err := s.auth.Tokens().Verify(raw)
		if err != nil {
			s.logger.WarnContext(r.Context(), "Token rejected", "path", r.URL.Path)
			respondError(w, http.StatusUnauthorized, "not authorized")
			return
		}

		ctx := context.WithValue(r.Context(), ownerKey, ownerID)
		next(w, r.WithContext(ctx))
	}
}

// ownerFrom returns the owner id the gate bound to the context. It is a
// programming error to call this outside requireAuth.
func ownerFrom(ctx context.Context) int64 {
	id, ok := ctx.Value(ownerKey).(int64)
	if !ok {
		panic("ownerFrom called on a request that did not pass the auth gate")
	}
	return id
}

// trustedProxies defines networks that are trusted to set forwarding
// headers.
var trustedProxies = []*net.IPNet{
	parsecidr("127.0.0.0/8"),    // localhost
	parsecidr("10.0.0.0/8"),     // private networks
	parsecidr("172.16.0.0/12"),  // private networks
	parsecidr("192.168.0.0/16"), // private networks
}

func parsecidr(cidr string) *net.IPNet {
	_, network, err := net.ParseCIDR(cidr)
	if err != nil {
		panic(fmt.Sprintf("failed to parse trusted proxy CIDR %s: %v", cidr, err))
	}
	return network
}

func isTrustedProxy(ip net.IP) bool {
	for _, network := range trustedProxies {
		if network.Contains(ip) {
			return true
		}
	}
	return false
}

// extractClientIP extracts the real client IP, honoring forwarding
// headers only when the direct peer is a trusted proxy.
func extractClientIP(r *http.Request) string {
	directIP, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		directIP = r.RemoteAddr
	}

	parsedDirectIP := net.ParseIP(directIP)
	if parsedDirectIP == nil {
		return directIP
	}

	if isTrustedProxy(parsedDirectIP) {
		if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
			ips := strings.Split(xff, ",")
			if len(ips) > 0 {
				clientIP := strings.TrimSpace(ips[0])
				if parsedIP := net.ParseIP(clientIP); parsedIP != nil {
					return clientIP
				}
			}
		}

		if xri := r.Header.Get("X-Real-IP"); xri != "" {
			if parsedIP := net.ParseIP(xri); parsedIP != nil {
				return xri
			}
		}
	}

	return directIP
}
