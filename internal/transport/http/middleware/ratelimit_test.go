package middleware

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/stretchr/testify/assert"
	"golang.org/x/time/rate"
)

func otpVerifyFrom(remoteAddr string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/v1/auth/otp/verify", nil)
	req.RemoteAddr = remoteAddr
	return req
}

func TestClientIP_UsesRemoteHost(t *testing.T) {
	assert.Equal(t, "192.168.1.1", clientIP(otpVerifyFrom("192.168.1.1:54321")))
}

func TestClientIP_IgnoresForwardingHeaders(t *testing.T) {
	req := otpVerifyFrom("203.0.113.7:4444")
	req.Header.Set("X-Forwarded-For", "1.2.3.4")
	req.Header.Set("X-Real-Ip", "5.6.7.8")
	assert.Equal(t, "203.0.113.7", clientIP(req))
}

func TestLimit_BlocksAfterBurstPerIP(t *testing.T) {
	rl := NewRateLimiter(rate.Limit(0.001), 2)
	h := rl.Limit(http.HandlerFunc(okHandler))

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, otpVerifyFrom("7.7.7.7:1000"))
		codes = append(codes, rr.Code)
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, otpVerifyFrom("8.8.8.8:1000"))
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestLimit_RotatingForwardedForStillBlocked(t *testing.T) {
	rl := NewRateLimiter(rate.Limit(0.001), 10)
	h := rl.Limit(http.HandlerFunc(okHandler))

	allowed := 0
	for i := 0; i < 100; i++ {
		req := otpVerifyFrom("203.0.113.7:4444")
		req.Header.Set("X-Forwarded-For", fmt.Sprintf("10.0.0.%d", i))
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)
		if rr.Code == http.StatusOK {
			allowed++
		}
	}
	assert.Equal(t, 10, allowed)
}

func TestLimit_BehindTrustedProxyKeysOnForwardedClient(t *testing.T) {
	rl := NewRateLimiter(rate.Limit(0.001), 1)
	h := chimw.RealIP(rl.Limit(http.HandlerFunc(okHandler)))

	send := func(client string) int {
		req := otpVerifyFrom("10.0.0.1:443")
		req.Header.Set("X-Forwarded-For", client)
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)
		return rr.Code
	}
	assert.Equal(t, http.StatusOK, send("198.51.100.1"))
	assert.Equal(t, http.StatusTooManyRequests, send("198.51.100.1"))
	assert.Equal(t, http.StatusOK, send("198.51.100.2"))
}
