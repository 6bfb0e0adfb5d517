package fetch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/netip"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFetch(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/page", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte("<title>" + r.UserAgent() + "</title>"))
	})
	mux.HandleFunc("/moved", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/page", http.StatusFound)
	})
	mux.HandleFunc("/missing", http.NotFound)
	mux.HandleFunc("/big", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		// Flush forces chunked encoding so no Content-Length is sent.
		_, _ = w.Write([]byte(strings.Repeat("a", 64)))
		w.(http.Flusher).Flush()
		_, _ = w.Write([]byte(strings.Repeat("b", 64)))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	f := New(Options{UserAgent: "TestBot/2.0", MaxBytes: 100, Timeout: 5 * time.Second, AllowPrivate: true})
	ctx := context.Background()

	t.Run("OK", func(t *testing.T) {
		page, err := f.Fetch(ctx, srv.URL+"/page")
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, page.StatusCode)
		assert.Equal(t, "<title>TestBot/2.0</title>", page.Body)
		assert.Contains(t, page.ContentType, "text/html")
		assert.Equal(t, "127.0.0.1", page.Host())
	})

	t.Run("Redirect", func(t *testing.T) {
		page, err := f.Fetch(ctx, srv.URL+"/moved")
		require.NoError(t, err)
		assert.Equal(t, srv.URL+"/page", page.FinalURL)
	})

	t.Run("Not found", func(t *testing.T) {
		_, err := f.Fetch(ctx, srv.URL+"/missing")
		assert.ErrorIs(t, err, ErrUnexpectedStatus)
	})

	t.Run("Too large", func(t *testing.T) {
		_, err := f.Fetch(ctx, srv.URL+"/big")
		assert.ErrorIs(t, err, ErrTooLarge)
	})

	t.Run("Cancelled", func(t *testing.T) {
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		_, err := f.Fetch(cctx, srv.URL+"/page")
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestFetch_BlocksPrivateAddresses(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("<p>internal</p>"))
	}))
	defer srv.Close()

	f := New(Options{Timeout: 5 * time.Second})
	_, err := f.Fetch(context.Background(), srv.URL)
	assert.ErrorIs(t, err, ErrBlockedAddress)
}

func TestBlockedAddr(t *testing.T) {
	tests := []struct {
		addr string
		want bool
	}{
		{"127.0.0.1", true},
		{"::1", true},
		{"10.1.2.3", true},
		{"172.16.0.9", true},
		{"192.168.1.1", true},
		{"169.254.169.254", true},
		{"fe80::1", true},
		{"fd00::1", true},
		{"0.0.0.0", true},
		{"::ffff:127.0.0.1", true},
		{"93.184.216.34", false},
		{"2606:4700::1111", false},
	}
	for _, tt := range tests {
		t.Run(tt.addr, func(t *testing.T) {
			assert.Equal(t, tt.want, blockedAddr(netip.MustParseAddr(tt.addr)))
		})
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		in      string
		wantErr bool
	}{
		{"https://example.com/a", false},
		{" http://example.com ", false},
		{"ftp://example.com", true},
		{"/relative/path", true},
		{"https://", true},
		{"://bad", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			_, err := Validate(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidURL)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
