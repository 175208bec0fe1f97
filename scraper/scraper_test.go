package scraper

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strings"
	"testing"

	"github.com/jarcoal/httpmock"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/aluiziolira/scout-bot/models"
	"github.com/aluiziolira/scout-bot/parser"
)

const (
	testOrigin = "http://example.test"
	testTarget = testOrigin + "/search"
)

const formPage = `<html><body><form>
<input type="hidden" name="__VIEWSTATE" value="state+1" />
<input type="hidden" name="__VIEWSTATEGENERATOR" value="GEN" />
</form></body></html>`

var testFields = models.FormFields{
	{Name: "ctl00$Content$btnSearch", Value: "Suchen"},
	{Name: "ctl00$Content$KeywordsList1$cmbKeyword", Value: "42"},
	{Name: "ctl00$Content$AreaList1$cmbDistricts", Value: "0"},
}

func newTestSearcher(t *testing.T) (*Searcher, *httpmock.MockTransport) {
	t.Helper()
	s, err := NewSearcher(Options{
		TargetURL: testTarget,
		Fields:    testFields,
		Metrics:   NewMetrics(prometheus.NewRegistry()),
	})
	if err != nil {
		t.Fatalf("new searcher: %v", err)
	}
	transport := httpmock.NewMockTransport()
	s.collector.WithTransport(transport)
	return s, transport
}

func htmlResponder(status int, body string) httpmock.Responder {
	return func(*http.Request) (*http.Response, error) {
		resp := httpmock.NewStringResponse(status, body)
		resp.Header.Set("Content-Type", "text/html")
		return resp, nil
	}
}

func redirectResponder(location, body string) httpmock.Responder {
	return func(*http.Request) (*http.Response, error) {
		resp := httpmock.NewStringResponse(http.StatusFound, body)
		resp.Header.Set("Content-Type", "text/html")
		if location != "" {
			resp.Header.Set("Location", location)
		}
		return resp, nil
	}
}

func TestSearchFollowsTwoRedirects(t *testing.T) {
	s, transport := newTestSearcher(t)
	transport.RegisterResponder("GET", testTarget, htmlResponder(200, formPage))
	transport.RegisterResponder("POST", testTarget, redirectResponder("/a", ""))
	transport.RegisterResponder("GET", testOrigin+"/a", redirectResponder("/b", "first hop"))
	transport.RegisterResponder("GET", testOrigin+"/b", htmlResponder(200, "second hop"))

	body, err := s.Search(context.Background())
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if body != "second hop" {
		t.Fatalf("body=%q, want %q", body, "second hop")
	}

	info := transport.GetCallCountInfo()
	if got := info["GET "+testOrigin+"/a"]; got != 1 {
		t.Fatalf("calls to /a = %d, want 1", got)
	}
	if got := info["GET "+testOrigin+"/b"]; got != 1 {
		t.Fatalf("calls to /b = %d, want 1", got)
	}
}

func TestSearchFinalHopFollowsFurtherRedirects(t *testing.T) {
	s, transport := newTestSearcher(t)
	transport.RegisterResponder("GET", testTarget, htmlResponder(200, formPage))
	transport.RegisterResponder("POST", testTarget, redirectResponder("/a", ""))
	transport.RegisterResponder("GET", testOrigin+"/a", redirectResponder("/b", ""))
	transport.RegisterResponder("GET", testOrigin+"/b", redirectResponder("/c", ""))
	transport.RegisterResponder("GET", testOrigin+"/c", htmlResponder(200, "results"))

	body, err := s.Search(context.Background())
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if body != "results" {
		t.Fatalf("body=%q, want %q", body, "results")
	}
}

func TestSearchRedirectResolution(t *testing.T) {
	tests := []struct {
		name     string
		register func(*httpmock.MockTransport)
		want     string
	}{
		{
			name: "post 200",
			register: func(tr *httpmock.MockTransport) {
				tr.RegisterResponder("POST", testTarget, htmlResponder(200, "inline results"))
			},
			want: "inline results",
		},
		{
			name: "post 302 without location",
			register: func(tr *httpmock.MockTransport) {
				tr.RegisterResponder("POST", testTarget, redirectResponder("", "moved body"))
			},
			want: "moved body",
		},
		{
			name: "first hop 200",
			register: func(tr *httpmock.MockTransport) {
				tr.RegisterResponder("POST", testTarget, redirectResponder("/a", ""))
				tr.RegisterResponder("GET", testOrigin+"/a", htmlResponder(200, "hop one"))
			},
			want: "hop one",
		},
		{
			name: "first hop non-200 without location",
			register: func(tr *httpmock.MockTransport) {
				tr.RegisterResponder("POST", testTarget, redirectResponder("/a", ""))
				tr.RegisterResponder("GET", testOrigin+"/a", htmlResponder(500, "hop one error"))
			},
			want: "hop one error",
		},
		{
			name: "absolute location",
			register: func(tr *httpmock.MockTransport) {
				tr.RegisterResponder("POST", testTarget, redirectResponder("http://other.test/a", ""))
				tr.RegisterResponder("GET", "http://other.test/a", htmlResponder(200, "other host"))
			},
			want: "other host",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, transport := newTestSearcher(t)
			transport.RegisterResponder("GET", testTarget, htmlResponder(200, formPage))
			tt.register(transport)

			body, err := s.Search(context.Background())
			if err != nil {
				t.Fatalf("search: %v", err)
			}
			if body != tt.want {
				t.Fatalf("body=%q, want %q", body, tt.want)
			}
		})
	}
}

func TestSearchSubmitsPostbackStateWithSessionCookie(t *testing.T) {
	s, transport := newTestSearcher(t)
	transport.RegisterResponder("GET", testTarget, func(*http.Request) (*http.Response, error) {
		resp := httpmock.NewStringResponse(200, formPage)
		resp.Header.Set("Content-Type", "text/html")
		resp.Header.Set("Set-Cookie", "ASP.NET_SessionId=abc123; Path=/")
		return resp, nil
	})

	var form map[string][]string
	var cookie string
	var contentType string
	transport.RegisterResponder("POST", testTarget, func(req *http.Request) (*http.Response, error) {
		cookie = req.Header.Get("Cookie")
		contentType = req.Header.Get("Content-Type")
		if err := req.ParseForm(); err != nil {
			return nil, err
		}
		form = req.PostForm
		return httpmock.NewStringResponse(200, "ok"), nil
	})

	if _, err := s.Search(context.Background()); err != nil {
		t.Fatalf("search: %v", err)
	}

	if !strings.Contains(cookie, "ASP.NET_SessionId=abc123") {
		t.Fatalf("cookie=%q, want session cookie", cookie)
	}
	if contentType != "application/x-www-form-urlencoded" {
		t.Fatalf("content type=%q", contentType)
	}
	if got := form["__VIEWSTATE"]; len(got) != 1 || got[0] != "state+1" {
		t.Fatalf("__VIEWSTATE=%v, want [state+1]", got)
	}
	if got := form["__LASTFOCUS"]; len(got) != 1 || got[0] != "" {
		t.Fatalf("__LASTFOCUS=%v, want empty value", got)
	}
	if got := form["ctl00$Content$KeywordsList1$cmbKeyword"]; len(got) != 1 || got[0] != "42" {
		t.Fatalf("keyword=%v, want [42]", got)
	}
	if len(form) != len(parser.HiddenFieldNames)+len(testFields) {
		t.Fatalf("fields=%d, want %d", len(form), len(parser.HiddenFieldNames)+len(testFields))
	}
}

func TestSearchTransportErrors(t *testing.T) {
	tests := []struct {
		name       string
		register   func(*httpmock.MockTransport)
		wantStatus int
		wantLabel  string
	}{
		{
			name: "form page unavailable",
			register: func(tr *httpmock.MockTransport) {
				tr.RegisterResponder("GET", testTarget, htmlResponder(503, "down"))
			},
			wantStatus: 503,
			wantLabel:  "status",
		},
		{
			name: "submit rejected",
			register: func(tr *httpmock.MockTransport) {
				tr.RegisterResponder("GET", testTarget, htmlResponder(200, formPage))
				tr.RegisterResponder("POST", testTarget, htmlResponder(500, "error"))
			},
			wantStatus: 500,
			wantLabel:  "status",
		},
		{
			name: "submit moved permanently",
			register: func(tr *httpmock.MockTransport) {
				tr.RegisterResponder("GET", testTarget, htmlResponder(200, formPage))
				tr.RegisterResponder("POST", testTarget, htmlResponder(301, ""))
			},
			wantStatus: 301,
			wantLabel:  "status",
		},
		{
			name: "final hop fails",
			register: func(tr *httpmock.MockTransport) {
				tr.RegisterResponder("GET", testTarget, htmlResponder(200, formPage))
				tr.RegisterResponder("POST", testTarget, redirectResponder("/a", ""))
				tr.RegisterResponder("GET", testOrigin+"/a", redirectResponder("/b", ""))
				tr.RegisterResponder("GET", testOrigin+"/b", htmlResponder(404, "gone"))
			},
			wantStatus: 404,
			wantLabel:  "status",
		},
		{
			name: "connection refused",
			register: func(tr *httpmock.MockTransport) {
				tr.RegisterResponder("GET", testTarget, httpmock.NewErrorResponder(
					&net.OpError{Op: "dial", Net: "tcp", Err: errors.New("connection refused")},
				))
			},
			wantLabel: "connection",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, transport := newTestSearcher(t)
			tt.register(transport)

			_, err := s.Search(context.Background())
			if err == nil {
				t.Fatalf("expected error")
			}
			var transportErr TransportError
			if !errors.As(err, &transportErr) {
				t.Fatalf("error %v is not a TransportError", err)
			}
			if transportErr.Status != tt.wantStatus {
				t.Fatalf("status=%d, want %d", transportErr.Status, tt.wantStatus)
			}
			if got := ErrorTypeLabel(err); got != tt.wantLabel {
				t.Fatalf("label=%q, want %q", got, tt.wantLabel)
			}
		})
	}
}

func TestSearchCanceledContext(t *testing.T) {
	s, transport := newTestSearcher(t)
	transport.RegisterResponder("GET", testTarget, htmlResponder(200, formPage))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := s.Search(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("err=%v, want context.Canceled", err)
	}
	if got := transport.GetTotalCallCount(); got != 0 {
		t.Fatalf("calls=%d, want 0", got)
	}
}

func TestErrorTypeLabel(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected string
	}{
		{name: "nil", err: nil, expected: "unknown"},
		{name: "timeout", err: TransportError{Step: "form", Err: classifyError(context.DeadlineExceeded)}, expected: "timeout"},
		{name: "net timeout", err: classifyError(&net.DNSError{IsTimeout: true}), expected: "timeout"},
		{name: "status", err: TransportError{Step: "submit", Status: 500}, expected: "status"},
		{name: "parse", err: parser.ParseError{Stage: "results", Err: errors.New("bad")}, expected: "parse"},
		{name: "other", err: errors.New("boom"), expected: "other"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ErrorTypeLabel(tt.err); got != tt.expected {
				t.Fatalf("ErrorTypeLabel(%v) = %q, want %q", tt.err, got, tt.expected)
			}
		})
	}
}

func TestBuildPayloadOrder(t *testing.T) {
	hidden := models.FormFields{{Name: "__VIEWSTATE", Value: "v"}}
	payload := BuildPayload(hidden, testFields)
	if len(payload) != 1+len(testFields) {
		t.Fatalf("payload=%d fields", len(payload))
	}
	if payload[0].Name != "__VIEWSTATE" || payload[1].Name != testFields[0].Name {
		t.Fatalf("unexpected order: %v", payload)
	}
	if got := payload.Encode(); !strings.HasPrefix(got, "__VIEWSTATE=v&ctl00%24Content%24btnSearch=Suchen") {
		t.Fatalf("encoded=%q", got)
	}
}

func TestNewSearcherRejectsRelativeURL(t *testing.T) {
	if _, err := NewSearcher(Options{TargetURL: "/search"}); err == nil {
		t.Fatalf("expected error for relative target url")
	}
}
