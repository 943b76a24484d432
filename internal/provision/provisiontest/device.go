// Package provisiontest provides a simulated first-boot device for tests.
//
// The device serves a welcome page embedding a session id, accepts the
// password and import pages, and records every request it sees so tests
// can assert order, count and payloads.
package provisiontest

import (
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"time"
)

// DefaultSID is the session id served by NewDevice when none is given
const DefaultSID = "0123456789abcdef"

// WelcomePage renders a welcome page containing sid the way the firmware does
func WelcomePage(sid string) string {
	return fmt.Sprintf(`<!DOCTYPE html>
<html><head><title>FRITZ!Box</title></head>
<body>
<a href="/secure_link.lua?sid=%s" id="uiSecure">Secure access</a>
<script>var data = {"sid":"%s"};</script>
</body></html>`, sid, sid)
}

// Request is one request the device received
type Request struct {
	Method      string
	Path        string
	Query       url.Values
	ContentType string
	Form        url.Values      // url-encoded or multipart value fields
	Files       map[string]File // multipart file parts by field name
}

// File is an uploaded multipart file part
type File struct {
	Filename string
	Data     []byte
}

// Device is a simulated router admin interface
type Device struct {
	*httptest.Server

	mu           sync.Mutex
	requests     []Request
	welcomeBody  string
	welcomeDelay time.Duration
	dropPaths    map[string]bool
	statusPaths  map[string]int
}

// NewDevice starts a simulated device serving sid on its welcome page
func NewDevice(sid string) *Device {
	if sid == "" {
		sid = DefaultSID
	}
	d := &Device{
		welcomeBody: WelcomePage(sid),
		dropPaths:   make(map[string]bool),
		statusPaths: make(map[string]int),
	}
	d.Server = httptest.NewServer(http.HandlerFunc(d.handle))
	return d
}

// Address returns host:port suitable for provision.Request.Address
func (d *Device) Address() string {
	return strings.TrimPrefix(d.URL, "http://")
}

// SetWelcomeBody replaces the welcome page HTML
func (d *Device) SetWelcomeBody(body string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.welcomeBody = body
}

// SetWelcomeDelay delays the welcome page answer
func (d *Device) SetWelcomeDelay(delay time.Duration) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.welcomeDelay = delay
}

// DropConnection makes every request to path close the connection without
// answering, which clients see as a transport error.
func (d *Device) DropConnection(path string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.dropPaths[path] = true
}

// RespondStatus makes requests to path answer with the given status code
func (d *Device) RespondStatus(path string, status int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.statusPaths[path] = status
}

// Requests returns a copy of all requests received so far
func (d *Device) Requests() []Request {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]Request, len(d.requests))
	copy(out, d.requests)
	return out
}

// Paths returns "METHOD path" for every request received so far
func (d *Device) Paths() []string {
	reqs := d.Requests()
	out := make([]string, len(reqs))
	for i, r := range reqs {
		out[i] = r.Method + " " + r.Path
	}
	return out
}

func (d *Device) handle(w http.ResponseWriter, r *http.Request) {
	rec := Request{
		Method:      r.Method,
		Path:        r.URL.Path,
		Query:       r.URL.Query(),
		ContentType: r.Header.Get("Content-Type"),
		Form:        url.Values{},
		Files:       map[string]File{},
	}
	parseBody(r, &rec)

	d.mu.Lock()
	d.requests = append(d.requests, rec)
	drop := d.dropPaths[r.URL.Path]
	status, hasStatus := d.statusPaths[r.URL.Path]
	welcome := d.welcomeBody
	delay := d.welcomeDelay
	d.mu.Unlock()

	if drop {
		hijackAndClose(w)
		return
	}
	if hasStatus {
		w.WriteHeader(status)
		return
	}

	switch r.URL.Path {
	case "/":
		if delay > 0 {
			select {
			case <-time.After(delay):
			case <-r.Context().Done():
				return
			}
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = io.WriteString(w, welcome)
	case "/data.lua":
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"pid":"firstPage","data":{}}`)
	default:
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = io.WriteString(w, "<html><body>ok</body></html>")
	}
}

func parseBody(r *http.Request, rec *Request) {
	mediaType, params, err := mime.ParseMediaType(rec.ContentType)
	if err != nil {
		return
	}

	switch mediaType {
	case "application/x-www-form-urlencoded":
		body, err := io.ReadAll(r.Body)
		if err != nil {
			return
		}
		if form, err := url.ParseQuery(string(body)); err == nil {
			rec.Form = form
		}
	case "multipart/form-data":
		mr := multipart.NewReader(r.Body, params["boundary"])
		for {
			part, err := mr.NextPart()
			if err != nil {
				return
			}
			data, err := io.ReadAll(part)
			if err != nil {
				return
			}
			if part.FileName() != "" {
				rec.Files[part.FormName()] = File{Filename: part.FileName(), Data: data}
			} else {
				rec.Form.Add(part.FormName(), string(data))
			}
		}
	}
}

func hijackAndClose(w http.ResponseWriter) {
	hj, ok := w.(http.Hijacker)
	if !ok {
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	conn, _, err := hj.Hijack()
	if err != nil {
		return
	}
	_ = conn.Close()
}
