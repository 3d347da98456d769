package services

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

// onePxPNG is a valid 1×1 transparent PNG.
const onePxPNG = "iVBORw0KGgoAAAANSUhEUgAAAAEAAAABCAYAAAAfFcSJAAAADUlEQVR42mP8z8BQDwAEhQGAhKmMIQAAAABJRU5ErkJggg=="

func pngBytes(t *testing.T) []byte {
	t.Helper()
	data, err := base64.StdEncoding.DecodeString(onePxPNG)
	if err != nil {
		t.Fatalf("decode test png: %v", err)
	}
	return data
}

func TestResolveImages_AbsentReference(t *testing.T) {
	items := []LineItem{{ProductCode: "A", ProductName: "A"}}

	results := ResolveImages(context.Background(), items, nil, nil)
	if len(results) != 1 {
		t.Fatalf("got %d results, want 1", len(results))
	}
	if results[0].Outcome != ImageAbsent {
		t.Errorf("outcome = %v, want ImageAbsent", results[0].Outcome)
	}
}

func TestResolveImages_ResolverDataURI(t *testing.T) {
	items := []LineItem{{ProductCode: "A", ProductName: "A", ImageURL: "http://example.com/a.png"}}
	resolver := func(url string) (string, error) {
		return "data:image/png;base64," + onePxPNG, nil
	}

	results := ResolveImages(context.Background(), items, resolver, nil)
	if results[0].Outcome != ImageResolved {
		t.Fatalf("outcome = %v, want ImageResolved (err=%v)", results[0].Outcome, results[0].Err)
	}
	if results[0].Extension != ".png" {
		t.Errorf("extension = %q, want .png", results[0].Extension)
	}
	if len(results[0].Data) == 0 {
		t.Error("expected decoded image bytes")
	}
}

func TestResolveImages_ResolverBareBase64(t *testing.T) {
	items := []LineItem{{ProductCode: "A", ProductName: "A", ImageURL: "ref-1"}}
	resolver := func(url string) (string, error) { return onePxPNG, nil }

	results := ResolveImages(context.Background(), items, resolver, nil)
	if results[0].Outcome != ImageResolved {
		t.Fatalf("outcome = %v, want ImageResolved (err=%v)", results[0].Outcome, results[0].Err)
	}
}

func TestResolveImages_DirectFetchFallback(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		w.Write(pngBytes(t))
	}))
	defer srv.Close()

	items := []LineItem{{ProductCode: "A", ProductName: "A", ImageURL: srv.URL + "/a.png"}}

	// No resolver at all: direct fetch is the only path.
	results := ResolveImages(context.Background(), items, nil, srv.Client())
	if results[0].Outcome != ImageResolved {
		t.Fatalf("outcome = %v, want ImageResolved (err=%v)", results[0].Outcome, results[0].Err)
	}
	if results[0].Extension != ".png" {
		t.Errorf("extension = %q, want .png", results[0].Extension)
	}
}

func TestResolveImages_ResolverMissThenFetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(pngBytes(t))
	}))
	defer srv.Close()

	items := []LineItem{{ProductCode: "A", ProductName: "A", ImageURL: srv.URL}}
	resolver := func(url string) (string, error) { return "", nil } // resolver has nothing

	results := ResolveImages(context.Background(), items, resolver, srv.Client())
	if results[0].Outcome != ImageResolved {
		t.Fatalf("outcome = %v, want ImageResolved via fetch fallback (err=%v)", results[0].Outcome, results[0].Err)
	}
}

func TestResolveImages_FailureIsIsolated(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/ok.png" {
			w.Write(pngBytes(t))
			return
		}
		http.NotFound(w, r)
	}))
	defer srv.Close()

	items := []LineItem{
		{ProductCode: "A", ProductName: "A", ImageURL: srv.URL + "/ok.png"},
		{ProductCode: "B", ProductName: "B", ImageURL: srv.URL + "/missing.png"},
		{ProductCode: "C", ProductName: "C"},
	}

	results := ResolveImages(context.Background(), items, nil, srv.Client())
	if results[0].Outcome != ImageResolved {
		t.Errorf("item 0 outcome = %v, want ImageResolved", results[0].Outcome)
	}
	if results[1].Outcome != ImageFailed {
		t.Errorf("item 1 outcome = %v, want ImageFailed", results[1].Outcome)
	}
	if results[1].Err == nil {
		t.Error("failed result should carry its error")
	}
	if results[2].Outcome != ImageAbsent {
		t.Errorf("item 2 outcome = %v, want ImageAbsent", results[2].Outcome)
	}
}

func TestResolveImages_ResultsIndexedByPosition(t *testing.T) {
	// Many items resolved concurrently must land at their own index
	// regardless of completion order.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(pngBytes(t))
	}))
	defer srv.Close()

	var items []LineItem
	for i := 0; i < 12; i++ {
		items = append(items, LineItem{
			ProductCode: fmt.Sprintf("P%02d", i),
			ProductName: "Product",
			ImageURL:    fmt.Sprintf("%s/%d.png", srv.URL, i),
		})
	}

	results := ResolveImages(context.Background(), items, nil, srv.Client())
	if len(results) != len(items) {
		t.Fatalf("got %d results, want %d", len(results), len(items))
	}
	for i, res := range results {
		if res.Outcome != ImageResolved {
			t.Errorf("item %d outcome = %v, want ImageResolved", i, res.Outcome)
		}
	}
}

func TestResolveImages_TextualResponseRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Error page that still answers 200.
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte("<html><body>hotlinking forbidden</body></html>"))
	}))
	defer srv.Close()

	items := []LineItem{{ProductCode: "A", ProductName: "A", ImageURL: srv.URL}}

	results := ResolveImages(context.Background(), items, nil, srv.Client())
	if results[0].Outcome != ImageFailed {
		t.Errorf("outcome = %v, want ImageFailed for html body", results[0].Outcome)
	}
}

func TestResolveImages_UnreachableHost(t *testing.T) {
	items := []LineItem{{ProductCode: "A", ProductName: "A", ImageURL: "http://127.0.0.1:1/x.jpg"}}
	client := &http.Client{Timeout: 2 * time.Second}

	results := ResolveImages(context.Background(), items, nil, client)
	if results[0].Outcome != ImageFailed {
		t.Errorf("outcome = %v, want ImageFailed", results[0].Outcome)
	}
}

func TestDecodeImagePayload(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		wantErr bool
	}{
		{"data uri", "data:image/png;base64," + onePxPNG, false},
		{"bare base64", onePxPNG, false},
		{"malformed data uri", "data:image/png;base64", true},
		{"invalid base64", "!!!not-base64!!!", true},
		{"empty payload", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := decodeImagePayload(tt.payload)
			if (err != nil) != tt.wantErr {
				t.Errorf("decodeImagePayload(%q) err = %v, wantErr %v", tt.payload, err, tt.wantErr)
			}
		})
	}
}

func TestSniffImageExtension(t *testing.T) {
	jpegMagic := append([]byte{0xFF, 0xD8, 0xFF, 0xE0, 0x00, 0x10, 'J', 'F', 'I', 'F', 0x00}, make([]byte, 32)...)
	gifMagic := append([]byte("GIF89a"), make([]byte, 32)...)

	tests := []struct {
		name    string
		data    []byte
		want    string
		wantErr bool
	}{
		{"png", pngBytes(t), ".png", false},
		{"jpeg", jpegMagic, ".jpg", false},
		{"gif", gifMagic, ".gif", false},
		{"unknown binary defaults to jpeg", []byte{0x00, 0x01, 0x02, 0x03, 0xFF, 0xFE}, ".jpg", false},
		{"html rejected", []byte("<html><body>nope</body></html>"), "", true},
		{"json rejected", []byte(`{"error":"not found"}`), "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := sniffImageExtension(tt.data)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("extension = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestShrinkOversized_SmallImageUntouched(t *testing.T) {
	data := pngBytes(t)
	out := shrinkOversized(data, ".png")
	if len(out) != len(data) {
		t.Error("1×1 png should pass through unchanged")
	}
}

func TestShrinkOversized_UndecodableUntouched(t *testing.T) {
	data := []byte{0xFF, 0xD8, 0xFF, 0xE0, 0x01, 0x02} // jpeg magic, truncated body
	out := shrinkOversized(data, ".jpg")
	if len(out) != len(data) {
		t.Error("undecodable data should pass through unchanged")
	}
}
