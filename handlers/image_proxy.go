package handlers

import (
	"encoding/base64"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"
)

const (
	proxyFetchTimeout = 30 * time.Second
	proxyMaxBytes     = 20 << 20
)

// proxyResponse is the JSON body returned by the image proxy endpoint.
type proxyResponse struct {
	Success     bool   `json:"success"`
	Data        string `json:"data,omitempty"` // data URI
	ContentType string `json:"contentType,omitempty"`
	Error       string `json:"error,omitempty"`
}

// HandleImageProxy returns a handler that fetches a remote image server-side
// and returns it as a base64 data URI. Product photos frequently sit on hosts
// that refuse cross-origin browser requests; routing the fetch through the
// server sidesteps that.
func HandleImageProxy(app *pocketbase.PocketBase) func(*core.RequestEvent) error {
	client := &http.Client{Timeout: proxyFetchTimeout}

	return func(e *core.RequestEvent) error {
		raw := e.Request.URL.Query().Get("url")
		if raw == "" {
			return e.JSON(http.StatusBadRequest, proxyResponse{Error: "missing url parameter"})
		}

		target, err := url.Parse(raw)
		if err != nil || (target.Scheme != "http" && target.Scheme != "https") {
			return e.JSON(http.StatusBadRequest, proxyResponse{Error: "invalid url"})
		}

		req, err := http.NewRequestWithContext(e.Request.Context(), http.MethodGet, target.String(), nil)
		if err != nil {
			return e.JSON(http.StatusBadRequest, proxyResponse{Error: "invalid url"})
		}
		req.Header.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36")

		resp, err := client.Do(req)
		if err != nil {
			log.Printf("image_proxy: fetch %s: %v", target, err)
			return e.JSON(http.StatusBadGateway, proxyResponse{Error: "fetch failed"})
		}
		defer resp.Body.Close()

		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			return e.JSON(http.StatusBadGateway, proxyResponse{Error: fmt.Sprintf("upstream returned %d", resp.StatusCode)})
		}

		data, err := io.ReadAll(io.LimitReader(resp.Body, proxyMaxBytes))
		if err != nil {
			log.Printf("image_proxy: read body: %v", err)
			return e.JSON(http.StatusBadGateway, proxyResponse{Error: "read failed"})
		}
		if len(data) == 0 {
			return e.JSON(http.StatusBadGateway, proxyResponse{Error: "empty response"})
		}

		mime := mimetype.Detect(data)
		if !isImageMIME(mime.String()) {
			return e.JSON(http.StatusBadGateway, proxyResponse{Error: "response is not an image"})
		}

		return e.JSON(http.StatusOK, proxyResponse{
			Success:     true,
			ContentType: mime.String(),
			Data:        "data:" + mime.String() + ";base64," + base64.StdEncoding.EncodeToString(data),
		})
	}
}

func isImageMIME(m string) bool {
	switch m {
	case "image/png", "image/jpeg", "image/gif", "image/webp", "image/bmp":
		return true
	}
	return false
}
