package services

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/disintegration/imaging"
	"github.com/gabriel-vasile/mimetype"
	"golang.org/x/sync/errgroup"
)

const (
	// imageFetchTimeout bounds a single direct image fetch so one dead host
	// cannot stall the whole export.
	imageFetchTimeout = 30 * time.Second

	// maxImageBytes caps a fetched image body.
	maxImageBytes = 20 << 20

	// maxImageEdge is the largest pixel edge embedded as-is; bigger photos
	// are downscaled to keep the workbook small.
	maxImageEdge = 480

	// maxConcurrentFetches bounds in-flight image resolutions.
	maxConcurrentFetches = 4
)

// ImageOutcome classifies the terminal state of one item's image resolution.
type ImageOutcome int

const (
	ImageAbsent   ImageOutcome = iota // no image reference on the item
	ImageResolved                     // image data ready for embedding
	ImageFailed                       // resolution attempted and failed; cell stays empty
)

// ImageResult is the per-item resolution outcome, indexed by item position.
// A failed resolution is final: the export continues with an empty image cell.
type ImageResult struct {
	Outcome   ImageOutcome
	Data      []byte
	Extension string // ".png", ".jpg" or ".gif"
	Err       error  // set only when Outcome is ImageFailed
}

// ResolveImages resolves every item's image reference before layout begins.
// Items are processed concurrently with a bounded worker count; the result
// slice is indexed by item position so completion order never affects row
// order. Individual failures are recorded, never propagated.
func ResolveImages(ctx context.Context, items []LineItem, resolve ImageResolverFunc, client *http.Client) []ImageResult {
	if client == nil {
		client = &http.Client{Timeout: imageFetchTimeout}
	}

	results := make([]ImageResult, len(items))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentFetches)

	for i, item := range items {
		if item.ImageURL == "" {
			results[i] = ImageResult{Outcome: ImageAbsent}
			continue
		}

		g.Go(func() error {
			results[i] = resolveOne(ctx, item.ImageURL, resolve, client)
			return nil
		})
	}
	// Workers never return an error; failures are recorded in results.
	_ = g.Wait()

	return results
}

// resolveOne runs the per-item resolution chain: delegated resolver first,
// then a direct fetch fallback, then sniffing and sizing of whatever came back.
func resolveOne(ctx context.Context, url string, resolve ImageResolverFunc, client *http.Client) ImageResult {
	var data []byte

	if resolve != nil {
		payload, err := resolve(url)
		if err == nil && payload != "" {
			decoded, decErr := decodeImagePayload(payload)
			if decErr == nil {
				data = decoded
			}
		}
		// A failed or empty resolver answer falls through to the direct fetch.
	}

	if data == nil {
		fetched, err := fetchImage(ctx, client, url)
		if err != nil {
			return ImageResult{Outcome: ImageFailed, Err: err}
		}
		data = fetched
	}

	ext, err := sniffImageExtension(data)
	if err != nil {
		return ImageResult{Outcome: ImageFailed, Err: err}
	}

	return ImageResult{
		Outcome:   ImageResolved,
		Data:      shrinkOversized(data, ext),
		Extension: ext,
	}
}

// decodeImagePayload accepts either a data-URI string or a bare base64 payload.
func decodeImagePayload(payload string) ([]byte, error) {
	if strings.HasPrefix(payload, "data:") {
		_, after, found := strings.Cut(payload, ",")
		if !found {
			return nil, fmt.Errorf("image: malformed data URI")
		}
		payload = after
	}
	data, err := base64.StdEncoding.DecodeString(strings.TrimSpace(payload))
	if err != nil {
		return nil, fmt.Errorf("image: decode base64: %w", err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("image: empty payload")
	}
	return data, nil
}

// fetchImage performs the direct cross-origin fetch fallback.
func fetchImage(ctx context.Context, client *http.Client, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("image: build request: %w", err)
	}
	// Some image hosts reject requests without a browser user agent.
	req.Header.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36")

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("image: fetch %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("image: fetch %s: status %d", url, resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxImageBytes))
	if err != nil {
		return nil, fmt.Errorf("image: read body: %w", err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("image: empty response body")
	}
	return data, nil
}

// sniffImageExtension determines the embedding format from the binary data.
// The spreadsheet writer needs the format declared explicitly, so unknown but
// plausibly-binary data defaults to JPEG; textual responses (usually an error
// page that came back with status 200) are rejected.
func sniffImageExtension(data []byte) (string, error) {
	mt := mimetype.Detect(data)
	switch {
	case mt.Is("image/png"):
		return ".png", nil
	case mt.Is("image/jpeg"):
		return ".jpg", nil
	case mt.Is("image/gif"):
		return ".gif", nil
	case strings.HasPrefix(mt.String(), "text/"),
		mt.Is("application/json"),
		mt.Is("application/xml"):
		return "", fmt.Errorf("image: response is %s, not an image", mt.String())
	default:
		return ".jpg", nil
	}
}

// shrinkOversized downscales large PNG/JPEG photos to fit within maxImageEdge.
// Anything that cannot be decoded is embedded untouched; GIFs are left alone
// to preserve animation frames.
func shrinkOversized(data []byte, ext string) []byte {
	var format imaging.Format
	switch ext {
	case ".png":
		format = imaging.PNG
	case ".jpg":
		format = imaging.JPEG
	default:
		return data
	}

	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return data
	}
	bounds := img.Bounds()
	if bounds.Dx() <= maxImageEdge && bounds.Dy() <= maxImageEdge {
		return data
	}

	fitted := imaging.Fit(img, maxImageEdge, maxImageEdge, imaging.Lanczos)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, fitted, format); err != nil {
		return data
	}
	return buf.Bytes()
}
