package router

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/bnema/previewgate/internal/domain"
	"github.com/bnema/previewgate/internal/logging"
	"github.com/bnema/previewgate/internal/usecase/security"
)

// headerBuilder assembles the header set of one enriched response. The
// backend's headers are cloned once; nothing else holds a reference to the
// result until build returns it.
type headerBuilder struct {
	h http.Header
}

func newHeaderBuilder(src http.Header) *headerBuilder {
	h := src.Clone()
	if h == nil {
		h = http.Header{}
	}
	domain.StripHopByHop(h)
	return &headerBuilder{h: h}
}

func (b *headerBuilder) previewTag(tag domain.PreviewType) *headerBuilder {
	b.h.Set(domain.HeaderPreviewType, string(tag))
	return b
}

func (b *headerBuilder) cors(origin string, policy domain.OriginPolicy) *headerBuilder {
	value, ok := security.CORSDecision(origin, policy)
	if !ok {
		return b
	}
	b.h.Set("Access-Control-Allow-Origin", value)
	if !headerHasToken(b.h, "Vary", "Origin") {
		b.h.Add("Vary", "Origin")
	}
	return b
}

func (b *headerBuilder) expose(name string) *headerBuilder {
	if !headerHasToken(b.h, "Access-Control-Expose-Headers", name) {
		b.h.Add("Access-Control-Expose-Headers", name)
	}
	return b
}

func (b *headerBuilder) build() http.Header {
	return b.h
}

// headerHasToken reports whether a comma-separated header already lists token.
func headerHasToken(h http.Header, key, token string) bool {
	for _, v := range h.Values(key) {
		for _, part := range strings.Split(v, ",") {
			if strings.EqualFold(strings.TrimSpace(part), token) {
				return true
			}
		}
	}
	return false
}

// EnrichedResponse is a backend response ready to be written to the client.
type EnrichedResponse struct {
	Status int
	Header http.Header
	Body   io.ReadCloser
}

// ResponseEnricher tags subdomain responses with the tier that served them
// and applies the CORS decision. Status and body are passed through.
type ResponseEnricher struct {
	policy domain.OriginPolicy
}

// Enrich builds the response for resp served by the tier named by tag.
func (e ResponseEnricher) Enrich(r *http.Request, resp *http.Response, tag domain.PreviewType) EnrichedResponse {
	header := newHeaderBuilder(resp.Header).
		previewTag(tag).
		cors(r.Header.Get("Origin"), e.policy).
		expose(domain.HeaderPreviewType).
		build()

	body := resp.Body
	if body == nil {
		body = http.NoBody
	}
	return EnrichedResponse{Status: resp.StatusCode, Header: header, Body: body}
}

// Write copies the enriched response to w and closes its body. Event
// streams are flushed as they arrive so dev-server live reload keeps working.
func (e ResponseEnricher) Write(ctx context.Context, w http.ResponseWriter, resp EnrichedResponse) {
	defer resp.Body.Close()

	dst := w.Header()
	for k, v := range resp.Header {
		dst[k] = v
	}
	w.WriteHeader(resp.Status)

	var err error
	if strings.HasPrefix(resp.Header.Get("Content-Type"), "text/event-stream") {
		err = copyFlushing(w, resp.Body)
	} else {
		_, err = io.Copy(w, resp.Body)
	}
	if err != nil && !errors.Is(err, io.EOF) {
		// Headers are gone; the client sees a truncated body.
		logging.FromCtx(ctx).Debug().Err(err).Msg("response body copy interrupted")
	}
}

func copyFlushing(w http.ResponseWriter, src io.Reader) error {
	rc := http.NewResponseController(w)
	buf := make([]byte, 32*1024)
	for {
		n, err := src.Read(buf)
		if n > 0 {
			if _, werr := w.Write(buf[:n]); werr != nil {
				return werr
			}
			_ = rc.Flush()
		}
		if err != nil {
			return err
		}
	}
}
