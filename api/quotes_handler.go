package api

import (
	"encoding/json"
	"errors"
	"io"
	"mime"
	"net/http"
	"net/url"
	"regexp"
	"strings"

	"github.com/seenimoa/optionocean/internal/engine"
	"github.com/seenimoa/optionocean/internal/quotes"
)

// LoadURLRequest is the body for POST /api/v1/quotes/url.
type LoadURLRequest struct {
	URL string `json:"url"`
}

func (s *Server) uploadLimit() int64 {
	if s.cfg.Data.MaxUploadMB <= 0 {
		return quotes.DefaultMaxBytes
	}
	return int64(s.cfg.Data.MaxUploadMB) << 20
}

// handleUploadQuotes loads a quote document sent either as the raw request
// body or as the multipart field "file".
func (s *Server) handleUploadQuotes(w http.ResponseWriter, r *http.Request) {
	limit := s.uploadLimit()
	// multipart framing needs a little room beyond the document itself
	r.Body = http.MaxBytesReader(w, r.Body, limit+64<<10)

	var (
		name        = r.URL.Query().Get("name")
		body        io.Reader
		contentType = r.Header.Get("Content-Type")
	)

	mediaType, _, _ := mime.ParseMediaType(contentType)
	if mediaType == "multipart/form-data" {
		f, hdr, err := r.FormFile("file")
		if err != nil {
			writeUploadError(w, err)
			return
		}
		defer f.Close()
		if name == "" {
			name = hdr.Filename
		}
		body, contentType = f, hdr.Header.Get("Content-Type")
	} else {
		body = r.Body
	}
	if name == "" {
		name = "upload"
	}

	res, err := s.engine.LoadReader(r.Context(), name, body, contentType)
	if err != nil {
		writeUploadError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: res})
}

func (s *Server) handleLoadURL(w http.ResponseWriter, r *http.Request) {
	var req LoadURLRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	u, err := url.Parse(strings.TrimSpace(req.URL))
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		writeError(w, http.StatusBadRequest, "url must be an absolute http(s) URL")
		return
	}

	res, err := s.engine.LoadURL(r.Context(), u.String())
	if err != nil {
		writeRemoteError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: res})
}

// LoadSymbolRequest is the body for POST /api/v1/quotes/symbol.
type LoadSymbolRequest struct {
	Symbol string `json:"symbol"`
}

// handleLoadSymbol loads the delayed CBOE option chain for a ticker.
func (s *Server) handleLoadSymbol(w http.ResponseWriter, r *http.Request) {
	var req LoadSymbolRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	sym := strings.ToUpper(strings.TrimSpace(req.Symbol))
	if !symbolRE.MatchString(sym) {
		writeError(w, http.StatusBadRequest, "symbol must be 1-6 letters")
		return
	}

	res, err := s.engine.LoadSymbol(r.Context(), sym)
	if err != nil {
		writeRemoteError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: res})
}

var symbolRE = regexp.MustCompile(`^\^?[A-Z]{1,6}$`)

func writeRemoteError(w http.ResponseWriter, err error) {
	var httpErr *quotes.ErrHTTP
	switch {
	case errors.As(err, &httpErr):
		writeError(w, http.StatusBadGateway, err.Error())
	case errors.Is(err, quotes.ErrTooLarge):
		writeError(w, http.StatusRequestEntityTooLarge, err.Error())
	case errors.Is(err, engine.ErrClosed):
		writeError(w, http.StatusServiceUnavailable, err.Error())
	default:
		writeError(w, http.StatusBadGateway, err.Error())
	}
}

func writeUploadError(w http.ResponseWriter, err error) {
	var maxErr *http.MaxBytesError
	switch {
	case errors.As(err, &maxErr), errors.Is(err, quotes.ErrTooLarge):
		writeError(w, http.StatusRequestEntityTooLarge, "quote document too large")
	case errors.Is(err, engine.ErrClosed):
		writeError(w, http.StatusServiceUnavailable, err.Error())
	default:
		writeError(w, http.StatusBadRequest, err.Error())
	}
}
