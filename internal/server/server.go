package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/air-gapped/enml/internal/cache"
	"github.com/air-gapped/enml/internal/config"
	"github.com/air-gapped/enml/internal/fetch"
	"github.com/air-gapped/enml/internal/logging"
	"github.com/air-gapped/enml/internal/note"
)

// requestOverhead is the JSON allowance on top of the base64 payload.
const requestOverhead = 1 << 20

// Fetcher retrieves export sources named by URL.
type Fetcher interface {
	Fetch(ctx context.Context, rawURL string) (*fetch.Result, error)
}

// Server is the enml conversion API.
type Server struct {
	cfg     *config.Config
	version string
	fetcher Fetcher
	builder *note.Builder
	cache   *cache.Cache
	logger  *slog.Logger
	mux     *http.ServeMux
}

// New creates a server. A nil fetcher disables source_url fetching.
func New(cfg *config.Config, version string, fetcher Fetcher, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		cfg:     cfg,
		version: version,
		fetcher: fetcher,
		builder: note.NewBuilder(cfg.NoteTitle),
		cache:   cache.New(cfg.CacheTTL, cfg.CacheMaxSize),
		logger:  logger,
		mux:     http.NewServeMux(),
	}

	s.routes()
	return s
}

func (s *Server) routes() {
	s.mux.HandleFunc("GET /healthz", s.handleHealthz)
	s.mux.HandleFunc("POST /v1/notes", s.handleNote)
}

// Handler returns the server's HTTP handler with middleware applied.
func (s *Server) Handler() http.Handler {
	var h http.Handler = s.mux
	h = securityHeaders(h)
	h = logging.Middleware(s.logger, h)
	return h
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(200)
	w.Write([]byte("OK"))
}

type attachmentJSON struct {
	Filename string `json:"filename"`
	MimeType string `json:"mime_type,omitempty"`
	Data     []byte `json:"data"`
}

type noteRequest struct {
	Filename    string           `json:"filename"`
	Content     []byte           `json:"content"`
	SourceURL   string           `json:"source_url"`
	Title       string           `json:"title"`
	Tags        []string         `json:"tags"`
	Notebook    string           `json:"notebook"`
	Attachments []attachmentJSON `json:"attachments"`
}

type resourceJSON struct {
	Filename string `json:"filename"`
	MimeType string `json:"mime_type"`
	Hash     string `json:"hash"`
	Size     int    `json:"size"`
}

type noteResponse struct {
	Title     string         `json:"title"`
	Tags      []string       `json:"tags"`
	Notebook  string         `json:"notebook,omitempty"`
	Format    string         `json:"format"`
	Content   string         `json:"content"`
	Resources []resourceJSON `json:"resources"`
}

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func (s *Server) handleNote(w http.ResponseWriter, r *http.Request) {
	fields := logging.Fields(r.Context())
	log := logging.FromContext(r.Context())

	limit := s.cfg.MaxFileSize*4/3 + requestOverhead
	raw, err := io.ReadAll(http.MaxBytesReader(w, r.Body, limit))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			s.writeError(w, http.StatusRequestEntityTooLarge, "too-large",
				fmt.Sprintf("Request exceeds %d bytes", limit))
			return
		}
		s.writeError(w, http.StatusBadRequest, "bad-request", "Could not read request body")
		return
	}

	key := cache.Key([]byte(s.version), raw)
	if entry, status := s.cache.Get(key); status == cache.StatusHit {
		fields.Cache = string(status)
		fields.Format = entry.ContentType
		s.setResponseHeaders(w, status, entry.ContentType, 0, 0)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(200)
		w.Write(entry.Body)
		return
	}
	fields.Cache = string(cache.StatusMiss)

	var req noteRequest
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "bad-request", fmt.Sprintf("Invalid JSON: %v", err))
		return
	}

	var fetchMs int64
	if req.SourceURL != "" {
		fields.Source = redactURL(req.SourceURL)
	}
	if len(req.Content) == 0 {
		if req.SourceURL == "" {
			s.writeError(w, http.StatusBadRequest, "bad-request", "One of content or source_url is required")
			return
		}
		if s.fetcher == nil {
			s.writeError(w, http.StatusBadRequest, "bad-request", "Fetching source_url is disabled")
			return
		}
		result, err := s.fetcher.Fetch(r.Context(), req.SourceURL)
		if err != nil {
			log.Warn("fetch source failed", "source", redactURL(req.SourceURL), "error", err)
			s.writeFetchError(w, err)
			return
		}
		fetchMs = result.FetchMs
		req.Content = result.Body
		if req.Filename == "" {
			req.Filename = result.Filename
		}
	}

	if int64(len(req.Content)) > s.cfg.MaxFileSize {
		s.writeError(w, http.StatusRequestEntityTooLarge, "too-large",
			fmt.Sprintf("File too large (limit is %d bytes)", s.cfg.MaxFileSize))
		return
	}

	attachments := make([]note.Export, 0, len(req.Attachments))
	for _, a := range req.Attachments {
		attachments = append(attachments, note.Export{Filename: a.Filename, MimeType: a.MimeType, Data: a.Data})
	}

	opts := note.Options{Title: req.Title, Tags: req.Tags, Notebook: req.Notebook}
	if opts.Tags == nil {
		opts.Tags = note.ParseTags(s.cfg.NoteTags)
	}
	if opts.Notebook == "" {
		opts.Notebook = s.cfg.Notebook
	}

	transformStart := time.Now()
	n, err := s.builder.Build(note.Export{
		Filename:  req.Filename,
		Data:      req.Content,
		SourceURL: req.SourceURL,
	}, attachments, opts)
	transformMs := time.Since(transformStart).Milliseconds()
	if err != nil {
		if note.IsValidation(err) {
			s.writeError(w, http.StatusBadRequest, "invalid", err.Error())
			return
		}
		log.Error("build note failed", "filename", req.Filename, "error", err)
		s.writeError(w, http.StatusInternalServerError, "transform-error", "Failed to convert export")
		return
	}

	body, err := json.Marshal(toResponse(n))
	if err != nil {
		log.Error("encode note failed", "error", err)
		s.writeError(w, http.StatusInternalServerError, "transform-error", "Failed to encode note")
		return
	}

	format := string(n.Format)
	s.cache.Put(key, cache.Entry{Body: body, ContentType: format})

	fields.Format = format
	fields.Resources = len(n.Resources)
	fields.FetchMs = fetchMs
	fields.TransformMs = transformMs

	s.setResponseHeaders(w, cache.StatusMiss, format, transformMs, fetchMs)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(200)
	w.Write(body)
}

func toResponse(n *note.Note) noteResponse {
	resp := noteResponse{
		Title:     n.Title,
		Tags:      n.Tags,
		Notebook:  n.Notebook,
		Format:    string(n.Format),
		Content:   n.Content,
		Resources: make([]resourceJSON, 0, len(n.Resources)),
	}
	if resp.Tags == nil {
		resp.Tags = []string{}
	}
	for _, r := range n.Resources {
		resp.Resources = append(resp.Resources, resourceJSON{
			Filename: r.Filename,
			MimeType: r.MimeType,
			Hash:     r.Hash,
			Size:     len(r.Data),
		})
	}
	return resp
}

func (s *Server) writeFetchError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, fetch.ErrBlocked):
		s.writeError(w, http.StatusForbidden, "blocked", "Fetching from this source is not allowed")
	case errors.Is(err, fetch.ErrTooLarge):
		s.writeError(w, http.StatusRequestEntityTooLarge, "too-large",
			fmt.Sprintf("File too large (limit is %d bytes)", s.cfg.MaxFileSize))
	case isTimeout(err):
		s.writeError(w, http.StatusGatewayTimeout, "timeout",
			fmt.Sprintf("Source request timed out after %s", s.cfg.FetchTimeout))
	case errors.Is(err, fetch.ErrUpstreamStatus):
		s.writeError(w, http.StatusBadGateway, "upstream-error", err.Error())
	default:
		s.writeError(w, http.StatusBadGateway, "unreachable", "Could not fetch source")
	}
}

func (s *Server) writeError(w http.ResponseWriter, statusCode int, errType, message string) {
	body, _ := json.Marshal(errorResponse{Error: errType, Message: message})
	w.Header().Set("X-Enml-Version", s.version)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	w.Write(body)
}

func (s *Server) setResponseHeaders(w http.ResponseWriter, cacheStatus cache.Status, format string, transformMs, fetchMs int64) {
	w.Header().Set("X-Enml-Version", s.version)
	w.Header().Set("X-Enml-Cache", string(cacheStatus))
	w.Header().Set("X-Enml-Format", format)
	w.Header().Set("X-Enml-Transform-Ms", strconv.FormatInt(transformMs, 10))
	w.Header().Set("X-Enml-Fetch-Ms", strconv.FormatInt(fetchMs, 10))
}

func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("Referrer-Policy", "no-referrer")
		w.Header().Set("Cache-Control", "no-store")
		next.ServeHTTP(w, r)
	})
}

// redactURL strips query, fragment, and userinfo from a source URL
// to avoid leaking tokens or credentials in logs.
func redactURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	u.User = nil
	u.RawQuery = ""
	u.Fragment = ""
	return u.String()
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
