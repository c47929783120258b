package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"os"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/ssargent/canvaslog/pkg/canvas"
	"github.com/ssargent/canvaslog/pkg/codec"
	"github.com/ssargent/canvaslog/pkg/identity"
	"github.com/ssargent/canvaslog/pkg/logging"
	"github.com/ssargent/canvaslog/pkg/metrics"
	"github.com/ssargent/canvaslog/pkg/store"
)

// Server holds the API server state
type Server struct {
	log        LogAppender
	identities IdentityTable
	config     ServerConfig
	metrics    *metrics.Metrics
	logger     *zap.Logger
}

// NewServer creates a new API server. log and identities may be nil, in
// which case the routes that need them answer 503.
func NewServer(log LogAppender, identities IdentityTable, config ServerConfig, metrics *metrics.Metrics, logger *zap.Logger) *Server {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Server{
		log:        log,
		identities: identities,
		config:     config,
		metrics:    metrics,
		logger:     logger,
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	sendSuccess(w, map[string]interface{}{
		"status":   "healthy",
		"version":  codec.Version,
		"writable": s.log != nil && s.config.APIKey != "",
	})
}

// handleListRecords serves a page of the log starting at the frame offset
// given by ?offset= (default: first frame), at most ?limit= entries.
func (s *Server) handleListRecords(w http.ResponseWriter, r *http.Request) {
	offset, limit, err := pageParams(r)
	if err != nil {
		sendError(w, err.Error(), http.StatusBadRequest)
		return
	}

	reader, err := store.NewLogReader(store.LogReaderConfig{
		FilePath:       s.config.LogPath,
		StartOffset:    offset,
		MaxPayloadSize: s.config.MaxPayloadSize,
		Metrics:        s.metrics,
	})
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			sendSuccess(w, RecordsPage{Records: []RecordView{}, End: true})
			return
		}
		s.logger.Error("failed to open log", zap.String("path", s.config.LogPath), zap.Error(err))
		sendError(w, "Failed to open log", http.StatusInternalServerError)
		return
	}
	defer reader.Close()

	page := RecordsPage{Records: make([]RecordView, 0, min(limit, defaultPageSize))}
	for len(page.Records) < limit {
		entry, err := reader.ReadNext()
		if errors.Is(err, io.EOF) {
			page.End = true
			break
		}
		if errors.Is(err, store.ErrCorruption) {
			s.logger.Warn("corrupt frame in log", zap.Int64("offset", reader.Offset()), zap.Error(err))
			page.Corrupt = true
			page.End = true
			break
		}
		var codecErr *codec.Error
		if err != nil && !errors.As(err, &codecErr) {
			s.logger.Error("failed to read log", zap.Error(err))
			sendError(w, "Failed to read log", http.StatusInternalServerError)
			return
		}
		page.Records = append(page.Records, NewRecordView(entry, err))
	}
	page.NextOffset = reader.Offset()

	sendSuccess(w, page)
}

func pageParams(r *http.Request) (offset int64, limit int, err error) {
	limit = defaultPageSize
	if v := r.URL.Query().Get("offset"); v != "" {
		offset, err = strconv.ParseInt(v, 10, 64)
		if err != nil || offset < 0 {
			return 0, 0, errors.New("Invalid offset")
		}
	}
	if v := r.URL.Query().Get("limit"); v != "" {
		limit, err = strconv.Atoi(v)
		if err != nil || limit < 1 || limit > maxPageSize {
			return 0, 0, errors.New("Invalid limit")
		}
	}
	return offset, limit, nil
}

func (s *Server) handleAppendPlacement(w http.ResponseWriter, r *http.Request) {
	if s.log == nil {
		sendError(w, "Log is read-only", http.StatusServiceUnavailable)
		return
	}

	var req PlacementRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		sendError(w, "Invalid JSON in request body", http.StatusBadRequest)
		return
	}

	rec, err := req.Record()
	if err != nil {
		sendError(w, err.Error(), http.StatusBadRequest)
		return
	}

	offset, ok := s.appendRecord(w, rec)
	if !ok {
		return
	}
	sendSuccess(w, RecordView{
		Offset: offset,
		Type:   rec.Tag().String(),
		Tag:    uint16(rec.Tag()),
		Size:   uint32(codec.NewRecordCodec().EncodedLen(rec)),
		Silent: canvas.IsSilent(rec),
		Record: rec,
	})
}

func (s *Server) handleRegisterIdentity(w http.ResponseWriter, r *http.Request) {
	if s.log == nil || s.identities == nil {
		sendError(w, "Identity registration unavailable", http.StatusServiceUnavailable)
		return
	}

	var req IdentityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		sendError(w, "Invalid JSON in request body", http.StatusBadRequest)
		return
	}

	id, err := req.Identifier()
	if err != nil {
		sendError(w, err.Error(), http.StatusBadRequest)
		return
	}

	offset, ok := s.appendRecord(w, id)
	if !ok {
		return
	}

	index, err := s.identities.Register(id, req.Unique)
	if err != nil {
		s.logger.Error("failed to register identity", append(logging.Record(id), zap.Error(err))...)
		sendError(w, "Failed to register identity", http.StatusInternalServerError)
		return
	}

	view := NewIdentityView(index, id)
	view.Offset = &offset
	sendSuccess(w, view)
}

func (s *Server) handleGetIdentity(w http.ResponseWriter, r *http.Request) {
	if s.identities == nil {
		sendError(w, "Identity table unavailable", http.StatusServiceUnavailable)
		return
	}

	raw, err := strconv.ParseUint(chi.URLParam(r, "index"), 10, 32)
	if err != nil {
		sendError(w, "Invalid index", http.StatusBadRequest)
		return
	}
	unique, _ := strconv.ParseBool(r.URL.Query().Get("unique"))

	index, err := canvas.NewMetaIDIndex(uint32(raw), unique)
	if err != nil {
		sendError(w, err.Error(), http.StatusBadRequest)
		return
	}

	id, err := s.identities.Lookup(index)
	if err != nil {
		if errors.Is(err, identity.ErrUnknownIndex) || errors.Is(err, identity.ErrNoIdentifier) {
			sendError(w, "Identity not found", http.StatusNotFound)
			return
		}
		s.logger.Error("failed to look up identity", zap.Stringer("index", index), zap.Error(err))
		sendError(w, "Failed to look up identity", http.StatusInternalServerError)
		return
	}

	sendSuccess(w, NewIdentityView(index, id))
}

// appendRecord appends rec and reports failures to the client.
func (s *Server) appendRecord(w http.ResponseWriter, rec canvas.Record) (int64, bool) {
	offset, err := s.log.Append(rec)
	if err == nil {
		return offset, true
	}

	var codecErr *codec.Error
	if errors.As(err, &codecErr) || errors.Is(err, store.ErrPayloadTooLarge) {
		sendError(w, err.Error(), http.StatusBadRequest)
		return 0, false
	}

	s.logger.Error("failed to append record", append(logging.Record(rec), zap.Error(err))...)
	sendError(w, "Failed to append record", http.StatusInternalServerError)
	return 0, false
}
