package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"carbonprice-service/internal/application"
	"carbonprice-service/internal/domain"
)

// HistorySeries serves the daily charting series; the production
// implementation lives in infrastructure/histgen.
type HistorySeries interface {
	EUAHistory(start, end time.Time) ([]domain.PricePoint, error)
	CEAHistory(start, end time.Time, eua []domain.PricePoint) ([]domain.PricePoint, error)
}

type Server struct {
	svc        *application.PriceService
	series     HistorySeries
	adminToken string
	ping       func(ctx context.Context) error
}

func NewServer(svc *application.PriceService, series HistorySeries, adminToken string) *Server {
	return &Server{svc: svc, series: series, adminToken: adminToken}
}

// SetReadyCheck wires the readiness probe, typically a DB ping.
func (s *Server) SetReadyCheck(fn func(ctx context.Context) error) { s.ping = fn }

type quoteResponse struct {
	Price     float64  `json:"price"`
	Timestamp string   `json:"timestamp"`
	Currency  string   `json:"currency"`
	Change24h *float64 `json:"change24h"`
	Source    string   `json:"source"`
}

func toQuoteResponse(q domain.Quote) quoteResponse {
	return quoteResponse{
		Price:     q.Price,
		Timestamp: q.Timestamp.UTC().Format(time.RFC3339),
		Currency:  q.Currency,
		Change24h: q.Change24h,
		Source:    q.Source,
	}
}

func (s *Server) GetEUAPrice(w http.ResponseWriter, r *http.Request) {
	q, err := s.svc.GetEUAPrice(r.Context())
	if err != nil {
		s.writeQuoteError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toQuoteResponse(q))
}

func (s *Server) RefreshEUAPrice(w http.ResponseWriter, r *http.Request) {
	q, err := s.svc.RefreshEUAPrice(r.Context())
	if err != nil {
		s.writeQuoteError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toQuoteResponse(q))
}

func (s *Server) GetCEAPrice(w http.ResponseWriter, r *http.Request) {
	q, err := s.svc.GetCEAPrice(r.Context())
	if err != nil {
		s.writeQuoteError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toQuoteResponse(q))
}

func (s *Server) writeQuoteError(w http.ResponseWriter, err error) {
	if errors.Is(err, application.ErrNoQuote) {
		writeError(w, http.StatusServiceUnavailable, "PRICE_UNAVAILABLE", "Unable to fetch price data")
		return
	}
	writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "internal error")
}

type historyRecordResponse struct {
	ID         int64    `json:"id"`
	Price      float64  `json:"price"`
	Currency   string   `json:"currency"`
	Source     string   `json:"source"`
	Timestamp  string   `json:"timestamp"`
	Change24h  *float64 `json:"change24h"`
	InsertedAt string   `json:"inserted_at"`
}

// GetPriceHistory serves the durable per-fetch history from Postgres.
func (s *Server) GetPriceHistory(w http.ResponseWriter, r *http.Request) {
	start, end, ok := parseRange(w, r)
	if !ok {
		return
	}
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "INVALID_LIMIT", "limit must be a positive integer")
			return
		}
		limit = n
	}

	recs, q, err := s.svc.GetPriceHistory(r.Context(), application.HistoryQuery{
		Start:  start,
		End:    end,
		Source: r.URL.Query().Get("source"),
		Limit:  limit,
	})
	if err != nil {
		s.writeRangeError(w, err)
		return
	}

	data := make([]historyRecordResponse, 0, len(recs))
	for _, rec := range recs {
		data = append(data, historyRecordResponse{
			ID:         rec.ID,
			Price:      rec.Price,
			Currency:   rec.Currency,
			Source:     rec.Source,
			Timestamp:  rec.Timestamp.UTC().Format(time.RFC3339),
			Change24h:  rec.Change24h,
			InsertedAt: rec.InsertedAt.UTC().Format(time.RFC3339),
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"data":       data,
		"start_date": q.Start.UTC().Format(time.RFC3339),
		"end_date":   q.End.UTC().Format(time.RFC3339),
		"count":      len(data),
	})
}

// GetEUAHistory serves the generated daily EUA series.
func (s *Server) GetEUAHistory(w http.ResponseWriter, r *http.Request) {
	start, end, ok := s.normalizedRange(w, r)
	if !ok {
		return
	}
	points, err := s.series.EUAHistory(start, end)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "HISTORY_ERROR", "Failed to fetch historical data")
		return
	}
	writeSeries(w, start, end, map[string]any{"data": points, "count": len(points)})
}

// GetCEAHistory serves the derived daily CEA series.
func (s *Server) GetCEAHistory(w http.ResponseWriter, r *http.Request) {
	start, end, ok := s.normalizedRange(w, r)
	if !ok {
		return
	}
	eua, err := s.series.EUAHistory(start, end)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "HISTORY_ERROR", "Failed to fetch historical data")
		return
	}
	points, err := s.series.CEAHistory(start, end, eua)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "HISTORY_ERROR", "Failed to fetch historical data")
		return
	}
	writeSeries(w, start, end, map[string]any{"data": points, "count": len(points)})
}

// GetCombinedHistory serves both series in one response.
func (s *Server) GetCombinedHistory(w http.ResponseWriter, r *http.Request) {
	start, end, ok := s.normalizedRange(w, r)
	if !ok {
		return
	}
	eua, err := s.series.EUAHistory(start, end)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "HISTORY_ERROR", "Failed to fetch historical data")
		return
	}
	cea, err := s.series.CEAHistory(start, end, eua)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "HISTORY_ERROR", "Failed to fetch historical data")
		return
	}
	writeSeries(w, start, end, map[string]any{
		"eua":   eua,
		"cea":   cea,
		"count": len(eua),
	})
}

func (s *Server) GetPriceUpdateStatus(w http.ResponseWriter, _ *http.Request) {
	st := s.svc.Status()
	updates := make(map[string]string, len(st.LastUpdates))
	for src, at := range st.LastUpdates {
		updates[src] = at.UTC().Format(time.RFC3339)
	}
	quotes := make(map[string]quoteResponse, len(st.LastQuotes))
	for inst, q := range st.LastQuotes {
		quotes[string(inst)] = toQuoteResponse(q)
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"pollingInterval": st.PollingInterval.Milliseconds(),
		"cacheDuration":   int(st.CacheDuration.Seconds()),
		"lastUpdates":     updates,
		"lastQuotes":      quotes,
		"status":          "running",
	})
}

func (s *Server) GetConfig(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"cacheDuration":   int(s.svc.CacheDuration().Seconds()),
		"pollingInterval": s.svc.UpdateInterval().Milliseconds(),
	})
}

func (s *Server) UpdateConfig(w http.ResponseWriter, r *http.Request) {
	var body struct {
		CacheDuration *int `json:"cacheDuration"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_BODY", "invalid JSON body")
		return
	}
	if body.CacheDuration != nil {
		d := time.Duration(*body.CacheDuration) * time.Second
		if err := s.svc.SetCacheDuration(d); err != nil {
			writeError(w, http.StatusBadRequest, "INVALID_CACHE_DURATION", "Cache duration must be between 60 and 600 seconds")
			return
		}
	}
	s.GetConfig(w, r)
}

// normalizedRange parses and validates the query range for the series
// endpoints, applying the default 5-year window.
func (s *Server) normalizedRange(w http.ResponseWriter, r *http.Request) (time.Time, time.Time, bool) {
	start, end, ok := parseRange(w, r)
	if !ok {
		return time.Time{}, time.Time{}, false
	}
	start, end, err := application.NormalizeRange(start, end, time.Now().UTC())
	if err != nil {
		s.writeRangeError(w, err)
		return time.Time{}, time.Time{}, false
	}
	return start, end, true
}

func (s *Server) writeRangeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, application.ErrInvalidRange):
		writeError(w, http.StatusBadRequest, "INVALID_DATE_RANGE", "start_date must be before end_date")
	case errors.Is(err, application.ErrRangeTooLarge):
		writeError(w, http.StatusBadRequest, "DATE_RANGE_TOO_LARGE", "Maximum date range is 10 years")
	case errors.Is(err, application.ErrNotFound):
		writeError(w, http.StatusServiceUnavailable, "HISTORY_UNAVAILABLE", "history store not configured")
	default:
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "internal error")
	}
}

// parseRange reads start_date/end_date accepting plain ISO dates or full
// RFC3339 timestamps. Zero times mean "not supplied".
func parseRange(w http.ResponseWriter, r *http.Request) (time.Time, time.Time, bool) {
	start, err := parseDateParam(r.URL.Query().Get("start_date"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_DATE_FORMAT", "Dates must be in YYYY-MM-DD format")
		return time.Time{}, time.Time{}, false
	}
	end, err := parseDateParam(r.URL.Query().Get("end_date"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_DATE_FORMAT", "Dates must be in YYYY-MM-DD format")
		return time.Time{}, time.Time{}, false
	}
	return start, end, true
}

func parseDateParam(raw string) (time.Time, error) {
	if raw == "" {
		return time.Time{}, nil
	}
	for _, layout := range []string{"2006-01-02", time.RFC3339} {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, errors.New("invalid date")
}

func writeSeries(w http.ResponseWriter, start, end time.Time, payload map[string]any) {
	payload["start_date"] = start.UTC().Format(time.RFC3339)
	payload["end_date"] = end.UTC().Format(time.RFC3339)
	writeJSON(w, http.StatusOK, payload)
}

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	writeJSON(w, status, errorResponse{Error: code, Message: msg})
}
