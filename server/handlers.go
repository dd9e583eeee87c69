package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/sig-0/remitrates/analysis"
	"github.com/sig-0/remitrates/engine"
	"github.com/sig-0/remitrates/storage"
	"github.com/sig-0/remitrates/storage/types"
)

const (
	defaultLimit = 100
	maxLimit     = 500

	maxQuoteBody = 1 << 16
)

var defaultCardAmount = decimal.NewFromInt(500)

var (
	errUnableToSaveQuote         = errors.New("unable to save quote")
	errUnableToFetchQuotes       = errors.New("unable to fetch quotes")
	errUnableToFetchProviders    = errors.New("unable to fetch providers")
	errUnableToFetchDestinations = errors.New("unable to fetch destinations")

	errInvalidBody        = errors.New("invalid quote body")
	errInvalidLimit       = errors.New("invalid limit")
	errInvalidAmount      = errors.New("invalid amount")
	errInvalidOrigin      = errors.New("invalid origin (must be a 2-letter country code)")
	errInvalidDestination = errors.New("invalid destination (must be a 2-letter country code)")
)

func (s *Server) SaveQuote(w http.ResponseWriter, r *http.Request) {
	var quote types.Quote

	body := http.MaxBytesReader(w, r.Body, maxQuoteBody)

	if err := json.NewDecoder(body).Decode(&quote); err != nil {
		writeError(w, http.StatusBadRequest, errInvalidBody, stageValidation)

		return
	}

	// Quotes pushed without a timestamp are observed now
	if quote.Timestamp.IsZero() {
		quote.Timestamp = time.Now().UTC()
	}

	id, err := s.storage.SaveQuote(r.Context(), &quote)
	if err != nil {
		var validationErr *types.ValidationError
		if errors.As(err, &validationErr) {
			writeError(w, http.StatusBadRequest, validationErr, stageValidation)

			return
		}

		s.logger.Debug(
			"unable to save quote",
			"err", err,
		)

		writeError(
			w,
			http.StatusInternalServerError,
			errUnableToSaveQuote,
			stageStorage,
		)

		return
	}

	writeJSON(w, http.StatusCreated, &SaveQuoteResponse{ID: id})
}

func (s *Server) Quotes(w http.ResponseWriter, r *http.Request) {
	var (
		providerParam    = r.URL.Query().Get("provider")
		originParam      = r.URL.Query().Get("origin")
		destinationParam = r.URL.Query().Get("destination")
		amountParam      = r.URL.Query().Get("amount")
		limitParam       = r.URL.Query().Get("limit")
	)

	// Parse the pagination settings
	limit, err := parseLimit(limitParam)
	if err != nil {
		writeError(w, http.StatusBadRequest, err, stageValidation)

		return
	}

	amount, err := parseAmount(amountParam, decimal.Zero)
	if err != nil || amount.IsNegative() {
		writeError(w, http.StatusBadRequest, errInvalidAmount, stageValidation)

		return
	}

	q := &types.QuoteQuery{
		Provider:    strings.TrimSpace(providerParam),
		Origin:      types.NormalizeCode(originParam),
		Destination: types.NormalizeCode(destinationParam),
		SendAmount:  amount,
		Limit:       limit,
	}

	quotes, err := s.storage.Quotes(r.Context(), q)
	if err != nil {
		s.logger.Debug(
			"unable to fetch quotes",
			"err", err,
		)

		writeError(
			w,
			http.StatusInternalServerError,
			errUnableToFetchQuotes,
			stageStorage,
		)

		return
	}

	if quotes == nil {
		quotes = []*types.Quote{}
	}

	writeJSON(w, http.StatusOK, &QuotesResponse{Results: quotes})
}

func (s *Server) Providers(w http.ResponseWriter, r *http.Request) {
	items, err := s.storage.ListProviders(r.Context())
	if err != nil {
		s.logger.Debug(
			"unable to fetch providers",
			"err", err,
		)

		writeError(
			w,
			http.StatusInternalServerError,
			errUnableToFetchProviders,
			stageStorage,
		)

		return
	}

	writeJSON(w, http.StatusOK, listResponse(items))
}

func (s *Server) Destinations(w http.ResponseWriter, r *http.Request) {
	items, err := s.storage.ListDestinations(r.Context())
	if err != nil {
		s.logger.Debug(
			"unable to fetch destinations",
			"err", err,
		)

		writeError(
			w,
			http.StatusInternalServerError,
			errUnableToFetchDestinations,
			stageStorage,
		)

		return
	}

	writeJSON(w, http.StatusOK, listResponse(items))
}

func (s *Server) Analysis(w http.ResponseWriter, r *http.Request) {
	destination, err := parseDestination(chi.URLParam(r, "destination"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err, stageValidation)

		return
	}

	snapshot, err := s.engine.Analyze(r.Context(), destination)
	if err != nil {
		s.writeEngineError(w, err, stageAnalysis)

		return
	}

	writeJSON(w, http.StatusOK, snapshot)
}

func (s *Server) Comparison(w http.ResponseWriter, r *http.Request) {
	destination, err := parseDestination(chi.URLParam(r, "destination"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err, stageValidation)

		return
	}

	amount, err := parseAmount(r.URL.Query().Get("amount"), s.config.DefaultAmount())
	if err != nil {
		writeError(w, http.StatusBadRequest, err, stageValidation)

		return
	}

	comparison, err := s.engine.Compare(r.Context(), destination, amount)
	if err != nil {
		s.writeEngineError(w, err, stageComparison)

		return
	}

	writeJSON(w, http.StatusOK, comparison)
}

func (s *Server) CardPremiums(w http.ResponseWriter, r *http.Request) {
	destination, err := parseDestination(chi.URLParam(r, "destination"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err, stageValidation)

		return
	}

	amount, err := parseAmount(r.URL.Query().Get("amount"), defaultCardAmount)
	if err != nil {
		writeError(w, http.StatusBadRequest, err, stageValidation)

		return
	}

	report, err := s.engine.CardPremiums(r.Context(), destination, amount)
	if err != nil {
		s.writeEngineError(w, err, stageAnalysis)

		return
	}

	writeJSON(w, http.StatusOK, report)
}

func (s *Server) Insight(w http.ResponseWriter, r *http.Request) {
	destination, err := parseDestination(chi.URLParam(r, "destination"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err, stageValidation)

		return
	}

	var (
		question  = r.URL.Query().Get("q")
		providers = parseProviders(r.URL.Query().Get("providers"))
	)

	// A failed narrative is reported inside the 200 response
	out, err := s.engine.Insight(r.Context(), destination, question, providers)
	if err != nil {
		s.writeEngineError(w, err, stageInsight)

		return
	}

	writeJSON(w, http.StatusOK, out)
}

// Corridor returns the latest quote of every provider on the corridor,
// optionally for a single send amount
func (s *Server) Corridor(w http.ResponseWriter, r *http.Request) {
	origin, err := parseCountry(chi.URLParam(r, "origin"), errInvalidOrigin)
	if err != nil {
		writeError(w, http.StatusBadRequest, err, stageValidation)

		return
	}

	destination, err := parseDestination(chi.URLParam(r, "destination"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err, stageValidation)

		return
	}

	// A missing amount matches quotes of any amount
	amount, err := parseAmount(r.URL.Query().Get("amount"), decimal.Zero)
	if err != nil || amount.IsNegative() {
		writeError(w, http.StatusBadRequest, errInvalidAmount, stageValidation)

		return
	}

	quotes, err := storage.LatestByProvider(r.Context(), s.storage, &types.QuoteQuery{
		Origin:      origin,
		Destination: destination,
		SendAmount:  amount,
	})
	if err != nil {
		s.logger.Debug(
			"unable to fetch corridor quotes",
			"origin", origin,
			"destination", destination,
			"err", err,
		)

		writeError(
			w,
			http.StatusInternalServerError,
			errUnableToFetchQuotes,
			stageStorage,
		)

		return
	}

	if quotes == nil {
		quotes = []*types.Quote{}
	}

	writeJSON(w, http.StatusOK, &CorridorResponse{
		Origin:      origin,
		Destination: destination,
		Results:     quotes,
	})
}

// Stats returns the narrative usage accumulated since startup
func (s *Server) Stats(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, &StatsResponse{Insight: s.engine.InsightUsage()})
}

// writeEngineError maps engine failures to their API status
func (s *Server) writeEngineError(w http.ResponseWriter, err error, stage string) {
	var (
		validationErr *types.ValidationError
		notFoundErr   *analysis.NotFoundError
		missingErr    *analysis.MissingRateError
		storageErr    *engine.StorageError
	)

	switch {
	case errors.As(err, &validationErr):
		writeError(w, http.StatusBadRequest, validationErr, stageValidation)
	case errors.As(err, &notFoundErr):
		writeError(w, http.StatusNotFound, notFoundErr, stageAnalysis)
	case errors.As(err, &missingErr):
		writeError(w, http.StatusServiceUnavailable, missingErr, stageComparison)
	case errors.As(err, &storageErr):
		s.logger.Debug(
			"storage failure",
			"op", storageErr.Op,
			"err", storageErr.Err,
		)

		writeError(w, http.StatusInternalServerError, storageErr, stageStorage)
	default:
		s.logger.Debug(
			"unable to serve analysis",
			"stage", stage,
			"err", err,
		)

		writeError(w, http.StatusInternalServerError, err, stage)
	}
}

func listResponse(items []string) *ListResponse {
	if items == nil {
		items = []string{}
	}

	return &ListResponse{Results: items}
}

func parseLimit(limitRaw string) (int, error) {
	limit := defaultLimit

	if v := strings.TrimSpace(limitRaw); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return 0, errInvalidLimit
		}

		limit = n
	}

	if limit == 0 {
		limit = defaultLimit
	}

	if limit > maxLimit {
		limit = maxLimit
	}

	return limit, nil
}

func parseAmount(amountRaw string, fallback decimal.Decimal) (decimal.Decimal, error) {
	v := strings.TrimSpace(amountRaw)
	if v == "" {
		return fallback, nil
	}

	amount, err := decimal.NewFromString(v)
	if err != nil {
		return decimal.Zero, errInvalidAmount
	}

	return amount, nil
}

// parseDestination applies the same country code rule quotes are stored under
func parseDestination(v string) (string, error) {
	return parseCountry(v, errInvalidDestination)
}

func parseCountry(v string, invalid error) (string, error) {
	code := types.NormalizeCode(v)
	if !types.IsCountryCode(code) {
		return "", invalid
	}

	return code, nil
}

// parseProviders splits a comma separated provider list, dropping blanks
func parseProviders(v string) []string {
	var providers []string

	for _, p := range strings.Split(v, ",") {
		if p = strings.TrimSpace(p); p != "" {
			providers = append(providers, p)
		}
	}

	return providers
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	_ = json.NewEncoder(w).Encode(v) //nolint:errcheck // Fine to ignore
}

func writeError(w http.ResponseWriter, status int, err error, stage string) {
	resp := &ErrorResponse{
		Error: err.Error(),
		Stage: stage,
	}

	writeJSON(w, status, resp)
}
