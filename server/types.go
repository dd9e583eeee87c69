package server

import (
	"github.com/sig-0/remitrates/insight"
	"github.com/sig-0/remitrates/storage/types"
)

// Error stages reported to API clients
const (
	stageValidation = "validation"
	stageAnalysis   = "analysis"
	stageComparison = "comparison"
	stageStorage    = "storage"
	stageInsight    = "insight"
)

type QuotesResponse struct {
	Results []*types.Quote `json:"results"`
}

type CorridorResponse struct {
	Origin      string         `json:"origin"`
	Destination string         `json:"destination"`
	Results     []*types.Quote `json:"results"`
}

type StatsResponse struct {
	Insight insight.Usage `json:"insight"`
}

type ListResponse struct {
	Results []string `json:"results"`
}

type SaveQuoteResponse struct {
	ID uint64 `json:"id"`
}

type ErrorResponse struct {
	Error string `json:"error"`
	Stage string `json:"stage"`
}
