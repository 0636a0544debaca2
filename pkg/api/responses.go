// Package api holds the wire types of the crowsnest HTTP surface, shared
// between the handlers and API consumers such as the dashboard frontend.
package api

import (
	"crowsnest/pkg/models"
)

// FetchResponse is the success envelope of the tweet fetch endpoint.
// Cached is set when the response was served from the store without an
// upstream call; Warning is set when upstream fetching failed and stale
// stored data was returned instead.
type FetchResponse struct {
	Success bool                 `json:"success"`
	Data    []models.TweetRecord `json:"data"`
	Cached  bool                 `json:"cached,omitempty"`
	Warning string               `json:"warning,omitempty"`
}

// ErrorResponse is the failure envelope of the tweet fetch endpoint.
type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

// UnauthorizedResponse is returned when a request carries neither an
// Authorization nor an apikey header.
type UnauthorizedResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}
