package search

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/roach88/solq/internal/facet"
)

// Document is one returned document. Numbers are json.Number.
type Document map[string]any

// Response is a decoded select response.
type Response struct {
	RequestID string
	Status    int
	QTime     int
	NumFound  int
	Start     int
	Docs      []Document
	Facets    *facet.Section
}

// ResponseError is an error object reported inside a response body.
type ResponseError struct {
	Code    int
	Message string
}

func (e *ResponseError) Error() string {
	return fmt.Sprintf("engine error %d: %s", e.Code, e.Message)
}

type rawResponse struct {
	Header struct {
		Status int `json:"status"`
		QTime  int `json:"QTime"`
	} `json:"responseHeader"`
	Response struct {
		NumFound int        `json:"numFound"`
		Start    int        `json:"start"`
		Docs     []Document `json:"docs"`
	} `json:"response"`
	FacetCounts json.RawMessage `json:"facet_counts"`
	Error       *struct {
		Code int    `json:"code"`
		Msg  string `json:"msg"`
	} `json:"error"`
}

// ParseResponse decodes a JSON select response.
func ParseResponse(body []byte) (*Response, error) {
	var raw rawResponse
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if raw.Error != nil {
		return nil, &ResponseError{Code: raw.Error.Code, Message: raw.Error.Msg}
	}

	section, err := facet.ParseSection(raw.FacetCounts)
	if err != nil {
		return nil, err
	}
	return &Response{
		Status:   raw.Header.Status,
		QTime:    raw.Header.QTime,
		NumFound: raw.Response.NumFound,
		Start:    raw.Response.Start,
		Docs:     raw.Response.Docs,
		Facets:   section,
	}, nil
}
