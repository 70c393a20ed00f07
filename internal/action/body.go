package action

import (
	"context"
	"fmt"
	"strings"

	"github.com/prasenjit/go-hooks/internal/extractor"
	"github.com/prasenjit/go-hooks/internal/models"
)

// BodyNeeds tells which bodies an action reads
type BodyNeeds struct {
	Request  bool
	Response bool
}

// DetermineBodyNeeds scans the action source, its condition sources and its
// iterator source for request.body and response.body references.
func DetermineBodyNeeds(a models.Action) BodyNeeds {
	sources := []string{a.Source}
	for _, c := range a.Conditions {
		sources = append(sources, c.Source)
	}
	if a.Iterator != nil {
		sources = append(sources, a.Iterator.Source)
	}

	var needs BodyNeeds
	for _, s := range sources {
		if strings.Contains(s, "request.body") {
			needs.Request = true
		}
		if strings.Contains(s, "response.body") {
			needs.Response = true
		}
	}
	return needs
}

// bodyCache reads each body of one exchange at most once
type bodyCache struct {
	exchange *models.Exchange
	request  *string
	response *string
}

func newBodyCache(ex *models.Exchange) *bodyCache {
	return &bodyCache{exchange: ex}
}

// source returns an extraction source with the needed bodies materialized
func (c *bodyCache) source(ctx context.Context, needs BodyNeeds) (extractor.Source, error) {
	src := extractor.Source{
		Request:  c.exchange.Request,
		Response: c.exchange.Response,
	}

	if needs.Request && c.exchange.Request != nil {
		if err := c.read(ctx, &c.request, c.exchange.Request.Body); err != nil {
			return src, fmt.Errorf("failed to read request body: %w", err)
		}
	}
	if needs.Response && c.exchange.Response != nil {
		if err := c.read(ctx, &c.response, c.exchange.Response.Body); err != nil {
			return src, fmt.Errorf("failed to read response body: %w", err)
		}
	}

	src.RequestBody = c.request
	src.ResponseBody = c.response
	return src, nil
}

func (c *bodyCache) read(ctx context.Context, slot **string, body models.BodyReader) error {
	if *slot != nil || body == nil {
		return nil
	}
	text, err := body.ReadBody(ctx)
	if err != nil {
		return err
	}
	*slot = &text
	return nil
}
