package models

import "context"

// BodyReader materializes a message body. Implementations must allow the
// body to be read more than once.
type BodyReader interface {
	ReadBody(ctx context.Context) (string, error)
}

// StaticBody is an already buffered body
type StaticBody string

// ReadBody returns the body text
func (b StaticBody) ReadBody(context.Context) (string, error) {
	return string(b), nil
}

// Request is the request half of an exchange snapshot
type Request struct {
	URL     string     `json:"url"`
	Method  string     `json:"method"`
	Headers string     `json:"headers"` // Raw "name: value" lines
	Body    BodyReader `json:"-"`
}

// Response is the response half of an exchange snapshot
type Response struct {
	URL     string     `json:"url"`
	Status  int        `json:"status"`
	Headers string     `json:"headers"`
	Body    BodyReader `json:"-"`
}

// Exchange pairs a request with its response
type Exchange struct {
	Request  *Request
	Response *Response
}

// MessageInput is the serialized form of one side of an exchange
type MessageInput struct {
	URL     string `json:"url" yaml:"url"`
	Method  string `json:"method,omitempty" yaml:"method,omitempty"`
	Status  int    `json:"status,omitempty" yaml:"status,omitempty"`
	Headers string `json:"headers" yaml:"headers"`
	Body    string `json:"body" yaml:"body"`
}

// ExchangeInput is the serialized form of an exchange, used by the run
// command and the dry-run API
type ExchangeInput struct {
	Request  MessageInput `json:"request" yaml:"request"`
	Response MessageInput `json:"response" yaml:"response"`
}

// Exchange builds a snapshot with static bodies
func (in ExchangeInput) Exchange() *Exchange {
	return &Exchange{
		Request: &Request{
			URL:     in.Request.URL,
			Method:  in.Request.Method,
			Headers: in.Request.Headers,
			Body:    StaticBody(in.Request.Body),
		},
		Response: &Response{
			URL:     in.Response.URL,
			Status:  in.Response.Status,
			Headers: in.Response.Headers,
			Body:    StaticBody(in.Response.Body),
		},
	}
}
