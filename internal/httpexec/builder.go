package httpexec

import (
	"strings"

	"github.com/apiprobe/apiprobe/internal/catalog"
	"github.com/apiprobe/apiprobe/internal/models"
	"github.com/apiprobe/apiprobe/internal/payload"
)

// RequestBuilder assembles executable requests from endpoint descriptors
type RequestBuilder struct {
	generator *payload.Generator
}

// NewRequestBuilder creates a builder with a fresh payload generator
func NewRequestBuilder() *RequestBuilder {
	return &RequestBuilder{generator: payload.NewGenerator()}
}

// NewRequestBuilderWithGenerator creates a builder around an existing
// generator, for reproducible payloads
func NewRequestBuilderWithGenerator(gen *payload.Generator) *RequestBuilder {
	return &RequestBuilder{generator: gen}
}

// Build assembles a Request for the endpoint under the given config:
// base URL joining, generated query string, generated body for
// body-carrying methods, merged headers and auth token injection.
func (rb *RequestBuilder) Build(cfg models.TestConfig, ep catalog.Endpoint) Request {
	url := joinURL(cfg.BaseURL, ep.Path)

	if len(ep.QuerySchema) > 0 {
		query := rb.generator.Query(ep.QuerySchema)
		if encoded := query.Encode(); encoded != "" {
			url += "?" + encoded
		}
	}

	var body any
	switch ep.Method {
	case "POST", "PUT", "PATCH":
		if generated := rb.generator.Build(ep.PayloadSchema); generated != nil {
			body = generated
		}
	}

	headers := make(map[string]string, len(cfg.Headers)+len(ep.Headers)+1)
	for key, value := range cfg.Headers {
		headers[key] = value
	}
	for key, value := range ep.Headers {
		headers[key] = value
	}
	if ep.RequiresAuth && cfg.AuthToken != "" {
		headers["Authorization"] = "Bearer " + cfg.AuthToken
	}

	return Request{
		Method:  ep.Method,
		URL:     url,
		Payload: body,
		Headers: headers,
	}
}

func joinURL(base, path string) string {
	return strings.TrimSuffix(base, "/") + "/" + strings.TrimPrefix(path, "/")
}
