package collector

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/gorilla/schema"

	"TradeLens/internal/model"
)

// Source kinds selectable through configuration.
const (
	SourceForm  = "form"
	SourceQuery = "query"
)

// Source yields the named trade inputs for one update cycle.
type Source interface {
	Inputs() (model.Inputs, error)
	Name() string
}

var decoder = newDecoder()

func newDecoder() *schema.Decoder {
	d := schema.NewDecoder()
	d.IgnoreUnknownKeys(true)
	return d
}

// decodeInputs keeps the first value of a repeated key, as url.Values.Get
// does; schema on its own would take the last one.
func decodeInputs(values url.Values) (model.Inputs, error) {
	first := make(url.Values, len(values))
	for k, v := range values {
		if len(v) > 0 {
			first[k] = v[:1]
		}
	}
	var in model.Inputs
	if err := decoder.Decode(&in, first); err != nil {
		return model.Inputs{}, fmt.Errorf("decode inputs: %w", err)
	}
	return in, nil
}

// FormSource reads inputs from submitted form fields.
type FormSource struct {
	Form url.Values
}

func (s *FormSource) Name() string { return SourceForm }

func (s *FormSource) Inputs() (model.Inputs, error) {
	return decodeInputs(s.Form)
}

// QuerySource reads inputs from a URL query string.
type QuerySource struct {
	Query url.Values
}

func (s *QuerySource) Name() string { return SourceQuery }

func (s *QuerySource) Inputs() (model.Inputs, error) {
	return decodeInputs(s.Query)
}

// ParseQuerySource builds a QuerySource from a raw query string. A leading
// "?" or a full URL are both accepted.
func ParseQuerySource(raw string) (*QuerySource, error) {
	raw = strings.TrimSpace(raw)
	if i := strings.IndexByte(raw, '?'); i >= 0 {
		raw = raw[i+1:]
	}
	values, err := url.ParseQuery(raw)
	if err != nil {
		return nil, fmt.Errorf("parse query: %w", err)
	}
	return &QuerySource{Query: values}, nil
}

// NewSource returns the adapter configured for kind.
func NewSource(kind string, values url.Values) (Source, error) {
	switch kind {
	case SourceForm:
		return &FormSource{Form: values}, nil
	case SourceQuery:
		return &QuerySource{Query: values}, nil
	default:
		return nil, fmt.Errorf("unknown input source %q", kind)
	}
}
