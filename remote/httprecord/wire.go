package httprecord

import (
	"fmt"
	"time"

	"github.com/i4ali/macrosnap/record"
)

// Wire field type tags. Timestamps travel as RFC 3339 strings so the flat
// field map survives JSON without losing type information.
const (
	wireString    = "string"
	wireDouble    = "double"
	wireInt       = "int"
	wireTimestamp = "timestamp"
)

type wireField struct {
	Type  string      `json:"type"`
	Value interface{} `json:"value"`
}

type wireRecord struct {
	Type   string               `json:"type"`
	ID     string               `json:"id,omitempty"`
	Fields map[string]wireField `json:"fields"`
}

type wireError struct {
	Code    string `json:"code"`
	Message string `json:"message,omitempty"`
}

type wireSaveResult struct {
	Record *wireRecord `json:"record,omitempty"`
	Error  *wireError  `json:"error,omitempty"`
}

type wireQueryResult struct {
	Record *wireRecord `json:"record,omitempty"`
	Error  *wireError  `json:"error,omitempty"`
}

type saveBatchRequest struct {
	Records []wireRecord `json:"records"`
}

type saveBatchResponse struct {
	Results []wireSaveResult `json:"results"`
}

type queryResponse struct {
	Results []wireQueryResult `json:"results"`
}

type accountResponse struct {
	Status string `json:"status"`
}

// Error codes the service reports, mirrored into the local error taxonomy.
const (
	codeSchemaNotProvisioned = "schema_not_provisioned"
	codeNotFound             = "not_found"
	codeRateLimited          = "rate_limited"
)

func toWireRecord(r record.Record) (wireRecord, error) {
	if err := r.Validate(); err != nil {
		return wireRecord{}, err
	}

	w := wireRecord{Type: r.Type, ID: r.ID, Fields: make(map[string]wireField, len(r.Fields))}
	for k, v := range r.Fields {
		switch val := v.(type) {
		case string:
			w.Fields[k] = wireField{Type: wireString, Value: val}
		case float64:
			w.Fields[k] = wireField{Type: wireDouble, Value: val}
		case int:
			w.Fields[k] = wireField{Type: wireInt, Value: float64(val)}
		case int64:
			w.Fields[k] = wireField{Type: wireInt, Value: float64(val)}
		case time.Time:
			w.Fields[k] = wireField{Type: wireTimestamp, Value: val.UTC().Format(time.RFC3339Nano)}
		default:
			return wireRecord{}, fmt.Errorf("field %q holds unsupported type %T", k, v)
		}
	}
	return w, nil
}

func fromWireRecord(w wireRecord) (record.Record, error) {
	r := record.Record{Type: w.Type, ID: w.ID, Fields: make(record.Fields, len(w.Fields))}
	for k, f := range w.Fields {
		switch f.Type {
		case wireString:
			s, ok := f.Value.(string)
			if !ok {
				return record.Record{}, fmt.Errorf("field %q: expected string value", k)
			}
			r.Fields[k] = s
		case wireDouble:
			n, ok := f.Value.(float64)
			if !ok {
				return record.Record{}, fmt.Errorf("field %q: expected numeric value", k)
			}
			r.Fields[k] = n
		case wireInt:
			n, ok := f.Value.(float64)
			if !ok || n != float64(int64(n)) {
				return record.Record{}, fmt.Errorf("field %q: expected integer value", k)
			}
			r.Fields[k] = int64(n)
		case wireTimestamp:
			s, ok := f.Value.(string)
			if !ok {
				return record.Record{}, fmt.Errorf("field %q: expected timestamp string", k)
			}
			t, err := time.Parse(time.RFC3339Nano, s)
			if err != nil {
				return record.Record{}, fmt.Errorf("field %q: invalid timestamp: %w", k, err)
			}
			r.Fields[k] = t
		default:
			return record.Record{}, fmt.Errorf("field %q: unknown wire type %q", k, f.Type)
		}
	}
	return r, nil
}
