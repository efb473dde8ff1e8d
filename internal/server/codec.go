package server

import (
	"fmt"
	"math"
	"strconv"

	"google.golang.org/protobuf/types/known/structpb"

	"github.com/cedricziel/vtql/internal/dispatch"
)

// Wire field names outside the dispatch request keys
const (
	FieldBackend   = "backend"
	FieldCode      = "code"
	FieldMessage   = "message"
	FieldResponse  = "response"
	FieldRequestID = "request_id"
)

// EncodeRequest packs a backend name and request into a call message
func EncodeRequest(backend string, req dispatch.Request) (*structpb.Struct, error) {
	fields := make(map[string]any, len(req)+1)
	for k, v := range req {
		fields[k] = v
	}
	fields[FieldBackend] = backend
	return structpb.NewStruct(fields)
}

// DecodeRequest unpacks a call message. Scalar values are converted to their
// string form, booleans become "1" or "0" and null fields are dropped.
func DecodeRequest(in *structpb.Struct) (string, dispatch.Request, error) {
	req := make(dispatch.Request, len(in.GetFields()))
	var backend string

	for k, v := range in.GetFields() {
		// null fields count as absent
		if _, ok := v.GetKind().(*structpb.Value_NullValue); ok {
			continue
		}
		s, err := scalarString(v)
		if err != nil {
			return "", nil, fmt.Errorf("field %q: %w", k, err)
		}
		if k == FieldBackend {
			backend = s
			continue
		}
		req[k] = s
	}
	return backend, req, nil
}

func scalarString(v *structpb.Value) (string, error) {
	switch kind := v.GetKind().(type) {
	case *structpb.Value_StringValue:
		return kind.StringValue, nil
	case *structpb.Value_BoolValue:
		if kind.BoolValue {
			return "1", nil
		}
		return "0", nil
	case *structpb.Value_NumberValue:
		n := kind.NumberValue
		if n == math.Trunc(n) && math.Abs(n) < 1<<53 {
			return strconv.FormatInt(int64(n), 10), nil
		}
		return strconv.FormatFloat(n, 'g', -1, 64), nil
	case *structpb.Value_NullValue:
		return "", nil
	default:
		return "", fmt.Errorf("expected a scalar value")
	}
}

// EncodeReply packs a dispatch outcome into a reply message
func EncodeReply(requestID string, resp dispatch.Response, status dispatch.Status) (*structpb.Struct, error) {
	records := make([]any, 0, len(resp))
	for _, record := range resp {
		fields := make(map[string]any, len(record))
		for k, v := range record {
			fields[k] = v
		}
		records = append(records, fields)
	}

	return structpb.NewStruct(map[string]any{
		FieldRequestID: requestID,
		FieldCode:      float64(status.Code),
		FieldMessage:   status.Message,
		FieldResponse:  records,
	})
}

// DecodeReply unpacks a reply message
func DecodeReply(out *structpb.Struct) (dispatch.Response, dispatch.Status, error) {
	fields := out.GetFields()
	status := dispatch.Status{
		Code:    int(fields[FieldCode].GetNumberValue()),
		Message: fields[FieldMessage].GetStringValue(),
	}

	list := fields[FieldResponse].GetListValue()
	resp := make(dispatch.Response, 0, len(list.GetValues()))
	for i, item := range list.GetValues() {
		obj := item.GetStructValue()
		if obj == nil {
			return nil, status, fmt.Errorf("response record %d is not an object", i)
		}
		record := make(dispatch.Record, len(obj.GetFields()))
		for k, v := range obj.GetFields() {
			s, err := scalarString(v)
			if err != nil {
				return nil, status, fmt.Errorf("response record %d field %q: %w", i, k, err)
			}
			record[k] = s
		}
		resp = append(resp, record)
	}
	return resp, status, nil
}
