package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// DecodeResponse decodes a complete (non-streaming) chat completion body.
//
// The body is first sniffed for the service's error envelope. A body with a
// non-null "error" key yields *APIError, as does any non-2xx status. Only
// then is the success shape decoded; missing required fields or wrong JSON
// types yield *MalformedResponseError.
func DecodeResponse(status int, body []byte) (*Response, error) {
	top, err := decodeEnvelope(status, body)
	if err != nil {
		return nil, err
	}

	for _, key := range []string{"id", "choices"} {
		if isNull(top[key]) {
			return nil, &MalformedResponseError{Detail: fmt.Sprintf("missing field %q", key)}
		}
	}

	var choices []map[string]json.RawMessage
	if err := json.Unmarshal(top["choices"], &choices); err != nil {
		return nil, &MalformedResponseError{Detail: "choices: " + err.Error(), Err: err}
	}
	for i, c := range choices {
		if isNull(c["message"]) {
			return nil, &MalformedResponseError{Detail: fmt.Sprintf("choices[%d]: missing field %q", i, "message")}
		}
	}

	var resp Response
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, &MalformedResponseError{Detail: err.Error(), Err: err}
	}
	return &resp, nil
}

// DecodeChunk decodes one stream fragment. An error envelope inside the
// stream yields *APIError; anything that is not a chunk object yields
// *StreamDecodeError carrying the raw fragment.
func DecodeChunk(data []byte) (*StreamChunk, error) {
	var top map[string]json.RawMessage
	if err := json.Unmarshal(data, &top); err != nil {
		return nil, &StreamDecodeError{Fragment: string(data), Err: err}
	}
	if top == nil {
		return nil, &StreamDecodeError{Fragment: string(data), Err: fmt.Errorf("chunk is not a JSON object")}
	}
	if apiErr := sniffError(0, top); apiErr != nil {
		return nil, apiErr
	}

	var chunk StreamChunk
	if err := json.Unmarshal(data, &chunk); err != nil {
		return nil, &StreamDecodeError{Fragment: string(data), Err: err}
	}
	return &chunk, nil
}

// DecodeModels decodes a /models body.
func DecodeModels(status int, body []byte) (*ModelList, error) {
	top, err := decodeEnvelope(status, body)
	if err != nil {
		return nil, err
	}
	if isNull(top["data"]) {
		return nil, &MalformedResponseError{Detail: `missing field "data"`}
	}
	var list ModelList
	if err := json.Unmarshal(body, &list); err != nil {
		return nil, &MalformedResponseError{Detail: err.Error(), Err: err}
	}
	return &list, nil
}

// DecodeError builds the APIError for a non-2xx response body, using the
// error envelope when one is present.
func DecodeError(status int, body []byte) *APIError {
	var top map[string]json.RawMessage
	if err := json.Unmarshal(body, &top); err == nil {
		if apiErr := sniffError(status, top); apiErr != nil {
			return apiErr
		}
	}
	return NewStatusError(status, plainMessage(body))
}

// decodeEnvelope splits the body into its top-level members and returns an
// error for error envelopes, non-2xx statuses and non-object bodies.
func decodeEnvelope(status int, body []byte) (map[string]json.RawMessage, error) {
	if status < 200 || status > 299 {
		return nil, DecodeError(status, body)
	}
	var top map[string]json.RawMessage
	if err := json.Unmarshal(body, &top); err != nil {
		return nil, &MalformedResponseError{Detail: "body is not a JSON object", Err: err}
	}
	if top == nil {
		return nil, &MalformedResponseError{Detail: "body is null"}
	}
	if apiErr := sniffError(status, top); apiErr != nil {
		return nil, apiErr
	}
	return top, nil
}

// sniffError recognizes the {"error": {...}} envelope, the {"error": "msg"}
// shorthand and the {"object": "error", "message": ...} form used by vLLM.
func sniffError(status int, top map[string]json.RawMessage) *APIError {
	var apiErr *APIError

	if raw := top["error"]; !isNull(raw) {
		apiErr = &APIError{}
		var msg string
		if err := json.Unmarshal(raw, &msg); err == nil {
			apiErr.Message = msg
		} else if err := json.Unmarshal(raw, apiErr); err != nil {
			apiErr.Message = string(raw)
		}
	} else if obj := top["object"]; bytes.Equal(bytes.TrimSpace(obj), []byte(`"error"`)) {
		apiErr = &APIError{}
		if data, err := json.Marshal(top); err == nil {
			_ = json.Unmarshal(data, apiErr)
		}
	}

	if apiErr == nil {
		return nil
	}
	apiErr.StatusCode = status
	if apiErr.Type == "" {
		if status != 0 {
			apiErr.Type = NewStatusError(status, "").Type
		} else {
			apiErr.Type = ErrorTypeServerError
		}
	}
	return apiErr
}

func plainMessage(body []byte) string {
	s := strings.TrimSpace(string(body))
	if len(s) > 512 {
		s = s[:512] + "..."
	}
	return s
}

func isNull(raw json.RawMessage) bool {
	raw = bytes.TrimSpace(raw)
	return len(raw) == 0 || bytes.Equal(raw, []byte("null"))
}
