package model

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/bytedance/sonic"
)

// Message is a single chat message as returned by the channel messages endpoint.
// Only the fields needed for call statistics are typed; the full API object is
// kept in raw so the cache stores exactly what the API returned.
type Message struct {
	Id        string `json:"id"`
	Timestamp string `json:"timestamp"`
	Call      *Call  `json:"call,omitempty"`

	raw []byte
}

// Call is present only on messages that represent a voice/video call event.
type Call struct {
	// EndedTimestamp is nil while the call is ongoing or was never ended.
	EndedTimestamp *string `json:"ended_timestamp"`
}

// messageFields avoids recursion into Message's own (un)marshalers.
type messageFields struct {
	Id        string `json:"id"`
	Timestamp string `json:"timestamp"`
	Call      *Call  `json:"call,omitempty"`
}

func (m *Message) UnmarshalJSON(data []byte) error {
	var fields messageFields
	if err := sonic.Unmarshal(data, &fields); err != nil {
		return err
	}
	if fields.Id == "" {
		return fmt.Errorf("message has no id")
	}

	var compact bytes.Buffer
	if err := json.Compact(&compact, data); err != nil {
		return err
	}

	m.Id = fields.Id
	m.Timestamp = fields.Timestamp
	m.Call = fields.Call
	m.raw = compact.Bytes()
	return nil
}

func (m Message) MarshalJSON() ([]byte, error) {
	if len(m.raw) > 0 {
		return m.raw, nil
	}
	return sonic.Marshal(messageFields{Id: m.Id, Timestamp: m.Timestamp, Call: m.Call})
}

// IsCall reports whether the message carries a call record.
func (m Message) IsCall() bool {
	return m.Call != nil
}

// IsEndedCall reports whether the message is a call that has concluded.
func (m Message) IsEndedCall() bool {
	return m.Call != nil && m.Call.EndedTimestamp != nil
}

// APIError is the error object the API returns instead of a message list.
type APIError struct {
	Message string `json:"message"`
	Code    int    `json:"code"`

	Raw string `json:"-"`
}

func (e *APIError) String() string {
	if e.Raw != "" {
		return e.Raw
	}
	return fmt.Sprintf(`{"message": %q, "code": %d}`, e.Message, e.Code)
}

type PageKind int

const (
	PageKindMessages PageKind = iota
	PageKindError
)

// PageResult is either a page of messages or an API error, never both.
type PageResult struct {
	Kind     PageKind
	Messages []Message
	Error    *APIError
}

// ErrMalformedPage is returned when a response body is neither a message list
// nor an error object.
var ErrMalformedPage = errors.New("malformed page: expected a message list or an error object")

// DecodePage discriminates the response body by its first JSON token.
func DecodePage(data []byte) (PageResult, error) {
	trimmed := bytes.TrimLeft(data, " \t\r\n")
	if len(trimmed) == 0 {
		return PageResult{}, ErrMalformedPage
	}

	switch trimmed[0] {
	case '[':
		var messages []Message
		if err := sonic.Unmarshal(trimmed, &messages); err != nil {
			return PageResult{}, fmt.Errorf("%w: %v", ErrMalformedPage, err)
		}
		return PageResult{Kind: PageKindMessages, Messages: messages}, nil
	case '{':
		var apiErr APIError
		if err := sonic.Unmarshal(trimmed, &apiErr); err != nil {
			return PageResult{}, fmt.Errorf("%w: %v", ErrMalformedPage, err)
		}
		if apiErr.Message == "" {
			return PageResult{}, fmt.Errorf("%w: object without message field", ErrMalformedPage)
		}
		apiErr.Raw = string(bytes.TrimSpace(trimmed))
		return PageResult{Kind: PageKindError, Error: &apiErr}, nil
	default:
		return PageResult{}, ErrMalformedPage
	}
}
