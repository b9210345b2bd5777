package backend

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
)

// AnswerRef identifies an answer in an evaluation. The backend sends either
// a bare option id, a numeric index, or an object with id/index and text.
type AnswerRef struct {
	ID   string
	Text string
}

func (a *AnswerRef) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || string(data) == "null" {
		*a = AnswerRef{}
		return nil
	}

	switch data[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*a = AnswerRef{ID: s}
		return nil
	case '{':
		var obj struct {
			ID    *string `json:"id"`
			Index *int    `json:"index"`
			Text  string  `json:"text"`
		}
		if err := json.Unmarshal(data, &obj); err != nil {
			return err
		}
		ref := AnswerRef{Text: obj.Text}
		switch {
		case obj.ID != nil:
			ref.ID = *obj.ID
		case obj.Index != nil:
			ref.ID = indexToID(*obj.Index)
		}
		*a = ref
		return nil
	default:
		var n int
		if err := json.Unmarshal(data, &n); err != nil {
			return err
		}
		*a = AnswerRef{ID: indexToID(n)}
		return nil
	}
}

func (a AnswerRef) MarshalJSON() ([]byte, error) {
	if a.Text == "" {
		return json.Marshal(a.ID)
	}
	return json.Marshal(struct {
		ID   string `json:"id"`
		Text string `json:"text"`
	}{a.ID, a.Text})
}

// indexToID maps a zero-based option index to the letter ids the backend
// uses ("a", "b", ...). Out-of-range indexes keep their decimal form.
func indexToID(i int) string {
	if i >= 0 && i < 26 {
		return string(rune('a' + i))
	}
	return strconv.Itoa(i)
}

// errorBody covers the error shapes the backend emits: FastAPI's
// {"detail": "..."} or {"detail": [{"msg": "..."}]}, and plain
// {"message": "..."} / {"error": "..."}.
type errorBody struct {
	Detail  json.RawMessage `json:"detail"`
	Message string          `json:"message"`
	Error   string          `json:"error"`
}

// serverMessage extracts a human-readable message from an error body.
// It returns "" when the body carries none.
func serverMessage(body []byte) string {
	var eb errorBody
	if err := json.Unmarshal(body, &eb); err != nil {
		return ""
	}

	if len(eb.Detail) > 0 {
		var s string
		if err := json.Unmarshal(eb.Detail, &s); err == nil && s != "" {
			return s
		}
		var items []struct {
			Msg string `json:"msg"`
		}
		if err := json.Unmarshal(eb.Detail, &items); err == nil {
			var msgs []string
			for _, it := range items {
				if it.Msg != "" {
					msgs = append(msgs, it.Msg)
				}
			}
			if len(msgs) > 0 {
				return strings.Join(msgs, "; ")
			}
		}
	}
	if eb.Message != "" {
		return eb.Message
	}
	return eb.Error
}

// syllabusBody is the upload response. Topics are strings or objects with
// a "topic" field.
type syllabusBody struct {
	Topics []json.RawMessage `json:"topics"`
}

func (b syllabusBody) normalize() []string {
	topics := make([]string, 0, len(b.Topics))
	for _, raw := range b.Topics {
		var s string
		if err := json.Unmarshal(raw, &s); err == nil {
			if s = strings.TrimSpace(s); s != "" {
				topics = append(topics, s)
			}
			continue
		}
		var obj struct {
			Topic string `json:"topic"`
		}
		if err := json.Unmarshal(raw, &obj); err == nil && strings.TrimSpace(obj.Topic) != "" {
			topics = append(topics, strings.TrimSpace(obj.Topic))
			continue
		}
		topics = append(topics, string(raw))
	}
	return topics
}

// healthBody is the optional JSON payload of GET /health.
type healthBody struct {
	Status  string `json:"status"`
	Version string `json:"version"`
}
