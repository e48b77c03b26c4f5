package pop

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// StatusUnknown is the placeholder label the report API returns when it
// cannot determine the current job state.
const StatusUnknown = "Unknown"

// StatusReport is one poll observation. It is consumed immediately to advance
// the poll session and never retained.
type StatusReport struct {
	RawStatus string  // the API's "msg" label; StatusUnknown when absent
	Terminal  bool    // the API's "status" field equals "SUCCESS"
	Progress  int     // completion percentage, 0-100
	Score     float64 // page score, meaningful only on completed reports
	Content   string  // cleaned content brief, meaningful only on completed reports
}

// Complete reports whether this observation qualifies as terminal success.
// The API can flag SUCCESS while progress still trails 100, so both are required.
func (r *StatusReport) Complete() bool {
	return r.Terminal && r.Progress == 100
}

type statusPayload struct {
	Status              string   `json:"status"`
	Msg                 string   `json:"msg"`
	Value               *float64 `json:"value"`
	PageScore           float64  `json:"pageScore"`
	CleanedContentBrief struct {
		Content string `json:"content"`
	} `json:"cleanedContentBrief"`
}

// parseStatus decodes and validates a raw task-results payload. The API is
// weakly typed: "msg" and "value" are routinely absent and default to
// Unknown/0 rather than failing the parse.
func parseStatus(raw []byte) (*StatusReport, error) {
	if err := validateJSON(statusSchema(), raw); err != nil {
		return nil, fmt.Errorf("status payload rejected by schema: %w", err)
	}
	var p statusPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, fmt.Errorf("decode status payload: %w", err)
	}
	rep := &StatusReport{
		RawStatus: p.Msg,
		Terminal:  p.Status == "SUCCESS",
		Score:     p.PageScore,
		Content:   p.CleanedContentBrief.Content,
	}
	if rep.RawStatus == "" {
		rep.RawStatus = StatusUnknown
	}
	if p.Value != nil {
		rep.Progress = int(*p.Value)
	}
	return rep, nil
}

type submitAck struct {
	Status string `json:"status"`
	TaskID any    `json:"taskId"`
	Msg    string `json:"msg"`
}

// parseSubmitAck decodes and validates the submit acknowledgement, normalizing
// the task identifier (the API has returned both strings and numbers).
func parseSubmitAck(raw []byte) (*submitAck, error) {
	if err := validateJSON(submitAckSchema(), raw); err != nil {
		return nil, fmt.Errorf("submit ack rejected by schema: %w", err)
	}
	var ack submitAck
	if err := json.Unmarshal(raw, &ack); err != nil {
		return nil, fmt.Errorf("decode submit ack: %w", err)
	}
	return &ack, nil
}

func (a *submitAck) taskIDString() string {
	switch v := a.TaskID.(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return ""
	}
}
