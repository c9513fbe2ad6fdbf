package request

import (
	"time"

	"github.com/NeuralTrust/IPGuard/pkg/app/activity"
)

type RecordActivityRequest struct {
	Failed     bool   `json:"failed"`
	UserAgent  string `json:"user_agent"`
	Endpoint   string `json:"endpoint"`
	Method     string `json:"method"`
	StatusCode int    `json:"status_code"`
}

func (r *RecordActivityRequest) Event() activity.Event {
	return activity.Event{
		Failed:     r.Failed,
		UserAgent:  r.UserAgent,
		Endpoint:   r.Endpoint,
		Method:     r.Method,
		StatusCode: r.StatusCode,
		Timestamp:  time.Now(),
	}
}
