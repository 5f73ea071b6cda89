package models

import (
	"net/http"

	"jizdninerad.cz/internal/clock"
)

// ResponseModel is the envelope every JSON endpoint answers with.
type ResponseModel struct {
	Code        int                 `json:"code"`
	CurrentTime int64               `json:"currentTime"`
	Data        interface{}         `json:"data,omitempty"`
	FieldErrors map[string][]string `json:"fieldErrors,omitempty"`
	Text        string              `json:"text"`
	Version     int                 `json:"version"`
}

// ResponseCurrentTime is the envelope timestamp in Unix milliseconds. A nil
// clock reads the system time.
func ResponseCurrentTime(c clock.Clock) int64 {
	if c == nil {
		c = clock.RealClock{}
	}
	return c.Now().UnixMilli()
}

func NewOKResponse(data interface{}, c clock.Clock) ResponseModel {
	return ResponseModel{
		Code:        http.StatusOK,
		CurrentTime: ResponseCurrentTime(c),
		Data:        data,
		Text:        "OK",
		Version:     1,
	}
}

func NewErrorResponse(code int, text string, c clock.Clock) ResponseModel {
	return ResponseModel{
		Code:        code,
		CurrentTime: ResponseCurrentTime(c),
		Text:        text,
		Version:     1,
	}
}
