package models

import (
	"encoding/json"
	"fmt"
	"time"

	"pingwatch/internal/helper"
	"pingwatch/internal/incident"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// Target is a probe target. It does not change during a monitoring run.
type Target struct {
	URL     string        `json:"url"`
	Timeout time.Duration `json:"timeout"`
	Enabled bool          `json:"enabled"`
}

type History struct {
	ID           string        `json:"-" gorm:"primaryKey"`
	RunID        string        `json:"run_id" gorm:"index"`
	Check        int64         `json:"check" gorm:"column:check_number"`
	URL          string        `json:"url" gorm:"index"`
	Type         incident.Type `json:"type" gorm:"index"`
	StatusCode   int           `json:"status_code"`
	ResponseTime int64         `json:"response_time"` // in milliseconds
	Detail       string        `json:"detail,omitempty"`
	CreatedAt    time.Time     `json:"created_at" gorm:"index"`
}

type HistorySummary struct {
	URL             string        `json:"url"`
	Type            incident.Type `json:"type"`
	Count           int64         `json:"count"`
	AvgResponseTime float64       `json:"avg_response_time"`
	LastCheck       int64         `json:"last_check"`
}

type Response struct {
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

func (h *History) BeforeCreate(tx *gorm.DB) (err error) {
	if h.ID == "" {
		h.ID = helper.GenerateRandomID()
	}

	return nil
}

func (t Target) String() string {
	return fmt.Sprintf("%s (timeout %s)", t.URL, t.Timeout)
}

func (r Response) Print() {
	data, err := json.Marshal(r)

	if err != nil {
		log.Error().Err(err).Msg("error serializing response")
		return
	}

	fmt.Println(string(data))
}
