package execution

import (
	"alcyxob/therapy-app/internal/domain"
	"errors"
	"fmt"
	"math"
	"net/url"
	"strconv"
	"time"
)

// Query parameter names of the completion payload.
const (
	ParamSessionEnd      = "sessionEndTime"
	ParamEffectiveMinute = "effectiveActiveMinutes"
)

// Completion is what a finished session hands to the pain-after screen.
type Completion struct {
	InitialPain            int
	SessionStartTime       time.Time
	SessionEndTime         time.Time
	EffectiveActiveMinutes int
	PauseCount             int
}

// EffectiveMinutes rounds seconds to the nearest minute, halves up.
func EffectiveMinutes(seconds int) int {
	return int(math.Floor(float64(seconds)/60 + 0.5))
}

// Completion returns the payload of a finished session.
func (m *Machine) Completion() (Completion, error) {
	if m.state != Finished {
		return Completion{}, ErrNotFinished
	}
	return Completion{
		InitialPain:            m.initialPain,
		SessionStartTime:       m.startedAt,
		SessionEndTime:         m.finishedAt,
		EffectiveActiveMinutes: EffectiveMinutes(m.effective),
		PauseCount:             m.pauseCount,
	}, nil
}

func (c Completion) Encode() url.Values {
	v := url.Values{}
	v.Set(ParamInitialPain, strconv.Itoa(c.InitialPain))
	v.Set(ParamSessionStart, c.SessionStartTime.UTC().Format(TimeLayout))
	v.Set(ParamSessionEnd, c.SessionEndTime.UTC().Format(TimeLayout))
	v.Set(ParamEffectiveMinute, strconv.Itoa(c.EffectiveActiveMinutes))
	v.Set(ParamPauseCount, strconv.Itoa(c.PauseCount))
	return v
}

// DecodeCompletion parses a completion payload. Effective minutes and pause
// count default to 0 when absent.
func DecodeCompletion(v url.Values) (Completion, error) {
	var c Completion
	pain, err := ParseInitialPain(v)
	if err != nil {
		return c, err
	}
	c.InitialPain = *pain

	if c.SessionStartTime, err = time.Parse(time.RFC3339Nano, v.Get(ParamSessionStart)); err != nil {
		return c, fmt.Errorf("invalid %s: %w", ParamSessionStart, err)
	}
	if c.SessionEndTime, err = time.Parse(time.RFC3339Nano, v.Get(ParamSessionEnd)); err != nil {
		return c, fmt.Errorf("invalid %s: %w", ParamSessionEnd, err)
	}
	for key, dst := range map[string]*int{
		ParamEffectiveMinute: &c.EffectiveActiveMinutes,
		ParamPauseCount:      &c.PauseCount,
	} {
		if v.Get(key) == "" {
			continue
		}
		n, ok := intParam(v, key)
		if !ok {
			return c, errors.New("invalid " + key)
		}
		*dst = n
	}
	return c, nil
}

// Report merges the completion with what the patient enters afterwards.
func (c Completion) Report(painAfter int, comment, idempotencyKey string) *domain.SessionReport {
	start, end := c.SessionStartTime, c.SessionEndTime
	painBefore := c.InitialPain
	effective, pauses := c.EffectiveActiveMinutes, c.PauseCount
	return &domain.SessionReport{
		PainBefore:             &painBefore,
		PainAfter:              &painAfter,
		Comment:                comment,
		SessionStartTime:       &start,
		SessionEndTime:         &end,
		EffectiveActiveMinutes: &effective,
		PauseCount:             &pauses,
		IdempotencyKey:         idempotencyKey,
	}
}
