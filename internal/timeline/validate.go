package timeline

import (
	"encoding/json"
	"errors"
	"fmt"
)

// rawTimeline mirrors the wire payload with pointer fields so a missing
// field is distinguishable from a zero value
type rawTimeline struct {
	ID            *string           `json:"id"`
	TotalDuration *int64            `json:"totalDuration"`
	SourceURL     *string           `json:"srcUrl"`
	Sections      []json.RawMessage `json:"sections"`
}

type rawSection struct {
	ID        *string `json:"id"`
	Title     *string `json:"title"`
	Type      *string `json:"type"`
	Duration  *int64  `json:"duration"`
	StartTime *int64  `json:"startTime"`
	EndTime   *int64  `json:"endTime"`

	// Intro fields
	MainTitle *string `json:"mainTitle"`
	Subtitle  string  `json:"subtitle"`
	Speaker   string  `json:"speaker"`
	Role      string  `json:"role"`

	// Content fields
	AudioSegmentIndex *int          `json:"audioSegmentIndex"`
	Sentences         []rawSentence `json:"sentences"`

	// Closing fields
	Message *string  `json:"message"`
	Credits []string `json:"credits"`
}

type rawSentence struct {
	ID        *string `json:"id"`
	Text      *string `json:"text"`
	StartTime *int64  `json:"startTime"`
	EndTime   *int64  `json:"endTime"`
}

// Parse validates a raw timeline payload field by field and constructs a
// Timeline. It fails with a ValidationError naming the first offending
// field and never returns a partially constructed timeline.
func Parse(data []byte) (*Timeline, error) {
	var raw rawTimeline
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, wrapDecodeError("", err)
	}

	if raw.ID == nil || *raw.ID == "" {
		return nil, newValidationError("", "id", "required string")
	}
	id := *raw.ID

	if raw.TotalDuration == nil {
		return nil, newValidationError(id, "totalDuration", "required number")
	}
	if *raw.TotalDuration <= 0 {
		return nil, newValidationError(id, "totalDuration", "must be positive")
	}
	if raw.SourceURL == nil || *raw.SourceURL == "" {
		return nil, newValidationError(id, "srcUrl", "required string")
	}
	if len(raw.Sections) == 0 {
		return nil, newValidationError(id, "sections", "required non-empty array")
	}

	sections := make([]Section, 0, len(raw.Sections))
	for i, rawMsg := range raw.Sections {
		section, err := parseSection(id, i, rawMsg)
		if err != nil {
			return nil, err
		}
		sections = append(sections, section)
	}

	t := &Timeline{
		ID:            id,
		TotalDuration: *raw.TotalDuration,
		SourceURL:     *raw.SourceURL,
		Sections:      sections,
	}

	if err := t.checkStructure(); err != nil {
		return nil, err
	}

	return t, nil
}

func parseSection(timelineID string, index int, data json.RawMessage) (Section, error) {
	field := func(name string) string {
		return fmt.Sprintf("sections[%d].%s", index, name)
	}

	var raw rawSection
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, wrapDecodeError(timelineID, err)
	}

	if raw.ID == nil || *raw.ID == "" {
		return nil, newValidationError(timelineID, field("id"), "required string")
	}
	if raw.Title == nil {
		return nil, newValidationError(timelineID, field("title"), "required string")
	}
	if raw.Type == nil {
		return nil, newValidationError(timelineID, field("type"), "required string")
	}
	if raw.Duration == nil {
		return nil, newValidationError(timelineID, field("duration"), "required number")
	}
	if raw.StartTime == nil {
		return nil, newValidationError(timelineID, field("startTime"), "required number")
	}
	if raw.EndTime == nil {
		return nil, newValidationError(timelineID, field("endTime"), "required number")
	}

	kind := SectionKind(*raw.Type)
	if !kind.IsValid() {
		return nil, newValidationError(timelineID, field("type"), fmt.Sprintf("unrecognized section type %q", *raw.Type))
	}

	meta := SectionMeta{
		ID:        *raw.ID,
		Title:     *raw.Title,
		Duration:  *raw.Duration,
		StartTime: *raw.StartTime,
		EndTime:   *raw.EndTime,
	}

	switch kind {
	case KindIntro:
		if raw.MainTitle == nil {
			return nil, newValidationError(timelineID, field("mainTitle"), "required string for intro sections")
		}
		return IntroSection{
			SectionMeta: meta,
			MainTitle:   *raw.MainTitle,
			Subtitle:    raw.Subtitle,
			Speaker:     raw.Speaker,
			Role:        raw.Role,
		}, nil

	case KindContent:
		if raw.AudioSegmentIndex == nil {
			return nil, newValidationError(timelineID, field("audioSegmentIndex"), "required number for content sections")
		}
		if raw.Sentences == nil {
			return nil, newValidationError(timelineID, field("sentences"), "required array for content sections")
		}
		sentences := make([]Sentence, 0, len(raw.Sentences))
		for j, rs := range raw.Sentences {
			sentenceField := func(name string) string {
				return fmt.Sprintf("sections[%d].sentences[%d].%s", index, j, name)
			}
			if rs.ID == nil || *rs.ID == "" {
				return nil, newValidationError(timelineID, sentenceField("id"), "required string")
			}
			if rs.Text == nil {
				return nil, newValidationError(timelineID, sentenceField("text"), "required string")
			}
			if rs.StartTime == nil {
				return nil, newValidationError(timelineID, sentenceField("startTime"), "required number")
			}
			if rs.EndTime == nil {
				return nil, newValidationError(timelineID, sentenceField("endTime"), "required number")
			}
			sentences = append(sentences, Sentence{
				ID:        *rs.ID,
				Text:      *rs.Text,
				StartTime: *rs.StartTime,
				EndTime:   *rs.EndTime,
			})
		}
		return ContentSection{
			SectionMeta:       meta,
			AudioSegmentIndex: *raw.AudioSegmentIndex,
			Sentences:         sentences,
		}, nil

	case KindClosing:
		if raw.Message == nil {
			return nil, newValidationError(timelineID, field("message"), "required string for closing sections")
		}
		return ClosingSection{
			SectionMeta: meta,
			Message:     *raw.Message,
			Credits:     raw.Credits,
		}, nil
	}

	return nil, newValidationError(timelineID, field("type"), "unrecognized section type")
}

// checkStructure verifies the timing invariants: sections are contiguous
// and non-overlapping, the final section ends within the total duration,
// and sentence windows are ordered and bounded by their section duration.
func (t *Timeline) checkStructure() error {
	for i, section := range t.Sections {
		meta := section.Meta()
		field := func(name string) string {
			return fmt.Sprintf("sections[%d].%s", i, name)
		}

		if meta.StartTime < 0 {
			return newValidationError(t.ID, field("startTime"), "must not be negative")
		}
		if meta.EndTime <= meta.StartTime {
			return newValidationError(t.ID, field("endTime"), "must be after startTime")
		}
		if meta.EndTime-meta.StartTime != meta.Duration {
			return newValidationError(t.ID, field("duration"), "must equal endTime - startTime")
		}

		if i == 0 && meta.StartTime != 0 {
			return newValidationError(t.ID, field("startTime"), "first section must start at 0")
		}
		if i > 0 && meta.StartTime != t.Sections[i-1].Meta().EndTime {
			return newValidationError(t.ID, field("startTime"), "sections must be contiguous")
		}
		if i == len(t.Sections)-1 && meta.EndTime > t.TotalDuration {
			return newValidationError(t.ID, field("endTime"), "exceeds totalDuration")
		}

		content, ok := section.(ContentSection)
		if !ok {
			continue
		}
		prevStart := int64(-1)
		for j, sentence := range content.Sentences {
			sentenceField := func(name string) string {
				return fmt.Sprintf("sections[%d].sentences[%d].%s", i, j, name)
			}
			if sentence.StartTime < 0 {
				return newValidationError(t.ID, sentenceField("startTime"), "must not be negative")
			}
			if sentence.EndTime <= sentence.StartTime {
				return newValidationError(t.ID, sentenceField("endTime"), "must be after startTime")
			}
			if sentence.EndTime > meta.Duration {
				return newValidationError(t.ID, sentenceField("endTime"), "exceeds section duration")
			}
			if sentence.StartTime <= prevStart {
				return newValidationError(t.ID, sentenceField("startTime"), "sentences must be ordered")
			}
			prevStart = sentence.StartTime
		}
	}

	return nil
}

// wrapDecodeError converts a json decoding failure into a ValidationError
// naming the offending field where the decoder reports one
func wrapDecodeError(timelineID string, err error) error {
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		field := typeErr.Field
		if field == "" {
			field = "(root)"
		}
		return newValidationError(timelineID, field, fmt.Sprintf("expected %s", typeErr.Type))
	}
	return newValidationError(timelineID, "(root)", err.Error())
}
