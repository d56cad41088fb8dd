// Package timeline defines the static description of a presentation: an
// ordered list of timed sections, with sentence-level timing inside content
// sections. All offsets are in milliseconds; sentence offsets are relative
// to their containing section.
package timeline

// SectionKind discriminates the section variants
type SectionKind string

// Section kind constants
const (
	KindIntro   SectionKind = "intro"
	KindContent SectionKind = "content"
	KindClosing SectionKind = "closing"
)

// IsValid checks if the section kind is a known valid value
func (k SectionKind) IsValid() bool {
	switch k {
	case KindIntro, KindContent, KindClosing:
		return true
	default:
		return false
	}
}

// String returns the string representation of the section kind
func (k SectionKind) String() string {
	return string(k)
}

// SectionMeta holds the fields shared by every section variant.
// StartTime and EndTime are absolute offsets into the presentation.
type SectionMeta struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Duration  int64  `json:"duration"`
	StartTime int64  `json:"startTime"`
	EndTime   int64  `json:"endTime"`
}

// Section is the sealed sum type over intro, content and closing sections.
// Callers dispatch with a type switch on the concrete types.
type Section interface {
	Kind() SectionKind
	Meta() SectionMeta
}

// IntroSection opens a presentation with title card details
type IntroSection struct {
	SectionMeta
	MainTitle string `json:"mainTitle"`
	Subtitle  string `json:"subtitle,omitempty"`
	Speaker   string `json:"speaker,omitempty"`
	Role      string `json:"role,omitempty"`
}

// Kind returns KindIntro
func (s IntroSection) Kind() SectionKind { return KindIntro }

// Meta returns the shared section fields
func (s IntroSection) Meta() SectionMeta { return s.SectionMeta }

// ContentSection carries the narrated body of a presentation, subdivided
// into sentence timing windows
type ContentSection struct {
	SectionMeta
	AudioSegmentIndex int        `json:"audioSegmentIndex"`
	Sentences         []Sentence `json:"sentences"`
}

// Kind returns KindContent
func (s ContentSection) Kind() SectionKind { return KindContent }

// Meta returns the shared section fields
func (s ContentSection) Meta() SectionMeta { return s.SectionMeta }

// ClosingSection ends a presentation with a message and optional credits
type ClosingSection struct {
	SectionMeta
	Message string   `json:"message"`
	Credits []string `json:"credits,omitempty"`
}

// Kind returns KindClosing
func (s ClosingSection) Kind() SectionKind { return KindClosing }

// Meta returns the shared section fields
func (s ClosingSection) Meta() SectionMeta { return s.SectionMeta }

// Sentence is the smallest timed caption unit inside a content section.
// StartTime and EndTime are relative to the containing section's start.
type Sentence struct {
	ID        string `json:"id"`
	Text      string `json:"text"`
	StartTime int64  `json:"startTime"`
	EndTime   int64  `json:"endTime"`
}

// Timeline is the immutable description of one presentation
type Timeline struct {
	ID            string    `json:"id"`
	TotalDuration int64     `json:"totalDuration"`
	SourceURL     string    `json:"srcUrl"`
	Sections      []Section `json:"sections"`
}

// SectionCount returns the number of sections
func (t *Timeline) SectionCount() int {
	return len(t.Sections)
}
