// Package player holds the logical playhead of an active presentation:
// the absolute time plus the resolved section and sentence indices. The
// store never touches the media resource; it only answers "where are we"
// and moves the playhead. Out-of-range navigation is clamped or ignored,
// never an error, since controls are disabled at the boundaries.
package player

import (
	"sync"

	"github.com/naco0406/simplicity/internal/timeline"
)

// Position is the logical playhead state
type Position struct {
	// CurrentTime is the absolute offset into the presentation in ms
	CurrentTime int64 `json:"current_time"`

	// SectionIndex is the index of the section containing CurrentTime
	SectionIndex int `json:"section_index"`

	// SentenceIndex is meaningful only while the active section is a
	// content section; it is 0 otherwise
	SentenceIndex int `json:"sentence_index"`

	// IsPlaying mirrors whether playback is currently running
	IsPlaying bool `json:"is_playing"`

	// SourceReady mirrors transport readiness
	SourceReady bool `json:"source_ready"`
}

// Store is the single mutable playhead for one active presentation.
// All methods are safe for concurrent use.
type Store struct {
	mu              sync.RWMutex
	tl              *timeline.Timeline
	position        Position
	initialized     bool
	autoplayEnabled bool
}

// NewStore creates an empty, uninitialized store
func NewStore() *Store {
	return &Store{autoplayEnabled: true}
}

// Initialize resets the playhead to the zero state and records the
// timeline. Derived queries are valid from this point on.
func (s *Store) Initialize(tl *timeline.Timeline) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tl = tl
	s.position = Position{}
	s.initialized = true
	s.autoplayEnabled = true
}

// Reset clears the store back to its pre-initialization state
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tl = nil
	s.position = Position{}
	s.initialized = false
	s.autoplayEnabled = true
}

// Initialized reports whether a timeline has been loaded
func (s *Store) Initialized() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.initialized
}

// Timeline returns the loaded timeline, or nil before initialization
func (s *Store) Timeline() *timeline.Timeline {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tl
}

// Position returns a snapshot of the current playhead
func (s *Store) Position() Position {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.position
}

// SetPlaying records the play/pause flag
func (s *Store) SetPlaying(playing bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.position.IsPlaying = playing
}

// SetSourceReady records transport readiness
func (s *Store) SetSourceReady(ready bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.position.SourceReady = ready
}

// SetAutoplayEnabled records the autoplay preference
func (s *Store) SetAutoplayEnabled(enabled bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.autoplayEnabled = enabled
}

// AutoplayEnabled reports the autoplay preference
func (s *Store) AutoplayEnabled() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.autoplayEnabled
}

// SeekToTime moves the playhead to an absolute time. The time is clamped
// to [0, totalDuration], the section index is recomputed by containment,
// and the sentence index is recomputed only when the resolved section is
// a content section (reset to 0 otherwise). CurrentTime is always updated
// even when the indices are unchanged.
func (s *Store) SeekToTime(timeMs int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seekToTimeLocked(timeMs)
}

func (s *Store) seekToTimeLocked(timeMs int64) {
	if s.tl == nil {
		return
	}

	clamped := timeMs
	if clamped < 0 {
		clamped = 0
	}
	if clamped > s.tl.TotalDuration {
		clamped = s.tl.TotalDuration
	}

	section, index, err := s.tl.SectionAt(clamped)
	if err != nil {
		return
	}

	s.position.CurrentTime = clamped
	s.position.SectionIndex = index

	if content, ok := section.(timeline.ContentSection); ok {
		sectionTime := clamped - content.StartTime
		s.position.SentenceIndex = timeline.SentenceIndexAt(content, sectionTime)
	} else {
		s.position.SentenceIndex = 0
	}
}

// SeekToSection moves the playhead to the start of the given section.
// Out-of-range indices are ignored.
func (s *Store) SeekToSection(index int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seekToSectionLocked(index)
}

func (s *Store) seekToSectionLocked(index int) {
	if s.tl == nil || index < 0 || index >= len(s.tl.Sections) {
		return
	}
	s.seekToTimeLocked(s.tl.Sections[index].Meta().StartTime)
}

// SeekToSentence moves the playhead to the start of a sentence within the
// current section. It is a no-op when the current section is not a content
// section or the index is out of range.
func (s *Store) SeekToSentence(index int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seekToSentenceLocked(index)
}

func (s *Store) seekToSentenceLocked(index int) {
	content, ok := s.currentContentLocked()
	if !ok {
		return
	}
	if index < 0 || index >= len(content.Sentences) {
		return
	}
	s.seekToTimeLocked(content.StartTime + content.Sentences[index].StartTime)
}

// GoToNext advances to the next sentence of the current content section,
// or to the start of the next section when there is no next sentence.
// Already at the end it does nothing.
func (s *Store) GoToNext() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.tl == nil {
		return
	}

	if content, ok := s.currentContentLocked(); ok {
		if s.position.SentenceIndex < len(content.Sentences)-1 {
			s.seekToSentenceLocked(s.position.SentenceIndex + 1)
			return
		}
	}

	if s.position.SectionIndex < len(s.tl.Sections)-1 {
		s.seekToSectionLocked(s.position.SectionIndex + 1)
	}
}

// GoToPrevious steps back one sentence within the current content section.
// At the first sentence (or in a non-content section) it moves to the
// previous section, landing on the last sentence when that section is a
// content section, or on its start otherwise. At the very beginning it
// does nothing.
func (s *Store) GoToPrevious() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.tl == nil {
		return
	}

	if _, ok := s.currentContentLocked(); ok {
		if s.position.SentenceIndex > 0 {
			s.seekToSentenceLocked(s.position.SentenceIndex - 1)
			return
		}
	}

	if s.position.SectionIndex == 0 {
		return
	}

	prevIndex := s.position.SectionIndex - 1
	if prev, ok := s.tl.Sections[prevIndex].(timeline.ContentSection); ok && len(prev.Sentences) > 0 {
		last := prev.Sentences[len(prev.Sentences)-1]
		s.seekToTimeLocked(prev.StartTime + last.StartTime)
		return
	}
	s.seekToSectionLocked(prevIndex)
}

// CurrentSection returns the active section, or nil before initialization
func (s *Store) CurrentSection() timeline.Section {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.currentSectionLocked()
}

func (s *Store) currentSectionLocked() timeline.Section {
	if s.tl == nil || s.position.SectionIndex >= len(s.tl.Sections) {
		return nil
	}
	return s.tl.Sections[s.position.SectionIndex]
}

func (s *Store) currentContentLocked() (timeline.ContentSection, bool) {
	content, ok := s.currentSectionLocked().(timeline.ContentSection)
	return content, ok
}

// CurrentSentence returns the active sentence, or nil when the active
// section is not a content section
func (s *Store) CurrentSentence() *timeline.Sentence {
	s.mu.RLock()
	defer s.mu.RUnlock()

	content, ok := s.currentContentLocked()
	if !ok || s.position.SentenceIndex >= len(content.Sentences) {
		return nil
	}
	sentence := content.Sentences[s.position.SentenceIndex]
	return &sentence
}

// IsFirst reports whether the playhead is in the first section
func (s *Store) IsFirst() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.position.SectionIndex == 0
}

// IsLast reports whether the playhead is at the final navigable step:
// the last section, and for content sections its last sentence
func (s *Store) IsLast() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.tl == nil {
		return true
	}
	if s.position.SectionIndex != len(s.tl.Sections)-1 {
		return false
	}
	if content, ok := s.currentContentLocked(); ok {
		return s.position.SentenceIndex == len(content.Sentences)-1
	}
	return true
}

// OverallProgress returns presentation-wide progress in [0, 100]
func (s *Store) OverallProgress() float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.tl == nil {
		return 0
	}
	return s.tl.OverallProgress(s.position.CurrentTime)
}

// SectionProgress returns progress through the active section in [0, 100]
func (s *Store) SectionProgress() float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	section := s.currentSectionLocked()
	if section == nil {
		return 0
	}
	return timeline.SectionProgress(section, s.position.CurrentTime)
}
