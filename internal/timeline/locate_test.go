package timeline

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testTimeline builds a three-section presentation: a 5s intro, a 10s
// content section with two sentences, and a 5s closing.
func testTimeline() *Timeline {
	return &Timeline{
		ID:            "tl-1",
		TotalDuration: 20000,
		SourceURL:     "narration.mp3",
		Sections: []Section{
			IntroSection{
				SectionMeta: SectionMeta{ID: "intro", Title: "Welcome", Duration: 5000, StartTime: 0, EndTime: 5000},
				MainTitle:   "Welcome",
				Speaker:     "Speaker",
			},
			ContentSection{
				SectionMeta:       SectionMeta{ID: "content", Title: "Main", Duration: 10000, StartTime: 5000, EndTime: 15000},
				AudioSegmentIndex: 0,
				Sentences: []Sentence{
					{ID: "s1", Text: "First sentence.", StartTime: 0, EndTime: 4000},
					{ID: "s2", Text: "Second sentence.", StartTime: 4000, EndTime: 10000},
				},
			},
			ClosingSection{
				SectionMeta: SectionMeta{ID: "closing", Title: "Thanks", Duration: 5000, StartTime: 15000, EndTime: 20000},
				Message:     "Thank you",
			},
		},
	}
}

func TestSectionAt(t *testing.T) {
	tl := testTimeline()

	tests := []struct {
		name      string
		timeMs    int64
		wantIndex int
		wantKind  SectionKind
	}{
		{"start of intro", 0, 0, KindIntro},
		{"inside intro", 4999, 0, KindIntro},
		{"boundary belongs to next section", 5000, 1, KindContent},
		{"inside content", 12000, 1, KindContent},
		{"start of closing", 15000, 2, KindClosing},
		{"inside closing", 19999, 2, KindClosing},
		{"final instant stays in last section", 20000, 2, KindClosing},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			section, index, err := tl.SectionAt(tt.timeMs)
			require.NoError(t, err)
			assert.Equal(t, tt.wantIndex, index)
			assert.Equal(t, tt.wantKind, section.Kind())
		})
	}
}

func TestSectionAt_OutOfRange(t *testing.T) {
	tl := testTimeline()

	_, _, err := tl.SectionAt(-1)
	assert.True(t, errors.Is(err, ErrTimeOutOfRange))

	_, _, err = tl.SectionAt(20001)
	assert.True(t, errors.Is(err, ErrTimeOutOfRange))
}

func TestSectionAt_Empty(t *testing.T) {
	tl := &Timeline{ID: "empty", TotalDuration: 0}

	_, _, err := tl.SectionAt(0)
	assert.True(t, errors.Is(err, ErrNoSections))
}

func TestSentenceIndexAt(t *testing.T) {
	content := testTimeline().Sections[1].(ContentSection)

	tests := []struct {
		name          string
		sectionTimeMs int64
		want          int
	}{
		{"start of first sentence", 0, 0},
		{"inside first sentence", 3999, 0},
		{"boundary belongs to second sentence", 4000, 1},
		{"inside second sentence", 9000, 1},
		{"past all windows keeps last sentence", 10000, 1},
		{"trailing silence keeps last sentence", 12000, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SentenceIndexAt(content, tt.sectionTimeMs))
		})
	}
}

func TestSentenceIndexAt_NoSentences(t *testing.T) {
	content := ContentSection{
		SectionMeta: SectionMeta{ID: "c", Duration: 1000, StartTime: 0, EndTime: 1000},
	}

	assert.Equal(t, 0, SentenceIndexAt(content, 500))
}

func TestOverallProgress(t *testing.T) {
	tl := testTimeline()

	assert.InDelta(t, 0.0, tl.OverallProgress(0), 0.001)
	assert.InDelta(t, 50.0, tl.OverallProgress(10000), 0.001)
	assert.InDelta(t, 100.0, tl.OverallProgress(20000), 0.001)

	// Clamped beyond the ends
	assert.InDelta(t, 0.0, tl.OverallProgress(-5), 0.001)
	assert.InDelta(t, 100.0, tl.OverallProgress(30000), 0.001)
}

func TestSectionProgress(t *testing.T) {
	content := testTimeline().Sections[1]

	assert.InDelta(t, 0.0, SectionProgress(content, 5000), 0.001)
	assert.InDelta(t, 50.0, SectionProgress(content, 10000), 0.001)
	assert.InDelta(t, 100.0, SectionProgress(content, 15000), 0.001)
	assert.InDelta(t, 100.0, SectionProgress(content, 16000), 0.001)
}

func TestSectionProgress_ZeroDuration(t *testing.T) {
	section := IntroSection{SectionMeta: SectionMeta{ID: "z"}}
	assert.InDelta(t, 0.0, SectionProgress(section, 100), 0.001)
}
