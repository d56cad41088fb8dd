package timeline

// SectionAt returns the section containing the given absolute time and its
// index. Containment uses half-open intervals [start, end), except the
// final section whose upper bound is closed so the last instant of the
// presentation remains reachable.
//
// This is a pure function with no I/O. A linear scan is deliberate:
// presentations hold tens of sections, not thousands.
func (t *Timeline) SectionAt(timeMs int64) (Section, int, error) {
	if len(t.Sections) == 0 {
		return nil, 0, ErrNoSections
	}

	last := len(t.Sections) - 1
	for i, section := range t.Sections {
		meta := section.Meta()
		if timeMs >= meta.StartTime && timeMs < meta.EndTime {
			return section, i, nil
		}
		// Closed upper bound on the final section
		if i == last && timeMs == meta.EndTime {
			return section, i, nil
		}
	}

	return nil, 0, ErrTimeOutOfRange
}

// SentenceIndexAt resolves the sentence index for a time relative to the
// section start. When the time has advanced past every sentence window but
// is still inside the section (trailing padding or silence in the
// narration), the last sentence is kept active rather than clearing the
// caption.
func SentenceIndexAt(section ContentSection, sectionTimeMs int64) int {
	for i, sentence := range section.Sentences {
		if sectionTimeMs >= sentence.StartTime && sectionTimeMs < sentence.EndTime {
			return i
		}
	}

	if len(section.Sentences) > 0 && sectionTimeMs >= section.Sentences[len(section.Sentences)-1].EndTime {
		return len(section.Sentences) - 1
	}

	return 0
}

// OverallProgress returns playback progress across the whole presentation
// as a percentage in [0, 100]
func (t *Timeline) OverallProgress(timeMs int64) float64 {
	if t.TotalDuration == 0 {
		return 0
	}
	return clampPercent(float64(timeMs) / float64(t.TotalDuration) * 100)
}

// SectionProgress returns progress through the given section as a
// percentage in [0, 100]
func SectionProgress(section Section, timeMs int64) float64 {
	meta := section.Meta()
	if meta.Duration == 0 {
		return 0
	}
	return clampPercent(float64(timeMs-meta.StartTime) / float64(meta.Duration) * 100)
}

func clampPercent(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
