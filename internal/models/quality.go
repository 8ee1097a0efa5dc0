package models

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// QualityMode tells the resolver how to interpret a QualityTarget.
type QualityMode int

const (
	// QualityAuto means no explicit target: pick the highest available stream.
	QualityAuto QualityMode = iota
	// QualityBest defers to the backend's native "best" alias.
	QualityBest
	// QualityWorst defers to the backend's native "worst" alias.
	QualityWorst
	// QualityHeight targets a video height in pixels.
	QualityHeight
	// QualityBitrate targets an audio bitrate in kbps.
	QualityBitrate
)

// QualityTarget is a normalized quality intent. Labels such as "720p" or
// "192 kbps" are parsed into it at the presentation boundary.
type QualityTarget struct {
	Mode  QualityMode
	Value int
}

// Best returns the "best" sentinel target.
func Best() QualityTarget { return QualityTarget{Mode: QualityBest} }

// Worst returns the "worst" sentinel target.
func Worst() QualityTarget { return QualityTarget{Mode: QualityWorst} }

// Height returns a target for the given video height.
func Height(px int) QualityTarget { return QualityTarget{Mode: QualityHeight, Value: px} }

// Bitrate returns a target for the given audio bitrate in kbps.
func Bitrate(kbps int) QualityTarget { return QualityTarget{Mode: QualityBitrate, Value: kbps} }

// IsNumeric reports whether the target carries a usable numeric value.
func (q QualityTarget) IsNumeric() bool {
	return (q.Mode == QualityHeight || q.Mode == QualityBitrate) && q.Value > 0
}

// String returns the string representation of the target
func (q QualityTarget) String() string {
	switch q.Mode {
	case QualityBest:
		return "best"
	case QualityWorst:
		return "worst"
	case QualityHeight:
		return fmt.Sprintf("%dp", q.Value)
	case QualityBitrate:
		return fmt.Sprintf("%dkbps", q.Value)
	default:
		return "auto"
	}
}

var (
	heightLabel  = regexp.MustCompile(`^(\d{2,4})\s*p\b`)
	bitrateLabel = regexp.MustCompile(`^(\d{2,4})\s*k(?:bps|b/s|bit/s)?\b`)
	kLabel       = regexp.MustCompile(`^(\d{1,2})k$`)
)

// ParseQualityLabel converts a user-facing label ("720p", "1440p (2K)",
// "192 kbps", "Best") into a QualityTarget for the given media kind.
// Unrecognised labels yield QualityAuto.
func ParseQualityLabel(kind MediaKind, label string) QualityTarget {
	l := strings.ToLower(strings.TrimSpace(label))
	switch l {
	case "best", "highest", "max":
		return Best()
	case "worst", "lowest", "min":
		return Worst()
	case "", "auto":
		return QualityTarget{Mode: QualityAuto}
	}

	if kind == MediaAudio {
		if m := bitrateLabel.FindStringSubmatch(l); m != nil {
			if v, err := strconv.Atoi(m[1]); err == nil && v > 0 {
				return Bitrate(v)
			}
		}
		if v, err := strconv.Atoi(l); err == nil && v > 0 {
			return Bitrate(v)
		}
		return QualityTarget{Mode: QualityAuto}
	}

	if m := heightLabel.FindStringSubmatch(l); m != nil {
		if v, err := strconv.Atoi(m[1]); err == nil && v > 0 {
			return Height(v)
		}
	}
	// "4k" / "8k" shorthand
	if m := kLabel.FindStringSubmatch(l); m != nil {
		switch m[1] {
		case "2":
			return Height(1440)
		case "4":
			return Height(2160)
		case "8":
			return Height(4320)
		}
	}
	if v, err := strconv.Atoi(l); err == nil && v > 0 {
		return Height(v)
	}
	return QualityTarget{Mode: QualityAuto}
}

// MarshalJSON implements json.Marshaler interface
func (q QualityTarget) MarshalJSON() ([]byte, error) {
	return []byte(`"` + q.String() + `"`), nil
}

// UnmarshalJSON implements json.Unmarshaler interface
func (q *QualityTarget) UnmarshalJSON(data []byte) error {
	str := strings.Trim(string(data), `"`)
	kind := MediaVideo
	if strings.HasSuffix(strings.ToLower(str), "kbps") {
		kind = MediaAudio
	}
	*q = ParseQualityLabel(kind, str)
	return nil
}
