// Package quality maps a normalized quality target onto a stream selector the
// extraction backend understands.
package quality

import (
	"fmt"

	"github.com/Belphemur/MediaFetch/internal/models"
)

// Backend selector aliases.
const (
	BestVideoSelector  = "bestvideo+bestaudio/best"
	WorstVideoSelector = "worstvideo+worstaudio/worst"
	BestAudioSelector  = "bestaudio/best"
	WorstAudioSelector = "worstaudio/worst"
)

// Selection is the outcome of Resolve. Stream is nil whenever the selector is
// an alias or a fallback.
type Selection struct {
	Selector string
	Stream   *models.StreamDescriptor
	Fallback bool
}

// Resolve picks a selector for the given catalog. It is pure and never fails:
// an empty catalog yields a non-empty fallback selector.
func Resolve(streams []models.StreamDescriptor, kind models.MediaKind, target models.QualityTarget) Selection {
	if kind == models.MediaAudio {
		return resolveAudio(streams, target)
	}
	return resolveVideo(streams, target)
}

func resolveVideo(streams []models.StreamDescriptor, target models.QualityTarget) Selection {
	switch target.Mode {
	case models.QualityBest:
		return Selection{Selector: BestVideoSelector}
	case models.QualityWorst:
		return Selection{Selector: WorstVideoSelector}
	}

	var progressive, videoOnly []models.StreamDescriptor
	for _, s := range streams {
		if s.Height <= 0 {
			continue
		}
		switch {
		case s.IsProgressive():
			progressive = append(progressive, s)
		case s.IsVideoOnly():
			videoOnly = append(videoOnly, s)
		}
	}

	candidates := progressive
	if len(candidates) == 0 {
		candidates = videoOnly
	}
	if len(candidates) == 0 {
		return Selection{Selector: videoFallback(target), Fallback: true}
	}

	numeric := target.Mode == models.QualityHeight && target.Value > 0
	pick := pickNearest(candidates, target.Value, numeric, func(s models.StreamDescriptor) float64 {
		return float64(s.Height)
	})

	selector := pick.ID
	if !pick.HasAudio {
		selector = pick.ID + "+bestaudio"
	}
	return Selection{Selector: selector, Stream: &pick}
}

func resolveAudio(streams []models.StreamDescriptor, target models.QualityTarget) Selection {
	switch target.Mode {
	case models.QualityBest:
		return Selection{Selector: BestAudioSelector}
	case models.QualityWorst:
		return Selection{Selector: WorstAudioSelector}
	}

	var candidates []models.StreamDescriptor
	for _, s := range streams {
		if s.IsAudioOnly() && s.AudioBitrate > 0 {
			candidates = append(candidates, s)
		}
	}
	if len(candidates) == 0 {
		return Selection{Selector: audioFallback(target), Fallback: true}
	}

	numeric := target.Mode == models.QualityBitrate && target.Value > 0
	pick := pickNearest(candidates, target.Value, numeric, func(s models.StreamDescriptor) float64 {
		return s.AudioBitrate
	})
	return Selection{Selector: pick.ID, Stream: &pick}
}

// pickNearest returns the candidate closest to target, preferring the larger
// value on equal distance. Without a numeric target the largest value wins.
// candidates must not be empty.
func pickNearest(candidates []models.StreamDescriptor, target int, numeric bool, value func(models.StreamDescriptor) float64) models.StreamDescriptor {
	best := candidates[0]
	for _, c := range candidates[1:] {
		cv, bv := value(c), value(best)
		if !numeric {
			if cv > bv {
				best = c
			}
			continue
		}
		cd, bd := distance(cv, target), distance(bv, target)
		if cd < bd || (cd == bd && cv > bv) {
			best = c
		}
	}
	return best
}

func distance(v float64, target int) float64 {
	d := v - float64(target)
	if d < 0 {
		return -d
	}
	return d
}

func videoFallback(target models.QualityTarget) string {
	if target.Mode == models.QualityHeight && target.Value > 0 {
		return fmt.Sprintf("bestvideo[height<=%[1]d]+bestaudio/best[height<=%[1]d]/%s", target.Value, BestVideoSelector)
	}
	return BestVideoSelector
}

func audioFallback(target models.QualityTarget) string {
	if target.Mode == models.QualityBitrate && target.Value > 0 {
		return fmt.Sprintf("bestaudio[abr<=%d]/bestaudio", target.Value)
	}
	return BestAudioSelector
}
