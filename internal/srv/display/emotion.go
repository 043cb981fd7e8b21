package display

import "strings"

// The closed emotion set, in declaration order. Matching is a
// case-insensitive prefix match: the input must be at least as long as the
// candidate and begin with it; the first match wins. That also accepts
// arbitrary suffixes ("sadxyz" matches "sad") — kept as-is for
// compatibility with the upstream firmware behavior.
const (
	EMOTION_NEUTRAL  = "neutral"
	EMOTION_HAPPY    = "happy"
	EMOTION_SAD      = "sad"
	EMOTION_CRYING   = "crying"
	EMOTION_ANGRY    = "angry"
	EMOTION_SLEEPY   = "sleepy"
	EMOTION_CONFUSED = "confused"
	EMOTION_SHOCKED  = "shocked"
	EMOTION_WINKING  = "winking"
	EMOTION_IDLE     = "idle"
)

var validEmotions = []string{
	EMOTION_NEUTRAL,
	EMOTION_HAPPY,
	EMOTION_SAD,
	EMOTION_CRYING,
	EMOTION_ANGRY,
	EMOTION_SLEEPY,
	EMOTION_CONFUSED,
	EMOTION_SHOCKED,
	EMOTION_WINKING,
	EMOTION_IDLE,
}

// matchEmotion returns the canonical emotion the input resolves to.
func matchEmotion(name string) (string, bool) {
	for _, candidate := range validEmotions {
		if len(name) >= len(candidate) && strings.EqualFold(name[:len(candidate)], candidate) {
			return candidate, true
		}
	}
	return "", false
}

// IsEmotionValid applies the matching rule without touching any state; it
// does not require an initialized controller.
func IsEmotionValid(name string) bool {
	_, ok := matchEmotion(name)
	return ok
}
