package models

import "strings"

// Intent is the classified purpose of a user turn.
type Intent string

const (
	IntentFindVideo   Intent = "find_video"
	IntentFindPodcast Intent = "find_podcast"
	IntentOther       Intent = "other"
)

// ParseIntent maps the model's free-text intent label onto the closed Intent set.
// Anything that is not recognisably a video or podcast request is IntentOther.
func ParseIntent(label string) Intent {
	norm := strings.ToLower(strings.TrimSpace(label))
	norm = strings.NewReplacer("_", " ", "-", " ").Replace(norm)
	norm = strings.Join(strings.Fields(norm), " ")
	switch norm {
	case "find video", "find videos":
		return IntentFindVideo
	case "find podcast", "find podcasts":
		return IntentFindPodcast
	default:
		return IntentOther
	}
}

// IntentExtraction is the structured result of the first model call.
type IntentExtraction struct {
	Intent   Intent
	Summary  string
	Response string
}
