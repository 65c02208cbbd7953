package journal

import (
	"sort"
	"strings"
)

// emotionHierarchy maps primary emotions to secondary emotions, and each
// secondary to its tertiary refinements. Entries may name an emotion
// from any level.
var emotionHierarchy = map[string]map[string][]string{
	"Joy": {
		"Contentment": {"Peace", "Satisfaction", "Comfort"},
		"Happiness":   {"Cheerfulness", "Pleasure", "Optimism"},
		"Excitement":  {"Enthusiasm", "Thrill", "Anticipation"},
		"Pride":       {"Confidence", "Achievement", "Self-assurance"},
	},
	"Sadness": {
		"Melancholy":     {"Longing", "Wistfulness", "Nostalgia"},
		"Disappointment": {"Regret", "Frustration", "Defeat"},
		"Grief":          {"Loss", "Heartache", "Sorrow"},
		"Loneliness":     {"Isolation", "Abandonment", "Disconnection"},
	},
	"Anger": {
		"Frustration": {"Irritation", "Annoyance", "Agitation"},
		"Rage":        {"Fury", "Outrage", "Hostility"},
		"Resentment":  {"Bitterness", "Jealousy", "Envy"},
		"Indignation": {"Offense", "Displeasure", "Contempt"},
	},
	"Fear": {
		"Anxiety":      {"Worry", "Nervousness", "Unease"},
		"Insecurity":   {"Self-doubt", "Vulnerability", "Inadequacy"},
		"Panic":        {"Terror", "Horror", "Dread"},
		"Apprehension": {"Caution", "Hesitation", "Uncertainty"},
	},
	"Love": {
		"Affection":  {"Fondness", "Warmth", "Tenderness"},
		"Compassion": {"Empathy", "Understanding", "Kindness"},
		"Romance":    {"Passion", "Attraction", "Desire"},
		"Connection": {"Bonding", "Attachment", "Closeness"},
	},
}

// emotionPrimary indexes every emotion name (any level, lowercased) to
// its primary emotion and canonical spelling.
var emotionPrimary = buildEmotionIndex()

type emotionInfo struct {
	canonical string
	primary   string
}

func buildEmotionIndex() map[string]emotionInfo {
	index := make(map[string]emotionInfo)
	for primary, secondaries := range emotionHierarchy {
		index[strings.ToLower(primary)] = emotionInfo{canonical: primary, primary: primary}
		for secondary, tertiaries := range secondaries {
			index[strings.ToLower(secondary)] = emotionInfo{canonical: secondary, primary: primary}
			for _, tertiary := range tertiaries {
				index[strings.ToLower(tertiary)] = emotionInfo{canonical: tertiary, primary: primary}
			}
		}
	}
	return index
}

// CanonicalEmotion resolves an emotion name case-insensitively to its
// canonical spelling. The second return is false for unknown emotions.
func CanonicalEmotion(name string) (string, bool) {
	info, ok := emotionPrimary[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return "", false
	}
	return info.canonical, true
}

// PrimaryEmotion returns the primary emotion an emotion name belongs to.
func PrimaryEmotion(name string) (string, bool) {
	info, ok := emotionPrimary[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return "", false
	}
	return info.primary, true
}

// PrimaryEmotions lists the primary emotions in sorted order.
func PrimaryEmotions() []string {
	primaries := make([]string, 0, len(emotionHierarchy))
	for primary := range emotionHierarchy {
		primaries = append(primaries, primary)
	}
	sort.Strings(primaries)
	return primaries
}

// SecondaryEmotions lists the secondary emotions of a primary, sorted.
func SecondaryEmotions(primary string) []string {
	secondaries, ok := emotionHierarchy[primary]
	if !ok {
		return nil
	}
	names := make([]string, 0, len(secondaries))
	for name := range secondaries {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
