package usecase

import (
	"strings"

	"github.com/xavierca1/lead-relay/internal/entity"
)

const (
	baseScore       = 30
	senderNameBonus = 20
	keywordBonus    = 10
	maxScore        = 100
)

// qualificationKeywords are matched as lowercase substrings. No entry may be a
// substring of another, otherwise one word would count twice.
var qualificationKeywords = []string{
	// pt-BR
	"apartamento",
	"casa",
	"comprar",
	"orçamento",
	"quartos",
	"financiamento",
	"interessad",
	// en
	"apartment",
	"house",
	"buy",
	"budget",
	"visit",
	"interested",
}

// Score is the naive qualification heuristic: 30 points, +20 for a known sender
// name, +10 for every distinct keyword in the message, capped at 100.
func Score(messageText, senderName string) int {
	score := baseScore

	if entity.HasSenderName(senderName) {
		score += senderNameBonus
	}

	text := strings.ToLower(messageText)
	for _, keyword := range qualificationKeywords {
		if strings.Contains(text, keyword) {
			score += keywordBonus
		}
	}

	if score > maxScore {
		return maxScore
	}
	if score < 0 {
		return 0
	}
	return score
}

func ScoreLead(messageText, senderName string) entity.LeadScore {
	return entity.NewLeadScore(Score(messageText, senderName))
}

// Keywords returns a copy of the keyword list.
func Keywords() []string {
	out := make([]string, len(qualificationKeywords))
	copy(out, qualificationKeywords)
	return out
}
