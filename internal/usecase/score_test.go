package usecase

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestScoreBaseCase(t *testing.T) {
	assert.Equal(t, 30, Score("", ""))
	assert.Equal(t, 30, Score("", "null"))
	assert.Equal(t, 30, Score("oi", ""))
}

func TestScoreNameBonus(t *testing.T) {
	assert.Equal(t, 50, Score("", "João"))
	assert.Equal(t, 30, Score("", "  NULL "))

	messages := []string{"", "oi", "quero comprar uma casa", strings.Join(Keywords(), " ")}
	for _, m := range messages {
		assert.GreaterOrEqual(t, Score(m, "João"), Score(m, ""), "mensagem %q", m)
	}
}

func TestScoreKeywordsAreCaseInsensitive(t *testing.T) {
	assert.Equal(t, 40, Score("APARTAMENTO", ""))
	assert.Equal(t, 40, Score("Orçamento apertado", ""))
	assert.Equal(t, 40, Score("I want to BUY", ""))
}

func TestScoreDuplicateKeywordCountsOnce(t *testing.T) {
	assert.Equal(t, 40, Score("casa casa casa", ""))
}

func TestScoreUnknownWordsIgnored(t *testing.T) {
	assert.Equal(t, 30, Score("bom dia, tudo bem?", ""))
}

func TestScoreEachDistinctKeywordAddsTen(t *testing.T) {
	message := ""
	previous := Score(message, "Maria")

	for _, keyword := range Keywords() {
		message += " " + keyword
		current := Score(message, "Maria")

		if previous == 100 {
			assert.Equal(t, 100, current)
		} else {
			assert.Equal(t, previous+10, current, "keyword %q", keyword)
		}
		previous = current
	}

	assert.Equal(t, 100, previous)
}

func TestScoreRange(t *testing.T) {
	inputs := []struct{ message, name string }{
		{"", ""},
		{strings.Repeat("apartamento casa comprar budget ", 50), "Fulano"},
		{strings.Join(Keywords(), ""), "null"},
		{"🏠🏠🏠", "🙂"},
	}
	for _, in := range inputs {
		s := Score(in.message, in.name)
		assert.GreaterOrEqual(t, s, 0)
		assert.LessOrEqual(t, s, 100)
	}
}

func TestScoreIsPure(t *testing.T) {
	m := "tenho interesse em visitar o apartamento"
	assert.Equal(t, Score(m, "Ana"), Score(m, "Ana"))
}

func TestKeywordsDoNotOverlap(t *testing.T) {
	keywords := Keywords()
	for i, a := range keywords {
		assert.Equal(t, strings.ToLower(a), a)
		for j, b := range keywords {
			if i != j {
				assert.False(t, strings.Contains(a, b), "%q contém %q", a, b)
			}
		}
	}
}

func TestScoreLeadQualification(t *testing.T) {
	qualified := ScoreLead("preciso de um apartamento de 2 quartos, orçamento até 500 mil", "João Silva")
	assert.GreaterOrEqual(t, qualified.Value, 70)
	assert.True(t, qualified.Qualifies)

	cold := ScoreLead("oi", "")
	assert.Equal(t, 30, cold.Value)
	assert.False(t, cold.Qualifies)
}
