package handlers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/lexconnect/lexconnect-api/gemini"
)

func TestSystemPromptKnownCountryAndLanguage(t *testing.T) {
	prompt := systemPrompt("IN", "hi")

	assert.Contains(t, prompt, "Indian legal system")
	assert.Contains(t, prompt, "Indian Penal Code (IPC)")
	assert.Contains(t, prompt, "Respond in Hindi")
	assert.Contains(t, prompt, "based on IN law")
}

func TestSystemPromptUnknownCountryFallsBack(t *testing.T) {
	prompt := systemPrompt("ZZ", "zz")

	assert.Contains(t, prompt, "general legal principles")
	assert.Contains(t, prompt, "Respond in English")
}

func TestSystemPromptEmptyCountry(t *testing.T) {
	prompt := systemPrompt("", "en")

	assert.Contains(t, prompt, "based on general law")
	assert.Contains(t, prompt, "Respond in clear, professional English")
}

func TestExtractCitations(t *testing.T) {
	reply := "Under Section 138 of the Negotiable Instruments Act, cheque bounce " +
		"is punishable. See also 18 U.S.C. § 1341 and [2019] UKSC 41 for comparison."

	citations := extractCitations(reply)

	assert.Len(t, citations, 3)
	assert.Contains(t, citations[0], "Section 138")
	assert.Equal(t, "18 U.S.C. § 1341", citations[1])
	assert.Equal(t, "[2019] UKSC 41", citations[2])
}

func TestExtractCitationsDedupes(t *testing.T) {
	reply := "18 U.S.C. § 1341 applies. Again, 18 U.S.C. § 1341 applies."

	citations := extractCitations(reply)

	assert.Equal(t, []string{"18 U.S.C. § 1341"}, citations)
}

func TestExtractCitationsCapsPerPattern(t *testing.T) {
	reply := "[2001] UKHL 1 [2002] UKHL 2 [2003] UKHL 3 [2004] UKHL 4 [2005] UKHL 5 [2006] UKHL 6 [2007] UKHL 7"

	citations := extractCitations(reply)

	assert.Len(t, citations, 5)
	assert.NotContains(t, citations, "[2006] UKHL 6")
}

func TestExtractCitationsEmpty(t *testing.T) {
	citations := extractCitations("You should consult a lawyer about this.")

	assert.Nil(t, citations)
}

func TestAIChat_ChatHandlerMissingMessage(t *testing.T) {
	chat := AIChat{Client: gemini.New("test-key", "")}

	req, _ := http.NewRequest("POST", "/api/v1/ai-chat", strings.NewReader(`{"country":"IN"}`))
	rr := httptest.NewRecorder()

	http.HandlerFunc(chat.ChatHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), "message is required")
}
