package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"regexp"

	"go.uber.org/zap"

	"github.com/lexconnect/lexconnect-api/config"
	"github.com/lexconnect/lexconnect-api/gemini"
	"github.com/lexconnect/lexconnect-api/models"
)

// AIChat exported for testing purposes
type AIChat struct {
	Client *gemini.Client
}

// countryContext maps a supported country code to the jurisdiction text fed
// into the assistant prompt.
var countryContext = map[string]string{
	"IN": "Indian legal system, including the Constitution of India, Indian Penal Code (IPC), Civil Procedure Code (CPC), Criminal Procedure Code (CrPC), and relevant statutes",
	"US": "United States legal system, including federal and state laws, US Constitution, and common law principles",
	"UK": "United Kingdom legal system, including English common law, statutory law, and relevant UK legislation",
	"CA": "Canadian legal system, including federal and provincial laws, Canadian Charter of Rights and Freedoms",
	"AU": "Australian legal system, including Commonwealth and state laws, Australian Constitution",
}

var languageInstructions = map[string]string{
	"en": "Respond in clear, professional English",
	"hi": "Respond in Hindi (हिंदी में जवाब दें)",
	"es": "Respond in Spanish (Responda en español)",
	"fr": "Respond in French (Répondez en français)",
}

// citationPatterns match the common shapes of statutory and case citations
// in assistant replies.
var citationPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?:Section|Article|Chapter|Rule|Act)\s+\d+[A-Za-z]?\s+(?:of\s+)?[A-Za-z\s,()]+(?:Act|Code|Constitution)`),
	regexp.MustCompile(`\d+\s+U\.S\.C\.\s+§\s+\d+`),
	regexp.MustCompile(`\[\d{4}\]\s+\w+\s+\d+`),
}

const maxCitationsPerPattern = 5

type aiChatRequest struct {
	Message             string        `json:"message"`
	Country             string        `json:"country"`
	Language            string        `json:"language"`
	ConversationHistory []gemini.Turn `json:"conversationHistory"`
}

type aiChatResponse struct {
	Content   string   `json:"content"`
	Citations []string `json:"citations,omitempty"`
}

func systemPrompt(country, language string) string {
	jurisdiction, ok := countryContext[country]
	if !ok {
		jurisdiction = "general legal principles"
	}
	langInstruction, ok := languageInstructions[language]
	if !ok {
		langInstruction = "Respond in English"
	}
	lawOf := country
	if lawOf == "" {
		lawOf = "general"
	}

	return fmt.Sprintf(`You are an AI legal assistant powered by Gemini, specializing in %s.

Your role:
- Provide accurate, helpful legal information based on %s law
- %s
- Always include relevant legal citations and references when applicable
- Clarify that you provide general legal information, not formal legal advice
- If a question is outside your jurisdiction or expertise, acknowledge limitations
- Be concise but thorough, explaining complex legal concepts in accessible language

Important disclaimers:
- You are an AI assistant providing general legal information
- This is NOT a substitute for professional legal counsel
- Users should consult licensed attorneys for specific legal matters
- Laws vary by jurisdiction and change over time

When providing citations, format them as an array of strings that can be displayed separately.`,
		jurisdiction, lawOf, langInstruction)
}

// extractCitations pulls legal citations out of an assistant reply, capped
// per pattern and deduped. Returns nil when nothing matches so the field is
// omitted from the response body.
func extractCitations(reply string) []string {
	var citations []string
	seen := map[string]bool{}
	for _, pattern := range citationPatterns {
		matches := pattern.FindAllString(reply, -1)
		if len(matches) > maxCitationsPerPattern {
			matches = matches[:maxCitationsPerPattern]
		}
		for _, match := range matches {
			if !seen[match] {
				seen[match] = true
				citations = append(citations, match)
			}
		}
	}
	return citations
}

// ChatHandler answers a legal question with the configured Gemini model,
// scoped to the requested jurisdiction and language.
func (a AIChat) ChatHandler(w http.ResponseWriter, r *http.Request) {
	var requestBody aiChatRequest
	if err := json.NewDecoder(r.Body).Decode(&requestBody); err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}
	if requestBody.Message == "" {
		writeValidationError(w, []models.FieldError{
			{Field: "message", Message: "message is required"},
		})
		return
	}

	reply, err := a.Client.GenerateContent(r.Context(),
		systemPrompt(requestBody.Country, requestBody.Language),
		requestBody.ConversationHistory,
		requestBody.Message,
	)
	if err != nil {
		// upstream details stay in the logs, the client gets a generic error
		zap.S().With(err).Error("gemini request failed")
		config.ErrorStatus("failed to generate response", http.StatusInternalServerError, w, errAIUnavailable)
		return
	}
	if reply == "" {
		reply = "I apologize, but I couldn't generate a response. Please try again."
	}

	bts, err := json.Marshal(aiChatResponse{
		Content:   reply,
		Citations: extractCitations(reply),
	})
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(bts)
}

var errAIUnavailable = fmt.Errorf("assistant unavailable")
