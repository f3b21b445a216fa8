package ai

import (
	"fmt"
	"strings"
)

// BuildLabelPrompt asks the model to pick one grocery-style food name out of
// raw image labels.
func BuildLabelPrompt(labels []string) string {
	return fmt.Sprintf(`Analyze this list of image labels from an image recognition service: [%s].
Your goal: identify the single most specific common grocery store item name.

RULES:
1. Ignore generic terms like "Food", "Produce", "Vegetable", "Ingredient", "Dish", "Recipe".
2. Strictly avoid botanical families or scientific categories.
   - Do NOT use "Cruciferous vegetables", use "Cabbage" or "Broccoli".
   - Do NOT use "Citrus", use "Lemon" or "Orange".
   - Do NOT use "Nightshade", use "Tomato".
3. If multiple specific items are listed, pick the most prominent one.
4. If no food is found, return null.

Return ONLY a JSON object: {"foodLabel": "Name"} or {"foodLabel": null}.`, strings.Join(labels, ", "))
}

// EnrichmentRequest carries the inputs of a flashcard content prompt.
type EnrichmentRequest struct {
	Word         string
	TargetLang   string
	NativeLang   string
	ContextWords []string
}

// BuildEnrichmentPrompt asks the model for translation, native definition,
// example sentence and emoji of a single word.
func BuildEnrichmentPrompt(req EnrichmentRequest) string {
	contextWords := "None"
	if len(req.ContextWords) > 0 {
		contextWords = strings.Join(req.ContextWords, ", ")
	}

	return fmt.Sprintf(`You are a professional language teacher.
User's native language: %[1]s
Target language to learn: %[2]s
Word to analyze: '%[3]s'
Context (other items in the user's fridge): [%[4]s]

Task: provide the following in JSON format:
1. translatedWord: the word translated into the target language. If the target language is the word's language, keep it.
2. nativeDefinition: the meaning of the word in the user's native language (%[1]s).
3. exampleSentence: a simple A1-level sentence in the target language (%[2]s).
   - Try to combine it with the context items ([%[4]s]) if natural.
   - MUST NOT be empty.
4. emoji: a single representative emoji.

STRICT JSON OUTPUT: {"translatedWord": "...", "nativeDefinition": "...", "exampleSentence": "...", "emoji": "..."}`,
		req.NativeLang, req.TargetLang, req.Word, contextWords)
}
