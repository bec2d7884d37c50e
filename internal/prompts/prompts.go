// Package prompts renders the model prompts used by the assistant.
// Rendering is pure: the same inputs and reference time always produce the same text.
package prompts

import (
	"fmt"
	"strings"
	"time"

	"github.com/hyperjump/assist/internal/reldate"
)

// Intent labels the model is asked to choose from.
const (
	LabelFindVideo   = "find video"
	LabelFindPodcast = "find podcast"
	LabelOthers      = "others"
)

const outputFormat = "Return only a JSON object inside a fenced code block tagged json, exactly like this:\n" +
	"```json\n%s\n```\n" +
	"No additional text or explanations should be included, just the fenced JSON."

// Builder renders prompts relative to a reference clock.
type Builder struct {
	now func() time.Time
}

// NewBuilder returns a builder that reads the current time from now.
// A nil now means time.Now.
func NewBuilder(now func() time.Time) *Builder {
	if now == nil {
		now = time.Now
	}
	return &Builder{now: now}
}

// IntentPrompt asks the model to classify the request, maintain the running
// summary, and draft a short reply.
func (b *Builder) IntentPrompt(userPrompt, summary string) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Here is a user's request: %s.\n", userPrompt)
	fmt.Fprintf(&sb, "Here is a summary of the previous messages: %s.\n", summary)
	fmt.Fprintf(&sb, "From the intent you determine from both the user's request and the summary, match it to one of these options: '%s', '%s'. ", LabelFindVideo, LabelFindPodcast)
	fmt.Fprintf(&sb, "If the intent does not match any of the options provided, set the intent to '%s'.\n", LabelOthers)
	sb.WriteString("Determine if the user's request is related or unrelated to the summary. ")
	sb.WriteString("If the user's request is unrelated, discard the previous summary and create a new summary focusing solely on the current request. ")
	sb.WriteString("Otherwise, update the summary based on the new request. The summary must be less than 100 words. ")
	sb.WriteString("For instance, if the previous summary is about TED Talks and the new request is about 'videos with Jenna Ortega', treat these as unrelated and create a new summary.\n")
	sb.WriteString("Return a generic response based on the identified intent in less than 100 words. ")
	sb.WriteString("For example, if the intent is to recommend videos, the response could be 'Here are some videos I found.' ")
	sb.WriteString("If the intent is to recommend podcasts, the response could be 'Here are some podcasts I found.' ")
	sb.WriteString("If the user's request is to find a specific video, for example 'can you find me this video 'La photographie pour déjouer clichés et représentations: Adrien Golinelli at TEDxParis'', ")
	sb.WriteString("return the generic response 'Here is the video you are looking for.' ")
	fmt.Fprintf(&sb, "If the intent is '%s', answer the request directly in the response. ", LabelOthers)
	fmt.Fprintf(&sb, "If that answer would need more than 100 words and the intent is '%s', return the response: ", LabelOthers)
	sb.WriteString("'Sorry, I am unable to process queries with outputs over 100 words at this time. Please try another query.'\n")
	sb.WriteString("Keep the response on a single line.\n")
	fmt.Fprintf(&sb, outputFormat, `{"intent": "string", "summary": "string", "response": "string"}`)
	sb.WriteString("\n\nExamples:\n")
	sb.WriteString("Request: can you find me ted talk videos. Summary: .\n")
	sb.WriteString("```json\n{\"intent\": \"find video\", \"summary\": \"The user is looking for TED Talk videos.\", \"response\": \"Here are some videos I found.\"}\n```\n")
	sb.WriteString("Request: who was the president in 2012?. Summary: The user is looking for TED Talk videos.\n")
	sb.WriteString("```json\n{\"intent\": \"others\", \"summary\": \"The user asked who was the US president in 2012.\", \"response\": \"Barack Obama was the president of the United States in 2012.\"}\n```")
	return sb.String()
}

// VideoQueryPrompt asks the model to extract search fields for a video request.
// Few-shot examples are rendered against the builder's clock so the sample
// dates agree with the current date.
func (b *Builder) VideoQueryPrompt(summary, userPrompt string) string {
	now := b.now()
	var sb strings.Builder
	fmt.Fprintf(&sb, "Today's date is %s.\n", now.Format(reldate.Layout))
	fmt.Fprintf(&sb, "summary: %s. User Prompt: %s. The intent of this is to find videos.\n", summary, userPrompt)
	sb.WriteString("Based on the summary and user prompt, create a JSON object with these fields and fill in any value that is mentioned: ")
	sb.WriteString("{ topic: string, view_count: string, release_date_before: string, release_date_after: string, release_period: string }. ")
	sb.WriteString("Leave a field as an empty string when it is not mentioned.\n")
	sb.WriteString("If a release date is mentioned, return it in this format: YYYY-MM-DD. ")
	sb.WriteString("If the release date is relative to today (for example 'last week' or 'two years ago'), also copy that phrase verbatim into release_period.\n")
	sb.WriteString("Here are some phrases that may be found in the user prompt and the results I expect:\n")
	for _, ex := range dateExamples(now) {
		sb.WriteString(ex)
		sb.WriteString("\n")
	}
	sb.WriteString("If a view count is mentioned, format it as a single token like these examples: ")
	sb.WriteString("'1000000' -> '1000000', 'less than 23495' -> '<23495', 'more than 1240' -> '>1240'.\n")
	fmt.Fprintf(&sb, outputFormat, `{"topic": "string", "view_count": "string", "release_date_before": "string", "release_date_after": "string", "release_period": "string"}`)
	return sb.String()
}

func dateExamples(now time.Time) []string {
	relative := []struct{ request, phrase string }{
		{"can you find me videos that came out two years ago", "two years ago"},
		{"can you find me cooking videos that came out last week", "last week"},
		{"can you find videos released this year", "this year"},
	}
	out := make([]string, 0, len(relative)+3)
	for _, ex := range relative {
		r, _ := reldate.Resolve(ex.phrase, now)
		out = append(out, fmt.Sprintf("'%s': release_date_before:'%s', release_date_after:'%s', release_period:'%s'",
			ex.request, r.BeforeDate(), r.AfterDate(), ex.phrase))
	}
	lastYear := now.Year() - 1
	out = append(out,
		fmt.Sprintf("'can you find music videos released in %d': release_date_before:'%d-12-31', release_date_after:'%d-01-01', release_period:''", lastYear, lastYear, lastYear),
		"'can you find me videos from 2021': release_date_before:'2021-12-31', release_date_after:'2021-01-01', release_period:''",
		"'can you find me a video that came out on May 12, 2023': release_date_before:'2023-05-12', release_date_after:'2023-05-12', release_period:''",
	)
	return out
}
