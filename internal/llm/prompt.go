package llm

import "fmt"

// ChatSystemPrompt frames single-turn chat replies.
const ChatSystemPrompt = "You are a helpful assistant. Provide clear and concise answers."

const sectionPrompt = `Summarize the following text section concisely:

Text (part %d of %d):
%s

Key points only, be brief.`

const combinePrompt = `Combine these section summaries into one coherent summary:

%s

Provide a clear, concise final summary.`

// SectionPrompt builds the prompt for one chunk. ordinal is zero-based; the
// prompt shows it one-based.
func SectionPrompt(text string, ordinal, total int) string {
	return fmt.Sprintf(sectionPrompt, ordinal+1, total, text)
}

// CombinePrompt builds the synthesis prompt over already-joined summaries.
func CombinePrompt(joined string) string {
	return fmt.Sprintf(combinePrompt, joined)
}
