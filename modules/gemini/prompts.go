package gemini

import (
	"fmt"
	"strings"

	"github.com/Rajat069/leetcode-reminder-bot/pkg/potd"
)

const quotePrompt = `Give me one, and only one, inspiring motivational quote from a famous movie. Include the movie title and who said it in the following manner.
eg:
There is a difference between knowing the path and walking the path.
- Morpheus (The Matrix).
The format should match 100%%.
Make sure it's fresh and not overused. The quote should be concise, impactful, and suitable for encouraging someone to keep going with their coding practice.
Add a touch of creativity to make it stand out!
Use the following unique salt to ensure variety: %d
`

// buildQuotePrompt embeds salt so identical prompts are not served from a
// response cache.
func buildQuotePrompt(salt int64) string {
	return fmt.Sprintf(quotePrompt, salt)
}

func buildHintsPrompt(q potd.Question, count int) string {
	var b strings.Builder
	b.WriteString("You are an expert LeetCode & Data structures coach. A user is stuck on the following problem:\n")
	fmt.Fprintf(&b, "- Problem: %q\n", q.Title)
	fmt.Fprintf(&b, "- Difficulty: %s\n", q.Difficulty)
	fmt.Fprintf(&b, "- Topic Tags: %s\n\n", strings.Join(q.Tags, ", "))

	if len(q.Hints) > 0 {
		b.WriteString("The original, cryptic hints provided by LeetCode are:\n")
		for _, h := range q.Hints {
			fmt.Fprintf(&b, "- %s\n", h)
		}
		b.WriteString("\n")
	}

	fmt.Fprintf(&b, "Please generate exactly %d new, short, and intuitive hints to help the user.\n", count)
	b.WriteString("These new hints should be more helpful than the originals. Guide them towards the right data structure or algorithm without giving away the full solution.\n\n")
	fmt.Fprintf(&b, "Return your %d hints as a JSON array of strings.\n", count)
	return b.String()
}
