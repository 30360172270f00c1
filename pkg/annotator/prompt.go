package annotator

import "strings"

const annotationInstruction = `INSTRUCTION:
Based on the excerpts provided (previous, main, next), your task is to generate a SINGLE short, informative sentence that serves as a "bridging context" for the MAIN EXCERPT.
This sentence must:
1. Highlight the role or the main development that the MAIN EXCERPT introduces, continues or concludes relative to its neighbours.
2. Be concise and direct (ideally between 15 and 30 words).
3. NEVER open with expressions such as "This excerpt...", "The main passage...", "In the main passage...", "The presented excerpt...", "In this chunk...", etc. Start directly with the information that situates the excerpt.
4. Serve as metadata that improves search relevance for the MAIN EXCERPT by tying it into the narrative or informative flow in a distinctive way.

Examples of what to do and what NOT to do:

---
Example 1 (WHAT NOT TO DO - bad example):
Given:
PREVIOUS EXCERPT: "The scientist prepared the experiment carefully."
MAIN EXCERPT: "He mixed substances A and B in the test tube."
NEXT EXCERPT: "Colored smoke started to rise from the container."

Bad output (avoid this style): "In the main excerpt, the scientist mixes substances A and B, continuing his experiment."
(Why it fails: it opens with "In the main excerpt..." and merely restates the chunk without capturing its bridging role distinctively.)
---
Example 2 (WHAT TO DO - ideal example):
Given:
PREVIOUS EXCERPT: "The scientist prepared the experiment carefully."
MAIN EXCERPT: "He mixed substances A and B in the test tube."
NEXT EXCERPT: "Colored smoke started to rise from the container."

Ideal output (follow this style): "After preparing the experiment, the scientist's mixture of substances A and B triggers a visible, colorful reaction."
(Why it works: it connects to the previous excerpt, describes the main action and its immediate consequence leading into the next, without any banned opening.)
---

Answer ONLY with the bridging sentence for the MAIN EXCERPT you are analyzing NOW (the excerpts at the top of this prompt). Do not add any other word or explanation.
`

// buildPrompt assembles the annotation prompt for one chunk: previous and
// next neighbours when they exist, the main chunk, and the fixed instruction.
func buildPrompt(prev, current, next string) string {
	var b strings.Builder

	if prev != "" {
		b.WriteString("Context of the previous excerpt:\n<previous_excerpt>\n")
		b.WriteString(prev)
		b.WriteString("\n</previous_excerpt>\n\n")
	}

	b.WriteString("Main excerpt (the one the context is for):\n<main_excerpt>\n")
	b.WriteString(current)
	b.WriteString("\n</main_excerpt>\n\n")

	if next != "" {
		b.WriteString("Context of the next excerpt:\n<next_excerpt>\n")
		b.WriteString(next)
		b.WriteString("\n</next_excerpt>\n\n")
	}

	b.WriteString(annotationInstruction)
	return b.String()
}
