package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/Samuellps/Rag-Reranking-Agent/internal/types"
)

const hydePromptTemplate = `Based on the query: %s, generate a single affirmative sentence simulating an answer, using only your training knowledge to simulate it.
Example:

Query: How thick is the plywood?
Simulated answer: MDF plywood usually has a thickness of 0.75`

// Expander implements hypothetical-document expansion: the query is replaced
// by one plausible answer sentence before embedding, trading query-literal
// matching for semantic proximity to answer-bearing chunks. The generated
// sentence is used as-is, with no quality validation.
type Expander struct {
	completer types.Completer
}

func NewExpander(completer types.Completer) *Expander {
	return &Expander{completer: completer}
}

// Expand returns the first line of the model's hypothetical answer.
func (x *Expander) Expand(ctx context.Context, query string) (string, error) {
	out, err := x.completer.Complete(ctx, fmt.Sprintf(hydePromptTemplate, query), 0, 50)
	if err != nil {
		return "", err
	}

	line, _, _ := strings.Cut(strings.TrimSpace(out), "\n")
	return strings.TrimSpace(line), nil
}
