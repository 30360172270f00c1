// Package agent runs the tool-calling answer loop: the model decides when to
// consult the document through the search_text tool, and the agent feeds tool
// output back until the model produces a final answer.
package agent

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/tmc/langchaingo/llms"

	"github.com/Samuellps/Rag-Reranking-Agent/internal/models"
	"github.com/Samuellps/Rag-Reranking-Agent/pkg/session"
)

const systemPrompt = `You are an AI assistant specialised in the content of a provided document. Your goal is to answer the user's questions based on that document.
To do this, you HAVE ACCESS TO A TOOL named 'search_text'.

Workflow:
1. When the user asks a question, decide whether you need information from the document to answer it. Greetings and general conversation get a direct reply without the tool.
2. If you need information from the document, you MUST call the 'search_text' tool with a concise query derived from the user's question.
3. After receiving the 'search_text' results:
    a. If the results explicitly say "No sufficiently relevant results were found in the knowledge base." or similar, reply: "Sorry, I could not find sufficiently relevant information in the document to answer your question with confidence right now."
    b. Otherwise, use the returned excerpts and their generated contexts to formulate a precise, concise answer to the original question, integrating the information naturally.
4. Use the conversation history to keep context across follow-up questions.`

// SearchCapability is the single retrieval operation the agent binds as a
// tool.
type SearchCapability interface {
	SearchTool(ctx context.Context, query string, k int) (string, error)
}

type AgentConfig struct {
	Temperature   float64
	MaxToolRounds int
	DefaultK      int
}

type Agent struct {
	config   AgentConfig
	model    llms.Model
	search   SearchCapability
	sessions *session.Store
}

func NewWithConfig(model llms.Model, search SearchCapability, sessions *session.Store, config AgentConfig) *Agent {
	if config.MaxToolRounds == 0 {
		config.MaxToolRounds = 5
	}
	if config.DefaultK == 0 {
		config.DefaultK = 3
	}

	return &Agent{
		config:   config,
		model:    model,
		search:   search,
		sessions: sessions,
	}
}

// Fixed tool table: search_text is the only capability exposed to the model.
var agentTools = []llms.Tool{
	{
		Type: "function",
		Function: &llms.FunctionDefinition{
			Name: "search_text",
			Description: "Searches the agent's knowledge base and returns the most relevant document excerpts " +
				"together with their generated bridging contexts. Use it whenever the question needs document content.",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"query": map[string]any{
						"type":        "string",
						"description": "Term or phrase to search for in the vector store.",
					},
					"k": map[string]any{
						"type":        "integer",
						"description": "Maximum number of results to return.",
					},
				},
				"required": []string{"query"},
			},
		},
	},
}

// Ask appends the question to the session history and loops the model until
// it answers without requesting a tool.
func (a *Agent) Ask(ctx context.Context, sessionID, question string) (string, error) {
	history := a.sessions.Get(sessionID)
	if history.Len() == 0 {
		history.Append(llms.TextParts(llms.ChatMessageTypeSystem, systemPrompt))
	}
	history.Append(llms.TextParts(llms.ChatMessageTypeHuman, question))

	for round := 0; round < a.config.MaxToolRounds; round++ {
		response, err := a.model.GenerateContent(ctx, history.Messages(),
			llms.WithTools(agentTools),
			llms.WithTemperature(a.config.Temperature),
		)
		if err != nil {
			return "", &models.ExternalServiceError{Service: "completion", Err: err}
		}
		if len(response.Choices) == 0 {
			return "", &models.ExternalServiceError{Service: "completion", Err: fmt.Errorf("no choices in response")}
		}

		choice := response.Choices[0]
		if len(choice.ToolCalls) == 0 {
			history.Append(llms.TextParts(llms.ChatMessageTypeAI, choice.Content))
			return choice.Content, nil
		}

		assistantMsg := llms.MessageContent{Role: llms.ChatMessageTypeAI}
		for _, tc := range choice.ToolCalls {
			assistantMsg.Parts = append(assistantMsg.Parts, tc)
		}
		history.Append(assistantMsg)

		for _, tc := range choice.ToolCalls {
			output, err := a.dispatch(ctx, tc)
			if err != nil {
				return "", err
			}
			history.Append(llms.MessageContent{
				Role: llms.ChatMessageTypeTool,
				Parts: []llms.ContentPart{
					llms.ToolCallResponse{
						ToolCallID: tc.ID,
						Name:       tc.FunctionCall.Name,
						Content:    output,
					},
				},
			})
		}
	}

	return "", fmt.Errorf("tool loop exceeded %d rounds", a.config.MaxToolRounds)
}

func (a *Agent) dispatch(ctx context.Context, tc llms.ToolCall) (string, error) {
	switch tc.FunctionCall.Name {
	case "search_text":
		var args struct {
			Query string `json:"query"`
			K     int    `json:"k"`
		}
		if err := json.Unmarshal([]byte(tc.FunctionCall.Arguments), &args); err != nil {
			return "", fmt.Errorf("parse search_text arguments: %w", err)
		}
		if args.K <= 0 {
			args.K = a.config.DefaultK
		}
		return a.search.SearchTool(ctx, args.Query, args.K)
	default:
		return "", fmt.Errorf("unknown tool %q", tc.FunctionCall.Name)
	}
}
