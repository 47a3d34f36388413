package orchestrator

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/grounder-ai/grounder/internal/models"
	"github.com/grounder-ai/grounder/internal/search"
)

// SearchToolName is the single capability declared to the model
const SearchToolName = "search"

const systemInstruction = "You are an assistant that answers questions using web search results. " +
	"You must always include the links of the search results you referenced at the end of your answer."

// ToolPolicy controls whether the first model call must invoke the search tool
type ToolPolicy string

const (
	// PolicyForced requires the model to call the search tool
	PolicyForced ToolPolicy = "forced"
	// PolicyAuto lets the model decide whether to search
	PolicyAuto ToolPolicy = "auto"
)

// Searcher executes a web search. *search.Manager satisfies it.
type Searcher interface {
	Search(ctx context.Context, q *search.Query) (*models.SearchProviderResult, error)
}

// Client creates model responses; mirrors llm.Client without importing it so
// the package depends only on what it calls
type Client interface {
	CreateResponse(ctx context.Context, req *models.ResponsesRequest) (*models.ResponsesResponse, error)
}

// Question is one grounded-answer request. Region and Sites are caller
// parameters and are never exposed to the model.
type Question struct {
	Query      string
	MaxResults int
	Region     string
	Sites      []string
}

// Result carries the final answer plus the full conversation for auditing
type Result struct {
	RunID     string
	Answer    string
	Messages  []models.InputItem
	CreatedAt time.Time
}

// Orchestrator drives the two-call tool round trip
type Orchestrator struct {
	llm      Client
	searcher Searcher
	model    string
	policy   ToolPolicy
	log      *zap.Logger
}

// New creates an orchestrator. A nil logger disables logging.
func New(llm Client, searcher Searcher, model string, policy ToolPolicy, log *zap.Logger) *Orchestrator {
	if log == nil {
		log = zap.NewNop()
	}
	if policy == "" {
		policy = PolicyForced
	}
	return &Orchestrator{
		llm:      llm,
		searcher: searcher,
		model:    model,
		policy:   policy,
		log:      log,
	}
}

// Answer returns the final grounded answer text for the question
func (o *Orchestrator) Answer(ctx context.Context, q Question) (string, error) {
	res, err := o.Run(ctx, q)
	if err != nil {
		return "", err
	}
	return res.Answer, nil
}

// Run executes the full round trip and returns the answer together with the
// conversation transcript:
// declare tool -> first model call -> execute search -> second model call.
func (o *Orchestrator) Run(ctx context.Context, q Question) (*Result, error) {
	if strings.TrimSpace(q.Query) == "" {
		return nil, fmt.Errorf("empty query")
	}

	runID := uuid.New().String()
	log := o.log.With(zap.String("run_id", runID))

	tools := []models.Tool{o.searchToolDeclaration(q.MaxResults)}
	messages := []models.InputItem{
		models.SystemMessage(systemInstruction),
		models.UserMessage(q.Query),
	}

	var toolChoice interface{} = models.ToolChoiceAuto
	if o.policy == PolicyForced {
		toolChoice = models.ForceFunction(SearchToolName)
	}

	log.Info("requesting tool invocation",
		zap.String("model", o.model),
		zap.String("policy", string(o.policy)),
	)

	first, err := o.llm.CreateResponse(ctx, &models.ResponsesRequest{
		Model:      o.model,
		Input:      messages,
		Tools:      tools,
		ToolChoice: toolChoice,
	})
	if err != nil {
		return nil, fmt.Errorf("first model call failed: %w", err)
	}

	call, ok := first.FirstFunctionCall()
	if !ok {
		if o.policy == PolicyAuto {
			// The model chose not to search; its text is the answer
			log.Info("model answered without searching")
			return &Result{
				RunID:     runID,
				Answer:    first.OutputText(),
				Messages:  messages,
				CreatedAt: time.Now(),
			}, nil
		}
		return nil, fmt.Errorf("model returned no tool invocation")
	}
	if call.Name != SearchToolName {
		return nil, fmt.Errorf("model requested unknown tool %q", call.Name)
	}

	args, err := parseSearchArgs(call.Arguments, q.MaxResults)
	if err != nil {
		return nil, fmt.Errorf("invalid tool arguments: %w", err)
	}

	log.Info("executing search",
		zap.String("call_id", call.CallID),
		zap.String("query", args.Query),
		zap.Int("max_results", args.MaxResults),
	)

	// Region and Sites come from the caller, not the model
	searchResult, err := o.searcher.Search(ctx, &search.Query{
		Text:       args.Query,
		MaxResults: args.MaxResults,
		Region:     q.Region,
		Sites:      q.Sites,
	})
	if err != nil {
		return nil, fmt.Errorf("search failed: %w", err)
	}

	messages = append(messages,
		models.FunctionCall(call.CallID, call.Name, call.Arguments),
		models.FunctionCallOutput(call.CallID, search.FormatResults(searchResult)),
	)

	second, err := o.llm.CreateResponse(ctx, &models.ResponsesRequest{
		Model:      o.model,
		Input:      messages,
		Tools:      tools,
		ToolChoice: models.ToolChoiceAuto,
	})
	if err != nil {
		return nil, fmt.Errorf("second model call failed: %w", err)
	}

	answer := second.OutputText()
	log.Info("answer generated",
		zap.Int("result_count", len(searchResult.Results)),
		zap.Int("answer_length", len(answer)),
	)

	return &Result{
		RunID:     runID,
		Answer:    answer,
		Messages:  messages,
		CreatedAt: time.Now(),
	}, nil
}

// searchToolDeclaration builds the single advertised function: required
// query, optional max_results defaulting to the caller's value
func (o *Orchestrator) searchToolDeclaration(defaultMaxResults int) models.Tool {
	return models.Tool{
		Type:        "function",
		Name:        SearchToolName,
		Description: "Search the web for information. Call this when you need current or factual information online.",
		Parameters: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"query": map[string]interface{}{
					"type":        "string",
					"description": "Keywords to search the web for",
				},
				"max_results": map[string]interface{}{
					"type":        "integer",
					"description": "Maximum number of search results to fetch",
					"default":     defaultMaxResults,
				},
			},
			"required":             []string{"query"},
			"additionalProperties": false,
		},
	}
}

// parseSearchArgs decodes the model-supplied arguments payload against the
// declared parameter schema. Unknown fields and malformed JSON are fatal.
func parseSearchArgs(raw string, defaultMaxResults int) (*models.SearchArgs, error) {
	dec := json.NewDecoder(strings.NewReader(raw))
	dec.DisallowUnknownFields()

	var args models.SearchArgs
	if err := dec.Decode(&args); err != nil {
		return nil, err
	}
	if strings.TrimSpace(args.Query) == "" {
		return nil, fmt.Errorf("missing required parameter: query")
	}
	if args.MaxResults <= 0 {
		args.MaxResults = defaultMaxResults
	}
	return &args, nil
}
