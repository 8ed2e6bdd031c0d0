package orchestrator

import (
	"context"
	"log/slog"

	"bisage.dev/gateway/common/llm"
	"bisage.dev/gateway/internal/model"
)

// clarificationEval is the schema-typed result of asking an LLM whether
// a flagged ambiguity is actually resolvable from context alone.
type clarificationEval struct {
	CanInfer  bool   `json:"can_infer"`
	Domain    string `json:"domain"`
	Reasoning string `json:"reasoning"`
}

const clarificationSystemPrompt = `Eres un asistente que decide si realmente hace falta pedirle una aclaracion al usuario.
Se te da la pregunta original, el motivo por el que el router la considero ambigua, y el contexto que si se entendio.
Si la intencion del usuario puede inferirse razonablemente sin preguntar, responde can_infer=true y el domain mas probable
(sales, inventory, conversations, escalations o presale). Si sigue siendo genuinamente ambigua, responde can_infer=false.`

// evaluateClarification asks the LLM client whether c's ambiguity can be
// resolved without interrupting the user. Returns ok=false when no LLM
// client is configured or the call fails, in which case the caller
// falls back to asking the Router's generated question.
func (o *Orchestrator) evaluateClarification(ctx context.Context, question string, c model.ClarificationData) (clarificationEval, bool) {
	if o.llmClient == nil {
		return clarificationEval{}, false
	}

	cctx, cancel := context.WithTimeout(ctx, llmCallTimeout)
	defer cancel()

	var eval clarificationEval
	_, err := o.llmClient.Chat(cctx, llm.Request{
		SystemPrompt: clarificationSystemPrompt,
		UserPrompt:   "Pregunta: " + question + "\nContexto entendido: " + c.UnderstoodContext,
		SchemaName:   "clarification_eval",
		Schema:       llm.GenerateSchema[clarificationEval](),
		MaxTokens:    200,
		Temperature:  llm.Temp(0.1),
	}, &eval)
	if err != nil {
		slog.WarnContext(ctx, "clarification llm evaluation failed", "error", err)
		return clarificationEval{}, false
	}
	return eval, true
}
