package polish

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/invopop/jsonschema"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/packages/param"
	"github.com/openai/openai-go/responses"
	"github.com/openai/openai-go/shared"
	"github.com/openai/openai-go/shared/constant"
	"github.com/shopspring/decimal"

	"github.com/warp/pos-ledger/ledger"
)

const DefaultModel = "gpt-4o-mini"

// LineItemText is the structured answer to a polish request.
type LineItemText struct {
	Text string `json:"text" jsonschema:"description=The professional line item wording"`
}

// TaxRateAnswer is the structured answer to a tax rate question.
type TaxRateAnswer struct {
	Rate float64 `json:"rate" jsonschema:"description=Standard sales tax or VAT percentage or 0 if unknown"`
}

// OpenAI implements Polisher and TaxAdvisor with the Responses API and
// strict JSON-schema output.
type OpenAI struct {
	client *openai.Client
	model  string
}

func NewOpenAI(apiKey, model string) *OpenAI {
	if model == "" {
		model = DefaultModel
	}
	client := openai.NewClient(option.WithAPIKey(apiKey))
	return &OpenAI{client: &client, model: model}
}

func (o *OpenAI) Polish(ctx context.Context, text string) (string, error) {
	prompt := fmt.Sprintf(`Transform this casual invoice item description into a professional business line item: %q.
Keep it concise (max 10-15 words). Return only the professional text.`, text)

	var answer LineItemText
	if err := o.ask(ctx, prompt, "line_item_text", 0.7, 100, &answer); err != nil {
		return "", err
	}
	return answer.Text, nil
}

func (o *OpenAI) SuggestTaxRate(ctx context.Context, location string) (ledger.Money, error) {
	prompt := fmt.Sprintf(`What is the standard VAT/Sales Tax rate for %q? Answer with the percentage (e.g. 20 or 7.5). If unknown, answer 0.`, location)

	var answer TaxRateAnswer
	if err := o.ask(ctx, prompt, "tax_rate", 0.1, 20, &answer); err != nil {
		return decimal.Zero, err
	}
	return decimal.NewFromFloat(answer.Rate), nil
}

func (o *OpenAI) ask(ctx context.Context, prompt, name string, temperature float64, maxTokens int64, out any) error {
	schemaMap, err := schemaFor(out)
	if err != nil {
		return err
	}

	params := responses.ResponseNewParams{
		Model: shared.ResponsesModel(o.model),
		Input: responses.ResponseNewParamsInputUnion{
			OfString: param.NewOpt(prompt),
		},
		Temperature:     param.NewOpt(temperature),
		MaxOutputTokens: param.NewOpt(maxTokens),
		Text: responses.ResponseTextConfigParam{
			Format: responses.ResponseFormatTextConfigUnionParam{
				OfJSONSchema: &responses.ResponseFormatTextJSONSchemaConfigParam{
					Type:   constant.JSONSchema("json_schema"),
					Name:   name,
					Strict: param.NewOpt(true),
					Schema: schemaMap,
				},
			},
		},
	}

	resp, err := o.client.Responses.New(ctx, params)
	if err != nil {
		return fmt.Errorf("openai responses error: %w", err)
	}

	content := resp.OutputText()
	if content == "" {
		return fmt.Errorf("empty response content")
	}
	if err := json.Unmarshal([]byte(content), out); err != nil {
		return fmt.Errorf("failed to parse completion: %w", err)
	}
	return nil
}

func schemaFor(v any) (map[string]any, error) {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
	}
	schemaJSON, err := json.Marshal(reflector.Reflect(v))
	if err != nil {
		return nil, fmt.Errorf("failed to marshal schema: %w", err)
	}
	var schemaMap map[string]any
	if err := json.Unmarshal(schemaJSON, &schemaMap); err != nil {
		return nil, fmt.Errorf("failed to unmarshal schema to map: %w", err)
	}
	return schemaMap, nil
}

var (
	_ Polisher   = (*OpenAI)(nil)
	_ TaxAdvisor = (*OpenAI)(nil)
)
