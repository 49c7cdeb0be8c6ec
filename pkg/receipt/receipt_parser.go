package receipt

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"stash-backend/domain"
	"stash-backend/internal/utils/genai"
)

const parsePrompt = `Extract the merchant name, a list of items (with prices), and the total amount
from the following receipt text. Return the result as a JSON object with keys
'merchant', 'items', and 'total'. Items should be a list of objects with 'name' and 'price'.
Respond with JSON only.

Receipt Text:
%s

JSON Output:`

type (
	// ReceiptParser turns OCR text into structured receipt data.
	ReceiptParser interface {
		Parse(ctx context.Context, text string) (domain.ReceiptData, error)
	}

	llmReceiptParser struct {
		generator genai.TextGenerator
	}
)

func NewLLMReceiptParser(generator genai.TextGenerator) ReceiptParser {
	return &llmReceiptParser{generator: generator}
}

func (p *llmReceiptParser) Parse(ctx context.Context, text string) (domain.ReceiptData, error) {
	reply, err := p.generator.GenerateText(ctx, fmt.Sprintf(parsePrompt, strings.TrimSpace(text)))
	if err != nil {
		return domain.ReceiptData{}, err
	}

	var data domain.ReceiptData
	if err := json.Unmarshal([]byte(genai.ExtractJSON(reply)), &data); err != nil {
		return domain.ReceiptData{}, fmt.Errorf("%w: %v", domain.ErrReceiptParsing, err)
	}
	return data.Normalize(), nil
}
