// Package parser extracts and decodes the structured plan document embedded
// in raw model output.
//
// Model output is expected to contain one fenced YAML block. The parser
// slices the block (opening fence to the LAST closing fence, which guards
// against nested fences inside step descriptions), attempts a strict decode,
// and on failure hands the malformed block plus the decode error to a
// repair function for a bounded number of attempts.
package parser

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/emmihealth/planpipe/internal/models"
)

// DefaultMaxRepairAttempts bounds the repair loop.
const DefaultMaxRepairAttempts = 3

// Fence markers for the structured block.
const (
	openingFence = "```yaml"
	closingFence = "```"
)

// ErrNoStructuredBlock indicates the model output contains no fenced YAML
// block at all.
var ErrNoStructuredBlock = errors.New("no structured block found in model output")

// ErrEmptyDocument indicates the block parsed to an empty/null document.
// This is a known model failure mode distinct from syntax errors.
var ErrEmptyDocument = errors.New("structured block parsed to an empty document")

// ParseError is returned when repair attempts are exhausted. It carries the
// last underlying parse failure.
type ParseError struct {
	Attempts int
	LastErr  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("unparsable structured output after %d repair attempts: %v", e.Attempts, e.LastErr)
}

func (e *ParseError) Unwrap() error {
	return e.LastErr
}

// Reformatter asks a secondary model to emit a corrected block given the
// malformed text and the parse error message. It is injected so the repair
// loop is testable without any live model call.
type Reformatter func(ctx context.Context, text string, parseErr string) (string, error)

// Parser extracts and decodes plan documents with bounded repair.
type Parser struct {
	reformat    Reformatter
	maxAttempts int
}

// New creates a Parser. A nil reformatter disables repair: the first parse
// failure is final.
func New(reformat Reformatter) *Parser {
	return &Parser{reformat: reformat, maxAttempts: DefaultMaxRepairAttempts}
}

// NewWithAttempts creates a Parser with a custom repair bound.
func NewWithAttempts(reformat Reformatter, maxAttempts int) *Parser {
	return &Parser{reformat: reformat, maxAttempts: maxAttempts}
}

// ExtractBlock slices the structured block out of raw model output: from the
// first opening fence to the last closing fence in the text.
func ExtractBlock(content string) (string, error) {
	start := strings.Index(content, openingFence)
	if start == -1 {
		return "", ErrNoStructuredBlock
	}
	start += len(openingFence)

	end := strings.LastIndex(content, closingFence)
	if end <= start {
		return "", ErrNoStructuredBlock
	}
	return content[start:end], nil
}

// Parse extracts the structured block from content and decodes it into a
// PlanDocument. On decode failure it invokes the repair function with the
// malformed block and the error message, then restarts from extraction on
// the repaired output, up to the configured bound.
func (p *Parser) Parse(ctx context.Context, content string) (*models.PlanDocument, error) {
	attempt := 0
	for {
		block, err := ExtractBlock(content)
		if err != nil {
			return nil, err
		}

		doc, parseErr := decode(block)
		if parseErr == nil {
			return doc, nil
		}

		if p.reformat == nil || attempt >= p.maxAttempts {
			return nil, &ParseError{Attempts: attempt, LastErr: parseErr}
		}
		attempt++

		slog.Warn("parser.Parse: strict parse failed, requesting repair",
			"attempt", attempt, "max_attempts", p.maxAttempts, "error", parseErr)
		repaired, repairErr := p.reformat(ctx, block, parseErr.Error())
		if repairErr != nil {
			return nil, fmt.Errorf("repair call failed on attempt %d: %w", attempt, repairErr)
		}
		content = repaired
	}
}

// decode strictly parses a block into a PlanDocument, rejecting empty/null
// documents explicitly.
func decode(block string) (*models.PlanDocument, error) {
	// A null document is valid YAML, so check for it before decoding into
	// the struct (which would silently leave everything zero).
	var raw any
	if err := yaml.Unmarshal([]byte(block), &raw); err != nil {
		return nil, err
	}
	if raw == nil {
		return nil, ErrEmptyDocument
	}

	var doc models.PlanDocument
	if err := yaml.Unmarshal([]byte(block), &doc); err != nil {
		return nil, err
	}
	if err := doc.Validate(); err != nil {
		return nil, err
	}
	return &doc, nil
}

// Render serializes a document back into a fenced block. It is the inverse
// of Parse for valid documents and is used by tests and fixtures.
func Render(doc *models.PlanDocument) (string, error) {
	out, err := yaml.Marshal(doc)
	if err != nil {
		return "", err
	}
	return openingFence + "\n" + string(out) + closingFence + "\n", nil
}
