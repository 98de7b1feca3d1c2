// Package prompt assembles the generation payload: role- and
// language-specific instructions, retrieved knowledge, academic context,
// and a bounded conversation history.
package prompt

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/kampusgratis/assistant/internal/identity"
	"github.com/kampusgratis/assistant/internal/knowledge"
	"github.com/kampusgratis/assistant/internal/stores/session"
)

// DefaultHistoryWindow bounds how many prior turns enter the prompt
const DefaultHistoryWindow = 5

// Markers spliced in when the academic collaborator cannot deliver
const (
	unavailableMarkerID = "Data akademik sedang tidak tersedia. Sampaikan kepada mahasiswa bahwa data tidak dapat diakses saat ini."
	unavailableMarkerEN = "Academic data is currently unavailable. Tell the student their records cannot be accessed right now."
)

// AcademicSource is the external read-only collaborator for student records
type AcademicSource interface {
	FetchContext(ctx context.Context, academicID string) (string, error)
}

// Payload is the assembled generation context
type Payload struct {
	SystemInstruction string
	ContextBlock      string // empty when there is nothing to splice
	History           []session.Turn
	UserMessage       string
}

// Composer merges retrieved knowledge, role instructions, and academic
// data into a single generation context
type Composer struct {
	templates     *Templates
	academic      AcademicSource
	historyWindow int
}

// NewComposer creates a composer. historyWindow <= 0 uses the default
func NewComposer(templates *Templates, academic AcademicSource, historyWindow int) *Composer {
	if historyWindow <= 0 {
		historyWindow = DefaultHistoryWindow
	}
	return &Composer{templates: templates, academic: academic, historyWindow: historyWindow}
}

// Build assembles the payload for one request
func (c *Composer) Build(ctx context.Context, role identity.RoleDescriptor, language string, hits []knowledge.Hit, history []session.Turn, userMessage string) Payload {
	var parts []string

	if block := KnowledgeBlock(hits); block != "" {
		parts = append(parts, block)
	}

	if role.Kind == identity.KindStudent {
		academicContext, err := c.academic.FetchContext(ctx, role.AcademicID)
		if err != nil {
			log.Printf("[COMPOSER]: Academic data unavailable for %s: %v", role.AcademicID, err)
			academicContext = unavailableMarker(language)
		}
		parts = append(parts, academicContext)
	}

	if len(history) > c.historyWindow {
		history = history[len(history)-c.historyWindow:]
	}

	return Payload{
		SystemInstruction: c.templates.SystemInstruction(role, language),
		ContextBlock:      strings.Join(parts, "\n\n"),
		History:           history,
		UserMessage:       userMessage,
	}
}

// KnowledgeBlock renders hits as a numbered Q/A block ordered as given
// (the retriever already sorts by descending score). Empty when no hits
func KnowledgeBlock(hits []knowledge.Hit) string {
	if len(hits) == 0 {
		return ""
	}

	var b strings.Builder
	for i, hit := range hits {
		fmt.Fprintf(&b, "FAQ %d (relevance: %.2f):\nQ: %s\nA: %s\n", i+1, hit.Score, hit.Question, hit.Answer)
	}
	return strings.TrimRight(b.String(), "\n")
}

func unavailableMarker(language string) string {
	if language == "en" {
		return unavailableMarkerEN
	}
	return unavailableMarkerID
}
