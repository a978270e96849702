package synthesis

import (
	"strings"

	"github.com/m-mizutani/gollem"
	"github.com/secmon-lab/soapnote/pkg/domain/model"
)

// DefaultRules is the extraction rules preamble of the synthesis prompt
const DefaultRules = `You are an expert clinical documentation assistant.
Your task is to analyze the provided doctor-patient conversation and extract a structured SOAP note.

Rules:
- SUBJECTIVE: Extract patient complaints and history. Use bullet points.
- OBJECTIVE: Extract measurable data (vitals, labs) and physical exam findings.
- ASSESSMENT:
  - Summarize the diagnosis or differential diagnosis.
  - Propose 1-3 possible conditions with brief rationale.
  - Clearly state uncertainty if the evidence is weak.
- PLAN: List next steps, medications prescribed, and follow-up instructions.
- Be concise and professional. Use medical terminology where appropriate.
- Your output will be reviewed by a licensed clinician. This is not a final diagnosis.`

const outputInstruction = `Return ONLY a valid JSON object, with this exact structure and field names:
{
  "patient_summary": "short paragraph summary of the case",
  "subjective": ["item 1", "item 2", "..."],
  "objective": ["item 1", "item 2", "..."],
  "assessment": "diagnosis or differential, including 1-3 possible conditions with brief rationale",
  "plan": ["item 1", "item 2", "..."]
}

Do not include any extra text before or after the JSON.`

func buildPrompt(rules, transcript string) string {
	var sb strings.Builder
	sb.WriteString(strings.TrimSpace(rules))
	sb.WriteString("\n\n")
	sb.WriteString(outputInstruction)
	sb.WriteString("\n\nConversation:\n")
	sb.WriteString(transcript)
	sb.WriteString("\n")
	return sb.String()
}

func responseSchema() *gollem.Parameter {
	listOf := func(description string) *gollem.Parameter {
		return &gollem.Parameter{
			Type:        gollem.TypeArray,
			Description: description,
			Items:       &gollem.Parameter{Type: gollem.TypeString},
		}
	}

	return &gollem.Parameter{
		Title:       "SOAPNote",
		Description: "Structured SOAP note extracted from a doctor-patient conversation",
		Type:        gollem.TypeObject,
		Properties: map[string]*gollem.Parameter{
			model.NoteFieldSummary: {
				Type:        gollem.TypeString,
				Description: "Short paragraph summary of the case",
			},
			model.NoteFieldSubjective: listOf("Patient complaints and history"),
			model.NoteFieldObjective:  listOf("Measurable data and physical exam findings"),
			model.NoteFieldAssessment: {
				Type:        gollem.TypeString,
				Description: "Diagnosis or differential, including 1-3 possible conditions with brief rationale",
			},
			model.NoteFieldPlan: listOf("Next steps, medications and follow-up instructions"),
		},
		Required: []string{
			model.NoteFieldSummary,
			model.NoteFieldSubjective,
			model.NoteFieldObjective,
			model.NoteFieldAssessment,
			model.NoteFieldPlan,
		},
	}
}
