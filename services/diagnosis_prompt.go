package services

import (
	"fmt"
	"strings"
)

// TestConnectionPrompt is the fixed greeting used to probe the AI backend.
const TestConnectionPrompt = "Hello, Gemini!"

const sectionMarker = `<div class="diagnosis-section">`

type diagnosisSection struct {
	Title  string
	Labels [6]string
}

var diagnosisSections = [5]diagnosisSection{
	{Title: "📋 Diagnosis Summary", Labels: [6]string{"Condition", "Cause", "Symptom Relation", "Body System", "Severity", "Uncertainty"}},
	{Title: "💊 Recommended Medicines", Labels: [6]string{"Primary Drug", "Supplement", "OTC", "Usage", "Duration", "Consultation"}},
	{Title: "⚠️ Possible Side Effects", Labels: [6]string{"Common", "Rare", "Management", "Critical Signs", "Interactions", "When to Stop"}},
	{Title: "🚫 Things to Avoid", Labels: [6]string{"Food", "Activities", "Interactions", "Triggers", "Habits", "Delay"}},
	{Title: "📅 Follow-Up Suggestions", Labels: [6]string{"Visit", "Tests", "Monitoring", "Red Flags", "Specialists", "Tools"}},
}

// BuildDiagnosisPrompt renders the instruction sent to the AI for a symptom
// description. The symptom text is embedded verbatim.
func BuildDiagnosisPrompt(symptoms, language string) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "You are a medical assistant. Respond only in %s and do not switch to any other language.\n", language)
	fmt.Fprintf(&sb, "A user reports: \"%s\".\n\n", symptoms)
	sb.WriteString(diagnosisTemplate(language))

	return sb.String()
}

// diagnosisTemplate is the fixed structural part of the prompt. It does not
// depend on the symptoms.
func diagnosisTemplate(language string) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "Generate a professional HTML response written entirely in %s. ", language)
	sb.WriteString("Use <div> containers and numbered lists exactly as in the template below. ")
	sb.WriteString("Each section must include exactly 6 points, and each point must begin with a bold label summarizing its meaning. ")
	fmt.Fprintf(&sb, "Translate every title, label and point into %s; keep the HTML tags and styles unchanged.\n\n", language)

	for i, section := range diagnosisSections {
		if i > 0 {
			sb.WriteString("<hr style='width: 100%; border: none; border-top: 2px solid #f28b82; margin: 2rem 0;'>\n\n")
		}
		sb.WriteString(sectionMarker + "\n")
		fmt.Fprintf(&sb, "  <h3 style='font-size:1.1rem; color:#003153; font-weight:bold;'>%s</h3>\n", section.Title)
		sb.WriteString("  <hr style='margin: 0.2rem 0 1rem 0; border: none; border-top: 1px solid #ccc;'>\n")
		sb.WriteString("  <ol style='list-style-type: decimal; padding-left: 20px;'>\n")
		for _, label := range section.Labels {
			fmt.Fprintf(&sb, "    <li><b>%s:</b> [%s point content in %s]</li>\n", label, label, language)
		}
		sb.WriteString("  </ol>\n</div>\n\n")
	}

	fmt.Fprintf(&sb, "Respond only in %s with complete, valid HTML. No additional comments, no markdown fences.\n", language)

	return sb.String()
}
