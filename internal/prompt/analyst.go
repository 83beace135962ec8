// Package prompt builds the analyst instructions sent to the remote agent.
package prompt

import (
	"fmt"
	"strings"
)

// DictionaryFilename is the artifact name the agent is told to produce.
const DictionaryFilename = "data_dictionary.json"

const analystPreamble = `You are a meticulous data analyst working ONLY with the spreadsheet available inside the code execution container.`

const profileStep = `PROFILE:
- Open the workbook safely (the file has been uploaded to your container).
- Enumerate sheet names. For each sheet:
  - sample up to 10 rows (head), row count, and column count
  - list columns with inferred dtype (numeric/date/text/categorical) and % missing
  - note likely primary keys or unique identifier columns (if any)
  - detect obvious date columns and normalize to ISO-8601 (YYYY-MM-DD) in memory (do not overwrite the original)
- Output a compact JSON object called DATA_DICTIONARY with this structure:
  {
    "sheets": [
      {
        "name": "...",
        "rows": 12345,
        "cols": 12,
        "columns": [
          {"name": "col_a", "inferred_type": "numeric|date|text|categorical", "missing_pct": 0.12, "unique_ct": 999}
        ],
        "sample": [ ... up to 10 rows ... ]
      }
    ],
    "notes": ["any parsing warnings or assumptions"]
  }
- Save this JSON to a file named ` + DictionaryFilename + ` and also print it in the text output.`

const planStep = `PLAN:
- Based on the DATA_DICTIONARY, draft a short PLAN (bulleted) describing how to answer the user question.
- If required columns/sheets are missing or ambiguous, state that clearly and propose fallback options.`

const answerStep = `ANSWER:
- Execute the PLAN using pandas. Prefer memory-efficient operations and sampling if the sheet is huge.
- If a plot helps, produce a simple chart (PNG). Titles and axis labels must be clear and short.
- End with a short, actionable TL;DR.`

const constraints = `Constraints:
- No external internet access.
- Do not write back to the source file; transformations must be in-memory only.
- Be explicit about any assumptions.`

// Analyst returns the full three-step briefing: profile all sheets, plan the
// analysis, answer the question.
func Analyst() string {
	return join(analystPreamble,
		"STEP 1 — "+profileStep,
		"STEP 2 — "+planStep,
		"STEP 3 — "+answerStep,
		constraints)
}

// ProfileOnly returns a briefing that stops after the data dictionary.
func ProfileOnly() string {
	return join(analystPreamble, profileStep, constraints)
}

// AskOnly returns a briefing for answering a question directly. When a
// previously generated data dictionary is supplied, it is inlined so the
// agent can skip re-profiling.
func AskOnly(dictionary string) string {
	parts := []string{analystPreamble}
	if strings.TrimSpace(dictionary) != "" {
		parts = append(parts, "A DATA_DICTIONARY for this workbook was generated earlier. Trust it and do not re-profile:\n"+dictionary)
	}
	parts = append(parts, answerStep, constraints)
	return join(parts...)
}

// DefaultQuestion is used when the caller supplies no question of their own.
const DefaultQuestion = "What insights can you derive from this workbook?"

// Question normalizes the user's question, falling back to the default.
func Question(q string) string {
	q = strings.TrimSpace(q)
	if q == "" {
		return DefaultQuestion
	}
	return q
}

// WatchQuestion frames an unattended analysis triggered by a file watcher.
func WatchQuestion(path string) string {
	return fmt.Sprintf("The workbook %s just arrived. %s", path, DefaultQuestion)
}

func join(parts ...string) string {
	return strings.Join(parts, "\n\n")
}
