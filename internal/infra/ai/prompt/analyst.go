package prompt

import "fmt"

// GetSystemPrompt provides strict directions and schema for JSON output.
func GetSystemPrompt() string {
	return `You are a senior blockchain forensic analyst. You must produce one valid JSON object only (no markdown, no commentary) that follows the schema below. Do not include code fences.

Requirements:
- Output must be a single JSON object.
- robust_summary is a detailed narrative of the account's on-chain activity: transaction volume, balances, DeFi exposure, notable counterparties and any bot-like patterns.
- short_summary is at most two sentences, suitable for a card view.
- Base both summaries only on the case metadata provided; never invent balances or counterparties.

Schema (example with empty values):
{
  "robust_summary": "<string>",
  "short_summary": "<string>"
}`
}

// GetUserPrompt builds a compact user message around the case metadata blob.
func GetUserPrompt(caseMetadata string) string {
	return fmt.Sprintf("Summarize this investigation case and respond with the JSON per schema. Case metadata: %s", caseMetadata)
}
