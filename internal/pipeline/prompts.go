package pipeline

import (
	"strings"
)

// ReceiptPromptTemplate is the fixed receipt extraction instruction. The only
// variable part is UserIDPlaceholder.
var ReceiptPromptTemplate = buildReceiptPromptTemplate()

func buildReceiptPromptTemplate() string {
	var b strings.Builder

	b.WriteString("You are a receipt parser for a personal finance app.\n\n")
	b.WriteString("Task:\n")
	b.WriteString("- Read EVERY attached receipt image. All images belong to the same request.\n")
	b.WriteString("- Extract each purchased item or charge as one expense.\n")
	b.WriteString("- Return ONE flat JSON array covering all images together. Do not return one array per image.\n\n")

	b.WriteString("Each object in the array must have exactly these fields:\n")
	b.WriteString("- \"amount\": number (float, the price paid; use 0 if it cannot be read)\n")
	b.WriteString("- \"type\": string, always \"expense\"\n")
	b.WriteString("- \"detail\": string (short description of the item or merchant)\n")
	b.WriteString("- \"tag\": string (spending category)\n")
	b.WriteString("- \"user_id\": string, always \"" + UserIDPlaceholder + "\"\n\n")

	b.WriteString("Suggested tags:\n")
	for _, tag := range SuggestedTags {
		b.WriteString("  - " + tag + "\n")
	}
	b.WriteString("\n")

	b.WriteString("Example:\n")
	b.WriteString("[{\"amount\": 12.5, \"type\": \"expense\", \"detail\": \"Latte\", \"tag\": \"Food\", \"user_id\": \"" + UserIDPlaceholder + "\"}]\n\n")

	b.WriteString("Rules:\n")
	b.WriteString("- If no items can be read, return [].\n")
	b.WriteString("- Return ONLY the raw JSON array.\n")
	b.WriteString("- Do NOT wrap the response in code fences or add any explanation.\n")
	b.WriteString("- Output must begin with \"[\" and end with \"]\".\n")

	return b.String()
}

// BuildReceiptPrompt returns the receipt instruction for the given user.
func BuildReceiptPrompt(userID string) string {
	return strings.ReplaceAll(ReceiptPromptTemplate, UserIDPlaceholder, userID)
}

// SummaryInstruction precedes the rendered transaction list in the
// financial summary request.
const SummaryInstruction = "You are a personal finance assistant.\n" +
	"Below is the complete list of a user's recorded transactions, one per line, in the format:\n" +
	"date | type | amount | tag | detail\n\n" +
	"Analyse the user's spending and income. Summarise total income, total expenses and the balance, " +
	"point out the categories where most money goes, flag unusual or recurring expenses, " +
	"and give concrete, friendly advice on how to save more. Answer in plain text.\n\n" +
	"Transactions:\n"

// StatusPrompt is sent by the AI status check.
const StatusPrompt = "I call you from my web server API, so say hello to my users."

// BuildSummaryPrompt renders the transactions under SummaryInstruction.
func BuildSummaryPrompt(lines string) string {
	return SummaryInstruction + lines
}
