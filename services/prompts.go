package services

import (
	"fmt"
	"strings"

	"github.com/kusumaprabha/UltraShip/models"
)

// answerSystemPrompt pins the generator to the retrieved context. The
// "Not found in document" wording matters: the guardrail denylist keys on it.
const answerSystemPrompt = `You are a logistics document expert. Your task is to answer questions based ONLY on the provided context.

RULES:
1. Only use information from the context
2. If the answer isn't in the context, say "Not found in document"
3. Be concise and specific
4. Include relevant details like dates, names, and numbers when available
5. Never make up information`

// BuildAnswerPrompt assembles the generation prompt: system instructions,
// the retrieved chunks each prefixed with a provenance marker, and the
// question. The markers let an answer be attributed back to its sources.
func BuildAnswerPrompt(query string, retrieved models.RetrievalResult) string {
	var b strings.Builder
	b.WriteString(answerSystemPrompt)
	b.WriteString("\n\nCONTEXT:\n")
	for i, sc := range retrieved.Chunks {
		if i > 0 {
			b.WriteString("\n\n")
		}
		fmt.Fprintf(&b, "[chunk %s]\n%s", sc.Chunk.ChunkID, sc.Chunk.Text)
	}
	fmt.Fprintf(&b, "\n\nQUESTION: %s\n\nANSWER (based only on the context above):", query)
	return b.String()
}

// extractionPromptMaxChars caps how much document text goes into the
// structured-extraction prompt.
const extractionPromptMaxChars = 10000

// BuildExtractionPrompt assembles the structured-extraction prompt for the
// eleven shipment fields. Overlong documents are truncated.
func BuildExtractionPrompt(text string) string {
	if len(text) > extractionPromptMaxChars {
		text = text[:extractionPromptMaxChars] + "\n...[truncated]"
	}
	return fmt.Sprintf(`You are a logistics document extraction expert. Extract the following shipment information from the document below.

REQUIRED FIELDS (use null if not found):
1. shipment_id: Any ID number (BOL#, PRO#, Reference#, Booking#)
2. shipper: Company name of sender/shipper
3. consignee: Company name of receiver
4. pickup_datetime: Date and time of pickup (format: YYYY-MM-DD HH:MM)
5. delivery_datetime: Date and time of delivery (format: YYYY-MM-DD HH:MM)
6. equipment_type: Type of trailer/container (e.g., "53ft van", "40ft container", "Reefer")
7. mode: Transport mode ("Truck", "Rail", "Ocean", "Air", "LTL", "FTL")
8. rate: Monetary amount as number (just the number, no currency symbol)
9. currency: Currency code (USD, CAD, EUR, etc.)
10. weight: Weight as number (just the number)
11. carrier_name: Name of carrier company

EXAMPLES:
- "BOL#: 123456" -> shipment_id: "123456"
- "Shipper: ABC Corp" -> shipper: "ABC Corp"
- "Pickup: 2024-01-15 14:30" -> pickup_datetime: "2024-01-15 14:30"
- "Rate: $2,500.00" -> rate: 2500.00, currency: "USD"
- "Weight: 45000 lbs" -> weight: 45000

DOCUMENT TEXT:
%s

Return ONLY a valid JSON object with these fields. No explanations, no markdown, just pure JSON.`, text)
}
