package llm

// BuildPrompt composes the extraction prompt for a receipt's text.
func BuildPrompt(receiptText string) string {
	return `Extract the following information from this receipt text. Return the data in JSON format with these exact field names:
- purchased_at: Date and time of purchase (in ISO format if possible, or the original format from receipt)
- merchant_name: Name of the merchant/store
- total_amount: Total amount as a number (without currency symbols)

If any information is not found, use null for that field.
Only return the JSON object, no additional text.

Receipt text:
` + receiptText
}
