package extract

// extractionPrompt asks the vision model for the page's invoice data as
// strict JSON matching the invoice.Record shape. Fields the page does not
// show are left at their zero value; they default downstream.
const extractionPrompt = `You are an invoice data extractor.
Extract the invoice data visible on this page and return it as JSON with
exactly this structure:
{
    "invoice_number": "",
    "date": "",
    "vendor_name": "",
    "vendor_address": "",
    "total_amount": 0.0,
    "tax_amount": 0.0,
    "line_items": [
        {
            "description": "",
            "quantity": 0,
            "rate": 0.0,
            "amount": 0.0
        }
    ]
}

Rules:
- Use numbers for all amounts, never strings.
- Leave a field empty (or 0) if the page does not show it.
- Return ONLY valid raw JSON: no Markdown, no code fences, no commentary.`
