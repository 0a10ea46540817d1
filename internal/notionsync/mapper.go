package notionsync

import (
	"github.com/dvloznov/sms-expense-tracker/internal/domain"
	"github.com/jomei/notionapi"
)

// Property names in the Expenses database.
const (
	propMerchant  = "Merchant"
	propAmount    = "Amount"
	propCategory  = "Category"
	propDate      = "Date"
	propExpenseID = "Expense ID"
	propSource    = "Source"
	propSender    = "Sender"
)

// ExpenseToNotionProperties converts an expense to Notion page properties.
func ExpenseToNotionProperties(exp *domain.Expense) notionapi.Properties {
	date := notionapi.Date(exp.Timestamp)

	props := notionapi.Properties{
		propMerchant: notionapi.TitleProperty{
			Title: richText(exp.Merchant),
		},
		propAmount: notionapi.NumberProperty{
			Number: exp.Amount.InexactFloat64(),
		},
		propCategory: notionapi.SelectProperty{
			Select: notionapi.Option{Name: exp.Category},
		},
		propDate: notionapi.DateProperty{
			Date: &notionapi.DateObject{Start: &date},
		},
		propExpenseID: notionapi.RichTextProperty{
			RichText: richText(exp.ID),
		},
	}

	if exp.Source != "" {
		props[propSource] = notionapi.SelectProperty{
			Select: notionapi.Option{Name: string(exp.Source)},
		}
	}
	if exp.Sender != "" {
		props[propSender] = notionapi.RichTextProperty{
			RichText: richText(exp.Sender),
		}
	}

	return props
}

func richText(content string) []notionapi.RichText {
	return []notionapi.RichText{
		{
			Type: notionapi.ObjectTypeText,
			Text: &notionapi.Text{Content: content},
		},
	}
}

// extractExpenseID reads the Expense ID property of a page.
// Returns empty string if not found.
func extractExpenseID(page notionapi.Page) string {
	prop, ok := page.Properties[propExpenseID]
	if !ok {
		return ""
	}
	richText, ok := prop.(*notionapi.RichTextProperty)
	if !ok || len(richText.RichText) == 0 {
		return ""
	}
	if richText.RichText[0].PlainText != "" {
		return richText.RichText[0].PlainText
	}
	if richText.RichText[0].Text != nil {
		return richText.RichText[0].Text.Content
	}
	return ""
}

// expenseIDOf reads the Expense ID from properties built by
// ExpenseToNotionProperties, for error context.
func expenseIDOf(props notionapi.Properties) string {
	prop, ok := props[propExpenseID].(notionapi.RichTextProperty)
	if !ok || len(prop.RichText) == 0 || prop.RichText[0].Text == nil {
		return ""
	}
	return prop.RichText[0].Text.Content
}
