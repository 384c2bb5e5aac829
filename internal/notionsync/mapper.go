package notionsync

import (
	"fmt"
	"time"

	"github.com/dvloznov/receipt-ledger/internal/domain"
	"github.com/jomei/notionapi"
)

// Property names of the transactions database.
const (
	PropDescription   = "Description"
	PropDate          = "Date"
	PropAmount        = "Amount"
	PropType          = "Type"
	PropTag           = "Tag"
	PropTransactionID = "Transaction ID"
	PropUserID        = "User ID"
	PropLastModified  = "Last Modified"
)

// maxRichTextLen is Notion's limit for a single rich text object.
const maxRichTextLen = 2000

// TransactionToNotionProperties converts a stored transaction to Notion properties.
func TransactionToNotionProperties(tx *domain.Transaction) notionapi.Properties {
	title := tx.Detail
	if title == "" {
		title = fmt.Sprintf("%s %.2f", tx.Type, tx.Amount)
	}

	props := notionapi.Properties{
		PropDescription: notionapi.TitleProperty{
			Title: richText(title),
		},
		PropAmount: notionapi.NumberProperty{
			Number: tx.Amount,
		},
		PropType: notionapi.SelectProperty{
			Select: notionapi.Option{Name: tx.Type},
		},
		PropTransactionID: notionapi.RichTextProperty{
			RichText: richText(tx.ID),
		},
		PropUserID: notionapi.RichTextProperty{
			RichText: richText(tx.UserID),
		},
	}

	if !tx.CreatedAt.IsZero() {
		props[PropDate] = dateProperty(tx.CreatedAt)
	}
	if !tx.UpdatedAt.IsZero() {
		props[PropLastModified] = dateProperty(tx.UpdatedAt)
	}

	// Notion rejects empty select options
	if tx.Tag != "" {
		props[PropTag] = notionapi.SelectProperty{
			Select: notionapi.Option{Name: tx.Tag},
		}
	}

	return props
}

func richText(s string) []notionapi.RichText {
	s = truncateRunes(s, maxRichTextLen)
	return []notionapi.RichText{
		{
			Type: notionapi.ObjectTypeText,
			Text: &notionapi.Text{Content: s},
		},
	}
}

func dateProperty(t time.Time) notionapi.DateProperty {
	d := notionapi.Date(t.UTC())
	return notionapi.DateProperty{
		Date: &notionapi.DateObject{Start: &d},
	}
}

// truncateRunes cuts s to at most n bytes without splitting a UTF-8 sequence.
func truncateRunes(s string, n int) string {
	if len(s) <= n {
		return s
	}
	cut := 0
	for i := range s {
		if i > n {
			break
		}
		cut = i
	}
	return s[:cut]
}

// pageText returns the plain text of a rich text or title property.
func pageText(page notionapi.Page, name string) string {
	switch prop := page.Properties[name].(type) {
	case *notionapi.RichTextProperty:
		if len(prop.RichText) > 0 {
			return prop.RichText[0].PlainText
		}
	case *notionapi.TitleProperty:
		if len(prop.Title) > 0 {
			return prop.Title[0].PlainText
		}
	}
	return ""
}

// pageDate returns the start of a date property, or the zero time.
func pageDate(page notionapi.Page, name string) time.Time {
	if prop, ok := page.Properties[name].(*notionapi.DateProperty); ok && prop.Date != nil && prop.Date.Start != nil {
		return time.Time(*prop.Date.Start)
	}
	return time.Time{}
}
