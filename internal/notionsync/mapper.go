package notionsync

import (
	"github.com/jomei/notionapi"

	"github.com/dmolina/cash-closure/internal/domain"
)

// ClosureToNotionProperties converts a closed period into the property set of
// the closures Notion database: Closure ID (title), period bounds, totals,
// status and who closed it.
func ClosureToNotionProperties(c *domain.CashClosure) notionapi.Properties {
	props := notionapi.Properties{
		"Closure ID": notionapi.TitleProperty{
			Title: []notionapi.RichText{
				{
					Type: notionapi.ObjectTypeText,
					Text: &notionapi.Text{Content: c.ID},
				},
			},
		},
		"Period": notionapi.DateProperty{
			Date: &notionapi.DateObject{
				Start: func() *notionapi.Date {
					d := notionapi.Date(c.PeriodStart)
					return &d
				}(),
				End: func() *notionapi.Date {
					d := notionapi.Date(c.PeriodEnd)
					return &d
				}(),
			},
		},
		"Status": notionapi.SelectProperty{
			Select: notionapi.Option{Name: string(c.Status)},
		},
		"Total Credit": notionapi.NumberProperty{
			Number: c.TotalCredit.InexactFloat64(),
		},
		"Total Debit": notionapi.NumberProperty{
			Number: c.TotalDebit.InexactFloat64(),
		},
		"Balance": notionapi.NumberProperty{
			Number: c.TotalAmount.InexactFloat64(),
		},
		"Payment Methods": notionapi.NumberProperty{
			Number: float64(len(c.PaymentMethods)),
		},
	}

	if c.ClosedBy != "" {
		props["Closed By"] = notionapi.RichTextProperty{
			RichText: []notionapi.RichText{
				{
					Type: notionapi.ObjectTypeText,
					Text: &notionapi.Text{Content: c.ClosedBy},
				},
			},
		}
	}

	if c.ClosedAt != nil {
		props["Closed At"] = notionapi.DateProperty{
			Date: &notionapi.DateObject{
				Start: (*notionapi.Date)(c.ClosedAt),
			},
		}
	}

	return props
}

// extractClosureID reads the Closure ID title property from a Notion page.
// Returns empty string if not found.
func extractClosureID(page notionapi.Page) string {
	if prop, ok := page.Properties["Closure ID"]; ok {
		if title, ok := prop.(*notionapi.TitleProperty); ok {
			if len(title.Title) > 0 {
				return title.Title[0].PlainText
			}
		}
	}
	return ""
}
