package quotes

import "time"

// QuoteDTO is the API shape of one quote.
type QuoteDTO struct {
	ID          string        `json:"id"`
	QuoteNumber string        `json:"quoteNumber"`
	IssueDate   string        `json:"issueDate"`
	Customer    string        `json:"customer"`
	Salesperson string        `json:"salesperson"`
	TotalCents  int64         `json:"totalCents"`
	Currency    string        `json:"currency"`
	Total       string        `json:"total"`
	Status      string        `json:"status"`
	Summary     string        `json:"summary,omitempty"`
	Notes       string        `json:"notes,omitempty"`
	Events      []EventRefDTO `json:"events"`
	CreatedAt   time.Time     `json:"createdAt"`
	UpdatedAt   time.Time     `json:"updatedAt"`
}

// EventRefDTO is the API shape of one scheduled reminder.
type EventRefDTO struct {
	Tag      string `json:"tag"`
	EventID  string `json:"eventId"`
	HTMLLink string `json:"htmlLink,omitempty"`
}

// ToDTO converts a stored quote into its API shape.
func ToDTO(q Quote) QuoteDTO {
	dto := QuoteDTO{
		ID:          q.ID,
		QuoteNumber: q.QuoteNumber,
		IssueDate:   q.IssueDate.Format("2006-01-02"),
		Customer:    q.Customer,
		Salesperson: q.Salesperson,
		TotalCents:  q.Total.Cents,
		Currency:    q.Total.Currency,
		Total:       q.Total.String(),
		Status:      q.Status,
		Summary:     q.Summary,
		Notes:       q.Notes,
		Events:      make([]EventRefDTO, 0, len(q.Events)),
		CreatedAt:   q.CreatedAt,
		UpdatedAt:   q.UpdatedAt,
	}
	for _, ref := range q.Events {
		dto.Events = append(dto.Events, EventRefDTO{Tag: ref.Tag, EventID: ref.EventID, HTMLLink: ref.HTMLLink})
	}
	return dto
}
