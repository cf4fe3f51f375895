package ticketmodel

import "fmt"

// TicketID is the opaque identifier assigned by the ticketing system.
type TicketID string

type QueueID int

type TicketState string

const (
	TicketStateOpen     TicketState = "Open"
	TicketStateResolved TicketState = "resolved"
)

// IPFieldName is the free field holding the normalized IP of an abuse dossier.
const IPFieldName = "CF-IP"

type Attachment struct {
	Filename    string `yaml:"filename,omitempty"`
	ContentType string `yaml:"contentType,omitempty"`
	Content     []byte `yaml:"-"`
}

// Article is one message of a ticket together with its attachments.
type Article struct {
	ID                   string       `yaml:"id,omitempty"`
	From                 string       `yaml:"from,omitempty"`
	To                   string       `yaml:"to,omitempty"`
	Subject              string       `yaml:"subject,omitempty"`
	Body                 string       `yaml:"-"`
	ContentType          string       `yaml:"contentType,omitempty"`
	MimeType             string       `yaml:"mimeType,omitempty"`
	Charset              string       `yaml:"charset,omitempty"`
	SenderType           string       `yaml:"senderType,omitempty"`
	ArticleType          string       `yaml:"articleType,omitempty"`
	CommunicationChannel string       `yaml:"communicationChannel,omitempty"`
	Attachments          []Attachment `yaml:"attachments,omitempty"`
}

type DynamicField struct {
	Name  string `yaml:"name"`
	Value string `yaml:"value"`
}

type Ticket struct {
	ID            TicketID       `yaml:"id"`
	Number        string         `yaml:"number,omitempty"`
	Title         string         `yaml:"title"`
	QueueID       QueueID        `yaml:"queueID"`
	Queue         string         `yaml:"queue,omitempty"`
	State         TicketState    `yaml:"state"`
	DynamicFields []DynamicField `yaml:"dynamicFields,omitempty"`
	Articles      []Article      `yaml:"articles,omitempty"`
}

// Field returns the value of the named dynamic field.
func (t *Ticket) Field(name string) (string, bool) {
	for _, f := range t.DynamicFields {
		if f.Name == name {
			return f.Value, true
		}
	}
	return "", false
}

// SearchQuery selects tickets in any of QueueIDs whose title matches Title.
// Title uses the SQL LIKE wildcard '%'.
type SearchQuery struct {
	QueueIDs []QueueID
	Title    string
}

// TicketUpdate carries the members to change on a ticket. Nil members are left
// untouched.
type TicketUpdate struct {
	QueueID      *QueueID
	Title        *string
	State        *TicketState
	DynamicField *DynamicField
	Article      *Article
}

func (u TicketUpdate) Empty() bool {
	return u.QueueID == nil && u.Title == nil && u.State == nil && u.DynamicField == nil && u.Article == nil
}

func (u TicketUpdate) String() string {
	s := "update{"
	if u.QueueID != nil {
		s += fmt.Sprintf(" queue=%d", *u.QueueID)
	}
	if u.Title != nil {
		s += fmt.Sprintf(" title=%q", *u.Title)
	}
	if u.State != nil {
		s += fmt.Sprintf(" state=%s", *u.State)
	}
	if u.DynamicField != nil {
		s += fmt.Sprintf(" field=%s:%s", u.DynamicField.Name, u.DynamicField.Value)
	}
	if u.Article != nil {
		s += fmt.Sprintf(" article=%q", u.Article.Subject)
	}
	return s + " }"
}

func SetQueue(q QueueID) TicketUpdate { return TicketUpdate{QueueID: &q} }

func SetTitle(title string) TicketUpdate { return TicketUpdate{Title: &title} }

func SetState(s TicketState) TicketUpdate { return TicketUpdate{State: &s} }

func SetField(name, value string) TicketUpdate {
	return TicketUpdate{DynamicField: &DynamicField{Name: name, Value: value}}
}

func AppendArticle(a Article) TicketUpdate { return TicketUpdate{Article: &a} }
