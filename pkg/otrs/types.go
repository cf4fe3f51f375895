package otrs

import (
	"encoding/base64"
	"encoding/xml"
	"strconv"
	"strings"

	"github.com/scitix/contactmerge/pkg/ticketmodel"
)

// Request envelopes. Element names carry the "tns" prefix bound to Namespace
// on the envelope.

type envelope struct {
	XMLName xml.Name    `xml:"soapenv:Envelope"`
	SoapEnv string      `xml:"xmlns:soapenv,attr"`
	Tns     string      `xml:"xmlns:tns,attr"`
	Header  struct{}    `xml:"soapenv:Header"`
	Body    requestBody `xml:"soapenv:Body"`
}

type requestBody struct {
	Request interface{}
}

type ticketSearchRequest struct {
	XMLName   xml.Name `xml:"tns:TicketSearch"`
	UserLogin string   `xml:"tns:UserLogin"`
	Password  string   `xml:"tns:Password"`
	Title     string   `xml:"tns:Title,omitempty"`
	QueueIDs  []int    `xml:"tns:QueueIDs"`
}

type ticketGetRequest struct {
	XMLName       xml.Name `xml:"tns:TicketGet"`
	UserLogin     string   `xml:"tns:UserLogin"`
	Password      string   `xml:"tns:Password"`
	TicketID      string   `xml:"tns:TicketID"`
	AllArticles   int      `xml:"tns:AllArticles"`
	DynamicFields int      `xml:"tns:DynamicFields"`
	Attachments   int      `xml:"tns:Attachments"`
}

type ticketUpdateRequest struct {
	XMLName      xml.Name            `xml:"tns:TicketUpdate"`
	UserLogin    string              `xml:"tns:UserLogin"`
	Password     string              `xml:"tns:Password"`
	TicketID     string              `xml:"tns:TicketID"`
	Ticket       *updateTicket       `xml:"tns:Ticket"`
	Article      *updateArticle      `xml:"tns:Article"`
	DynamicField *updateDynamicField `xml:"tns:DynamicField"`
	Attachment   []updateAttachment  `xml:"tns:Attachment"`
}

type updateTicket struct {
	Title   string `xml:"tns:Title,omitempty"`
	QueueID int    `xml:"tns:QueueID,omitempty"`
	State   string `xml:"tns:State,omitempty"`
}

type updateArticle struct {
	CommunicationChannel string `xml:"tns:CommunicationChannel,omitempty"`
	ArticleType          string `xml:"tns:ArticleType,omitempty"`
	SenderType           string `xml:"tns:SenderType,omitempty"`
	From                 string `xml:"tns:From,omitempty"`
	To                   string `xml:"tns:To,omitempty"`
	Subject              string `xml:"tns:Subject"`
	Body                 string `xml:"tns:Body"`
	ContentType          string `xml:"tns:ContentType,omitempty"`
	MimeType             string `xml:"tns:MimeType,omitempty"`
	Charset              string `xml:"tns:Charset,omitempty"`
}

type updateDynamicField struct {
	Name  string `xml:"tns:Name"`
	Value string `xml:"tns:Value"`
}

type updateAttachment struct {
	Content     string `xml:"tns:Content"`
	ContentType string `xml:"tns:ContentType"`
	Filename    string `xml:"tns:Filename"`
}

// Response envelopes. Tags carry no namespace so any prefix matches.

type responseEnvelope[T any] struct {
	Body struct {
		Fault    *soapFault `xml:"Fault"`
		Response T          `xml:",any"`
	} `xml:"Body"`
}

type soapFault struct {
	Code   string `xml:"faultcode"`
	String string `xml:"faultstring"`
}

type responseError struct {
	ErrorCode    string `xml:"ErrorCode"`
	ErrorMessage string `xml:"ErrorMessage"`
}

type ticketSearchResponse struct {
	TicketIDs []string       `xml:"TicketID"`
	Error     *responseError `xml:"Error"`
}

type ticketGetResponse struct {
	Tickets []wireTicket   `xml:"Ticket"`
	Error   *responseError `xml:"Error"`
}

type ticketUpdateResponse struct {
	TicketID  string         `xml:"TicketID"`
	ArticleID string         `xml:"ArticleID"`
	Error     *responseError `xml:"Error"`
}

type wireTicket struct {
	TicketID     string             `xml:"TicketID"`
	TicketNumber string             `xml:"TicketNumber"`
	Title        string             `xml:"Title"`
	QueueID      string             `xml:"QueueID"`
	Queue        string             `xml:"Queue"`
	State        string             `xml:"State"`
	DynamicField []wireDynamicField `xml:"DynamicField"`
	Article      []wireArticle      `xml:"Article"`
}

type wireDynamicField struct {
	Name  string `xml:"Name"`
	Value string `xml:"Value"`
}

type wireArticle struct {
	ArticleID            string           `xml:"ArticleID"`
	From                 string           `xml:"From"`
	To                   string           `xml:"To"`
	Subject              string           `xml:"Subject"`
	Body                 string           `xml:"Body"`
	ContentType          string           `xml:"ContentType"`
	MimeType             string           `xml:"MimeType"`
	Charset              string           `xml:"Charset"`
	SenderType           string           `xml:"SenderType"`
	ArticleType          string           `xml:"ArticleType"`
	CommunicationChannel string           `xml:"CommunicationChannel"`
	Attachment           []wireAttachment `xml:"Attachment"`
}

type wireAttachment struct {
	Filename    string `xml:"Filename"`
	ContentType string `xml:"ContentType"`
	Content     string `xml:"Content"`
}

func (w *wireTicket) toTicket() (*ticketmodel.Ticket, error) {
	t := &ticketmodel.Ticket{
		ID:     ticketmodel.TicketID(w.TicketID),
		Number: w.TicketNumber,
		Title:  w.Title,
		Queue:  w.Queue,
		State:  ticketmodel.TicketState(w.State),
	}
	if w.QueueID != "" {
		q, err := strconv.Atoi(strings.TrimSpace(w.QueueID))
		if err != nil {
			return nil, err
		}
		t.QueueID = ticketmodel.QueueID(q)
	}
	for _, f := range w.DynamicField {
		t.DynamicFields = append(t.DynamicFields, ticketmodel.DynamicField{Name: f.Name, Value: f.Value})
	}
	for _, a := range w.Article {
		art := ticketmodel.Article{
			ID:                   a.ArticleID,
			From:                 a.From,
			To:                   a.To,
			Subject:              a.Subject,
			Body:                 a.Body,
			ContentType:          a.ContentType,
			MimeType:             a.MimeType,
			Charset:              a.Charset,
			SenderType:           a.SenderType,
			ArticleType:          a.ArticleType,
			CommunicationChannel: a.CommunicationChannel,
		}
		for _, att := range a.Attachment {
			content, err := base64.StdEncoding.DecodeString(strings.TrimSpace(att.Content))
			if err != nil {
				return nil, err
			}
			art.Attachments = append(art.Attachments, ticketmodel.Attachment{
				Filename:    att.Filename,
				ContentType: att.ContentType,
				Content:     content,
			})
		}
		t.Articles = append(t.Articles, art)
	}
	return t, nil
}

func newUpdateRequest(id ticketmodel.TicketID, u ticketmodel.TicketUpdate) *ticketUpdateRequest {
	req := &ticketUpdateRequest{TicketID: string(id)}

	if u.QueueID != nil || u.Title != nil || u.State != nil {
		req.Ticket = &updateTicket{}
		if u.QueueID != nil {
			req.Ticket.QueueID = int(*u.QueueID)
		}
		if u.Title != nil {
			req.Ticket.Title = *u.Title
		}
		if u.State != nil {
			req.Ticket.State = string(*u.State)
		}
	}

	if f := u.DynamicField; f != nil {
		req.DynamicField = &updateDynamicField{Name: f.Name, Value: f.Value}
	}

	if a := u.Article; a != nil {
		req.Article = &updateArticle{
			CommunicationChannel: a.CommunicationChannel,
			ArticleType:          a.ArticleType,
			SenderType:           a.SenderType,
			From:                 a.From,
			To:                   a.To,
			Subject:              a.Subject,
			Body:                 a.Body,
			ContentType:          a.ContentType,
			MimeType:             a.MimeType,
			Charset:              a.Charset,
		}
		// the connector rejects articles without a content type
		if req.Article.ContentType == "" && (req.Article.MimeType == "" || req.Article.Charset == "") {
			req.Article.ContentType = defaultContentType
		}
		if req.Article.SenderType == "" {
			req.Article.SenderType = defaultSenderType
		}
		if req.Article.CommunicationChannel == "" && req.Article.ArticleType == "" {
			req.Article.CommunicationChannel = defaultCommunicationChannel
		}
		for _, att := range a.Attachments {
			req.Attachment = append(req.Attachment, updateAttachment{
				Content:     base64.StdEncoding.EncodeToString(att.Content),
				ContentType: att.ContentType,
				Filename:    att.Filename,
			})
		}
	}

	return req
}
