package triage

import (
	"errors"
	"fmt"
	"strings"

	"github.com/scitix/contactmerge/pkg/ticketmodel"
)

// ipPlaceholder marks where the IP goes in a title template.
const ipPlaceholder = "%s"

const (
	DefaultPrimaryTitle   = "Contactformulier KPN voor het IP adres %s"
	DefaultSecondaryTitle = "Misbruik van uw internetverbinding [%s]"
	DefaultDossierQueue   = ticketmodel.QueueID(25)
)

var (
	DefaultPrimaryQueues   = []ticketmodel.QueueID{25}
	DefaultSecondaryQueues = []ticketmodel.QueueID{22, 23, 25}
)

// Workflow holds the abuse desk conventions: which queues hold new contact
// form tickets and dossiers, and how their titles read.
type Workflow struct {
	PrimaryQueues   []ticketmodel.QueueID
	PrimaryTitle    string
	SecondaryQueues []ticketmodel.QueueID
	SecondaryTitle  string
	DossierQueue    ticketmodel.QueueID

	// SetIPField writes the IP into IPField when a new dossier is created.
	SetIPField bool
	IPField    string
}

func DefaultWorkflow() Workflow {
	return Workflow{
		PrimaryQueues:   append([]ticketmodel.QueueID(nil), DefaultPrimaryQueues...),
		PrimaryTitle:    DefaultPrimaryTitle,
		SecondaryQueues: append([]ticketmodel.QueueID(nil), DefaultSecondaryQueues...),
		SecondaryTitle:  DefaultSecondaryTitle,
		DossierQueue:    DefaultDossierQueue,
		IPField:         ticketmodel.IPFieldName,
	}
}

func (w Workflow) Validate() error {
	var errs []error
	if len(w.PrimaryQueues) == 0 {
		errs = append(errs, errors.New("primary queues are empty"))
	}
	if len(w.SecondaryQueues) == 0 {
		errs = append(errs, errors.New("secondary queues are empty"))
	}
	if w.DossierQueue <= 0 {
		errs = append(errs, fmt.Errorf("invalid dossier queue %d", w.DossierQueue))
	}
	if n := strings.Count(w.PrimaryTitle, ipPlaceholder); n != 1 {
		errs = append(errs, fmt.Errorf("primary title %q must contain %s exactly once", w.PrimaryTitle, ipPlaceholder))
	}
	if n := strings.Count(w.SecondaryTitle, ipPlaceholder); n != 1 {
		errs = append(errs, fmt.Errorf("secondary title %q must contain %s exactly once", w.SecondaryTitle, ipPlaceholder))
	}
	if w.SetIPField && w.IPField == "" {
		errs = append(errs, errors.New("ip field name is empty"))
	}
	return errors.Join(errs...)
}

// PrimaryQuery selects contact form tickets for filter, the wildcard or one
// IP. An IP is searched as a fragment since contact form titles differ in how
// they enclose it; callers compare the extracted IP afterwards.
func (w Workflow) PrimaryQuery(filter string) ticketmodel.SearchQuery {
	if filter != WildcardFilter {
		filter = "%" + filter + "%"
	}
	return ticketmodel.SearchQuery{
		QueueIDs: w.PrimaryQueues,
		Title:    "%" + render(w.PrimaryTitle, filter) + "%",
	}
}

// SecondaryQuery selects the dossiers of ip.
func (w Workflow) SecondaryQuery(ip string) ticketmodel.SearchQuery {
	return ticketmodel.SearchQuery{
		QueueIDs: w.SecondaryQueues,
		Title:    "%" + render(w.SecondaryTitle, ip) + "%",
	}
}

// DossierTitle is the canonical title of the dossier of ip.
func (w Workflow) DossierTitle(ip string) string {
	return render(w.SecondaryTitle, ip)
}

func render(template, ip string) string {
	return strings.Replace(template, ipPlaceholder, ip, 1)
}
