package ticketclient

import (
	"fmt"
	"time"

	"github.com/scitix/contactmerge/pkg/otrs"
	"github.com/scitix/contactmerge/pkg/ticketcache"
	"github.com/scitix/contactmerge/pkg/ticketmodel"
	"github.com/scitix/contactmerge/version"
)

type TicketSystem string

const (
	TicketSystemOTRS   TicketSystem = "otrs"
	TicketSystemDryRun TicketSystem = "dryrun"
)

// Args configures the connection to the ticketing system.
type Args struct {
	Address            string
	Service            string
	User               string
	Password           string
	InsecureSkipVerify bool
	Timeout            time.Duration
	QPS                float64
	Burst              int
	CacheExpiration    time.Duration
}

// NewClientBySystem returns an authenticated client for the given system with
// a per-run read cache in front of it.
func NewClientBySystem(system TicketSystem, args *Args) (ticketmodel.Client, error) {
	switch system {
	case TicketSystemOTRS, "":
		c, err := newOTRSClient(args)
		if err != nil {
			return nil, err
		}
		return ticketcache.New(c, args.CacheExpiration), nil
	case TicketSystemDryRun:
		c, err := newOTRSClient(args)
		if err != nil {
			return nil, err
		}
		return ticketcache.New(NewDryRunClient(c), args.CacheExpiration), nil
	default:
		return nil, fmt.Errorf("unsupported ticket system: %s", system)
	}
}

func newOTRSClient(args *Args) (*otrs.Client, error) {
	if args.User == "" {
		return nil, fmt.Errorf("ticketing system user is required")
	}
	return otrs.CreateClient(args.Address, args.Service, args.User, args.Password,
		otrs.WithTimeout(args.Timeout),
		otrs.WithInsecureSkipVerify(args.InsecureSkipVerify),
		otrs.WithRateLimit(args.QPS, args.Burst),
		otrs.WithUserAgent(version.UserAgent()),
	)
}
