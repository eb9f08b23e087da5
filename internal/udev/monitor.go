package udev

import (
	"context"
	"fmt"

	"github.com/pilebones/go-udev/netlink"
)

// Event is a block device uevent
type Event struct {
	Action  string
	KObj    string
	DevName string
	DevType string
}

// BlockRule matches uevents of the block subsystem
func BlockRule() netlink.Matcher {
	return &netlink.RuleDefinitions{
		Rules: []netlink.RuleDefinition{
			{
				Env: map[string]string{
					"SUBSYSTEM": "block",
				},
			},
		},
	}
}

// Monitor forwards block uevents to c until ctx is done or the netlink
// socket fails. It returns nil only when ctx is done.
func Monitor(ctx context.Context, c chan<- Event) error {
	conn := new(netlink.UEventConn)
	if err := conn.Connect(netlink.UdevEvent); err != nil {
		return fmt.Errorf("connect to netlink: %w", err)
	}
	defer conn.Close()

	errChan := make(chan error, 1)
	eventChan := make(chan netlink.UEvent)
	quit := conn.Monitor(eventChan, errChan, BlockRule())

	for {
		select {
		case <-ctx.Done():
			quit <- struct{}{}
			return nil

		case uevent, ok := <-eventChan:
			if !ok {
				return fmt.Errorf("uevent channel closed")
			}

			event := Event{
				Action:  string(uevent.Action),
				KObj:    uevent.KObj,
				DevName: uevent.Env["DEVNAME"],
				DevType: uevent.Env["DEVTYPE"],
			}
			select {
			case c <- event:
			case <-ctx.Done():
				quit <- struct{}{}
				return nil
			}

		case err := <-errChan:
			return fmt.Errorf("monitor uevents: %w", err)

		case <-quit:
			return fmt.Errorf("uevent monitor quit")
		}
	}
}
