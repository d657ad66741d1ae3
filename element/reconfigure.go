package element

import (
	"github.com/abhishen/click/config"
	clickerrors "github.com/abhishen/click/errors"
)

// CanLiveReconfigure reports whether this element accepts reconfiguration
// while Running, delegating to the Hooks implementation.
func (e *Element) CanLiveReconfigure() bool {
	if e.Hooks == nil {
		return false
	}
	return e.Hooks.CanLiveReconfigure()
}

// LiveReconfigure applies a new configuration string to a Running element.
// Per the live-reconfiguration contract (spec §8 scenario S6), a failed
// attempt must leave the element exactly as it was: the stored
// configuration string is only replaced after Hooks.LiveReconfigure
// reports success, so a rejected or failing attempt rolls back to the
// prior value automatically.
func (e *Element) LiveReconfigure(args config.Args, errh ErrorHandler) error {
	if !e.CanLiveReconfigure() {
		return clickerrors.ErrLiveReconfigureRejected
	}
	prior := e.configString
	if err := e.Hooks.LiveReconfigure(args, errh); err != nil {
		e.configString = prior
		return err
	}
	e.configString = config.Join(args)
	return nil
}
