package uart

import (
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"
)

// PerseveringReceiver wraps a Receiver so that a bounded run of unparseable
// frames does not bring down the transceiver thread: ErrUnhandledParse is
// logged and absorbed up to maxParseErrors consecutive occurrences, after
// which it is returned (fatally) to the caller. Any other error from the
// underlying receiver is returned immediately, uncounted.
type PerseveringReceiver struct {
	receiver       *Receiver
	logger         *logrus.Logger
	maxParseErrors int
	consecutive    int
}

// NewPerseveringReceiver wraps receiver to tolerate up to maxParseErrors
// consecutive parse failures before giving up.
func NewPerseveringReceiver(receiver *Receiver, logger *logrus.Logger, maxParseErrors int) *PerseveringReceiver {
	return &PerseveringReceiver{
		receiver:       receiver,
		logger:         logger,
		maxParseErrors: maxParseErrors,
	}
}

// ReceiveOne behaves like Receiver.ReceiveOne, except that it silently
// retries past ErrUnhandledParse until a frame is handled successfully,
// another kind of error occurs, or a parse failure arrives after
// maxParseErrors consecutive ones have already been absorbed.
func (p *PerseveringReceiver) ReceiveOne(source ByteSource) error {
	for {
		err := p.receiver.ReceiveOne(source)
		if err == nil {
			p.consecutive = 0
			return nil
		}
		if !errors.Is(err, ErrUnhandledParse) {
			return err
		}
		p.consecutive++
		p.logger.WithError(err).WithField("consecutive_parse_errors", p.consecutive).
			Warn("uart: discarding frame with unparseable body")
		if p.consecutive > p.maxParseErrors {
			return fmt.Errorf("uart: %d consecutive unparseable frames, giving up: %w", p.consecutive, err)
		}
	}
}
