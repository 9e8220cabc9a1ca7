package browser

import (
	"errors"
	"sync"

	"github.com/PizzaHomicide/webauth/internal/authflow"
	"github.com/PizzaHomicide/webauth/internal/log"
)

var (
	// ErrDismissed is the terminal event of a surface dismissed before the user finished.
	ErrDismissed = errors.New("browser surface dismissed")
	// ErrWindowClosed is reported when the user closes the browser window without completing the flow.
	ErrWindowClosed = errors.New("browser window closed by user")
)

// presentation ties a callback server, and optionally a browser process, to the authflow.Presentation contract.
type presentation struct {
	name      string
	server    *CallbackServer
	events    chan authflow.Event
	dismissCh chan struct{}
	once      sync.Once
	// exited reports the browser process ending, nil when the process is not tracked
	exited <-chan error
	// cleanup tears down whatever the presenter launched
	cleanup func()
}

func newPresentation(name string, server *CallbackServer, exited <-chan error, cleanup func()) *presentation {
	p := &presentation{
		name:      name,
		server:    server,
		events:    make(chan authflow.Event, 1),
		dismissCh: make(chan struct{}),
		exited:    exited,
		cleanup:   cleanup,
	}
	go p.run()
	return p
}

func (p *presentation) Events() <-chan authflow.Event {
	return p.events
}

func (p *presentation) Dismiss() {
	p.once.Do(func() {
		log.Debug("Dismissing browser surface", "surface", p.name)
		close(p.dismissCh)
	})
}

func (p *presentation) run() {
	defer close(p.events)

	select {
	case u := <-p.server.Callbacks():
		p.events <- authflow.Event{CallbackURL: u}
		<-p.dismissCh
	case err := <-p.exited:
		log.Info("Browser process exited before completing", "surface", p.name, "error", err)
		p.events <- authflow.Event{Err: ErrWindowClosed}
		<-p.dismissCh
	case <-p.dismissCh:
		p.events <- authflow.Event{Err: ErrDismissed}
	}

	p.server.Stop()
	if p.cleanup != nil {
		p.cleanup()
	}
	log.Debug("Browser surface dismissed", "surface", p.name)
}
