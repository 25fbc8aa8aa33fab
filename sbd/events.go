package sbd

import "sync"

// eventBus fans out four named events to multiple listeners per event,
// delivered in registration order, run synchronously
// on the publishing goroutine. Ring alerts and routing debug lines
// (orphaned lines, +AREG) are published from Loop's goroutine, since
// routing unsolicited lines is Loop's job; initialized, newmessage and the
// session's own debug lines are published from whichever goroutine is
// running the step that produced them (New for initialized, the
// SendMessage/SendBinaryMessage/MailboxCheck caller or the background
// mailbox drain for the rest). Handlers must not assume a single goroutine
// across events.
//
// Registration (On*) may happen from any goroutine, so the handler slices
// themselves are guarded by a mutex; invocation reads the slices under the
// same mutex but calls handlers outside it, so a handler may safely
// register another handler without deadlocking.
type eventBus struct {
	mu sync.Mutex

	onInitialized []func()
	onRingAlert   []func()
	onNewMessage  []func(payload []byte, mtQueued int)
	onDebug       []func(message string)
}

// OnInitialized registers a handler invoked once init completes successfully.
func (d *Driver) OnInitialized(handler func()) {
	d.events.mu.Lock()
	defer d.events.mu.Unlock()
	d.events.onInitialized = append(d.events.onInitialized, handler)
}

// OnRingAlert registers a handler invoked when the modem reports SBDRING.
func (d *Driver) OnRingAlert(handler func()) {
	d.events.mu.Lock()
	defer d.events.mu.Unlock()
	d.events.onRingAlert = append(d.events.onRingAlert, handler)
}

// OnNewMessage registers a handler invoked when a mobile-terminated message
// is read off the gateway during a session.
func (d *Driver) OnNewMessage(handler func(payload []byte, mtQueued int)) {
	d.events.mu.Lock()
	defer d.events.mu.Unlock()
	d.events.onNewMessage = append(d.events.onNewMessage, handler)
}

// OnDebug registers a handler invoked for orphaned lines, swallowed parse
// failures, and other low-level diagnostics.
func (d *Driver) OnDebug(handler func(message string)) {
	d.events.mu.Lock()
	defer d.events.mu.Unlock()
	d.events.onDebug = append(d.events.onDebug, handler)
}

func (d *Driver) publishInitialized() {
	d.events.mu.Lock()
	handlers := append([]func(){}, d.events.onInitialized...)
	d.events.mu.Unlock()
	for _, h := range handlers {
		h()
	}
}

func (d *Driver) publishRingAlert() {
	d.events.mu.Lock()
	handlers := append([]func(){}, d.events.onRingAlert...)
	d.events.mu.Unlock()
	for _, h := range handlers {
		h()
	}
}

func (d *Driver) publishNewMessage(payload []byte, mtQueued int) {
	d.events.mu.Lock()
	handlers := append([]func([]byte, int){}, d.events.onNewMessage...)
	d.events.mu.Unlock()
	for _, h := range handlers {
		h(payload, mtQueued)
	}
}

func (d *Driver) publishDebug(message string) {
	if d.logger != nil {
		d.logger.Debug(message)
	}
	if !d.config.Debug {
		return
	}
	d.events.mu.Lock()
	handlers := append([]func(string){}, d.events.onDebug...)
	d.events.mu.Unlock()
	for _, h := range handlers {
		h(message)
	}
}
