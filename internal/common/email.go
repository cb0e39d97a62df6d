package common

import "sync"

// EmailSender delivers one rendered HTML message.
type EmailSender interface {
	Send(to, subject, html string) error
}

// Email is a message captured by Outbox.
type Email struct {
	To      string
	Subject string
	HTML    string
}

// Outbox is an EmailSender that keeps messages in memory. It backs tests and
// local runs without a mail relay.
type Outbox struct {
	mu   sync.Mutex
	sent []Email
}

func (o *Outbox) Send(to, subject, html string) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.sent = append(o.sent, Email{To: to, Subject: subject, HTML: html})
	return nil
}

// Sent returns a copy of the delivered messages in order.
func (o *Outbox) Sent() []Email {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]Email(nil), o.sent...)
}
