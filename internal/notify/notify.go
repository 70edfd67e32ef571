// Package notify renders templated messages and delivers them to sinks
// without blocking the operation that produced them.
package notify

import (
	"bytes"
	"context"
	"fmt"
	"text/template"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sourcegraph/conc/pool"
)

// Message asks for Template to be rendered with Data and sent to To.
type Message struct {
	Template string
	To       string
	Subject  string
	Data     map[string]interface{}
}

// Rendered is what sinks receive.
type Rendered struct {
	Template  string    `json:"template"`
	To        string    `json:"to"`
	Subject   string    `json:"subject"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"created_at"`
}

// Sink delivers a rendered message somewhere (log, queue, websocket feed).
type Sink interface {
	Name() string
	Deliver(ctx context.Context, msg Rendered) error
}

// Notifier is the narrow contract the services depend on.
type Notifier interface {
	Notify(ctx context.Context, msg Message)
}

// Nop drops every message.
type Nop struct{}

func (Nop) Notify(context.Context, Message) {}

// Dispatcher renders messages and fans them out to its sinks on a bounded
// goroutine pool. Delivery failures are logged and never reported back.
type Dispatcher struct {
	templates *template.Template
	sinks     []Sink
	pool      *pool.Pool
}

// NewDispatcher parses the built-in templates and prepares a pool of workers.
func NewDispatcher(workers int, sinks ...Sink) (*Dispatcher, error) {
	tmpl, err := parseTemplates()
	if err != nil {
		return nil, err
	}
	if workers <= 0 {
		workers = 1
	}
	return &Dispatcher{
		templates: tmpl,
		sinks:     sinks,
		pool:      pool.New().WithMaxGoroutines(workers),
	}, nil
}

// AddSink registers another sink. Not safe once Notify is being called.
func (d *Dispatcher) AddSink(s Sink) {
	d.sinks = append(d.sinks, s)
}

// Render executes the message template.
func (d *Dispatcher) Render(msg Message) (Rendered, error) {
	t := d.templates.Lookup(msg.Template)
	if t == nil {
		return Rendered{}, fmt.Errorf("unknown template %q", msg.Template)
	}
	var buf bytes.Buffer
	if err := t.Execute(&buf, msg.Data); err != nil {
		return Rendered{}, fmt.Errorf("render %s: %w", msg.Template, err)
	}
	subject := msg.Subject
	if subject == "" {
		subject = defaultSubjects[msg.Template]
	}
	return Rendered{
		Template:  msg.Template,
		To:        msg.To,
		Subject:   subject,
		Body:      buf.String(),
		CreatedAt: time.Now().UTC(),
	}, nil
}

// Notify returns as soon as the message is queued on the pool.
func (d *Dispatcher) Notify(ctx context.Context, msg Message) {
	ctx = context.WithoutCancel(ctx)
	d.pool.Go(func() {
		rendered, err := d.Render(msg)
		if err != nil {
			logrus.WithError(err).WithField("template", msg.Template).Error("notify: render failed")
			return
		}
		for _, s := range d.sinks {
			if err := s.Deliver(ctx, rendered); err != nil {
				logrus.WithError(err).WithFields(logrus.Fields{
					"sink":     s.Name(),
					"template": msg.Template,
					"to":       msg.To,
				}).Warn("notify: delivery failed")
			}
		}
	})
}

// Close waits for in-flight deliveries. The dispatcher cannot be used after.
func (d *Dispatcher) Close() {
	d.pool.Wait()
}

// LogSink writes every message to the application log.
type LogSink struct{}

func (LogSink) Name() string { return "log" }

func (LogSink) Deliver(_ context.Context, msg Rendered) error {
	logrus.WithFields(logrus.Fields{
		"template": msg.Template,
		"to":       msg.To,
		"subject":  msg.Subject,
	}).Info("notification dispatched")
	return nil
}
