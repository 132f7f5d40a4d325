package services

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	log "github.com/sirupsen/logrus"
)

// JobHandler executes one queued job from its serialized payload. Handlers
// must produce the same persisted side effects as the direct fallback
// closure passed to Dispatch, so callers cannot observe which path ran.
type JobHandler func(payload []byte) error

// Dispatcher is the asynchronous execution shim: jobs go through a durable
// queue when the backend is reachable and run synchronously in-process
// when it is not. Dispatch never surfaces queue failures to the caller.
type Dispatcher interface {
	// RegisterHandler binds a job name to its handler for the queue
	// consumer. A no-op on the direct dispatcher.
	RegisterHandler(jobName string, handler JobHandler)

	// Dispatch runs a job. The direct closure is the synchronous fallback
	// and must be side-effect-equivalent to the registered handler.
	Dispatch(jobName string, payload interface{}, direct func() error) error

	// Close releases any backend resources.
	Close()
}

const (
	jobQueueName    = "birthday-song-jobs"
	maxJobAttempts  = 3
	probeAttempts   = 3
	probeTimeout    = 3 * time.Second
	maxProbeBackoff = 4 * time.Second
)

var dispatcherInstance Dispatcher

// InitDispatcher selects the execution path once at startup: a bounded
// connection probe against the queue backend decides between the queue
// dispatcher and the in-process direct dispatcher. An empty queueURL skips
// the probe entirely.
func InitDispatcher(queueURL string) Dispatcher {
	if queueURL == "" {
		log.Info("No queue backend configured, using direct execution")
		dispatcherInstance = &DirectDispatcher{}
		return dispatcherInstance
	}

	backoff := time.Second
	for attempt := 1; attempt <= probeAttempts; attempt++ {
		conn, err := amqp.DialConfig(queueURL, amqp.Config{Dial: amqp.DefaultDial(probeTimeout)})
		if err == nil {
			qd, qerr := newQueueDispatcher(conn)
			if qerr == nil {
				log.Info("Queue backend reachable, using queued execution")
				dispatcherInstance = qd
				return dispatcherInstance
			}
			conn.Close()
			err = qerr
		}
		log.WithError(err).Warnf("Queue backend probe failed (attempt %d/%d)", attempt, probeAttempts)
		if attempt < probeAttempts {
			time.Sleep(backoff)
			backoff *= 2
			if backoff > maxProbeBackoff {
				backoff = maxProbeBackoff
			}
		}
	}

	log.Warn("Queue backend unreachable, falling back to direct execution")
	dispatcherInstance = &DirectDispatcher{}
	return dispatcherInstance
}

// GetDispatcher returns the initialized dispatcher instance
func GetDispatcher() Dispatcher {
	return dispatcherInstance
}

// SetDispatcher sets the dispatcher instance (primarily for testing)
func SetDispatcher(d Dispatcher) {
	dispatcherInstance = d
}

// DirectDispatcher runs every job synchronously in-process.
type DirectDispatcher struct{}

// RegisterHandler is a no-op: direct execution uses the fallback closure.
func (d *DirectDispatcher) RegisterHandler(jobName string, handler JobHandler) {}

// Dispatch invokes the fallback closure immediately.
func (d *DirectDispatcher) Dispatch(jobName string, payload interface{}, direct func() error) error {
	if err := direct(); err != nil {
		return fmt.Errorf("job %s failed: %w", jobName, err)
	}
	return nil
}

// Close is a no-op.
func (d *DirectDispatcher) Close() {}

// queueMessage is the wire format for queued jobs.
type queueMessage struct {
	Job     string          `json:"job"`
	Payload json.RawMessage `json:"payload"`
	Attempt int             `json:"attempt"`
}

// QueueDispatcher publishes jobs to a durable AMQP queue and consumes them
// in-process with the registered handlers. Failed jobs are retried up to
// maxJobAttempts with backoff; exhausted jobs are logged and dropped.
type QueueDispatcher struct {
	conn     *amqp.Connection
	ch       *amqp.Channel
	mu       sync.RWMutex
	handlers map[string]JobHandler
	done     chan struct{}
}

func newQueueDispatcher(conn *amqp.Connection) (*QueueDispatcher, error) {
	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}
	if _, err := ch.QueueDeclare(jobQueueName, true, false, false, false, nil); err != nil {
		ch.Close()
		return nil, fmt.Errorf("failed to declare queue: %w", err)
	}

	qd := &QueueDispatcher{
		conn:     conn,
		ch:       ch,
		handlers: make(map[string]JobHandler),
		done:     make(chan struct{}),
	}

	deliveries, err := ch.Consume(jobQueueName, "", false, false, false, false, nil)
	if err != nil {
		ch.Close()
		return nil, fmt.Errorf("failed to start consumer: %w", err)
	}
	go qd.consume(deliveries)

	return qd, nil
}

// RegisterHandler binds a job name to its consumer-side handler.
func (q *QueueDispatcher) RegisterHandler(jobName string, handler JobHandler) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.handlers[jobName] = handler
}

// Dispatch enqueues the job. A publish failure is absorbed by running the
// direct fallback synchronously — callers never see queue errors.
func (q *QueueDispatcher) Dispatch(jobName string, payload interface{}, direct func() error) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode job payload: %w", err)
	}

	body, err := json.Marshal(queueMessage{Job: jobName, Payload: raw, Attempt: 1})
	if err != nil {
		return fmt.Errorf("failed to encode job message: %w", err)
	}

	if err := q.publish(body); err != nil {
		log.WithError(err).WithField("job", jobName).Warn("Publish failed, running job directly")
		if derr := direct(); derr != nil {
			return fmt.Errorf("job %s failed: %w", jobName, derr)
		}
	}
	return nil
}

func (q *QueueDispatcher) publish(body []byte) error {
	return q.ch.Publish("", jobQueueName, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Body:         body,
	})
}

func (q *QueueDispatcher) consume(deliveries <-chan amqp.Delivery) {
	for {
		select {
		case <-q.done:
			return
		case d, ok := <-deliveries:
			if !ok {
				return
			}
			q.handleDelivery(d)
		}
	}
}

func (q *QueueDispatcher) handleDelivery(d amqp.Delivery) {
	var msg queueMessage
	if err := json.Unmarshal(d.Body, &msg); err != nil {
		log.WithError(err).Warn("Dropping malformed job message")
		d.Nack(false, false)
		return
	}

	q.mu.RLock()
	handler, found := q.handlers[msg.Job]
	q.mu.RUnlock()
	if !found {
		log.WithField("job", msg.Job).Warn("Dropping job with no registered handler")
		d.Nack(false, false)
		return
	}

	if err := handler(msg.Payload); err != nil {
		log.WithError(err).WithFields(log.Fields{
			"job":     msg.Job,
			"attempt": msg.Attempt,
		}).Warn("Job failed")

		if msg.Attempt < maxJobAttempts {
			msg.Attempt++
			time.Sleep(time.Duration(msg.Attempt) * time.Second)
			if body, merr := json.Marshal(msg); merr == nil {
				if perr := q.publish(body); perr != nil {
					log.WithError(perr).WithField("job", msg.Job).Error("Failed to requeue job")
				}
			}
		} else {
			log.WithField("job", msg.Job).Error("Job exhausted retries, dropping")
		}
	}
	d.Ack(false)
}

// Close stops the consumer and closes the AMQP resources.
func (q *QueueDispatcher) Close() {
	close(q.done)
	q.ch.Close()
	q.conn.Close()
}
