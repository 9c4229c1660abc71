/*
Package events provides an in-memory event broker for the Info plane's own
mutation events.

SMD-mediated commands (sindex-create/delete, roster-set, truncate/
truncate-undo) and config-set all accept or reject a mutation synchronously
over the text protocol, but nothing else in the node observes the outcome.
The events package gives an external collaborator (a metrics sink, an
alerting pipeline, an audit store) a way to subscribe to accepted mutations
without polling config-get/sindex-list/roster after every command.

# Architecture

	┌──────────────────── EVENT BROKER ────────────────────────┐
	│                                                            │
	│  ┌────────────────────────────────────────────┐          │
	│  │              Event Broker                   │          │
	│  │  - In-memory message bus                    │          │
	│  │  - Topic-agnostic (all events broadcast)    │          │
	│  │  - Non-blocking publish                     │          │
	│  └──────────────────┬─────────────────────────┘          │
	│                     │                                      │
	│  ┌──────────────────▼─────────────────────────┐          │
	│  │          Event Distribution                 │          │
	│  │                                              │          │
	│  │  Publisher → Event Channel (buffer: 100)    │          │
	│  │       ↓                                      │          │
	│  │  Broadcast Loop                              │          │
	│  │       ↓                                      │          │
	│  │  Subscriber Channels (buffer: 50 each)      │          │
	│  └──────────────────┬─────────────────────────┘          │
	│                     │                                      │
	│  ┌──────────────────▼─────────────────────────┐          │
	│  │           Event Types                       │          │
	│  │                                              │          │
	│  │  Sindex Events:                             │          │
	│  │    - sindex.created, sindex.deleted         │          │
	│  │                                              │          │
	│  │  Roster Events:                             │          │
	│  │    - roster.set                             │          │
	│  │                                              │          │
	│  │  Truncate Events:                           │          │
	│  │    - truncate.issued, truncate.undone       │          │
	│  │                                              │          │
	│  │  Config Events:                             │          │
	│  │    - config.changed                         │          │
	│  └────────────────────────────────────────────┘           │
	│                                                            │
	│  ┌────────────────────────────────────────────┐          │
	│  │            Subscribers                      │          │
	│  │                                              │          │
	│  │  infod's own audit log sink                 │          │
	│  │  External metrics/alerting collaborators    │          │
	│  └────────────────────────────────────────────┘           │
	└────────────────────────────────────────────────────────┘

# Core Components

Event Broker:
  - Central message bus for event distribution
  - Manages subscriber lifecycle
  - Non-blocking publish (buffered channel)
  - Graceful shutdown via stop channel

Event:
  - ID: Unique event identifier (optional, caller-assigned)
  - Type: Event type (sindex.created, config.changed, etc.)
  - Timestamp: When the event occurred
  - Message: Human-readable description (e.g. an index name or config key)
  - Metadata: Key-value pairs for additional context

Subscriber:
  - Channel that receives Event pointers
  - Buffered (50 events) to handle bursts
  - Created via broker.Subscribe()
  - Closed via broker.Unsubscribe()

# Usage

	broker := events.NewBroker()
	broker.Start()
	defer broker.Stop()

	sub := broker.Subscribe()
	defer broker.Unsubscribe(sub)

	go func() {
		for event := range sub {
			fmt.Printf("[%s] %s: %s\n", event.Timestamp.Format("15:04:05"), event.Type, event.Message)
		}
	}()

	broker.Publish(&events.Event{Type: events.EventSindexCreated, Message: "idx_age"})

# Design Patterns

Non-Blocking Publish:
  - Publish sends to a buffered channel and returns immediately
  - Events may be dropped if the buffer is full
  - Trade-off: throughput over guaranteed delivery, matching command
    handlers that must not block the dispatch worker on a slow subscriber

Fire-and-Forget:
  - No acknowledgment from subscribers, no retry on delivery failure
  - Suitable for audit/monitoring, not for anything the command's own
    success depends on — the SMD apply has already committed by the time
    an event is published

# Limitations

  - In-memory only, no persistence or replay
  - No guaranteed delivery (best effort, slow subscribers skip events)
  - No topic-based filtering — every subscriber sees every event type
*/
package events
