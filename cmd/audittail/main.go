// Command audittail consumes the audit topic and validates the event stream:
// payload shape, event type enum, key/header alignment, and per-city
// chronology. It doubles as a debugging tail for a running engine.
//
// Usage:
//
//	go run ./cmd/audittail \
//	  -brokers localhost:9092 \
//	  -topic suspension-audit \
//	  -max 200 \
//	  -wait 5s
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/kalasag-ph/suspension-engine/internal/suspension"
)

// phase tracks pass/fail for one validation pass over the stream.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

var validTypes = map[string]bool{
	suspension.EventSuspensionIssued:      true,
	suspension.EventSuspensionExtended:    true,
	suspension.EventSuspensionLifted:      true,
	suspension.EventSuspensionReevaluated: true,
	suspension.EventRequestSubmitted:      true,
	suspension.EventRequestApproved:       true,
	suspension.EventRequestRejected:       true,
	suspension.EventRequestCancelled:      true,
}

func main() {
	brokers := flag.String("brokers", "localhost:9092", "comma-separated Kafka broker list")
	topic := flag.String("topic", "suspension-audit", "audit topic to consume")
	group := flag.String("group", "audittail", "consumer group id")
	maxMsgs := flag.Int("max", 0, "stop after this many messages (0 = until idle)")
	wait := flag.Duration("wait", 5*time.Second, "stop after this long without a new message")
	verbose := flag.Bool("v", false, "print every event as it arrives")
	flag.Parse()

	msgs, err := consume(*brokers, *topic, *group, *maxMsgs, *wait, *verbose)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: %v\n", err)
		os.Exit(1)
	}
	if len(msgs) == 0 {
		fmt.Fprintln(os.Stderr, "FATAL: no messages consumed")
		os.Exit(1)
	}

	os.Exit(report(msgs))
}

// consume reads messages until the max count, or until the topic goes idle
// for the wait duration.
func consume(brokers, topic, group string, maxMsgs int, wait time.Duration, verbose bool) ([]kafkago.Message, error) {
	reader := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:     strings.Split(brokers, ","),
		Topic:       topic,
		GroupID:     group,
		StartOffset: kafkago.FirstOffset,
		MinBytes:    1,
		MaxBytes:    10e6,
	})
	defer reader.Close()

	var msgs []kafkago.Message
	for maxMsgs == 0 || len(msgs) < maxMsgs {
		ctx, cancel := context.WithTimeout(context.Background(), wait)
		m, err := reader.ReadMessage(ctx)
		cancel()
		if err != nil {
			if errors.Is(err, context.DeadlineExceeded) {
				break
			}
			return msgs, fmt.Errorf("read message: %w", err)
		}
		if verbose {
			fmt.Printf("%s partition=%d offset=%d key=%s %s\n",
				m.Time.Format(time.RFC3339), m.Partition, m.Offset, m.Key, m.Value)
		}
		msgs = append(msgs, m)
	}
	return msgs, nil
}

func report(msgs []kafkago.Message) int {
	fmt.Println("=== Audit Stream Validation ===")
	fmt.Println()

	events := make([]suspension.AuditEvent, len(msgs))
	phases := []*phase{
		validatePayloads(msgs, events),
		validateEnvelopes(msgs, events),
		validateChronology(msgs, events),
	}

	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		if !p.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
			allPassed = false
		}
		fmt.Printf("  %-42s %s\n", p.name, status)
	}

	fmt.Println()
	fmt.Printf("Messages: %d across %d cities\n", len(msgs), countCities(events))
	printTypeBreakdown(events)

	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Printf("\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			fmt.Printf("  [%d] %s\n", i+1, e)
		}
	}

	if allPassed {
		fmt.Println("\nAll validations passed.")
		return 0
	}
	fmt.Println("\nValidation FAILED.")
	return 1
}

// validatePayloads decodes every message and checks required event fields.
func validatePayloads(msgs []kafkago.Message, events []suspension.AuditEvent) *phase {
	p := &phase{name: "Phase 1: Payload Shape"}
	for i, m := range msgs {
		if err := json.Unmarshal(m.Value, &events[i]); err != nil {
			p.errorf("offset %d: undecodable payload: %v", m.Offset, err)
			continue
		}
		ev := &events[i]
		if ev.Type == "" {
			p.errorf("offset %d: missing type", m.Offset)
		} else if !validTypes[ev.Type] {
			p.errorf("offset %d: unknown type %q", m.Offset, ev.Type)
		}
		if ev.RecordID == "" {
			p.errorf("offset %d: missing recordId", m.Offset)
		}
		if ev.City == "" {
			p.errorf("offset %d: missing city", m.Offset)
		}
		if ev.Timestamp.IsZero() {
			p.errorf("offset %d: missing timestamp", m.Offset)
		}
	}
	return p
}

// validateEnvelopes checks that the message key and headers agree with the
// payload the producer serialized.
func validateEnvelopes(msgs []kafkago.Message, events []suspension.AuditEvent) *phase {
	p := &phase{name: "Phase 2: Key / Header Alignment"}
	for i, m := range msgs {
		ev := &events[i]
		if ev.Type == "" {
			continue // undecodable, reported in phase 1
		}

		if string(m.Key) != ev.City {
			p.errorf("offset %d: key %q does not match city %q", m.Offset, m.Key, ev.City)
		}

		headers := map[string]string{}
		for _, h := range m.Headers {
			headers[h.Key] = string(h.Value)
		}
		if got := headers["event_type"]; got != ev.Type {
			p.errorf("offset %d: event_type header %q does not match payload type %q", m.Offset, got, ev.Type)
		}
		emitted, err := time.Parse(time.RFC3339, headers["emitted_at"])
		if err != nil {
			p.errorf("offset %d: bad emitted_at header %q", m.Offset, headers["emitted_at"])
		} else if !emitted.Truncate(time.Second).Equal(ev.Timestamp.Truncate(time.Second)) {
			p.errorf("offset %d: emitted_at %s disagrees with payload timestamp %s",
				m.Offset, emitted.Format(time.RFC3339), ev.Timestamp.Format(time.RFC3339))
		}
	}
	return p
}

// validateChronology checks per-city ordering: keyed messages preserve
// partition order, so timestamps must be non-decreasing within a city.
func validateChronology(msgs []kafkago.Message, events []suspension.AuditEvent) *phase {
	p := &phase{name: "Phase 3: Per-City Chronology"}
	lastByCity := map[string]time.Time{}
	for i, m := range msgs {
		ev := &events[i]
		if ev.City == "" {
			continue
		}
		if last, ok := lastByCity[ev.City]; ok && ev.Timestamp.Before(last) {
			p.errorf("offset %d: %s event for %s at %s precedes earlier event at %s",
				m.Offset, ev.Type, ev.City,
				ev.Timestamp.Format(time.RFC3339), last.Format(time.RFC3339))
		}
		lastByCity[ev.City] = ev.Timestamp
	}
	return p
}

func countCities(events []suspension.AuditEvent) int {
	cities := map[string]bool{}
	for i := range events {
		if events[i].City != "" {
			cities[events[i].City] = true
		}
	}
	return len(cities)
}

func printTypeBreakdown(events []suspension.AuditEvent) {
	counts := map[string]int{}
	for i := range events {
		counts[events[i].Type]++
	}
	fmt.Print("By type:")
	for _, t := range []string{
		suspension.EventSuspensionIssued, suspension.EventSuspensionExtended,
		suspension.EventSuspensionLifted, suspension.EventSuspensionReevaluated,
		suspension.EventRequestSubmitted, suspension.EventRequestApproved,
		suspension.EventRequestRejected, suspension.EventRequestCancelled,
	} {
		if counts[t] > 0 {
			fmt.Printf(" %s=%d", t, counts[t])
		}
	}
	fmt.Println()
}
