package threat

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Severity classifies a threat. The feed sends it as free text, so the
// value is kept verbatim and folded to lower case only for comparisons.
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityHigh     Severity = "high"
	SeverityMedium   Severity = "medium"
	SeverityLow      Severity = "low"
	SeverityUnknown  Severity = "unknown"
)

// Normalized folds case so "CRITICAL" and "critical" compare equal.
// An absent severity normalizes to SeverityUnknown.
func (s Severity) Normalized() Severity {
	if s == "" {
		return SeverityUnknown
	}
	return Severity(strings.ToLower(string(s)))
}

// Label is the badge text shown for this severity.
func (s Severity) Label() string {
	if s == "" {
		return "UNKNOWN"
	}
	return strings.ToUpper(string(s))
}

// Threat is one record from the threat feed.
type Threat struct {
	ID          string    `json:"id,omitempty"`
	Timestamp   Timestamp `json:"timestamp"`
	Type        string    `json:"type"`
	Severity    Severity  `json:"severity,omitempty"`
	Status      string    `json:"status,omitempty"`
	Source      string    `json:"source,omitempty"`
	Title       string    `json:"title,omitempty"`
	Description string    `json:"description"`
	Confidence  float64   `json:"confidence_score,omitempty"`
	Details     *Details  `json:"details,omitempty"`
}

// Summary holds the dashboard counters. Fields are pointers so the state
// records exactly what the service returned; absent or null counters are
// only defaulted to zero at display time.
type Summary struct {
	TotalThreats       *uint64 `json:"total_threats"`
	CriticalThreats    *uint64 `json:"critical_threats"`
	BlockedConnections *uint64 `json:"blocked_connections"`
	MonitoredProcesses *uint64 `json:"monitored_processes"`
}

// NewSummary builds a summary with all four counters present.
func NewSummary(total, critical, blocked, monitored uint64) *Summary {
	return &Summary{
		TotalThreats:       &total,
		CriticalThreats:    &critical,
		BlockedConnections: &blocked,
		MonitoredProcesses: &monitored,
	}
}

// Totals returns the counters with absent values defaulted to zero.
func (s *Summary) Totals() (total, critical, blocked, monitored uint64) {
	if s == nil {
		return 0, 0, 0, 0
	}
	return counter(s.TotalThreats), counter(s.CriticalThreats),
		counter(s.BlockedConnections), counter(s.MonitoredProcesses)
}

func counter(v *uint64) uint64 {
	if v == nil {
		return 0
	}
	return *v
}

// Timestamp wraps time.Time to accept both RFC 3339 and the timezone-less
// isoformat the feed emits. The raw string is kept so an unparsable value
// still displays instead of failing the whole payload.
type Timestamp struct {
	time.Time
	raw string
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
}

// NewTimestamp wraps a concrete instant.
func NewTimestamp(t time.Time) Timestamp {
	return Timestamp{Time: t}
}

func (t *Timestamp) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("timestamp: %w", err)
	}
	t.raw = s
	t.Time = time.Time{}
	for _, layout := range timestampLayouts {
		if parsed, err := time.Parse(layout, s); err == nil {
			t.Time = parsed
			break
		}
	}
	return nil
}

func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.raw != "" {
		return json.Marshal(t.raw)
	}
	return json.Marshal(t.Format(time.RFC3339))
}

// Display renders the instant in local time, falling back to the raw
// serialized form when it could not be parsed.
func (t Timestamp) Display() string {
	if !t.IsZero() {
		return t.Local().Format("Jan 2, 2006 15:04:05")
	}
	if t.raw != "" {
		return t.raw
	}
	return "unknown"
}

// Details is a string-keyed mapping that preserves insertion order, which
// encoding/json's map type does not. A nil *Details means the record had
// no details at all; an allocated Details with no entries means the record
// carried an empty object. The two must stay distinguishable.
type Details struct {
	keys   []string
	values map[string]json.RawMessage
}

// NewDetails returns an empty, present details block.
func NewDetails() *Details {
	return &Details{values: make(map[string]json.RawMessage)}
}

// Set appends or replaces a key. Insertion order of first appearance wins.
func (d *Details) Set(key string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("details %q: %w", key, err)
	}
	if d.values == nil {
		d.values = make(map[string]json.RawMessage)
	}
	if _, ok := d.values[key]; !ok {
		d.keys = append(d.keys, key)
	}
	d.values[key] = raw
	return nil
}

// Len reports the number of entries.
func (d *Details) Len() int {
	if d == nil {
		return 0
	}
	return len(d.keys)
}

// Keys returns the keys in insertion order.
func (d *Details) Keys() []string {
	if d == nil {
		return nil
	}
	return append([]string(nil), d.keys...)
}

// Get returns the raw JSON value for a key.
func (d *Details) Get(key string) (json.RawMessage, bool) {
	if d == nil {
		return nil, false
	}
	raw, ok := d.values[key]
	return raw, ok
}

func (d *Details) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return fmt.Errorf("details: %w", err)
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("details: expected object, got %v", tok)
	}

	d.keys = nil
	d.values = make(map[string]json.RawMessage)
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return fmt.Errorf("details: %w", err)
		}
		key, ok := keyTok.(string)
		if !ok {
			return fmt.Errorf("details: non-string key %v", keyTok)
		}
		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return fmt.Errorf("details %q: %w", key, err)
		}
		if _, dup := d.values[key]; !dup {
			d.keys = append(d.keys, key)
		}
		d.values[key] = raw
	}
	if _, err := dec.Token(); err != nil {
		return fmt.Errorf("details: %w", err)
	}
	return nil
}

func (d *Details) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, key := range d.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		name, err := json.Marshal(key)
		if err != nil {
			return nil, err
		}
		buf.Write(name)
		buf.WriteByte(':')
		buf.Write(d.values[key])
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
