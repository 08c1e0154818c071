package slot

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Kind discriminates the variants of Ref.
type Kind int

const (
	// KindNone means the booking is not bound to a slot (open ticket).
	KindNone Kind = iota
	// KindPhysical references a stored slot row that carries capacity.
	KindPhysical
	// KindVirtual is a slot computed on read for the daily window.
	KindVirtual
)

// Ref identifies the slot a cart line is booked against.
//
// A Physical ref wraps a slot row id. A Virtual ref encodes the target, the
// date and the starting hour and is written as "{target_id}-{YYYYMMDD}-{hour}".
// Virtual refs are never persisted.
type Ref struct {
	kind     Kind
	id       int64
	targetID int64
	date     time.Time
	hour     int
}

// Physical returns a ref to a stored slot row.
func Physical(id int64) Ref {
	return Ref{kind: KindPhysical, id: id}
}

// Virtual returns a ref to a computed slot.
func Virtual(targetID int64, date time.Time, hour int) Ref {
	return Ref{kind: KindVirtual, targetID: targetID, date: DateOnly(date), hour: hour}
}

// ParseRef parses a slot identifier. Plain integers are physical ids; the
// three-part hyphenated form is virtual.
func ParseRef(s string) (Ref, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Ref{}, nil
	}

	if !strings.Contains(s, "-") {
		id, err := strconv.ParseInt(s, 10, 64)
		if err != nil || id <= 0 {
			return Ref{}, fmt.Errorf("invalid slot id %q", s)
		}
		return Physical(id), nil
	}

	parts := strings.Split(s, "-")
	if len(parts) != 3 || len(parts[1]) != 8 {
		return Ref{}, fmt.Errorf("invalid virtual slot id %q: expected {target}-{YYYYMMDD}-{hour}", s)
	}

	targetID, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil || targetID <= 0 {
		return Ref{}, fmt.Errorf("invalid virtual slot id %q: bad target", s)
	}

	date, err := time.ParseInLocation("20060102", parts[1], time.UTC)
	if err != nil {
		return Ref{}, fmt.Errorf("invalid virtual slot id %q: bad date", s)
	}

	hour, err := strconv.Atoi(parts[2])
	if err != nil || hour < 0 || hour > 23 {
		return Ref{}, fmt.Errorf("invalid virtual slot id %q: bad hour", s)
	}

	return Virtual(targetID, date, hour), nil
}

// Kind returns the variant.
func (r Ref) Kind() Kind { return r.kind }

// IsZero reports whether no slot is referenced.
func (r Ref) IsZero() bool { return r.kind == KindNone }

// IsPhysical reports whether r references a stored slot row.
func (r Ref) IsPhysical() bool { return r.kind == KindPhysical }

// IsVirtual reports whether r is a computed slot.
func (r Ref) IsVirtual() bool { return r.kind == KindVirtual }

// ID returns the slot row id of a physical ref, 0 otherwise.
func (r Ref) ID() int64 { return r.id }

// TargetID returns the attraction or combo id encoded in a virtual ref.
func (r Ref) TargetID() int64 { return r.targetID }

// Date returns the date encoded in a virtual ref.
func (r Ref) Date() time.Time { return r.date }

// Hour returns the starting hour of a virtual ref.
func (r Ref) Hour() int { return r.hour }

// PersistedID returns the id to store on a booking row. Virtual and empty
// refs are stored as NULL.
func (r Ref) PersistedID() *int64 {
	if r.kind != KindPhysical {
		return nil
	}
	id := r.id
	return &id
}

func (r Ref) String() string {
	switch r.kind {
	case KindPhysical:
		return strconv.FormatInt(r.id, 10)
	case KindVirtual:
		return fmt.Sprintf("%d-%s-%d", r.targetID, r.date.Format("20060102"), r.hour)
	default:
		return ""
	}
}

// MarshalJSON writes physical refs as numbers, virtual refs as strings and
// empty refs as null.
func (r Ref) MarshalJSON() ([]byte, error) {
	switch r.kind {
	case KindPhysical:
		return []byte(strconv.FormatInt(r.id, 10)), nil
	case KindVirtual:
		return json.Marshal(r.String())
	default:
		return []byte("null"), nil
	}
}

// UnmarshalJSON accepts a number, a string or null.
func (r *Ref) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*r = Ref{}
		return nil
	}

	var raw string
	if data[0] == '"' {
		if err := json.Unmarshal(data, &raw); err != nil {
			return err
		}
	} else {
		raw = string(data)
	}

	ref, err := ParseRef(raw)
	if err != nil {
		return err
	}
	*r = ref
	return nil
}
