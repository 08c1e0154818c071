package slot

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRef(t *testing.T) {
	date := time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name        string
		input       string
		expected    Ref
		expectError bool
	}{
		{name: "Empty is no slot", input: "", expected: Ref{}},
		{name: "Physical id", input: "42", expected: Physical(42)},
		{name: "Virtual id", input: "7-20250314-10", expected: Virtual(7, date, 10)},
		{name: "Zero physical id", input: "0", expectError: true},
		{name: "Non numeric", input: "abc", expectError: true},
		{name: "Virtual with short date", input: "7-2025031-10", expectError: true},
		{name: "Virtual with bad month", input: "7-20251314-10", expectError: true},
		{name: "Virtual with bad hour", input: "7-20250314-25", expectError: true},
		{name: "Too many parts", input: "7-20250314-10-1", expectError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ref, err := ParseRef(tt.input)
			if tt.expectError {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, ref)
		})
	}
}

func TestRef_StringRoundTrip(t *testing.T) {
	ref := Virtual(12, time.Date(2025, 1, 5, 15, 30, 0, 0, time.UTC), 14)
	assert.Equal(t, "12-20250105-14", ref.String())

	parsed, err := ParseRef(ref.String())
	require.NoError(t, err)
	assert.Equal(t, ref, parsed)
}

func TestRef_PersistedID(t *testing.T) {
	assert.Nil(t, Ref{}.PersistedID())
	assert.Nil(t, Virtual(1, time.Now(), 10).PersistedID())

	id := Physical(9).PersistedID()
	require.NotNil(t, id)
	assert.Equal(t, int64(9), *id)
}

func TestRef_JSON(t *testing.T) {
	var payload struct {
		SlotID      Ref `json:"slot_id"`
		ComboSlotID Ref `json:"combo_slot_id"`
		Missing     Ref `json:"missing"`
	}

	err := json.Unmarshal([]byte(`{"slot_id": 15, "combo_slot_id": "3-20250601-12", "missing": null}`), &payload)
	require.NoError(t, err)

	assert.True(t, payload.SlotID.IsPhysical())
	assert.Equal(t, int64(15), payload.SlotID.ID())
	assert.True(t, payload.ComboSlotID.IsVirtual())
	assert.Equal(t, int64(3), payload.ComboSlotID.TargetID())
	assert.Equal(t, 12, payload.ComboSlotID.Hour())
	assert.True(t, payload.Missing.IsZero())

	out, err := json.Marshal(payload)
	require.NoError(t, err)
	assert.JSONEq(t, `{"slot_id": 15, "combo_slot_id": "3-20250601-12", "missing": null}`, string(out))

	err = json.Unmarshal([]byte(`{"slot_id": "12-bad"}`), &payload)
	assert.Error(t, err)
}

func TestParseTimeOfDay(t *testing.T) {
	tests := []struct {
		input       string
		expected    TimeOfDay
		expectError bool
	}{
		{input: "10:00", expected: At(10, 0)},
		{input: "10:30:15", expected: At(10, 30) + 15},
		{input: "00:00:00", expected: 0},
		{input: "24:00", expectError: true},
		{input: "10", expectError: true},
		{input: "10:61", expectError: true},
		{input: "ab:cd", expectError: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseTimeOfDay(tt.input)
			if tt.expectError {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestTimeOfDay_Format(t *testing.T) {
	assert.Equal(t, "09:05:00", At(9, 5).String())
	assert.Equal(t, "12:00 PM", At(12, 0).Clock())
	assert.Equal(t, "12:15 AM", At(0, 15).Clock())
	assert.Equal(t, "7:45 PM", At(19, 45).Clock())
}

func TestWindow_Split(t *testing.T) {
	t.Run("Even split", func(t *testing.T) {
		w := Window{Start: At(10, 0), End: At(12, 0)}
		parts := w.Split(2)
		require.Len(t, parts, 2)
		assert.Equal(t, Window{Start: At(10, 0), End: At(11, 0)}, parts[0])
		assert.Equal(t, Window{Start: At(11, 0), End: At(12, 0)}, parts[1])
	})

	t.Run("Remainder goes to last segment", func(t *testing.T) {
		w := Window{Start: At(10, 0), End: At(10, 0) + 100}
		parts := w.Split(3)
		require.Len(t, parts, 3)
		assert.Equal(t, TimeOfDay(33), parts[0].End-parts[0].Start)
		assert.Equal(t, TimeOfDay(33), parts[1].End-parts[1].Start)
		assert.Equal(t, TimeOfDay(34), parts[2].End-parts[2].Start)
		assert.Equal(t, w.End, parts[2].End)
	})

	t.Run("Single segment", func(t *testing.T) {
		w := Window{Start: At(10, 0), End: At(11, 0)}
		assert.Equal(t, []Window{w}, w.Split(1))
	})
}

func TestSchedule_Generate(t *testing.T) {
	s := DefaultSchedule()
	date := time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC)

	hourly := s.Generate(5, date, 1)
	require.Len(t, hourly, 10)
	assert.Equal(t, "5-20250701-10", hourly[0].Ref.String())
	assert.Equal(t, At(19, 0), hourly[9].Window.Start)
	assert.Equal(t, At(20, 0), hourly[9].Window.End)
	assert.Equal(t, 300, hourly[0].Capacity)

	combo := s.Generate(2, date, 3)
	require.Len(t, combo, 8)
	assert.Equal(t, At(17, 0), combo[7].Window.Start)
	assert.Equal(t, At(20, 0), combo[7].Window.End)
}

func TestSchedule_Resolve(t *testing.T) {
	s := DefaultSchedule()
	date := time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC)

	got, err := s.Resolve(Virtual(5, date, 10), 2)
	require.NoError(t, err)
	assert.Equal(t, Window{Start: At(10, 0), End: At(12, 0)}, got.Window)

	_, err = s.Resolve(Virtual(5, date, 9), 1)
	assert.Error(t, err)

	_, err = s.Resolve(Virtual(5, date, 19), 2)
	assert.Error(t, err)

	_, err = s.Resolve(Physical(3), 1)
	assert.Error(t, err)
}

func TestResolveDisplay(t *testing.T) {
	stored := &Window{Start: At(10, 0), End: At(11, 0)}
	joined := &Window{Start: At(14, 0), End: At(15, 0)}

	d := ResolveDisplay(nil, joined)
	require.NotNil(t, d.Start)
	assert.Equal(t, At(14, 0), *d.Start)
	assert.Equal(t, "2:00 PM - 3:00 PM", d.Label)

	d = ResolveDisplay(stored, joined)
	assert.Equal(t, At(10, 0), *d.Start)
	assert.Equal(t, "10:00 AM - 11:00 AM", d.Label)

	d = ResolveDisplay(nil, nil)
	assert.Nil(t, d.Start)
	assert.Nil(t, d.End)
	assert.Equal(t, OpenSlotLabel, d.Label)
}

func TestTimeOfDay_JSON(t *testing.T) {
	var payload struct {
		From TimeOfDay  `json:"from"`
		To   *TimeOfDay `json:"to,omitempty"`
	}

	require.NoError(t, json.Unmarshal([]byte(`{"from": "09:30", "to": "18:00:00"}`), &payload))
	assert.Equal(t, At(9, 30), payload.From)
	require.NotNil(t, payload.To)
	assert.Equal(t, At(18, 0), *payload.To)

	out, err := json.Marshal(payload)
	require.NoError(t, err)
	assert.JSONEq(t, `{"from": "09:30:00", "to": "18:00:00"}`, string(out))

	assert.Error(t, json.Unmarshal([]byte(`{"from": 930}`), &payload))
}
