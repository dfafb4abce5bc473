package availability

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSummary_Empty(t *testing.T) {
	var w Week
	assert.Equal(t, "No specific availability set", w.Summary())
	assert.True(t, w.IsEmpty())
}

func TestSummary_SingleDayWithCustom(t *testing.T) {
	var w Week
	w[0].Morning = true
	w[0].Custom = "4pm"
	assert.Equal(t, "Monday: Morning, Custom: 4pm", w.Summary())
}

func TestSummary_FixedOrder(t *testing.T) {
	var w Week
	w[6] = Day{Evening: true, Morning: true, Afternoon: true, Custom: "noon"}
	w[2] = Day{Afternoon: true}
	assert.Equal(t,
		"Wednesday: Afternoon; Sunday: Morning, Afternoon, Evening, Custom: noon",
		w.Summary())
}

func TestSummary_CustomOnly(t *testing.T) {
	var w Week
	w.SetCustom(4, "after 6")
	assert.Equal(t, "Friday: Custom: after 6", w.Summary())

	w.SetCustom(4, "")
	assert.Equal(t, NoAvailability, w.Summary())
}

func TestToggle(t *testing.T) {
	var w Week
	w.Toggle(1, Evening)
	assert.True(t, w[1].Evening)
	w.Toggle(1, Evening)
	assert.False(t, w[1].Evening)

	// out of range is a no-op
	w.Toggle(7, Morning)
	w.Toggle(-1, Morning)
	assert.True(t, w.IsEmpty())
}

func TestDayIndex(t *testing.T) {
	i, ok := DayIndex("saturday")
	assert.True(t, ok)
	assert.Equal(t, 5, i)

	i, ok = DayIndex(" Tue ")
	assert.True(t, ok)
	assert.Equal(t, 1, i)

	_, ok = DayIndex("mo")
	assert.False(t, ok)
	_, ok = DayIndex("funday")
	assert.False(t, ok)
}

func TestParseSpec(t *testing.T) {
	w, err := ParseSpec("Monday:morning,custom=4pm; sat:afternoon,evening")
	require.NoError(t, err)
	assert.Equal(t, "Monday: Morning, Custom: 4pm; Saturday: Afternoon, Evening", w.Summary())
}

func TestParseSpec_Empty(t *testing.T) {
	w, err := ParseSpec("")
	require.NoError(t, err)
	assert.Equal(t, NoAvailability, w.Summary())
}

func TestParseSpec_Errors(t *testing.T) {
	_, err := ParseSpec("Monday")
	assert.ErrorContains(t, err, "missing ':'")

	_, err = ParseSpec("Someday:morning")
	assert.ErrorContains(t, err, "unknown day")

	_, err = ParseSpec("Monday:night")
	assert.ErrorContains(t, err, "unknown slot")
}

func TestParseSlot(t *testing.T) {
	slot, ok := ParseSlot(" Evening ")
	assert.True(t, ok)
	assert.Equal(t, Evening, slot)

	_, ok = ParseSlot("night")
	assert.False(t, ok)
}

func TestSlotLabels(t *testing.T) {
	assert.Equal(t, "Morning (8am-12pm)", Morning.Label())
	assert.Equal(t, "Morning (8am-12pm), Afternoon (12pm-5pm), Evening (5pm-9pm)", SlotLegend())
}
