// Package availability turns a weekly grid of meetup slots into the summary
// line that goes into reply prompts.
package availability

import (
	"fmt"
	"strings"
)

// NoAvailability is the summary used when nothing is selected.
const NoAvailability = "No specific availability set"

// Weekdays in week order. The index is the day number used throughout the
// package.
var Weekdays = [7]string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday"}

type Slot int

const (
	Morning Slot = iota
	Afternoon
	Evening
)

// Slots in summary order.
var Slots = []Slot{Morning, Afternoon, Evening}

func (s Slot) String() string {
	switch s {
	case Morning:
		return "Morning"
	case Afternoon:
		return "Afternoon"
	case Evening:
		return "Evening"
	}
	return fmt.Sprintf("Slot(%d)", int(s))
}

// Hours returns the clock range a slot stands for.
func (s Slot) Hours() string {
	switch s {
	case Morning:
		return "8am-12pm"
	case Afternoon:
		return "12pm-5pm"
	case Evening:
		return "5pm-9pm"
	}
	return ""
}

// Label is the slot name with its clock range, e.g. "Morning (8am-12pm)".
func (s Slot) Label() string {
	return fmt.Sprintf("%s (%s)", s, s.Hours())
}

// SlotLegend lists every slot label in summary order.
func SlotLegend() string {
	labels := make([]string, len(Slots))
	for i, slot := range Slots {
		labels[i] = slot.Label()
	}
	return strings.Join(labels, ", ")
}

// Day holds the selections for a single weekday.
type Day struct {
	Morning   bool   `json:"morning,omitempty"`
	Afternoon bool   `json:"afternoon,omitempty"`
	Evening   bool   `json:"evening,omitempty"`
	Custom    string `json:"custom,omitempty"`
}

// Has reports whether slot is selected.
func (d Day) Has(slot Slot) bool {
	switch slot {
	case Morning:
		return d.Morning
	case Afternoon:
		return d.Afternoon
	case Evening:
		return d.Evening
	}
	return false
}

// Labels returns the selected labels in fixed order, custom text last.
func (d Day) Labels() []string {
	var labels []string
	for _, slot := range Slots {
		if d.Has(slot) {
			labels = append(labels, slot.String())
		}
	}
	if d.Custom != "" {
		labels = append(labels, "Custom: "+d.Custom)
	}
	return labels
}

// Week is indexed by position in Weekdays.
type Week [7]Day

// Toggle flips a slot for the given day. Out-of-range days are ignored.
func (w *Week) Toggle(day int, slot Slot) {
	if day < 0 || day >= len(w) {
		return
	}
	d := &w[day]
	switch slot {
	case Morning:
		d.Morning = !d.Morning
	case Afternoon:
		d.Afternoon = !d.Afternoon
	case Evening:
		d.Evening = !d.Evening
	}
}

// SetCustom sets the free-text slot for a day; an empty string clears it.
func (w *Week) SetCustom(day int, text string) {
	if day < 0 || day >= len(w) {
		return
	}
	w[day].Custom = text
}

// IsEmpty reports whether no day has any selection.
func (w Week) IsEmpty() bool {
	for _, d := range w {
		if len(d.Labels()) > 0 {
			return false
		}
	}
	return true
}

// Summary joins the selected days as "<Day>: <labels>" separated by "; ".
func (w Week) Summary() string {
	var days []string
	for i, d := range w {
		labels := d.Labels()
		if len(labels) == 0 {
			continue
		}
		days = append(days, fmt.Sprintf("%s: %s", Weekdays[i], strings.Join(labels, ", ")))
	}
	if len(days) == 0 {
		return NoAvailability
	}
	return strings.Join(days, "; ")
}

// ParseSlot resolves a slot name such as "morning", ignoring case.
func ParseSlot(name string) (Slot, bool) {
	name = strings.TrimSpace(name)
	for _, slot := range Slots {
		if strings.EqualFold(name, slot.String()) {
			return slot, true
		}
	}
	return 0, false
}

// DayIndex resolves a weekday name or its three-letter prefix, ignoring case.
func DayIndex(name string) (int, bool) {
	name = strings.ToLower(strings.TrimSpace(name))
	if len(name) < 3 {
		return 0, false
	}
	for i, day := range Weekdays {
		full := strings.ToLower(day)
		if name == full || name == full[:3] {
			return i, true
		}
	}
	return 0, false
}

// ParseSpec parses a compact grid such as
// "Monday:morning,custom=4-4:30pm;sat:afternoon,evening".
// Later entries for the same day add to earlier ones.
func ParseSpec(spec string) (Week, error) {
	var w Week
	for _, entry := range strings.Split(spec, ";") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		dayName, slots, ok := strings.Cut(entry, ":")
		if !ok {
			return Week{}, fmt.Errorf("missing ':' in %q", entry)
		}
		day, ok := DayIndex(dayName)
		if !ok {
			return Week{}, fmt.Errorf("unknown day %q", dayName)
		}
		for _, item := range strings.Split(slots, ",") {
			item = strings.TrimSpace(item)
			if item == "" {
				continue
			}
			if key, value, isCustom := strings.Cut(item, "="); isCustom && strings.EqualFold(strings.TrimSpace(key), "custom") {
				w[day].Custom = strings.TrimSpace(value)
				continue
			}
			slot, ok := ParseSlot(item)
			if !ok {
				return Week{}, fmt.Errorf("unknown slot %q for %s", item, Weekdays[day])
			}
			if !w[day].Has(slot) {
				w.Toggle(day, slot)
			}
		}
	}
	return w, nil
}
