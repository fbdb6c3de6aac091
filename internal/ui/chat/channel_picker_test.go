package chat

import (
	"testing"
)

func TestPickerFiltering(t *testing.T) {
	cp := NewChannelPicker(testConfig())
	cp.SetData(testChannelSet())
	cp.Reset()

	if got := cp.FilteredCount(); got != 4 {
		t.Fatalf("unfiltered count = %d, want 4", got)
	}

	cp.onInputChanged("town")
	if got := cp.FilteredCount(); got != 1 {
		t.Errorf("filter %q matched %d, want 1", "town", got)
	}

	// Fuzzy: non-contiguous letters still match "off-topic".
	cp.onInputChanged("oftpc")
	if got := cp.FilteredCount(); got < 1 {
		t.Errorf("fuzzy filter matched %d, want at least 1", got)
	}

	cp.onInputChanged("zzzzz")
	if got := cp.FilteredCount(); got != 0 {
		t.Errorf("filter %q matched %d, want 0", "zzzzz", got)
	}

	cp.onInputChanged("")
	if got := cp.FilteredCount(); got != 4 {
		t.Errorf("cleared filter count = %d, want 4", got)
	}
}

func TestPickerSelectCallback(t *testing.T) {
	cp := NewChannelPicker(testConfig())
	cp.SetData(testChannelSet())
	cp.Reset()

	var selected string
	cp.SetOnSelect(func(id string) { selected = id })

	var closed bool
	cp.SetOnClose(func() { closed = true })

	cp.onInputChanged("secrets")
	if cp.FilteredCount() != 1 {
		t.Fatalf("filter did not narrow to one entry")
	}
	cp.selectCurrent()

	if selected != "c2" {
		t.Errorf("selected = %q, want c2", selected)
	}
	if !closed {
		t.Error("picker did not close after selection")
	}
}
