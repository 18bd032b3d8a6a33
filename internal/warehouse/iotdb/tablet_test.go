package iotdb

import "testing"

// TestTabletLifecycle verifies row buffering and reset leave a reusable
// tablet behind.
func TestTabletLifecycle(t *testing.T) {
	tablet := NewTablet("root.ferrite.`linux`.`cpu`.`1`",
		[]string{"`usage`", "`temp`"}, []DataType{TypeDouble, TypeDouble})

	if tablet.RowCount() != 0 {
		t.Fatalf("RowCount() = %d, want 0", tablet.RowCount())
	}
	if tablet.LastTimestamp() != 0 {
		t.Fatalf("LastTimestamp() = %d, want 0", tablet.LastTimestamp())
	}

	tablet.AddRow(100)
	tablet.Set(0, 42.5)
	tablet.AddRow(101)
	tablet.Set(1, 60.0)

	if tablet.RowCount() != 2 {
		t.Fatalf("RowCount() = %d, want 2", tablet.RowCount())
	}
	if tablet.LastTimestamp() != 101 {
		t.Fatalf("LastTimestamp() = %d, want 101", tablet.LastTimestamp())
	}

	// Cells not set stay null.
	if tablet.Values[1][0] != nil {
		t.Errorf("Values[1][0] = %v, want nil", tablet.Values[1][0])
	}
	if tablet.Values[0][1] != nil {
		t.Errorf("Values[0][1] = %v, want nil", tablet.Values[0][1])
	}
	if tablet.Values[0][0] != 42.5 {
		t.Errorf("Values[0][0] = %v, want 42.5", tablet.Values[0][0])
	}

	tablet.Reset()
	if tablet.RowCount() != 0 {
		t.Errorf("RowCount() after Reset = %d, want 0", tablet.RowCount())
	}
	for i := range tablet.Values {
		if len(tablet.Values[i]) != 0 {
			t.Errorf("Values[%d] not truncated after Reset", i)
		}
	}

	// The schema survives a reset.
	if len(tablet.Measurements) != 2 || len(tablet.Types) != 2 {
		t.Error("schema lost after Reset")
	}

	tablet.AddRow(200)
	tablet.Set(0, 1.0)
	if tablet.RowCount() != 1 {
		t.Errorf("RowCount() after reuse = %d, want 1", tablet.RowCount())
	}
}
