package multinomial

import "testing"

func TestNormalizeUniformFallback(t *testing.T) {
	tab, err := NewSparse(3, [][]int{{0, 2}, {1}, {}})
	if err != nil {
		t.Fatal(err)
	}
	tab.Set(0, 0, 1)
	tab.Set(0, 2, 3)
	tab.Normalize()
	if tab.Get(0, 0) != 0.25 || tab.Get(0, 2) != 0.75 {
		t.Errorf("row 0 not normalized: %v", tab.Row(0))
	}
	if tab.Get(1, 1) != 1 {
		t.Errorf("zero row should become uniform, got %v", tab.Row(1))
	}
	if tab.Get(1, 0) != 0 {
		t.Errorf("unavailable outcome got mass %v", tab.Get(1, 0))
	}
}

func TestNewSparseRange(t *testing.T) {
	if _, err := NewSparse(2, [][]int{{2}}); err == nil {
		t.Errorf("expected out of range error")
	}
}

func TestAddTable(t *testing.T) {
	a := New(2, 2)
	b := a.NewLike()
	a.Set(1, 1, 2)
	b.Set(1, 1, 3)
	b.Set(0, 1, 1)
	a.AddTable(b)
	if a.Get(1, 1) != 5 || a.Get(0, 1) != 1 {
		t.Errorf("bad sum %v", a.Values())
	}
	if a.RowSum(1) != 5 {
		t.Errorf("bad row sum %v", a.RowSum(1))
	}
	a.Clear()
	for _, v := range a.Values() {
		if v != 0 {
			t.Fatalf("not cleared %v", a.Values())
		}
	}
}
