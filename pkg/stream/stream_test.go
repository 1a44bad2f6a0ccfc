package stream

import "testing"

func TestAppendGrowsAcrossPages(t *testing.T) {
	s := New()
	for i := 0; i < PageSize+10; i++ {
		s.Append(byte(i))
	}
	if s.Size != PageSize+10 {
		t.Fatalf("Size = %d, want %d", s.Size, PageSize+10)
	}
	pages := s.Pages()
	if len(pages) != 2 {
		t.Fatalf("len(Pages()) = %d, want 2", len(pages))
	}
	if pages[0].Bytes[0] != 0 {
		t.Errorf("pages[0].Bytes[0] = %d, want 0", pages[0].Bytes[0])
	}
	if pages[1].Bytes[0] != byte(PageSize%256) {
		t.Errorf("pages[1].Bytes[0] = %d, want %d", pages[1].Bytes[0], byte(PageSize%256))
	}
}

func TestAppendReturnsAbsolutePosition(t *testing.T) {
	s := New()
	m0 := s.Append(1)
	m1 := s.Append(2)
	if m0.Pos != 0 {
		t.Errorf("m0.Pos = %d, want 0", m0.Pos)
	}
	if m1.Pos != 1 {
		t.Errorf("m1.Pos = %d, want 1", m1.Pos)
	}
}

func TestPutByteOverwritesInPlace(t *testing.T) {
	s := New()
	m := s.Append(0xAA)
	s.Append(0xBB)
	s.PutByte(m, 0xCC)
	if s.First.Bytes[0] != 0xCC {
		t.Errorf("First.Bytes[0] = %#x, want 0xCC", s.First.Bytes[0])
	}
	if s.First.Bytes[1] != 0xBB {
		t.Errorf("PutByte clobbered a neighboring byte: First.Bytes[1] = %#x", s.First.Bytes[1])
	}
}

func TestPutByteAcrossPageBoundary(t *testing.T) {
	s := New()
	var marks []Mark
	for i := 0; i < PageSize+5; i++ {
		marks = append(marks, s.Append(0))
	}
	target := marks[PageSize+2]
	s.PutByte(target, 0x42)
	pages := s.Pages()
	if pages[1].Bytes[2] != 0x42 {
		t.Errorf("PutByte on second page wrote to the wrong offset: got %#x", pages[1].Bytes[2])
	}
}

func TestPagesStopsAtLast(t *testing.T) {
	s := New()
	for i := 0; i < PageSize*2+1; i++ {
		s.Append(byte(i))
	}
	pages := s.Pages()
	if len(pages) != 3 {
		t.Fatalf("len(Pages()) = %d, want 3", len(pages))
	}
	if pages[len(pages)-1] != s.Last {
		t.Errorf("last page returned by Pages() is not s.Last")
	}
}
