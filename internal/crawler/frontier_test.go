package crawler

import (
	"reflect"
	"testing"
)

func TestFrontierOrder(t *testing.T) {
	f := NewFrontier("a", "b", "a", "c")

	if f.Len() != 3 {
		t.Fatalf("Expected 3 pending references, got %d", f.Len())
	}
	if ref, _ := f.Peek(); ref != "a" {
		t.Errorf("Peek() = %q, want a", ref)
	}
	if f.Len() != 3 {
		t.Errorf("Peek must not remove, Len() = %d", f.Len())
	}

	var got []string
	for f.Len() > 0 {
		ref, _ := f.Pop()
		got = append(got, ref)
	}
	if !reflect.DeepEqual(got, []string{"a", "b", "c"}) {
		t.Errorf("Pop order = %v", got)
	}

	if _, ok := f.Pop(); ok {
		t.Errorf("Pop on empty frontier should report false")
	}
	if _, ok := f.Peek(); ok {
		t.Errorf("Peek on empty frontier should report false")
	}
}

func TestFrontierRefusesConsumed(t *testing.T) {
	f := NewFrontier("a")
	f.Pop()

	if f.Push("a") {
		t.Errorf("Push of an already consumed reference was accepted")
	}
	if !f.Push("b") {
		t.Errorf("Push of a new reference was refused")
	}
	if !reflect.DeepEqual(f.Pending(), []string{"b"}) {
		t.Errorf("Pending() = %v", f.Pending())
	}
}

func TestResultSetDedup(t *testing.T) {
	r := NewResultSet()

	for _, cidr := range []string{"10.0.0.0/24", "10.0.1.0/24", "10.0.0.0/24", "10.0.0.0/024"} {
		r.AddAddressRange(cidr)
	}
	for _, name := range []string{"a.example.com", "", "A.example.com", "a.example.com"} {
		r.AddDomainName(name)
	}

	if want := []string{"10.0.0.0/24", "10.0.1.0/24", "10.0.0.0/024"}; !reflect.DeepEqual(r.AddressRanges, want) {
		t.Errorf("AddressRanges = %v, want %v", r.AddressRanges, want)
	}
	if want := []string{"a.example.com", "A.example.com"}; !reflect.DeepEqual(r.DomainNames, want) {
		t.Errorf("DomainNames = %v, want %v", r.DomainNames, want)
	}
}
