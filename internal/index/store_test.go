package index

import (
	"reflect"
	"testing"

	"github.com/vinnienasta1/ProITech-pub/internal/inventory"
)

func TestNilSnapshotIsSafe(t *testing.T) {
	var snap *Snapshot
	if _, ok := snap.LookupSerial("42"); ok {
		t.Fatalf("LookupSerial on nil: want miss")
	}
	if snap.HasEntity(inventory.EntityUser) {
		t.Fatalf("HasEntity on nil: want false")
	}
	if _, ok := snap.EntityLabel(inventory.EntityState, "1"); ok {
		t.Fatalf("EntityLabel on nil: want miss")
	}
	if got := snap.EntityLabels(inventory.EntityState); got != nil {
		t.Fatalf("EntityLabels on nil: want nil got=%v", got)
	}
	if _, ok := snap.EntityIDByLabel(inventory.EntityState, "В работе"); ok {
		t.Fatalf("EntityIDByLabel on nil: want miss")
	}
	if got := snap.ContactValues(); got != nil {
		t.Fatalf("ContactValues on nil: want nil got=%v", got)
	}
}

func TestStoreCurrentBeforeFirstPublish(t *testing.T) {
	s := NewStore()
	if got := s.Current(); got != nil {
		t.Fatalf("Current before publish: want nil got=%v", got)
	}
}

func TestStorePublishSwapsGenerations(t *testing.T) {
	s := NewStore()
	first := &Snapshot{Serials: map[string]inventory.Record{"1": {ID: 1}}}
	second := &Snapshot{Serials: map[string]inventory.Record{"2": {ID: 2}}}

	s.Publish(first)
	held := s.Current()
	s.Publish(second)

	if _, ok := held.LookupSerial("1"); !ok {
		t.Fatalf("held generation must stay coherent after swap")
	}
	if _, ok := s.Current().LookupSerial("2"); !ok {
		t.Fatalf("Current must serve the new generation")
	}
}

func TestEntityLabelsSortedAndFiltered(t *testing.T) {
	snap := &Snapshot{Entities: map[inventory.EntityType]map[string]string{
		inventory.EntityState: {
			"1": "в работе",
			"2": "Списан",
			"3": inventory.LabelMissing,
			"4": "",
			"5": "Архив",
		},
	}}
	got := snap.EntityLabels(inventory.EntityState)
	want := []string{"Архив", "в работе", "Списан"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("EntityLabels: want=%v got=%v", want, got)
	}
}

func TestEntityIDByLabelPrefixBeforeAbbreviation(t *testing.T) {
	snap := &Snapshot{Entities: map[inventory.EntityType]map[string]string{
		inventory.EntityLocation: {
			"10": "Главный офис > Этаж 2 > Кабинет 204 > Шкаф 3",
			"11": "Склад",
		},
	}}
	id, ok := snap.EntityIDByLabel(inventory.EntityLocation, "Главный офис>...>Шкаф 3")
	if !ok {
		t.Fatalf("abbreviated label: want hit")
	}
	if id != "10" {
		t.Fatalf("abbreviated label: want=10 got=%s", id)
	}
}

func TestEntityIDByLabelTrimsLocationRoot(t *testing.T) {
	snap := &Snapshot{Entities: map[inventory.EntityType]map[string]string{
		inventory.EntityLocation: {
			"7": "Про Ай-Ти Ресурс > Офис > Этаж 2",
		},
	}}
	id, ok := snap.EntityIDByLabel(inventory.EntityLocation, "Офис > Этаж 2")
	if !ok || id != "7" {
		t.Fatalf("root-trimmed location: want=7 got=%s ok=%v", id, ok)
	}
}

func TestEntityIDByLabelSharedPrefixLowestIDWins(t *testing.T) {
	snap := &Snapshot{Entities: map[inventory.EntityType]map[string]string{
		inventory.EntityState: {
			"12": "В работе (резерв)",
			"3":  "В работе",
		},
	}}
	id, ok := snap.EntityIDByLabel(inventory.EntityState, "В работе")
	if !ok || id != "3" {
		t.Fatalf("shared prefix: want=3 got=%s ok=%v", id, ok)
	}
}

func TestEntityIDByLabelGroupExactMatchOnly(t *testing.T) {
	snap := &Snapshot{Entities: map[inventory.EntityType]map[string]string{
		inventory.EntityGroup: {
			"1": "Склад центральный",
			"2": "Склад",
		},
	}}
	id, ok := snap.EntityIDByLabel(inventory.EntityGroup, "Склад")
	if !ok || id != "2" {
		t.Fatalf("group exact match: want=2 got=%s ok=%v", id, ok)
	}
	if _, ok := snap.EntityIDByLabel(inventory.EntityGroup, "Скл"); ok {
		t.Fatalf("group prefix must not match")
	}
}

func TestContactValuesSorted(t *testing.T) {
	snap := &Snapshot{Contacts: map[string]struct{}{
		"стеллаж 2": {},
		"Стеллаж 1": {},
	}}
	got := snap.ContactValues()
	want := []string{"Стеллаж 1", "стеллаж 2"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("ContactValues: want=%v got=%v", want, got)
	}
}
