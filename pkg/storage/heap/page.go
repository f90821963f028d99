package heap

import (
	"bytes"
	"fmt"
	"sync"

	"storelite/pkg/concurrency/transaction"
	"storelite/pkg/dberrors"
	"storelite/pkg/primitives"
	"storelite/pkg/storage/page"
	"storelite/pkg/tuple"
	"storelite/pkg/types"
)

// HeapPage is one page of a heap file: a bitmap header tracking which of a
// fixed number of equal-size slots are occupied, followed by the slots
// themselves. Unlike a slotted page, a tuple's slot index never changes
// once assigned, so a RecordID stays valid for the tuple's whole life.
//
// Layout:
//
//	[header: ceil(numSlots/8) bytes, bit i set iff slot i occupied]
//	[slot 0][slot 1]...[slot numSlots-1]
type HeapPage struct {
	pageID    page.PageID
	tupleDesc *tuple.TupleDescription
	header    []byte
	slots     []*tuple.Tuple
	numSlots  int
	dirtier   *transaction.TransactionID
	oldData   []byte
	mu        sync.RWMutex
}

// NewEmptyHeapPage creates a fresh, all-empty page for pid under schema td.
func NewEmptyHeapPage(pid page.PageID, td *tuple.TupleDescription) (*HeapPage, error) {
	return NewHeapPage(pid, make([]byte, page.PageSize), td)
}

// NewHeapPage deserializes raw page bytes into a HeapPage under schema td.
func NewHeapPage(pid page.PageID, data []byte, td *tuple.TupleDescription) (*HeapPage, error) {
	if len(data) != page.PageSize {
		return nil, dberrors.New(dberrors.CategoryArgument, "BAD_PAGE_SIZE",
			fmt.Sprintf("expected %d bytes, got %d", page.PageSize, len(data)))
	}

	hp := &HeapPage{
		pageID:    pid,
		tupleDesc: td,
		oldData:   make([]byte, page.PageSize),
	}

	hp.numSlots = numSlotsForSchema(td)
	headerBytes := headerSizeForSlots(hp.numSlots)
	hp.header = make([]byte, headerBytes)
	hp.slots = make([]*tuple.Tuple, hp.numSlots)

	if err := hp.parsePageData(data); err != nil {
		return nil, err
	}

	copy(hp.oldData, data)
	return hp, nil
}

// numSlotsForSchema computes how many fixed-size slots fit on a page given
// one bitmap header bit and one full-width slot per tuple:
// numSlots = floor((PageSize*8) / (tupleSize*8 + 1)).
func numSlotsForSchema(td *tuple.TupleDescription) int {
	tupleSize := td.Size()
	return (page.PageSize * 8) / (tupleSize*8 + 1)
}

// headerSizeForSlots returns the number of header bytes needed to hold one
// occupancy bit per slot.
func headerSizeForSlots(numSlots int) int {
	return (numSlots + 7) / 8
}

func (hp *HeapPage) slotOffset(slot int) int {
	return len(hp.header) + slot*hp.tupleDesc.Size()
}

func (hp *HeapPage) bitSet(slot int) bool {
	byteIdx := slot / 8
	bitIdx := uint(slot % 8)
	return hp.header[byteIdx]&(1<<bitIdx) != 0
}

func (hp *HeapPage) setBit(slot int, occupied bool) {
	byteIdx := slot / 8
	bitIdx := uint(slot % 8)
	if occupied {
		hp.header[byteIdx] |= 1 << bitIdx
	} else {
		hp.header[byteIdx] &^= 1 << bitIdx
	}
}

// GetNumEmptySlots returns how many slots on this page are unoccupied.
func (hp *HeapPage) GetNumEmptySlots() int {
	hp.mu.RLock()
	defer hp.mu.RUnlock()
	return hp.getNumEmptySlots()
}

func (hp *HeapPage) getNumEmptySlots() int {
	empty := 0
	for i := 0; i < hp.numSlots; i++ {
		if !hp.bitSet(i) {
			empty++
		}
	}
	return empty
}

// GetID returns this page's identifier.
func (hp *HeapPage) GetID() page.PageID {
	return hp.pageID
}

// IsDirty returns the transaction that last dirtied this page, or nil.
func (hp *HeapPage) IsDirty() *transaction.TransactionID {
	hp.mu.RLock()
	defer hp.mu.RUnlock()
	return hp.dirtier
}

// MarkDirty records tid as the dirtying transaction, or clears it.
func (hp *HeapPage) MarkDirty(dirty bool, tid *transaction.TransactionID) {
	hp.mu.Lock()
	defer hp.mu.Unlock()
	if dirty {
		hp.dirtier = tid
	} else {
		hp.dirtier = nil
	}
}

// GetPageData serializes the page's header and slots into PageSize bytes.
func (hp *HeapPage) GetPageData() []byte {
	hp.mu.RLock()
	defer hp.mu.RUnlock()

	data := make([]byte, page.PageSize)
	copy(data, hp.header)

	for i := 0; i < hp.numSlots; i++ {
		if !hp.bitSet(i) || hp.slots[i] == nil {
			continue
		}
		offset := hp.slotOffset(i)
		buf := bytes.NewBuffer(data[offset:offset])
		for j := 0; j < hp.tupleDesc.NumFields(); j++ {
			field, err := hp.slots[i].GetField(j)
			if err != nil || field == nil {
				continue
			}
			_ = field.Serialize(buf)
		}
	}

	return data
}

// GetBeforeImage returns a page reflecting this page's state before the
// current dirtying transaction's writes.
func (hp *HeapPage) GetBeforeImage() page.Page {
	hp.mu.RLock()
	defer hp.mu.RUnlock()
	before, _ := NewHeapPage(hp.pageID, hp.oldData, hp.tupleDesc)
	return before
}

// SetBeforeImage snapshots the page's current contents as its before-image.
func (hp *HeapPage) SetBeforeImage() {
	hp.oldData = hp.GetPageData()
}

// GetTupleDesc returns this page's schema.
func (hp *HeapPage) GetTupleDesc() *tuple.TupleDescription {
	hp.mu.RLock()
	defer hp.mu.RUnlock()
	return hp.tupleDesc
}

// AddTuple places t into the first empty slot on this page and assigns
// its RecordID. Fails if the tuple's schema doesn't match or the page is
// full.
func (hp *HeapPage) AddTuple(t *tuple.Tuple) error {
	hp.mu.Lock()
	defer hp.mu.Unlock()

	if !t.TupleDesc.Equals(hp.tupleDesc) {
		return dberrors.New(dberrors.CategoryLogic, "SCHEMA_MISMATCH", "tuple schema does not match page schema")
	}

	slot := -1
	for i := 0; i < hp.numSlots; i++ {
		if !hp.bitSet(i) {
			slot = i
			break
		}
	}
	if slot == -1 {
		return dberrors.New(dberrors.CategoryLogic, "PAGE_FULL", "no empty slot available")
	}

	hp.setBit(slot, true)
	hp.slots[slot] = t
	t.RecordID = tuple.NewRecordID(hp.pageID, primitives.SlotID(slot))
	return nil
}

// DeleteTuple removes t from this page, identified by its RecordID.
func (hp *HeapPage) DeleteTuple(t *tuple.Tuple) error {
	hp.mu.Lock()
	defer hp.mu.Unlock()

	rid := t.RecordID
	if rid == nil {
		return dberrors.New(dberrors.CategoryLogic, "NO_RECORD_ID", "tuple has no record id")
	}
	if !rid.PageID.Equals(hp.pageID) {
		return dberrors.New(dberrors.CategoryLogic, "WRONG_PAGE", "tuple is not on this page")
	}

	slot := int(rid.SlotID)
	if slot < 0 || slot >= hp.numSlots || !hp.bitSet(slot) {
		return dberrors.New(dberrors.CategoryLogic, "SLOT_EMPTY", "tuple slot is already empty")
	}

	hp.setBit(slot, false)
	hp.slots[slot] = nil
	t.RecordID = nil
	return nil
}

// GetTuples returns every occupied tuple on this page, in slot order.
func (hp *HeapPage) GetTuples() []*tuple.Tuple {
	hp.mu.RLock()
	defer hp.mu.RUnlock()

	out := make([]*tuple.Tuple, 0, hp.numSlots-hp.getNumEmptySlots())
	for _, t := range hp.slots {
		if t != nil {
			out = append(out, t)
		}
	}
	return out
}

func (hp *HeapPage) parsePageData(data []byte) error {
	copy(hp.header, data[:len(hp.header)])

	for i := 0; i < hp.numSlots; i++ {
		if !hp.bitSet(i) {
			continue
		}

		offset := hp.slotOffset(i)
		end := offset + hp.tupleDesc.Size()
		if end > len(data) {
			return dberrors.New(dberrors.CategoryIO, "TRUNCATED_PAGE", fmt.Sprintf("slot %d exceeds page bounds", i))
		}

		reader := bytes.NewReader(data[offset:end])
		t := tuple.NewTuple(hp.tupleDesc)
		for j := 0; j < hp.tupleDesc.NumFields(); j++ {
			fieldType, err := hp.tupleDesc.TypeAt(j)
			if err != nil {
				return err
			}
			width, err := hp.tupleDesc.WidthAt(j)
			if err != nil {
				return err
			}
			field, err := types.ParseField(reader, fieldType, width)
			if err != nil {
				return dberrors.Wrap(err, "PARSE_FIELD_FAILED", "parsePageData", "heap.HeapPage")
			}
			if err := t.SetField(j, field); err != nil {
				return err
			}
		}

		t.RecordID = tuple.NewRecordID(hp.pageID, primitives.SlotID(i))
		hp.slots[i] = t
	}

	return nil
}
