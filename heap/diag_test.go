package heap

import "testing"

func TestStepLogRecordAndSnapshotOrder(t *testing.T) {
	log := NewStepLog(3)
	log.record(Step{Object: 1})
	log.record(Step{Object: 2})

	got := log.Snapshot()
	if len(got) != 2 {
		t.Fatalf("len(Snapshot()) = %d, want 2", len(got))
	}
	if got[0].Object != 1 || got[1].Object != 2 {
		t.Errorf("Snapshot() = %+v, want objects [1 2]", got)
	}
}

func TestStepLogWraparound(t *testing.T) {
	log := NewStepLog(3)
	for i := Address(1); i <= 5; i++ {
		log.record(Step{Object: i})
	}
	got := log.Snapshot()
	want := []Address{3, 4, 5}
	if len(got) != len(want) {
		t.Fatalf("len(Snapshot()) = %d, want %d: %+v", len(got), len(want), got)
	}
	for i := range want {
		if got[i].Object != want[i] {
			t.Errorf("Snapshot()[%d].Object = %s, want %s", i, got[i].Object, want[i])
		}
	}
}

func TestStepLogNilIsNoOp(t *testing.T) {
	var log *StepLog
	log.record(Step{Object: 1})
	if got := log.Snapshot(); got != nil {
		t.Errorf("Snapshot() on nil log = %v, want nil", got)
	}
}

func TestStepLogZeroSizeRecordsNothing(t *testing.T) {
	log := NewStepLog(0)
	log.record(Step{Object: 1})
	if got := log.Snapshot(); len(got) != 0 {
		t.Errorf("Snapshot() = %v, want empty", got)
	}
}

func TestStepLogRecordCorruptionMarksSentinel(t *testing.T) {
	log := NewStepLog(4)
	log.recordCorruption(CorruptionOvershoot, 0x1234)

	got := log.Snapshot()
	if len(got) != 1 {
		t.Fatalf("len(Snapshot()) = %d, want 1", len(got))
	}
	if got[0].BaseSize != stepSentinelBaseSize {
		t.Errorf("BaseSize = %d, want sentinel %d", got[0].BaseSize, stepSentinelBaseSize)
	}
	if got[0].Object != 0x1234 {
		t.Errorf("Object = %s, want 0x1234", got[0].Object)
	}
}
