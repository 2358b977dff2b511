package journal

import "testing"

func TestPushThenPopCancels(t *testing.T) {
	j := New()
	j.Push("hello")
	if !j.PendingPush("hello") {
		t.Fatalf("PendingPush(hello) = false after Push")
	}
	j.Pop("hello")
	if j.PendingPush("hello") {
		t.Fatalf("PendingPush(hello) = true after Pop cancelled it")
	}
	if !j.PendingPop("hello") {
		t.Fatalf("PendingPop(hello) = false after Pop")
	}
}

func TestPopThenPushCancels(t *testing.T) {
	j := New()
	j.Pop("world")
	j.Push("world")
	if j.PendingPop("world") {
		t.Fatalf("PendingPop(world) = true after Push cancelled it")
	}
	if !j.PendingPush("world") {
		t.Fatalf("PendingPush(world) = false after Push")
	}
}

func TestLenCounts(t *testing.T) {
	j := New()
	j.Push("a")
	j.Push("b")
	j.Pop("c")
	pushes, pops := j.Len()
	if pushes != 2 || pops != 1 {
		t.Fatalf("Len() = (%d, %d), want (2, 1)", pushes, pops)
	}
}

func TestSnapshotIsSorted(t *testing.T) {
	j := New()
	j.Push("zebra")
	j.Push("apple")
	j.Push("mango")
	j.Pop("yak")
	j.Pop("ant")

	pushes, pops := j.Snapshot()
	wantPush := []string{"apple", "mango", "zebra"}
	wantPop := []string{"ant", "yak"}
	if !equal(pushes, wantPush) {
		t.Fatalf("Snapshot pushes = %v, want %v", pushes, wantPush)
	}
	if !equal(pops, wantPop) {
		t.Fatalf("Snapshot pops = %v, want %v", pops, wantPop)
	}
}

func TestClearRemovesOnlySnapshotted(t *testing.T) {
	j := New()
	j.Push("a")
	j.Push("b")
	pushes, pops := j.Snapshot()

	j.Push("c") // arrives after the snapshot was taken, during consolidation

	j.Clear(pushes, pops)

	if j.PendingPush("a") || j.PendingPush("b") {
		t.Fatalf("Clear left snapshotted terms pending")
	}
	if !j.PendingPush("c") {
		t.Fatalf("Clear dropped a term pushed after the snapshot was taken")
	}
}

func equal(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
