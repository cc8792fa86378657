package control

import (
	"context"
	"testing"

	"pgregory.net/rapid"

	"chainkv/internal/rpcapi"
)

// TestPropertyRestoreHeadThreshold checks P6/P7: RestoreHead succeeds and
// reconciles exactly when the detached head's deviation from the current
// front is within restoreDeviationThreshold, and permanently discards it
// otherwise.
func TestPropertyRestoreHeadThreshold(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		plane, dialer := newPlaneWithProcesses(t, 3)
		ctx := context.Background()
		if _, err := plane.CreateChain(ctx, &rpcapi.Empty{}); err != nil {
			rt.Fatalf("create chain: %v", err)
		}
		before, err := plane.GetHead(ctx, &rpcapi.Empty{})
		if err != nil {
			rt.Fatalf("get head: %v", err)
		}
		if _, err := plane.RemoveHead(ctx, &rpcapi.Empty{}); err != nil {
			rt.Fatalf("remove head: %v", err)
		}
		afterRemove, err := plane.GetHead(ctx, &rpcapi.Empty{})
		if err != nil {
			rt.Fatalf("get head: %v", err)
		}
		newHeadProcess := dialer.byAddress[afterRemove.Address]

		numWrites := rapid.IntRange(0, restoreDeviationThreshold+3).Draw(rt, "numWrites").(int)
		for i := 0; i < numWrites; i++ {
			if _, err := newHeadProcess.Write(ctx, &rpcapi.WriteRequest{Key: "k", Value: float64(i)}); err != nil {
				rt.Fatalf("write %d: %v", i, err)
			}
		}

		if _, err := plane.RestoreHead(ctx, &rpcapi.Empty{}); err != nil {
			rt.Fatalf("restore head: %v", err)
		}
		after, err := plane.GetHead(ctx, &rpcapi.Empty{})
		if err != nil {
			rt.Fatalf("get head after restore: %v", err)
		}

		withinBound := numWrites <= restoreDeviationThreshold
		if withinBound && after.Name != before.Name {
			rt.Fatalf("numWrites=%d within bound but head is %s, want the original head restored", numWrites, after.Name)
		}
		if !withinBound && after.Name == before.Name {
			rt.Fatalf("numWrites=%d exceeds bound but head was restored to the detached process", numWrites)
		}

		plane.mu.Lock()
		detached := len(plane.detachedHeads)
		plane.mu.Unlock()
		if withinBound && detached != 0 {
			rt.Fatalf("expected detachedHeads empty after a successful restore, got %d", detached)
		}
		if !withinBound && detached != 0 {
			rt.Fatalf("expected detachedHeads empty after a permanent discard, got %d", detached)
		}
	})
}
