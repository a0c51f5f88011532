package test

import (
	"sync"
	"time"

	"github.com/lawnchairsociety/wavetiles/internal/testclient"
)

const (
	messageTimeout = 2 * time.Second
	runTimeout     = 30 * time.Second
)

// connect opens a client and consumes the greeting snapshot.
func connect(testName, serverAddr string) (*testclient.TestClient, testclient.Message, error) {
	name := uniqueName("viewer")
	logAction(testName, "Connecting as "+name)
	client, err := testclient.NewTestClient(name, serverAddr)
	if err != nil {
		return nil, testclient.Message{}, err
	}
	greeting, err := client.WaitForType("snapshot", messageTimeout)
	if err != nil {
		client.Close()
		return nil, testclient.Message{}, err
	}
	return client, greeting, nil
}

// TestBasicConnection checks that a new session starts with a fresh grid.
func TestBasicConnection(serverAddr string) TestResult {
	const testName = "Basic Connection"

	client, greeting, err := connect(testName, serverAddr)
	if err != nil {
		return fail(testName, "Failed to connect: %v", err)
	}
	defer client.Close()

	s := greeting.Snapshot
	ok := s.Steps == 0 && s.Collapsed == 0 && len(s.Cells) == s.Columns*s.Rows
	logResult(testName, ok, "Greeting snapshot received")
	if !ok {
		return fail(testName, "Unexpected greeting: steps=%d collapsed=%d cells=%d", s.Steps, s.Collapsed, len(s.Cells))
	}
	return pass(testName, "Fresh %dx%d grid", s.Columns, s.Rows)
}

// TestSingleStep checks that one step collapses exactly one cell.
func TestSingleStep(serverAddr string) TestResult {
	const testName = "Single Step"

	client, _, err := connect(testName, serverAddr)
	if err != nil {
		return fail(testName, "Failed to connect: %v", err)
	}
	defer client.Close()

	logAction(testName, "Sending step")
	client.SendCommand("step")
	msg, err := client.WaitForType("snapshot", messageTimeout)
	if err != nil {
		return fail(testName, "No snapshot after step: %v", err)
	}
	if msg.Snapshot.Steps != 1 || msg.Snapshot.Collapsed != 1 {
		return fail(testName, "steps=%d collapsed=%d, want 1 and 1", msg.Snapshot.Steps, msg.Snapshot.Collapsed)
	}
	return pass(testName, "One cell collapsed")
}

// TestRunUntilStopped checks that a run ends with a terminal outcome and
// that a complete run collapsed every cell.
func TestRunUntilStopped(serverAddr string) TestResult {
	const testName = "Run Until Stopped"

	client, greeting, err := connect(testName, serverAddr)
	if err != nil {
		return fail(testName, "Failed to connect: %v", err)
	}
	defer client.Close()

	logAction(testName, "Sending run")
	client.SendCommand("run")
	stopped, err := client.WaitForType("stopped", runTimeout)
	if err != nil {
		return fail(testName, "Run did not stop: %v", err)
	}
	logResult(testName, true, "Stopped with "+stopped.Outcome)

	cells := greeting.Snapshot.Columns * greeting.Snapshot.Rows
	switch stopped.Outcome {
	case "complete":
		if stopped.Steps != cells {
			return fail(testName, "Complete after %d steps, want %d", stopped.Steps, cells)
		}
	case "contradiction":
		if stopped.Steps >= cells {
			return fail(testName, "Contradiction after %d steps on %d cells", stopped.Steps, cells)
		}
	default:
		return fail(testName, "Unexpected outcome %q", stopped.Outcome)
	}
	return pass(testName, "%s after %d steps (seed %d)", stopped.Outcome, stopped.Steps, stopped.Seed)
}

// TestResetAfterRun checks that reset reopens every cell.
func TestResetAfterRun(serverAddr string) TestResult {
	const testName = "Reset After Run"

	client, _, err := connect(testName, serverAddr)
	if err != nil {
		return fail(testName, "Failed to connect: %v", err)
	}
	defer client.Close()

	client.SendCommand("run")
	if _, err := client.WaitForType("stopped", runTimeout); err != nil {
		return fail(testName, "Run did not stop: %v", err)
	}

	logAction(testName, "Sending reset")
	client.SendCommand("reset")
	msg, err := client.WaitForType("snapshot", messageTimeout)
	if err != nil {
		return fail(testName, "No snapshot after reset: %v", err)
	}
	if msg.Snapshot.Steps != 0 || msg.Snapshot.Collapsed != 0 || msg.Snapshot.State != "running" {
		return fail(testName, "Grid not reset: steps=%d collapsed=%d state=%s",
			msg.Snapshot.Steps, msg.Snapshot.Collapsed, msg.Snapshot.State)
	}
	return pass(testName, "Grid reopened")
}

// TestPauseHoldsGrid checks that no steps happen while paused.
func TestPauseHoldsGrid(serverAddr string) TestResult {
	const testName = "Pause Holds Grid"

	client, _, err := connect(testName, serverAddr)
	if err != nil {
		return fail(testName, "Failed to connect: %v", err)
	}
	defer client.Close()

	client.SendCommand("run\npause")
	time.Sleep(100 * time.Millisecond)
	client.ClearMessages()

	client.SendCommand("snapshot")
	first, err := client.WaitForType("snapshot", messageTimeout)
	if err != nil {
		return fail(testName, "No snapshot: %v", err)
	}
	time.Sleep(100 * time.Millisecond)
	client.SendCommand("snapshot")
	second, err := client.WaitForType("snapshot", messageTimeout)
	if err != nil {
		return fail(testName, "No snapshot: %v", err)
	}

	if first.Snapshot.Steps != second.Snapshot.Steps {
		return fail(testName, "Engine stepped while paused: %d -> %d", first.Snapshot.Steps, second.Snapshot.Steps)
	}
	return pass(testName, "Held at step %d", first.Snapshot.Steps)
}

// TestUnknownCommand checks that a bad command is reported, not fatal.
func TestUnknownCommand(serverAddr string) TestResult {
	const testName = "Unknown Command"

	client, _, err := connect(testName, serverAddr)
	if err != nil {
		return fail(testName, "Failed to connect: %v", err)
	}
	defer client.Close()

	client.SendCommand("collapse-everything")
	msg, err := client.WaitForType("error", messageTimeout)
	if err != nil {
		return fail(testName, "No error message: %v", err)
	}

	client.SendCommand("snapshot")
	if _, err := client.WaitForType("snapshot", messageTimeout); err != nil {
		return fail(testName, "Session died after bad command: %v", err)
	}
	return pass(testName, "Reported %q", msg.Error)
}

// TestConcurrentSessions runs several sessions at once; each owns its grid.
func TestConcurrentSessions(serverAddr string) TestResult {
	const testName = "Concurrent Sessions"
	const sessions = 3

	var wg sync.WaitGroup
	errs := make(chan error, sessions)
	outcomes := make(chan string, sessions)

	for i := 0; i < sessions; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			client, _, err := connect(testName, serverAddr)
			if err != nil {
				errs <- err
				return
			}
			defer client.Close()

			client.SendCommand("run")
			stopped, err := client.WaitForType("stopped", runTimeout)
			if err != nil {
				errs <- err
				return
			}
			outcomes <- stopped.Outcome
		}()
	}
	wg.Wait()
	close(errs)
	close(outcomes)

	for err := range errs {
		return fail(testName, "Session failed: %v", err)
	}
	n := 0
	for range outcomes {
		n++
	}
	return pass(testName, "%d sessions stopped independently", n)
}
