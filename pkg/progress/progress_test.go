package progress

import "testing"

func TestConsoleProgressAbort(t *testing.T) {
	p := NewConsoleProgress()
	if p.Aborted() {
		t.Fatal("Aborted() = true before RequestAbort()")
	}
	p.RequestAbort()
	if !p.Aborted() {
		t.Fatal("Aborted() = false after RequestAbort()")
	}
}

func TestConsoleProgressSetTaskAndPercentDoNotPanic(t *testing.T) {
	p := NewConsoleProgress()
	p.SetTask("parsing")
	p.SetPercent(42.5)
}
