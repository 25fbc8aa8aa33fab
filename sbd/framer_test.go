package sbd

import "testing"

func TestFramerFeed_SplitsLines(t *testing.T) {
	var f framer

	frames := f.feed([]byte("AT+CSQ\r\n+CSQ:3\r\nOK\r\n"))
	if len(frames) != 3 {
		t.Fatalf("expected 3 lines, got %d: %+v", len(frames), frames)
	}
	if frames[0].line != "AT+CSQ\r" {
		t.Errorf("unexpected first line: %q", frames[0].line)
	}
	if frames[2].line != "OK\r" {
		t.Errorf("unexpected last line: %q", frames[2].line)
	}
}

func TestFramerFeed_PartialLineBuffered(t *testing.T) {
	var f framer

	frames := f.feed([]byte("partial"))
	if len(frames) != 0 {
		t.Fatalf("expected no complete lines yet, got %d", len(frames))
	}

	frames = f.feed([]byte(" line\r\n"))
	if len(frames) != 1 || frames[0].line != "partial line\r" {
		t.Fatalf("unexpected frames after completing the line: %+v", frames)
	}
}

func TestFramerBinaryMode_AccumulatesAndFlushes(t *testing.T) {
	var f framer

	f.enterBinaryMode(4)
	if !f.inBinaryMode() {
		t.Fatal("expected framer to be in binary mode")
	}

	if frames := f.feed([]byte{0x00, 0x02}); frames != nil {
		t.Fatalf("binary mode feed should return no frames, got %+v", frames)
	}
	f.feed([]byte{0xDE, 0xAD})

	frame := f.flushBinary()
	if !frame.isBinary {
		t.Fatal("expected a binary frame")
	}
	if string(frame.binary) != string([]byte{0x00, 0x02, 0xDE, 0xAD}) {
		t.Errorf("unexpected flushed blob: % x", frame.binary)
	}
	if f.inBinaryMode() {
		t.Error("expected framer to return to text mode after flush")
	}
}

func TestFramerBinaryMode_CapacityRaisedToMinimum(t *testing.T) {
	var f framer
	f.enterBinaryMode(16)
	if len(f.binaryBuf) != minBinaryBufCap {
		t.Errorf("expected capacity raised to %d, got %d", minBinaryBufCap, len(f.binaryBuf))
	}
}

func TestFramerBinaryMode_OverflowTruncatesWithoutPanic(t *testing.T) {
	var f framer
	f.enterBinaryMode(minBinaryBufCap)

	oversized := make([]byte, minBinaryBufCap+10)
	f.feed(oversized)

	frame := f.flushBinary()
	if len(frame.binary) != minBinaryBufCap {
		t.Errorf("expected truncation to capacity %d, got %d", minBinaryBufCap, len(frame.binary))
	}
}
