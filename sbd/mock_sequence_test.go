package sbd_test

import (
	"fmt"

	"go.uber.org/mock/gomock"

	"github.com/tidalcomms/sbd/sbd"
)

// MockSequenceBuilder assembles an ordered list of Write/Read expectations
// on a MockTransport, one pair per AT command dialog, so a test can express
// a full session as a readable chain of steps.
type MockSequenceBuilder struct {
	transport *sbd.MockTransport
	calls     []any
}

func NewMockSequence(transport *sbd.MockTransport) *MockSequenceBuilder {
	return &MockSequenceBuilder{transport: transport}
}

func (b *MockSequenceBuilder) exchange(wire, response string) *MockSequenceBuilder {
	b.calls = append(b.calls,
		b.transport.EXPECT().Write([]byte(wire)).Return(len(wire), nil),
		b.transport.EXPECT().Read(gomock.Any()).DoAndReturn(func(p []byte) (int, error) {
			return copy(p, response), nil
		}),
	)
	return b
}

func (b *MockSequenceBuilder) EchoOff() *MockSequenceBuilder {
	return b.exchange("ATE0\r", "ATE0\r\nOK\r\n")
}

func (b *MockSequenceBuilder) ClearBuffers() *MockSequenceBuilder {
	return b.exchange("AT+SBDD2\r", "OK\r\n")
}

func (b *MockSequenceBuilder) AutoRegister() *MockSequenceBuilder {
	return b.exchange("AT+SBDAREG=1\r", "OK\r\n")
}

func (b *MockSequenceBuilder) RingAlertOn() *MockSequenceBuilder {
	return b.exchange("AT+SBDMTA=1\r", "OK\r\n")
}

// Init chains the full four-step initialization sequence.
func (b *MockSequenceBuilder) Init() *MockSequenceBuilder {
	return b.EchoOff().ClearBuffers().AutoRegister().RingAlertOn()
}

func (b *MockSequenceBuilder) WriteText(text string) *MockSequenceBuilder {
	command := "AT+SBDD0"
	if text != "" {
		command = "AT+SBDWT=" + text
	}
	return b.exchange(command+"\r", "OK\r\n")
}

func (b *MockSequenceBuilder) WaitForNetwork() *MockSequenceBuilder {
	return b.exchange("AT+CIER=1,1,0\r", "+CIEV:0,3\r\n")
}

func (b *MockSequenceBuilder) DisableSignalMonitoring() *MockSequenceBuilder {
	return b.exchange("AT+CIER=0,0,0\r", "OK\r\n")
}

func (b *MockSequenceBuilder) InitiateSession(status string) *MockSequenceBuilder {
	return b.exchange("AT+SBDIXA\r", status+"\r\nOK\r\n")
}

// WriteBinary chains the AT+SBDWB dialog: the length-prefixed command, the
// READY prompt, and the raw payload+checksum frame.
func (b *MockSequenceBuilder) WriteBinary(payload []byte, checksumHi, checksumLo byte) *MockSequenceBuilder {
	command := fmt.Sprintf("AT+SBDWB=%d\r", len(payload))
	b.calls = append(b.calls,
		b.transport.EXPECT().Write([]byte(command)).Return(len(command), nil),
		b.transport.EXPECT().Read(gomock.Any()).DoAndReturn(func(p []byte) (int, error) {
			return copy(p, "READY\r\n"), nil
		}),
	)
	frame := append(append([]byte{}, payload...), checksumHi, checksumLo)
	b.calls = append(b.calls,
		b.transport.EXPECT().Write(frame).Return(len(frame), nil),
		b.transport.EXPECT().Read(gomock.Any()).DoAndReturn(func(p []byte) (int, error) {
			return copy(p, "OK\r\n"), nil
		}),
	)
	return b
}

// Session chains waitForNetwork -> disableSignalMonitoring -> initiateSession,
// the portion common to every send after the write step.
func (b *MockSequenceBuilder) Session(status string) *MockSequenceBuilder {
	return b.WaitForNetwork().DisableSignalMonitoring().InitiateSession(status)
}

func (b *MockSequenceBuilder) ReadBinaryMT(blob []byte) *MockSequenceBuilder {
	b.calls = append(b.calls,
		b.transport.EXPECT().Write([]byte("AT+SBDRB\r")).Return(9, nil),
		b.transport.EXPECT().Read(gomock.Any()).DoAndReturn(func(p []byte) (int, error) {
			return copy(p, blob), nil
		}),
	)
	return b
}

func (b *MockSequenceBuilder) Build() []any {
	return b.calls
}
