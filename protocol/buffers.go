package protocol

type InputBuffer interface {
	Data() []byte
	Available() int
	Pop(n int)
}

// OutputBuffer receives finished frames
type OutputBuffer interface {
	Output(data []byte)
}

type SliceInputBuffer struct {
	data []byte
}

func NewSliceInputBuffer(data []byte) *SliceInputBuffer {
	return &SliceInputBuffer{data: data}
}

func (s *SliceInputBuffer) Data() []byte   { return s.data }
func (s *SliceInputBuffer) Available() int { return len(s.data) }

func (s *SliceInputBuffer) Pop(n int) {
	s.data = s.data[min(n, len(s.data)):]
}

// ScratchOutput is a fixed-size OutputBuffer; writes past the end are dropped
type ScratchOutput struct {
	buf [4 * MessageLengthMax]byte
	pos int
}

func NewScratchOutput() *ScratchOutput {
	return &ScratchOutput{}
}

func (s *ScratchOutput) Output(data []byte) {
	s.pos += copy(s.buf[s.pos:], data)
}

func (s *ScratchOutput) CurPosition() int { return s.pos }

// Update patches a byte already written; other positions are ignored
func (s *ScratchOutput) Update(pos int, val byte) {
	if pos >= 0 && pos < s.pos {
		s.buf[pos] = val
	}
}

func (s *ScratchOutput) Result() []byte { return s.buf[:s.pos] }
func (s *ScratchOutput) Reset()         { s.pos = 0 }

// FifoBuffer is the byte ring between the UART and the frame decoder
type FifoBuffer struct {
	buf   []byte
	head  int // oldest byte
	count int
}

func NewFifoBuffer(capacity int) *FifoBuffer {
	return &FifoBuffer{buf: make([]byte, capacity)}
}

// PushByte reports false when the ring is full
func (f *FifoBuffer) PushByte(b byte) bool {
	if f.count == len(f.buf) {
		return false
	}
	f.buf[(f.head+f.count)%len(f.buf)] = b
	f.count++
	return true
}

// Write stores as much of data as fits and returns the count stored
func (f *FifoBuffer) Write(data []byte) int {
	for i, b := range data {
		if !f.PushByte(b) {
			return i
		}
	}
	return len(data)
}

func (f *FifoBuffer) Available() int { return f.count }
func (f *FifoBuffer) IsEmpty() bool  { return f.count == 0 }

// Data returns the buffered bytes as one slice, copying when they wrap
func (f *FifoBuffer) Data() []byte {
	end := f.head + f.count
	if end <= len(f.buf) {
		return f.buf[f.head:end]
	}
	out := make([]byte, 0, f.count)
	out = append(out, f.buf[f.head:]...)
	return append(out, f.buf[:end-len(f.buf)]...)
}

func (f *FifoBuffer) Pop(n int) {
	n = min(n, f.count)
	f.head = (f.head + n) % len(f.buf)
	f.count -= n
}
