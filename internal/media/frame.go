package media

// Frame is one decoded raster frame in packed RGB24 layout,
// len(Pix) == Width*Height*3.
type Frame struct {
	Width  int
	Height int
	Pix    []byte
}

func NewFrame(width, height int) *Frame {
	return &Frame{
		Width:  width,
		Height: height,
		Pix:    make([]byte, width*height*3),
	}
}

// Clone returns a deep copy, so the original can be reused as a read buffer.
func (f *Frame) Clone() *Frame {
	c := NewFrame(f.Width, f.Height)
	copy(c.Pix, f.Pix)
	return c
}
