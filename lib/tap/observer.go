package tap

// Observer receives tapped camera frames. Callbacks are invoked on the
// thread that calls Dispatch, one at a time; everything handed to a callback
// is valid only until the callback returns unless documented otherwise.
//
// A panicking observer is contained: the panic is recovered, logged and
// counted, and never reaches the render loop.
type Observer interface {
	OnTextureFrame(*TextureDescriptor)
	OnCPUImageFrame(*CPUImageFrame)
}
