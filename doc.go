/*
Package sink implements a logical output device: it aggregates any number
of per-stream inputs, mixes their audio into one output signal under
per-input and per-device volume/mute, drives a paired monitor tap, and
coordinates all of it across a control thread and a real-time render
thread.

Threads

Two logical threads touch a Sink. The control thread constructs it,
changes its state, and adjusts volume/mute. The render thread pulls mixed
audio for a driver and owns everything reachable only from render()'s call
tree. The two sides communicate exclusively through the mailbox (see
mailbox.go); nothing is concurrently written from both sides.

Buffers

Audio moves through the engine as *membuf.Block, a reference-counted,
copy-on-write handle around a pipelined.dev/signal buffer. Blocks are
shared until a writer calls MakeWritable, which clones only if the block
is still referenced elsewhere.

Driver boundary

A Sink exposes its render loop as a pipelined.dev/pipe SourceAllocatorFunc
(DriverSource), so a driver pulls from it the same way any pipe consumer
pulls from a Source. The paired monitor is a second SourceAllocatorFunc
(TapSource), fed by a direct post rather than a pull, since the monitor
always observes exactly what the driver just consumed.
*/
package sink
