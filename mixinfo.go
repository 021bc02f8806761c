package sink

import "github.com/loopback-audio/sinkengine/internal/membuf"

// MixInfo is the per-contributor, per-render-pass scratch record built by
// fillMixInfo: a borrowed chunk, that input's volume snapshot at peek
// time, and a back-reference to the input itself so inputsDrop can
// advance it after mixing.
type MixInfo struct {
	Input  Input
	Chunk  *membuf.Block
	Volume CVolume
}
