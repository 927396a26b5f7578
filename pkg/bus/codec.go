// Codec defines the wire payload shapes and their msgpack encoding.
// Wire payloads are self-describing maps keyed by field name (spec.md
// §6 "binary payloads encoded as a self-describing map-based binary
// format"), mirroring the original system's rmp_serde::to_vec_named
// use. Grounded on vmihailenco/msgpack/v5, the map-keyed msgpack
// library seen across the retrieval pack's manifests.
package bus

import (
	"bytes"

	"github.com/vmihailenco/msgpack/v5"
)

// ScanSample is one (angle, distance) pair from the "scans" topic.
type ScanSample struct {
	Angle    float32 `msgpack:"angle"`
	Distance float32 `msgpack:"distance"`
}

// Keypoint is one skeletal keypoint from a body-frame message.
type Keypoint struct {
	I   int        `msgpack:"i"`
	Xyz [3]float32 `msgpack:"xyz"`
}

// Body is one tracked body from the "bodyFrames" topic.
type Body struct {
	BodyXyz [3]float32 `msgpack:"bodyXyz"`
	Kp      []Keypoint `msgpack:"kp"`
}

// AutoMaskRequest is the payload of "requestAutoMask".
type AutoMaskRequest struct {
	Type string `msgpack:"type"` // "new" | "clear"
}

// ClusterOut is one emitted entry on the "clusters" topic.
type ClusterOut struct {
	ID   int     `msgpack:"id"`
	X    float32 `msgpack:"x"`
	Y    float32 `msgpack:"y"`
	Size float32 `msgpack:"size"`
}

// TrackedPointOut is one emitted entry on the "trackedPoints" topic.
type TrackedPointOut struct {
	ID int     `msgpack:"id"`
	X  float32 `msgpack:"x"`
	Y  float32 `msgpack:"y"`
}

// SmoothedPointOut is one emitted entry on the "smoothedTrackedPoints"
// topic.
type SmoothedPointOut struct {
	ID       int64      `msgpack:"id"`
	X        float32    `msgpack:"x"`
	Y        float32    `msgpack:"y"`
	Velocity *[2]float32 `msgpack:"velocity,omitempty"`
	Heading  *float32   `msgpack:"heading,omitempty"`
}

// MovementOut is the payload of the "movement" topic: [vx, vy].
type MovementOut [2]float32

// Marshal encodes v as a map-keyed msgpack payload. Fields without a
// msgpack tag are keyed by their json tag, so config.Config carries the
// same lowerCamelCase keys on the wire as on disk.
func Marshal(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := msgpack.NewEncoder(&buf)
	enc.SetCustomStructTag("json")
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Unmarshal decodes a map-keyed msgpack payload into v, with the same
// json-tag fallback for field keys as Marshal.
func Unmarshal(data []byte, v any) error {
	dec := msgpack.NewDecoder(bytes.NewReader(data))
	dec.SetCustomStructTag("json")
	return dec.Decode(v)
}
