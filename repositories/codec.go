package repositories

import "github.com/fxamacker/cbor/v2"

// enc is the encode mode for every stored value. The default mode
// writes time.Time as whole Unix seconds, which would truncate the
// sub-second part of message timestamps; RFC3339Nano keeps the full
// nanosecond precision and decodes back to UTC.
var enc cbor.EncMode

func init() {
	var err error
	enc, err = cbor.EncOptions{Time: cbor.TimeRFC3339Nano}.EncMode()
	if err != nil {
		panic(err)
	}
}
