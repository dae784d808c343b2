package history

import "github.com/fxamacker/cbor/v2"

// encMode uses Core Deterministic Encoding so identical lists always
// produce identical blobs.
var encMode cbor.EncMode

func init() {
	var err error
	encMode, err = cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic("history: CBOR encoder initialization failed: " + err.Error())
	}
}

func encodeFrequencies(mhz []int) ([]byte, error) {
	if mhz == nil {
		return nil, nil
	}
	return encMode.Marshal(mhz)
}

func decodeFrequencies(blob []byte) ([]int, error) {
	if len(blob) == 0 {
		return nil, nil
	}
	var mhz []int
	if err := cbor.Unmarshal(blob, &mhz); err != nil {
		return nil, err
	}
	return mhz, nil
}
