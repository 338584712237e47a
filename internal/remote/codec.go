package remote

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"
)

const (
	protocolVersion = 2
	clientLang      = "go"

	waitFunc     = "_*wait*_"
	executedFunc = "_*executed*_"
)

type request struct {
	Func string `cbor:"func"`
	Args []any  `cbor:"args"`
	UUID string `cbor:"uuid,omitempty"`
	Ver  int    `cbor:"ver,omitempty"`
	Lang string `cbor:"lang,omitempty"`
}

// reply covers both protocol generations: v2 reports failures in "err",
// v1 sets "success" to false and puts the message in "error".
type reply struct {
	Func    string `cbor:"func,omitempty"`
	Ret     []any  `cbor:"ret"`
	Err     any    `cbor:"err"`
	Success *bool  `cbor:"success"`
	Error   string `cbor:"error"`
}

func encodeRequest(req request) ([]byte, error) {
	if req.Args == nil {
		req.Args = []any{}
	}
	return cbor.Marshal(req)
}

func decodeReply(data []byte) (reply, error) {
	var rep reply
	if err := cbor.Unmarshal(data, &rep); err != nil {
		return reply{}, fmt.Errorf("%w: %v", ErrProtocol, err)
	}
	return rep, nil
}

// failure returns the simulator-side error message carried by rep, if any.
func (r reply) failure() (string, bool) {
	if r.Err != nil {
		return fmt.Sprint(r.Err), true
	}
	if r.Success != nil && !*r.Success {
		if r.Error == "" {
			return "call failed", true
		}
		return r.Error, true
	}
	return "", false
}

func toHandle(v any) (Handle, error) {
	switch n := v.(type) {
	case int64:
		return Handle(n), nil
	case uint64:
		return Handle(n), nil
	case int:
		return Handle(n), nil
	case float64:
		return Handle(n), nil
	default:
		return 0, fmt.Errorf("%w: handle of type %T", ErrProtocol, v)
	}
}
