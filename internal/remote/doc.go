// Package remote talks to a running physics simulator.
//
// The package defines the [Sim] interface the rest of jointctl depends on
// and a [Client] implementing it over the CoppeliaSim ZeroMQ remote API:
//
//   - requests and replies are CBOR maps
//   - transport is a single ZMQ REQ socket (default tcp://localhost:23000)
//
// # Example
//
//	c, err := remote.Dial(ctx, "tcp://localhost:23000")
//	if err != nil {
//		return err
//	}
//	defer c.Close()
//	h, err := c.GetObject(ctx, "/base_respondable/joint1")
//
// # Thread Safety
//
// A Client may be shared by any number of goroutines. Calls are serialized on
// the socket because REQ sockets require strict send/receive alternation.
package remote
