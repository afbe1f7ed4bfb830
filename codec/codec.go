// Package codec turns a message.Response into the reply frame sent to clients and back.
package codec

import "linkfinder/message"

type Codec interface {
	Encode(resp *message.Response) ([]byte, error)
	Decode(data []byte, resp *message.Response) error
	Name() string
}

// Default is the codec the linkfinder service speaks.
var Default Codec = &JSONCodec{}
