package codec

import (
	"encoding/json"
	"errors"
	"fmt"

	"linkfinder/message"
)

// ErrRemote is returned by Decode when the frame is the service's error sentinel.
var ErrRemote = errors.New("linkfinder: remote reported " + message.ErrorReply)

// JSONCodec encodes successful responses as {"links":[...]}.
// A failed response is encoded as the bare ErrorReply sentinel, not as JSON.
type JSONCodec struct{}

func (c *JSONCodec) Encode(resp *message.Response) ([]byte, error) {
	if resp == nil {
		return nil, errors.New("JSONCodec: nil response")
	}
	if resp.Error != "" {
		return []byte(message.ErrorReply), nil
	}
	out := struct {
		Links []string `json:"links"`
	}{Links: resp.Links}
	// An empty result is still a list, never null
	if out.Links == nil {
		out.Links = []string{}
	}
	return json.Marshal(out)
}

func (c *JSONCodec) Decode(data []byte, resp *message.Response) error {
	if string(data) == message.ErrorReply {
		resp.Error = message.ErrorReply
		return ErrRemote
	}
	if err := json.Unmarshal(data, resp); err != nil {
		return fmt.Errorf("JSONCodec: decode reply: %w", err)
	}
	return nil
}

func (c *JSONCodec) Name() string {
	return "json"
}
